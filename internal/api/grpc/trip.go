package grpc

import (
	"context"

	"google.golang.org/protobuf/types/known/structpb"
	"ridehail-backend-core/internal/domain"
	"ridehail-backend-core/internal/logger"
)

func (h *RideHandler) RequestTrip(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	actor, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	fare, err := money(req, "fare_offered", true)
	if err != nil {
		return nil, err
	}
	trip, err := h.tripSvc.RequestTrip(ctx, actor, fare)
	if err != nil {
		return nil, toStatus("RequestTrip", err)
	}
	logger.WithTrip(trip.ID).Info("Trip requested", "clientID", actor.ID, "fareOffered", fixed(fare))
	return toStruct(MapDomainTripToStruct(trip))
}

// AcceptTrip takes an optional fare; without one the client's offer stands.
func (h *RideHandler) AcceptTrip(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	actor, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	tripID, err := requireID(req, "trip_id")
	if err != nil {
		return nil, err
	}
	fare, err := money(req, "fare", false)
	if err != nil {
		return nil, err
	}
	trip, err := h.tripSvc.Accept(ctx, actor, tripID, fare)
	if err != nil {
		return nil, toStatus("AcceptTrip", err)
	}
	return toStruct(MapDomainTripToStruct(trip))
}

func (h *RideHandler) ApplyDriverStatus(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return h.applyStatus(ctx, req, "ApplyDriverStatus", h.tripSvc.ApplyDriverStatus)
}

func (h *RideHandler) ApplyClientStatus(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return h.applyStatus(ctx, req, "ApplyClientStatus", h.tripSvc.ApplyClientStatus)
}

type statusChange func(context.Context, domain.Actor, int64, domain.TripStatus) (*domain.Trip, error)

func (h *RideHandler) applyStatus(ctx context.Context, req *structpb.Struct, method string, apply statusChange) (*structpb.Struct, error) {
	actor, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	tripID, err := requireID(req, "trip_id")
	if err != nil {
		return nil, err
	}
	st, err := requireString(req, "status")
	if err != nil {
		return nil, err
	}
	trip, err := apply(ctx, actor, tripID, domain.TripStatus(st))
	if err != nil {
		return nil, toStatus(method, err)
	}
	return toStruct(MapDomainTripToStruct(trip))
}

func (h *RideHandler) MarkPaid(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	actor, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	tripID, err := requireID(req, "trip_id")
	if err != nil {
		return nil, err
	}
	trip, err := h.tripSvc.MarkPaid(ctx, actor, tripID)
	if err != nil {
		return nil, toStatus("MarkPaid", err)
	}
	return toStruct(MapDomainTripToStruct(trip))
}

func (h *RideHandler) GetTrip(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	actor, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	tripID, err := requireID(req, "trip_id")
	if err != nil {
		return nil, err
	}
	trip, err := h.tripSvc.GetTrip(ctx, actor, tripID)
	if err != nil {
		return nil, toStatus("GetTrip", err)
	}
	return toStruct(MapDomainTripToStruct(trip))
}
