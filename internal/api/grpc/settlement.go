package grpc

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"
	"ridehail-backend-core/internal/domain"
)

// PreviewSettlement computes the split a trip would settle with under the
// current settings without writing anything.
func (h *RideHandler) PreviewSettlement(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
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
		return nil, toStatus("PreviewSettlement", err)
	}
	cfg, err := h.settingsRepo.GetSettlementConfig(ctx)
	if errors.Is(err, domain.ErrNotFound) {
		err = fmt.Errorf("%w: settlement settings are not configured", domain.ErrValidation)
	}
	if err != nil {
		return nil, toStatus("PreviewSettlement", err)
	}
	alloc, err := h.settlementSvc.Preview(ctx, trip, *cfg)
	if err != nil {
		return nil, toStatus("PreviewSettlement", err)
	}
	return toStruct(MapDomainAllocationToStruct(trip.ID, alloc))
}
