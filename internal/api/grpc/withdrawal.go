package grpc

import (
	"context"

	"google.golang.org/protobuf/types/known/structpb"
	"ridehail-backend-core/internal/domain"
)

func (h *RideHandler) RequestWithdrawal(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	actor, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	amount, err := money(req, "amount", true)
	if err != nil {
		return nil, err
	}
	bankAccountID, err := requireID(req, "bank_account_id")
	if err != nil {
		return nil, err
	}
	w, err := h.withdrawalSvc.Request(ctx, actor.ID, amount, bankAccountID)
	if err != nil {
		return nil, toStatus("RequestWithdrawal", err)
	}
	return toStruct(MapDomainWithdrawalToStruct(w))
}

func (h *RideHandler) ListWithdrawals(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	actor, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	actorID, err := subject(actor, req)
	if err != nil {
		return nil, err
	}
	statuses, err := withdrawalStatuses(req)
	if err != nil {
		return nil, err
	}
	list, err := h.withdrawalSvc.List(ctx, actorID, statuses)
	if err != nil {
		return nil, toStatus("ListWithdrawals", err)
	}
	items := make([]any, len(list))
	for i := range list {
		items[i] = MapDomainWithdrawalToStruct(&list[i])
	}
	return toStruct(map[string]any{"withdrawals": items})
}

func (h *RideHandler) ApproveWithdrawal(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return h.decideWithdrawal(ctx, req, "ApproveWithdrawal", h.withdrawalSvc.Approve)
}

func (h *RideHandler) RejectWithdrawal(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return h.decideWithdrawal(ctx, req, "RejectWithdrawal", h.withdrawalSvc.Reject)
}

func (h *RideHandler) decideWithdrawal(
	ctx context.Context,
	req *structpb.Struct,
	method string,
	decide func(context.Context, domain.Actor, int64) (*domain.Withdrawal, error),
) (*structpb.Struct, error) {
	actor, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	id, err := requireID(req, "withdrawal_id")
	if err != nil {
		return nil, err
	}
	w, err := decide(ctx, actor, id)
	if err != nil {
		return nil, toStatus(method, err)
	}
	return toStruct(MapDomainWithdrawalToStruct(w))
}
