package grpc

import (
	"context"
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"
	"ridehail-backend-core/internal/domain"
)

// subject resolves whose account a read refers to. Admins may name any actor
// with actor_id; everyone else reads their own.
func subject(actor domain.Actor, req *structpb.Struct) (int64, error) {
	id, ok, err := optionalID(req, "actor_id")
	if err != nil {
		return 0, err
	}
	if !ok || id == actor.ID {
		return actor.ID, nil
	}
	if !actor.IsAdmin() {
		return 0, toStatus("", fmt.Errorf("%w: actor %d cannot read the account of %d", domain.ErrForbidden, actor.ID, id))
	}
	return id, nil
}

func (h *RideHandler) GetBalance(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	actor, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	actorID, err := subject(actor, req)
	if err != nil {
		return nil, err
	}
	balance, err := h.ledgerSvc.Balance(ctx, actorID)
	if err != nil {
		return nil, toStatus("GetBalance", err)
	}
	return toStruct(MapDomainBalanceToStruct(actorID, balance))
}

func (h *RideHandler) GetTransactions(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	actor, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	actorID, err := subject(actor, req)
	if err != nil {
		return nil, err
	}
	page, err := optionalInt32(req, "page")
	if err != nil {
		return nil, err
	}
	pageSize, err := optionalInt32(req, "page_size")
	if err != nil {
		return nil, err
	}

	txs, count, err := h.ledgerSvc.History(ctx, actorID, page, pageSize)
	if err != nil {
		return nil, toStatus("GetTransactions", err)
	}
	items := make([]any, len(txs))
	for i := range txs {
		items[i] = MapDomainTransactionToStruct(&txs[i])
	}
	return toStruct(map[string]any{
		"transactions": items,
		"total_count":  count,
	})
}

func (h *RideHandler) TransferSavings(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	actor, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if actor.Role != domain.RoleDriver {
		return nil, toStatus("TransferSavings", fmt.Errorf("%w: only drivers hold savings", domain.ErrForbidden))
	}
	amount, err := money(req, "amount", true)
	if err != nil {
		return nil, err
	}
	tx, err := h.savingsSvc.TransferToBalance(ctx, actor.ID, amount)
	if err != nil {
		return nil, toStatus("TransferSavings", err)
	}
	return toStruct(MapDomainTransactionToStruct(tx))
}

func (h *RideHandler) GetSavingsStatus(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	actor, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	driverID, err := subject(actor, req)
	if err != nil {
		return nil, err
	}
	view, err := h.savingsSvc.Status(ctx, driverID)
	if err != nil {
		return nil, toStatus("GetSavingsStatus", err)
	}
	return toStruct(MapDomainSavingsStatusToStruct(view))
}

func (h *RideHandler) GetReferralEarningsSummary(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	actor, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	actorID, err := subject(actor, req)
	if err != nil {
		return nil, err
	}
	summary, err := h.referralSvc.EarningsSummary(ctx, actorID)
	if err != nil {
		return nil, toStatus("GetReferralEarningsSummary", err)
	}
	return toStruct(MapDomainReferralSummaryToStruct(summary))
}
