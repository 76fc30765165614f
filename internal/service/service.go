package service

import (
	"context"

	"github.com/shopspring/decimal"
	"ridehail-backend-core/internal/domain"
)

// LedgerEntry describes one row to append to an actor's ledger.
type LedgerEntry struct {
	ActorID      int64
	Amount       decimal.Decimal
	Direction    domain.Direction
	Type         domain.TransactionType
	TripID       *int64
	SettlementID *string
}

type LedgerService interface {
	// Record appends one row. Expenses require available >= amount.
	Record(ctx context.Context, entry LedgerEntry) (*domain.Transaction, error)
	// DebitSplit charges amount against the bonus bucket first and the
	// service bucket for the remainder, bypassing the available-funds guard.
	DebitSplit(ctx context.Context, actorID int64, amount decimal.Decimal, tripID *int64, settlementID *string) ([]domain.Transaction, error)
	Balance(ctx context.Context, actorID int64) (domain.Balance, error)
	History(ctx context.Context, actorID int64, page, pageSize int32) ([]domain.Transaction, int32, error)
	// Lock takes the per-actor ledger locks in ascending id order.
	Lock(ctx context.Context, actorIDs ...int64) error
}

type ReferralResolver interface {
	Chain(ctx context.Context, actorID int64, maxLevels int) ([]int64, error)
	EarningsSummary(ctx context.Context, actorID int64) (*domain.ReferralSummary, error)
}

type SavingsService interface {
	Credit(ctx context.Context, driverID int64, amount decimal.Decimal) (*domain.SavingsAccount, error)
	TransferToBalance(ctx context.Context, driverID int64, amount decimal.Decimal) (*domain.Transaction, error)
	Status(ctx context.Context, driverID int64) (*domain.SavingsStatusView, error)
}

type SettlementEngine interface {
	// Preview computes the allocation for a trip without writing anything.
	Preview(ctx context.Context, trip *domain.Trip, cfg domain.SettlementConfig) (*domain.Allocation, error)
	// Settle must run inside the transaction that moves the trip to PAID.
	Settle(ctx context.Context, trip *domain.Trip, cfg domain.SettlementConfig) (*domain.Settlement, error)
}

type WithdrawalService interface {
	Request(ctx context.Context, actorID int64, amount decimal.Decimal, bankAccountID int64) (*domain.Withdrawal, error)
	Approve(ctx context.Context, admin domain.Actor, withdrawalID int64) (*domain.Withdrawal, error)
	Reject(ctx context.Context, admin domain.Actor, withdrawalID int64) (*domain.Withdrawal, error)
	List(ctx context.Context, actorID int64, statuses []domain.WithdrawalStatus) ([]domain.Withdrawal, error)
}

type TripService interface {
	RequestTrip(ctx context.Context, client domain.Actor, fareOffered decimal.Decimal) (*domain.Trip, error)
	Accept(ctx context.Context, driver domain.Actor, tripID int64, fare decimal.Decimal) (*domain.Trip, error)
	ApplyDriverStatus(ctx context.Context, driver domain.Actor, tripID int64, status domain.TripStatus) (*domain.Trip, error)
	ApplyClientStatus(ctx context.Context, client domain.Actor, tripID int64, status domain.TripStatus) (*domain.Trip, error)
	// MarkPaid settles a FINISHED trip exactly once. Calls on a PAID trip are
	// no-ops returning the trip.
	MarkPaid(ctx context.Context, actor domain.Actor, tripID int64) (*domain.Trip, error)
	GetTrip(ctx context.Context, actor domain.Actor, tripID int64) (*domain.Trip, error)
}
