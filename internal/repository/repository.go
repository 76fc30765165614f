package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"ridehail-backend-core/internal/domain"
)

// Transactor runs fn as one unit of work. Repository calls made with the
// context passed to fn join the same database transaction; nested calls reuse
// the outer one. Any error (or panic) returned from fn rolls everything back.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type TripRepository interface {
	Create(ctx context.Context, trip *domain.Trip) error
	GetByID(ctx context.Context, id int64) (*domain.Trip, error)
	// GetForUpdate locks the trip row for the rest of the transaction.
	GetForUpdate(ctx context.Context, id int64) (*domain.Trip, error)
	// CompareAndSetStatus moves the trip from `from` to `to` and reports
	// whether a row was changed.
	CompareAndSetStatus(ctx context.Context, id int64, from, to domain.TripStatus) (bool, error)
	// Assign sets driver and fare on a CREATED trip and moves it to ACCEPTED.
	Assign(ctx context.Context, id, driverID int64, fare decimal.Decimal) (bool, error)
}

type LedgerRepository interface {
	// LockActor serialises balance-affecting work for one actor until the
	// surrounding transaction ends.
	LockActor(ctx context.Context, actorID int64) error
	CreateTransaction(ctx context.Context, tx *domain.Transaction) error
	GetTransaction(ctx context.Context, id int64) (*domain.Transaction, error)
	GetTotals(ctx context.Context, actorID int64) (domain.LedgerTotals, error)
	ListTransactions(ctx context.Context, actorID int64, page, pageSize int32) ([]domain.Transaction, int32, error)
	ListByTrip(ctx context.Context, tripID int64) ([]domain.Transaction, error)
	// SumByTypes returns the income total of actorID over the given types.
	SumByTypes(ctx context.Context, actorID int64, types []domain.TransactionType) (map[domain.TransactionType]decimal.Decimal, error)
	SetConfirmed(ctx context.Context, id int64, confirmed bool) error
}

type ReferralRepository interface {
	GetParent(ctx context.Context, childID int64) (int64, bool, error)
	ListChildren(ctx context.Context, parentIDs []int64) ([]domain.ReferralEdge, error)
	Link(ctx context.Context, edge domain.ReferralEdge) error
}

type SavingsRepository interface {
	Get(ctx context.Context, driverID int64) (*domain.SavingsAccount, error)
	GetForUpdate(ctx context.Context, driverID int64) (*domain.SavingsAccount, error)
	// Credit adds amount, creating the account with the given maturity date
	// when none exists. An existing maturity date is left untouched.
	Credit(ctx context.Context, driverID int64, amount decimal.Decimal, maturity time.Time) (*domain.SavingsAccount, error)
	Debit(ctx context.Context, driverID int64, amount decimal.Decimal) error
	MarkMatured(ctx context.Context, now time.Time) (int64, error)
}

type WithdrawalRepository interface {
	Create(ctx context.Context, w *domain.Withdrawal) error
	GetByID(ctx context.Context, id int64) (*domain.Withdrawal, error)
	GetForUpdate(ctx context.Context, id int64) (*domain.Withdrawal, error)
	// Decide moves a PENDING withdrawal to status and reports whether it did.
	Decide(ctx context.Context, id int64, status domain.WithdrawalStatus, decidedBy int64, at time.Time) (bool, error)
	ListByActor(ctx context.Context, actorID int64, statuses []domain.WithdrawalStatus) ([]domain.Withdrawal, error)
}

type CompanyRepository interface {
	CreateEntry(ctx context.Context, entry *domain.CompanyEntry) error
	ListByTrip(ctx context.Context, tripID int64) ([]domain.CompanyEntry, error)
}

type SettlementRepository interface {
	// Create fails with domain.ErrConflict when the trip already has one.
	Create(ctx context.Context, s *domain.Settlement) error
	GetByTrip(ctx context.Context, tripID int64) (*domain.Settlement, error)
	ListSince(ctx context.Context, since time.Time) ([]domain.Settlement, error)
}

type SettingsRepository interface {
	// GetSettlementConfig returns domain.ErrNotFound when no settings row exists.
	GetSettlementConfig(ctx context.Context) (*domain.SettlementConfig, error)
}

// DriverRepository and BankAccountRepository read tables owned by the
// registration and banking parts of the system.
type DriverRepository interface {
	GetStatus(ctx context.Context, driverID int64) (domain.DriverStatus, error)
}

type BankAccountRepository interface {
	BelongsTo(ctx context.Context, bankAccountID, actorID int64) (bool, error)
}
