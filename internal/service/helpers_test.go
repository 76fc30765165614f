package service_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"ridehail-backend-core/internal/domain"
	"ridehail-backend-core/internal/repository/memory"
	"ridehail-backend-core/internal/service"
)

const (
	clientID   int64 = 100
	referrer1  int64 = 101
	referrer2  int64 = 102
	driverID   int64 = 200
	adminID    int64 = 1
	bankAcctID int64 = 70
)

var (
	client = domain.Actor{ID: clientID, Role: domain.RoleClient}
	driver = domain.Actor{ID: driverID, Role: domain.RoleDriver}
	admin  = domain.Actor{ID: adminID, Role: domain.RoleAdmin}
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// exampleConfig is the reference configuration used throughout the tests.
func exampleConfig() domain.SettlementConfig {
	return domain.SettlementConfig{
		DriverSavingPct:     dec("0.01"),
		CompanyPct:          dec("0.04"),
		ReferralPct:         [domain.MaxReferralLevels]decimal.Decimal{dec("0.02"), dec("0.015"), dec("0.01"), dec("0.005"), dec("0.005")},
		DriverCommissionPct: dec("0.10"),
	}
}

type fixture struct {
	ctx         context.Context
	store       *memory.Store
	ledger      service.LedgerService
	referrals   service.ReferralResolver
	savings     service.SavingsService
	settlement  service.SettlementEngine
	withdrawals service.WithdrawalService
	trips       service.TripService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	store.SetSettlementConfig(exampleConfig())
	store.SetDriverStatus(driverID, domain.DriverStatusApproved)
	store.AddBankAccount(bankAcctID, driverID)

	f := &fixture{ctx: context.Background(), store: store}
	f.ledger = service.NewLedgerService(store, store.LedgerRepository)
	f.referrals = service.NewReferralResolver(store.ReferralRepository, store.LedgerRepository, store.SettingsRepository)
	f.savings = service.NewSavingsService(store, store.SavingsRepository, store.DriverRepository, f.ledger,
		service.SavingsPolicy{MinimumWithdrawal: decimal.NewFromInt(50000), LockDays: 365})
	f.settlement = service.NewSettlementEngine(store, store.SettlementRepository, store.CompanyRepository,
		f.ledger, f.referrals, f.savings)
	f.withdrawals = service.NewWithdrawalService(store, store.WithdrawalRepository, store.LedgerRepository,
		store.BankAccountRepository, f.ledger)
	f.trips = service.NewTripService(store, store.TripRepository, store.SettingsRepository, store.DriverRepository, f.settlement)
	return f
}

func (f *fixture) link(t *testing.T, child, parent int64) {
	t.Helper()
	require.NoError(t, f.store.Link(f.ctx, domain.ReferralEdge{ChildID: child, ParentID: parent}))
}

func (f *fixture) credit(t *testing.T, actorID int64, amount string, typ domain.TransactionType) {
	t.Helper()
	_, err := f.ledger.Record(f.ctx, service.LedgerEntry{
		ActorID:   actorID,
		Amount:    dec(amount),
		Direction: domain.DirectionIncome,
		Type:      typ,
	})
	require.NoError(t, err)
}

// acceptedTrip creates a trip and has the test driver accept it at fare.
func (f *fixture) acceptedTrip(t *testing.T, fare string) *domain.Trip {
	t.Helper()
	trip, err := f.trips.RequestTrip(f.ctx, client, dec(fare))
	require.NoError(t, err)
	trip, err = f.trips.Accept(f.ctx, driver, trip.ID, decimal.Zero)
	require.NoError(t, err)
	return trip
}

// finishedTrip walks a new trip along the whole driver path.
func (f *fixture) finishedTrip(t *testing.T, fare string) *domain.Trip {
	t.Helper()
	trip := f.acceptedTrip(t, fare)
	for _, st := range []domain.TripStatus{
		domain.TripStatusOnTheWay, domain.TripStatusArrived, domain.TripStatusTravelling, domain.TripStatusFinished,
	} {
		var err error
		trip, err = f.trips.ApplyDriverStatus(f.ctx, driver, trip.ID, st)
		require.NoError(t, err)
	}
	return trip
}

func (f *fixture) tripTransactions(t *testing.T, tripID int64) []domain.Transaction {
	t.Helper()
	txs, err := f.store.LedgerRepository.ListByTrip(f.ctx, tripID)
	require.NoError(t, err)
	return txs
}

func (f *fixture) companyEntries(t *testing.T, tripID int64) []domain.CompanyEntry {
	t.Helper()
	entries, err := f.store.CompanyRepository.ListByTrip(f.ctx, tripID)
	require.NoError(t, err)
	return entries
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	require.Truef(t, dec(want).Equal(got), "want %s, got %s %v", want, got, msgAndArgs)
}
