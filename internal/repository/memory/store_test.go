package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"ridehail-backend-core/internal/domain"
	"ridehail-backend-core/internal/repository/memory"
)

func TestWithinTx_RollbackRestoresState(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	trip := &domain.Trip{ClientID: 1, FareOffered: decimal.NewFromInt(100)}
	require.NoError(t, store.TripRepository.Create(ctx, trip))

	boom := errors.New("boom")
	err := store.WithinTx(ctx, func(ctx context.Context) error {
		ok, err := store.Assign(ctx, trip.ID, 2, decimal.NewFromInt(100))
		require.NoError(t, err)
		require.True(t, ok)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := store.TripRepository.GetByID(ctx, trip.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TripStatusCreated, got.Status)
	assert.Nil(t, got.DriverID)
}

func TestWithinTx_PanicRestoresState(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	assert.Panics(t, func() {
		_ = store.WithinTx(ctx, func(ctx context.Context) error {
			_ = store.CreateTransaction(ctx, &domain.Transaction{ActorID: 1, Income: decimal.NewFromInt(5), Type: domain.TransactionTypeAdjustment})
			panic("boom")
		})
	})

	totals, err := store.GetTotals(ctx, 1)
	require.NoError(t, err)
	assert.True(t, totals.NonBonusIncome.IsZero())
}

func TestWithinTx_RollbackKeepsOutsideWrites(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	entered := make(chan struct{})
	release := make(chan struct{})
	boom := errors.New("boom")

	txDone := make(chan error, 1)
	go func() {
		txDone <- store.WithinTx(ctx, func(ctx context.Context) error {
			if err := store.TripRepository.Create(ctx, &domain.Trip{ClientID: 1, FareOffered: decimal.NewFromInt(100)}); err != nil {
				return err
			}
			close(entered)
			<-release
			return boom
		})
	}()
	<-entered

	outside := &domain.Trip{ClientID: 2, FareOffered: decimal.NewFromInt(200)}
	outsideDone := make(chan error, 1)
	go func() {
		outsideDone <- store.TripRepository.Create(context.Background(), outside)
	}()

	select {
	case <-outsideDone:
		t.Fatal("write outside the unit of work ran while it was open")
	case <-time.After(20 * time.Millisecond):
	}
	close(release)

	assert.ErrorIs(t, <-txDone, boom)
	require.NoError(t, <-outsideDone)

	got, err := store.TripRepository.GetByID(ctx, outside.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.ClientID)

	next := &domain.Trip{ClientID: 3, FareOffered: decimal.NewFromInt(300)}
	require.NoError(t, store.TripRepository.Create(ctx, next))
	assert.NotEqual(t, outside.ID, next.ID)
}

func TestSavingsCredit_KeepsFirstMaturity(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	first, err := store.Credit(ctx, 9, decimal.NewFromInt(10), mustDate("2027-01-01"))
	require.NoError(t, err)
	second, err := store.Credit(ctx, 9, decimal.NewFromInt(10), mustDate("2028-01-01"))
	require.NoError(t, err)

	assert.Equal(t, first.MaturityDate, second.MaturityDate)
	assert.True(t, second.Amount.Equal(decimal.NewFromInt(20)))
}

func TestSettlementCreate_Unique(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	require.NoError(t, store.SettlementRepository.Create(ctx, &domain.Settlement{ID: "a", TripID: 1}))
	err := store.SettlementRepository.Create(ctx, &domain.Settlement{ID: "b", TripID: 1})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func mustDate(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}
