package service_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"ridehail-backend-core/internal/domain"
	"ridehail-backend-core/internal/service"
)

func TestLedgerService_Record(t *testing.T) {
	f := newFixture(t)

	t.Run("InsufficientFundsWritesNothing", func(t *testing.T) {
		_, err := f.ledger.Record(f.ctx, service.LedgerEntry{
			ActorID:   clientID,
			Amount:    dec("10"),
			Direction: domain.DirectionExpense,
			Type:      domain.TransactionTypeAdjustment,
		})
		assert.ErrorIs(t, err, domain.ErrInsufficientFunds)

		_, total, err := f.ledger.History(f.ctx, clientID, 1, 10)
		require.NoError(t, err)
		assert.Equal(t, int32(0), total)
	})

	t.Run("RejectsBadAmounts", func(t *testing.T) {
		for _, amount := range []string{"0", "-5", "1.005"} {
			_, err := f.ledger.Record(f.ctx, service.LedgerEntry{
				ActorID:   clientID,
				Amount:    dec(amount),
				Direction: domain.DirectionIncome,
				Type:      domain.TransactionTypeAdjustment,
			})
			assert.ErrorIs(t, err, domain.ErrValidation, amount)
		}
	})

	t.Run("RejectsUnknownDirection", func(t *testing.T) {
		_, err := f.ledger.Record(f.ctx, service.LedgerEntry{
			ActorID: clientID, Amount: dec("1"), Direction: "SIDEWAYS", Type: domain.TransactionTypeAdjustment,
		})
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("ExpenseWithinAvailable", func(t *testing.T) {
		f.credit(t, clientID, "1000", domain.TransactionTypeAdjustment)
		tx, err := f.ledger.Record(f.ctx, service.LedgerEntry{
			ActorID:   clientID,
			Amount:    dec("1000"),
			Direction: domain.DirectionExpense,
			Type:      domain.TransactionTypeAdjustment,
		})
		require.NoError(t, err)
		assert.True(t, tx.Confirmed)
		assertDecimal(t, "-1000", tx.Amount())
	})
}

func TestLedgerService_Balance(t *testing.T) {
	f := newFixture(t)
	f.credit(t, driverID, "1000", domain.TransactionTypeAdjustment)
	f.credit(t, driverID, "500", domain.TransactionTypeBonus)
	_, err := f.ledger.Record(f.ctx, service.LedgerEntry{
		ActorID: driverID, Amount: dec("300"), Direction: domain.DirectionExpense, Type: domain.TransactionTypeWithdrawal,
	})
	require.NoError(t, err)

	b, err := f.ledger.Balance(f.ctx, driverID)
	require.NoError(t, err)
	assertDecimal(t, "1200", b.Available)
	assertDecimal(t, "700", b.Withdrawable)
	assertDecimal(t, "500", b.Bonus)
}

func TestLedgerService_DebitSplit(t *testing.T) {
	t.Run("BonusFirstThenService", func(t *testing.T) {
		f := newFixture(t)
		f.credit(t, driverID, "2000", domain.TransactionTypeBonus)

		rows, err := f.ledger.DebitSplit(f.ctx, driverID, dec("10000"), nil, nil)
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, domain.TransactionTypeBonus, rows[0].Type)
		assertDecimal(t, "2000", rows[0].Expense)
		assert.Equal(t, domain.TransactionTypeService, rows[1].Type)
		assertDecimal(t, "8000", rows[1].Expense)

		b, err := f.ledger.Balance(f.ctx, driverID)
		require.NoError(t, err)
		assertDecimal(t, "-8000", b.Available)
		assertDecimal(t, "0", b.Bonus)
	})

	t.Run("BonusCoversAll", func(t *testing.T) {
		f := newFixture(t)
		f.credit(t, driverID, "5000", domain.TransactionTypeBonus)
		f.credit(t, driverID, "700", domain.TransactionTypeAdjustment)

		rows, err := f.ledger.DebitSplit(f.ctx, driverID, dec("3000"), nil, nil)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, domain.TransactionTypeBonus, rows[0].Type)

		b, err := f.ledger.Balance(f.ctx, driverID)
		require.NoError(t, err)
		assertDecimal(t, "700", b.Withdrawable)
		assertDecimal(t, "2000", b.Bonus)
	})

	t.Run("NoBonusAllService", func(t *testing.T) {
		f := newFixture(t)
		rows, err := f.ledger.DebitSplit(f.ctx, driverID, dec("10000"), nil, nil)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, domain.TransactionTypeService, rows[0].Type)
	})
}

func TestLedgerService_History(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 25; i++ {
		f.credit(t, clientID, "1", domain.TransactionTypeAdjustment)
	}

	page, total, err := f.ledger.History(f.ctx, clientID, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, int32(25), total)
	assert.Len(t, page, 20)

	page, _, err = f.ledger.History(f.ctx, clientID, 2, 20)
	require.NoError(t, err)
	assert.Len(t, page, 5)

	page, total, err = f.ledger.History(f.ctx, clientID, math.MaxInt32, 100)
	require.NoError(t, err)
	assert.Equal(t, int32(25), total)
	assert.Empty(t, page)
}
