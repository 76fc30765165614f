package service_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"ridehail-backend-core/internal/domain"
)

func TestSavingsService_Credit(t *testing.T) {
	f := newFixture(t)

	first, err := f.savings.Credit(f.ctx, driverID, dec("1000"))
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().AddDate(0, 0, 365), first.MaturityDate, time.Minute)
	assert.Equal(t, domain.SavingsStatusSaving, first.Status)

	second, err := f.savings.Credit(f.ctx, driverID, dec("250.50"))
	require.NoError(t, err)
	assertDecimal(t, "1250.50", second.Amount)
	assert.Equal(t, first.MaturityDate, second.MaturityDate)

	_, err = f.savings.Credit(f.ctx, driverID, dec("0"))
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestSavingsService_TransferToBalance(t *testing.T) {
	t.Run("BelowMinimumRejectedRegardlessOfSavings", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.savings.Credit(f.ctx, driverID, dec("200000"))
		require.NoError(t, err)

		_, err = f.savings.TransferToBalance(f.ctx, driverID, dec("49999.99"))
		assert.ErrorIs(t, err, domain.ErrValidation)

		acct, err := f.store.SavingsRepository.Get(f.ctx, driverID)
		require.NoError(t, err)
		assertDecimal(t, "200000", acct.Amount)
	})

	t.Run("MovesSavingsToLedger", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.savings.Credit(f.ctx, driverID, dec("60000"))
		require.NoError(t, err)

		tx, err := f.savings.TransferToBalance(f.ctx, driverID, dec("55000"))
		require.NoError(t, err)
		assert.Equal(t, domain.TransactionTypeTransferSavings, tx.Type)
		assertDecimal(t, "55000", tx.Income)

		acct, err := f.store.SavingsRepository.Get(f.ctx, driverID)
		require.NoError(t, err)
		assertDecimal(t, "5000", acct.Amount)

		b, err := f.ledger.Balance(f.ctx, driverID)
		require.NoError(t, err)
		assertDecimal(t, "55000", b.Withdrawable)
	})

	t.Run("MoreThanSaved", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.savings.Credit(f.ctx, driverID, dec("50000"))
		require.NoError(t, err)
		_, err = f.savings.TransferToBalance(f.ctx, driverID, dec("60000"))
		assert.ErrorIs(t, err, domain.ErrInsufficientFunds)
	})

	t.Run("NoAccount", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.savings.TransferToBalance(f.ctx, driverID, dec("60000"))
		assert.ErrorIs(t, err, domain.ErrInsufficientFunds)
	})

	t.Run("DriverNotApproved", func(t *testing.T) {
		f := newFixture(t)
		f.store.SetDriverStatus(203, domain.DriverStatusBlocked)
		_, err := f.savings.Credit(f.ctx, 203, dec("60000"))
		require.NoError(t, err)
		_, err = f.savings.TransferToBalance(f.ctx, 203, dec("60000"))
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("UnknownDriver", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.savings.TransferToBalance(f.ctx, 404, dec("60000"))
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestSavingsService_Status(t *testing.T) {
	f := newFixture(t)

	view, err := f.savings.Status(f.ctx, driverID)
	require.NoError(t, err)
	assert.False(t, view.CanWithdraw)
	assert.Nil(t, view.MaturityDate)
	assertDecimal(t, "0", view.Amount)

	_, err = f.savings.Credit(f.ctx, driverID, dec("49000"))
	require.NoError(t, err)
	view, err = f.savings.Status(f.ctx, driverID)
	require.NoError(t, err)
	assert.False(t, view.CanWithdraw)
	assert.Contains(t, view.Message, "50000.00")

	_, err = f.savings.Credit(f.ctx, driverID, dec("1000"))
	require.NoError(t, err)
	view, err = f.savings.Status(f.ctx, driverID)
	require.NoError(t, err)
	assert.True(t, view.CanWithdraw)
	require.NotNil(t, view.MaturityDate)
}
