package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"ridehail-backend-core/internal/domain"
	"ridehail-backend-core/internal/repository/postgres"
)

func TestWithdrawalRepository_Decide(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := postgres.NewWithdrawalRepository(db)
	ctx := context.Background()
	at := time.Now()

	t.Run("Pending", func(t *testing.T) {
		mock.ExpectExec("UPDATE withdrawals SET status").
			WithArgs("APPROVED", int64(1), at, int64(20), "PENDING").
			WillReturnResult(sqlmock.NewResult(0, 1))
		ok, err := repo.Decide(ctx, 20, domain.WithdrawalStatusApproved, 1, at)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("AlreadyDecided", func(t *testing.T) {
		mock.ExpectExec("UPDATE withdrawals SET status").
			WithArgs("REJECTED", int64(1), at, int64(20), "PENDING").
			WillReturnResult(sqlmock.NewResult(0, 0))
		ok, err := repo.Decide(ctx, 20, domain.WithdrawalStatusRejected, 1, at)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestWithdrawalRepository_ListByActor(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := postgres.NewWithdrawalRepository(db)
	now := time.Now()
	mock.ExpectQuery("SELECT .+ FROM withdrawals WHERE actor_id = \\$1 AND status = ANY\\(\\$2\\)").
		WithArgs(int64(9), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "actor_id", "amount", "status", "bank_account_id",
			"transaction_id", "requested_at", "decided_at", "decided_by"}).
			AddRow(20, 9, "60000.00", "PENDING", 70, 41, now, nil, nil))

	list, err := repo.ListByActor(context.Background(), 9, []domain.WithdrawalStatus{domain.WithdrawalStatusPending})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, domain.WithdrawalStatusPending, list[0].Status)
	assert.Nil(t, list[0].DecidedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}
