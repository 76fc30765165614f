package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
	"ridehail-backend-core/internal/domain"
	"ridehail-backend-core/internal/logger"
	"ridehail-backend-core/internal/repository"
)

const withdrawalColumns = `id, actor_id, amount, status, bank_account_id, transaction_id, requested_at, decided_at, decided_by`

type withdrawalRepository struct {
	db *sql.DB
}

func NewWithdrawalRepository(db *sql.DB) repository.WithdrawalRepository {
	return &withdrawalRepository{db: db}
}

func (r *withdrawalRepository) Create(ctx context.Context, w *domain.Withdrawal) error {
	logger.EnterMethod("withdrawalRepository.Create", "actorID", w.ActorID, "amount", w.Amount)

	query := `INSERT INTO withdrawals (actor_id, amount, status, bank_account_id, transaction_id, requested_at)
	          VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	now := time.Now()
	err := conn(ctx, r.db).QueryRowContext(ctx, query,
		w.ActorID, w.Amount, w.Status, w.BankAccountID, w.TransactionID, now,
	).Scan(&w.ID)
	if err != nil {
		logger.ExitMethodWithError("withdrawalRepository.Create", err, "actorID", w.ActorID)
		return err
	}
	w.RequestedAt = now

	logger.ExitMethod("withdrawalRepository.Create", "withdrawalID", w.ID)
	return nil
}

func (r *withdrawalRepository) GetByID(ctx context.Context, id int64) (*domain.Withdrawal, error) {
	return r.get(ctx, `SELECT `+withdrawalColumns+` FROM withdrawals WHERE id = $1`, id)
}

func (r *withdrawalRepository) GetForUpdate(ctx context.Context, id int64) (*domain.Withdrawal, error) {
	return r.get(ctx, `SELECT `+withdrawalColumns+` FROM withdrawals WHERE id = $1 FOR UPDATE`, id)
}

func (r *withdrawalRepository) get(ctx context.Context, query string, id int64) (*domain.Withdrawal, error) {
	w := &domain.Withdrawal{}
	err := conn(ctx, r.db).QueryRowContext(ctx, query, id).Scan(
		&w.ID, &w.ActorID, &w.Amount, &w.Status, &w.BankAccountID, &w.TransactionID, &w.RequestedAt, &w.DecidedAt, &w.DecidedBy,
	)
	if err != nil {
		return nil, mapError(err, fmt.Sprintf("withdrawal %d", id))
	}
	return w, nil
}

func (r *withdrawalRepository) Decide(ctx context.Context, id int64, status domain.WithdrawalStatus, decidedBy int64, at time.Time) (bool, error) {
	query := `UPDATE withdrawals SET status = $1, decided_by = $2, decided_at = $3
	          WHERE id = $4 AND status = $5`
	res, err := conn(ctx, r.db).ExecContext(ctx, query, status, decidedBy, at, id, domain.WithdrawalStatusPending)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *withdrawalRepository) ListByActor(ctx context.Context, actorID int64, statuses []domain.WithdrawalStatus) ([]domain.Withdrawal, error) {
	query := `SELECT ` + withdrawalColumns + ` FROM withdrawals WHERE actor_id = $1`
	args := []interface{}{actorID}
	if len(statuses) > 0 {
		names := make([]string, len(statuses))
		for i, s := range statuses {
			names[i] = string(s)
		}
		query += ` AND status = ANY($2)`
		args = append(args, pq.Array(names))
	}
	query += ` ORDER BY requested_at DESC`

	rows, err := conn(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Withdrawal
	for rows.Next() {
		var w domain.Withdrawal
		if err := rows.Scan(&w.ID, &w.ActorID, &w.Amount, &w.Status, &w.BankAccountID, &w.TransactionID, &w.RequestedAt, &w.DecidedAt, &w.DecidedBy); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}
