package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"ridehail-backend-core/internal/domain"
	"ridehail-backend-core/internal/logger"
	"ridehail-backend-core/internal/repository"
)

const transactionColumns = `id, actor_id, income, expense, type, trip_id, settlement_id, confirmed, created_at`

type ledgerRepository struct {
	db *sql.DB
}

func NewLedgerRepository(db *sql.DB) repository.LedgerRepository {
	return &ledgerRepository{db: db}
}

func (r *ledgerRepository) LockActor(ctx context.Context, actorID int64) error {
	if !inTx(ctx) {
		return fmt.Errorf("ledgerRepository.LockActor requires a transaction")
	}
	_, err := conn(ctx, r.db).ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, actorID)
	return err
}

func (r *ledgerRepository) CreateTransaction(ctx context.Context, tx *domain.Transaction) error {
	query := `INSERT INTO transactions (actor_id, income, expense, type, trip_id, settlement_id, confirmed, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`
	now := time.Now()
	logger.DatabaseCall("ledgerRepository.CreateTransaction", query, "actorID", tx.ActorID, "type", tx.Type)
	err := conn(ctx, r.db).QueryRowContext(ctx, query,
		tx.ActorID, tx.Income, tx.Expense, tx.Type, tx.TripID, tx.SettlementID, tx.Confirmed, now,
	).Scan(&tx.ID)
	if err != nil {
		logger.DatabaseResult("ledgerRepository.CreateTransaction", 0, err, "actorID", tx.ActorID)
		return err
	}
	tx.CreatedAt = now
	logger.DatabaseResult("ledgerRepository.CreateTransaction", 1, nil, "transactionID", tx.ID)
	return nil
}

func (r *ledgerRepository) GetTransaction(ctx context.Context, id int64) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`
	var tx domain.Transaction
	err := conn(ctx, r.db).QueryRowContext(ctx, query, id).Scan(
		&tx.ID, &tx.ActorID, &tx.Income, &tx.Expense, &tx.Type, &tx.TripID, &tx.SettlementID, &tx.Confirmed, &tx.CreatedAt,
	)
	if err != nil {
		return nil, mapError(err, fmt.Sprintf("transaction %d", id))
	}
	return &tx, nil
}

func (r *ledgerRepository) GetTotals(ctx context.Context, actorID int64) (domain.LedgerTotals, error) {
	query := `SELECT
	              COALESCE(SUM(income)  FILTER (WHERE type = 'BONUS'), 0),
	              COALESCE(SUM(expense) FILTER (WHERE type = 'BONUS'), 0),
	              COALESCE(SUM(income)  FILTER (WHERE type <> 'BONUS'), 0),
	              COALESCE(SUM(expense) FILTER (WHERE type <> 'BONUS'), 0)
	          FROM transactions WHERE actor_id = $1`
	var t domain.LedgerTotals
	err := conn(ctx, r.db).QueryRowContext(ctx, query, actorID).Scan(
		&t.BonusIncome, &t.BonusExpense, &t.NonBonusIncome, &t.NonBonusExpense,
	)
	return t, err
}

func (r *ledgerRepository) ListTransactions(ctx context.Context, actorID int64, page, pageSize int32) ([]domain.Transaction, int32, error) {
	offset := (int64(page) - 1) * int64(pageSize)
	query := `SELECT ` + transactionColumns + `
	          FROM transactions WHERE actor_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3`
	rows, err := conn(ctx, r.db).QueryContext(ctx, query, actorID, pageSize, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	txs, err := scanTransactions(rows)
	if err != nil {
		return nil, 0, err
	}

	var count int32
	countQuery := `SELECT count(*) FROM transactions WHERE actor_id = $1`
	if err := conn(ctx, r.db).QueryRowContext(ctx, countQuery, actorID).Scan(&count); err != nil {
		return nil, 0, err
	}
	return txs, count, nil
}

func (r *ledgerRepository) ListByTrip(ctx context.Context, tripID int64) ([]domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE trip_id = $1 ORDER BY id`
	rows, err := conn(ctx, r.db).QueryContext(ctx, query, tripID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTransactions(rows)
}

func (r *ledgerRepository) SumByTypes(ctx context.Context, actorID int64, types []domain.TransactionType) (map[domain.TransactionType]decimal.Decimal, error) {
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = string(t)
	}
	query := `SELECT type, COALESCE(SUM(income), 0) FROM transactions
	          WHERE actor_id = $1 AND type = ANY($2) GROUP BY type`
	rows, err := conn(ctx, r.db).QueryContext(ctx, query, actorID, pq.Array(names))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sums := make(map[domain.TransactionType]decimal.Decimal, len(types))
	for rows.Next() {
		var t domain.TransactionType
		var sum decimal.Decimal
		if err := rows.Scan(&t, &sum); err != nil {
			return nil, err
		}
		sums[t] = sum
	}
	return sums, rows.Err()
}

// SetConfirmed only touches the confirmation flag; amounts are never updated.
func (r *ledgerRepository) SetConfirmed(ctx context.Context, id int64, confirmed bool) error {
	res, err := conn(ctx, r.db).ExecContext(ctx, `UPDATE transactions SET confirmed = $1 WHERE id = $2`, confirmed, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: transaction %d", domain.ErrNotFound, id)
	}
	return nil
}

func scanTransactions(rows *sql.Rows) ([]domain.Transaction, error) {
	var txs []domain.Transaction
	for rows.Next() {
		var tx domain.Transaction
		if err := rows.Scan(&tx.ID, &tx.ActorID, &tx.Income, &tx.Expense, &tx.Type, &tx.TripID, &tx.SettlementID, &tx.Confirmed, &tx.CreatedAt); err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}
