package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"ridehail-backend-core/internal/domain"
	"ridehail-backend-core/internal/logger"
	"ridehail-backend-core/internal/repository"
)

const savingsColumns = `driver_id, amount, maturity_date, status, created_at, updated_at`

type savingsRepository struct {
	db *sql.DB
}

func NewSavingsRepository(db *sql.DB) repository.SavingsRepository {
	return &savingsRepository{db: db}
}

func (r *savingsRepository) Get(ctx context.Context, driverID int64) (*domain.SavingsAccount, error) {
	return r.get(ctx, `SELECT `+savingsColumns+` FROM savings_accounts WHERE driver_id = $1`, driverID)
}

func (r *savingsRepository) GetForUpdate(ctx context.Context, driverID int64) (*domain.SavingsAccount, error) {
	return r.get(ctx, `SELECT `+savingsColumns+` FROM savings_accounts WHERE driver_id = $1 FOR UPDATE`, driverID)
}

func (r *savingsRepository) get(ctx context.Context, query string, driverID int64) (*domain.SavingsAccount, error) {
	a := &domain.SavingsAccount{}
	err := conn(ctx, r.db).QueryRowContext(ctx, query, driverID).Scan(
		&a.DriverID, &a.Amount, &a.MaturityDate, &a.Status, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, mapError(err, fmt.Sprintf("savings account of driver %d", driverID))
	}
	return a, nil
}

// Credit upserts the account. The conflict branch leaves maturity_date and
// status alone so only the creating credit starts the lock period.
func (r *savingsRepository) Credit(ctx context.Context, driverID int64, amount decimal.Decimal, maturity time.Time) (*domain.SavingsAccount, error) {
	query := `INSERT INTO savings_accounts (driver_id, amount, maturity_date, status, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $5)
	          ON CONFLICT (driver_id) DO UPDATE
	          SET amount = savings_accounts.amount + EXCLUDED.amount, updated_at = EXCLUDED.updated_at
	          RETURNING ` + savingsColumns
	logger.DatabaseCall("savingsRepository.Credit", query, "driverID", driverID, "amount", amount)

	a := &domain.SavingsAccount{}
	err := conn(ctx, r.db).QueryRowContext(ctx, query, driverID, amount, maturity, domain.SavingsStatusSaving, time.Now()).Scan(
		&a.DriverID, &a.Amount, &a.MaturityDate, &a.Status, &a.CreatedAt, &a.UpdatedAt,
	)
	logger.DatabaseResult("savingsRepository.Credit", 1, err, "driverID", driverID)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (r *savingsRepository) Debit(ctx context.Context, driverID int64, amount decimal.Decimal) error {
	query := `UPDATE savings_accounts SET amount = amount - $1, updated_at = $2
	          WHERE driver_id = $3 AND amount >= $1`
	res, err := conn(ctx, r.db).ExecContext(ctx, query, amount, time.Now(), driverID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: savings of driver %d below %s", domain.ErrInsufficientFunds, driverID, amount)
	}
	return nil
}

func (r *savingsRepository) MarkMatured(ctx context.Context, now time.Time) (int64, error) {
	query := `UPDATE savings_accounts SET status = $1, updated_at = $2
	          WHERE status = $3 AND maturity_date <= $2`
	logger.DatabaseCall("savingsRepository.MarkMatured", query)
	res, err := conn(ctx, r.db).ExecContext(ctx, query, domain.SavingsStatusApproved, now, domain.SavingsStatusSaving)
	if err != nil {
		logger.DatabaseResult("savingsRepository.MarkMatured", 0, err)
		return 0, err
	}
	n, err := res.RowsAffected()
	logger.DatabaseResult("savingsRepository.MarkMatured", n, err)
	return n, err
}
