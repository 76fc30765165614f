package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"ridehail-backend-core/internal/domain"
	"ridehail-backend-core/internal/repository"
)

type driverRepository struct {
	db *sql.DB
}

func NewDriverRepository(db *sql.DB) repository.DriverRepository {
	return &driverRepository{db: db}
}

func (r *driverRepository) GetStatus(ctx context.Context, driverID int64) (domain.DriverStatus, error) {
	var status domain.DriverStatus
	err := conn(ctx, r.db).QueryRowContext(ctx, `SELECT status FROM drivers WHERE id = $1`, driverID).Scan(&status)
	if err != nil {
		return "", mapError(err, fmt.Sprintf("driver %d", driverID))
	}
	return status, nil
}

type bankAccountRepository struct {
	db *sql.DB
}

func NewBankAccountRepository(db *sql.DB) repository.BankAccountRepository {
	return &bankAccountRepository{db: db}
}

func (r *bankAccountRepository) BelongsTo(ctx context.Context, bankAccountID, actorID int64) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM bank_accounts WHERE id = $1 AND actor_id = $2)`
	if err := conn(ctx, r.db).QueryRowContext(ctx, query, bankAccountID, actorID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}
