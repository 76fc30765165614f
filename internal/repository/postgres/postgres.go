package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"ridehail-backend-core/internal/domain"
	"ridehail-backend-core/internal/logger"
	"ridehail-backend-core/internal/repository"
)

//go:embed schema.sql
var schema string

type Store struct {
	db *sql.DB
	repository.Transactor
	repository.TripRepository
	repository.LedgerRepository
	repository.ReferralRepository
	repository.SavingsRepository
	repository.WithdrawalRepository
	repository.CompanyRepository
	repository.SettlementRepository
	repository.SettingsRepository
	repository.DriverRepository
	repository.BankAccountRepository
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:                    db,
		Transactor:            NewTransactor(db),
		TripRepository:        NewTripRepository(db),
		LedgerRepository:      NewLedgerRepository(db),
		ReferralRepository:    NewReferralRepository(db),
		SavingsRepository:     NewSavingsRepository(db),
		WithdrawalRepository:  NewWithdrawalRepository(db),
		CompanyRepository:     NewCompanyRepository(db),
		SettlementRepository:  NewSettlementRepository(db),
		SettingsRepository:    NewSettingsRepository(db),
		DriverRepository:      NewDriverRepository(db),
		BankAccountRepository: NewBankAccountRepository(db),
	}
}

// Migrate applies the embedded schema. Every statement is idempotent.
func Migrate(ctx context.Context, db *sql.DB) error {
	logger.DatabaseCall("Migrate", "schema.sql")
	_, err := db.ExecContext(ctx, schema)
	logger.DatabaseResult("Migrate", 0, err)
	if err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type txKey struct{}

// conn returns the transaction carried by ctx, or db when there is none.
func conn(ctx context.Context, db *sql.DB) querier {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return tx
	}
	return db
}

func inTx(ctx context.Context) bool {
	_, ok := ctx.Value(txKey{}).(*sql.Tx)
	return ok
}

type transactor struct {
	db *sql.DB
}

func NewTransactor(db *sql.DB) repository.Transactor {
	return &transactor{db: db}
}

func (t *transactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if inTx(ctx) {
		return fn(ctx)
	}

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("Failed to roll back transaction", "error", rbErr, "cause", err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// mapError translates driver errors into the domain taxonomy.
func mapError(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, what)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return fmt.Errorf("%w: %s already exists", domain.ErrConflict, what)
	}
	return err
}
