package postgres

import (
	"context"
	"database/sql"
	"time"

	"ridehail-backend-core/internal/domain"
	"ridehail-backend-core/internal/repository"
)

type companyRepository struct {
	db *sql.DB
}

func NewCompanyRepository(db *sql.DB) repository.CompanyRepository {
	return &companyRepository{db: db}
}

func (r *companyRepository) CreateEntry(ctx context.Context, e *domain.CompanyEntry) error {
	query := `INSERT INTO company_account (trip_id, income, expense, type, settlement_id, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	now := time.Now()
	if err := conn(ctx, r.db).QueryRowContext(ctx, query, e.TripID, e.Income, e.Expense, e.Type, e.SettlementID, now).Scan(&e.ID); err != nil {
		return err
	}
	e.CreatedAt = now
	return nil
}

func (r *companyRepository) ListByTrip(ctx context.Context, tripID int64) ([]domain.CompanyEntry, error) {
	query := `SELECT id, trip_id, income, expense, type, settlement_id, created_at
	          FROM company_account WHERE trip_id = $1 ORDER BY id`
	rows, err := conn(ctx, r.db).QueryContext(ctx, query, tripID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.CompanyEntry
	for rows.Next() {
		var e domain.CompanyEntry
		if err := rows.Scan(&e.ID, &e.TripID, &e.Income, &e.Expense, &e.Type, &e.SettlementID, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
