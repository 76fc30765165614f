package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"ridehail-backend-core/internal/domain"
	"ridehail-backend-core/internal/logger"
	"ridehail-backend-core/internal/repository"
)

const settlementColumns = `id, trip_id, fare, commission, driver_share, savings, referral_total, company_total, residual, created_at`

type settlementRepository struct {
	db *sql.DB
}

func NewSettlementRepository(db *sql.DB) repository.SettlementRepository {
	return &settlementRepository{db: db}
}

func (r *settlementRepository) Create(ctx context.Context, s *domain.Settlement) error {
	logger.EnterMethod("settlementRepository.Create", "tripID", s.TripID, "settlementID", s.ID)

	query := `INSERT INTO settlements (` + settlementColumns + `)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	now := time.Now()
	_, err := conn(ctx, r.db).ExecContext(ctx, query,
		s.ID, s.TripID, s.Fare, s.Commission, s.DriverShare, s.Savings, s.ReferralTotal, s.CompanyTotal, s.Residual, now,
	)
	if err != nil {
		err = mapError(err, fmt.Sprintf("settlement for trip %d", s.TripID))
		logger.ExitMethodWithError("settlementRepository.Create", err, "tripID", s.TripID)
		return err
	}
	s.CreatedAt = now

	logger.ExitMethod("settlementRepository.Create", "tripID", s.TripID)
	return nil
}

func (r *settlementRepository) GetByTrip(ctx context.Context, tripID int64) (*domain.Settlement, error) {
	query := `SELECT ` + settlementColumns + ` FROM settlements WHERE trip_id = $1`
	s := &domain.Settlement{}
	err := conn(ctx, r.db).QueryRowContext(ctx, query, tripID).Scan(
		&s.ID, &s.TripID, &s.Fare, &s.Commission, &s.DriverShare, &s.Savings, &s.ReferralTotal, &s.CompanyTotal, &s.Residual, &s.CreatedAt,
	)
	if err != nil {
		return nil, mapError(err, fmt.Sprintf("settlement for trip %d", tripID))
	}
	return s, nil
}

func (r *settlementRepository) ListSince(ctx context.Context, since time.Time) ([]domain.Settlement, error) {
	query := `SELECT ` + settlementColumns + ` FROM settlements WHERE created_at >= $1 ORDER BY created_at`
	rows, err := conn(ctx, r.db).QueryContext(ctx, query, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Settlement
	for rows.Next() {
		var s domain.Settlement
		if err := rows.Scan(&s.ID, &s.TripID, &s.Fare, &s.Commission, &s.DriverShare, &s.Savings, &s.ReferralTotal, &s.CompanyTotal, &s.Residual, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
