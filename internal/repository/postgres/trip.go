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

const tripColumns = `id, client_id, driver_id, fare_offered, fare_assigned, status,
	accepted_at, finished_at, paid_at, cancelled_at, created_at, updated_at`

type tripRepository struct {
	db *sql.DB
}

func NewTripRepository(db *sql.DB) repository.TripRepository {
	return &tripRepository{db: db}
}

func (r *tripRepository) Create(ctx context.Context, trip *domain.Trip) error {
	logger.EnterMethod("tripRepository.Create", "clientID", trip.ClientID)

	query := `INSERT INTO trip_requests (client_id, fare_offered, status, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5) RETURNING id`
	now := time.Now()
	if trip.Status == "" {
		trip.Status = domain.TripStatusCreated
	}
	err := conn(ctx, r.db).QueryRowContext(ctx, query, trip.ClientID, trip.FareOffered, trip.Status, now, now).Scan(&trip.ID)
	if err != nil {
		logger.ExitMethodWithError("tripRepository.Create", err, "clientID", trip.ClientID)
		return err
	}
	trip.CreatedAt, trip.UpdatedAt = now, now

	logger.ExitMethod("tripRepository.Create", "tripID", trip.ID)
	return nil
}

func (r *tripRepository) GetByID(ctx context.Context, id int64) (*domain.Trip, error) {
	return r.get(ctx, `SELECT `+tripColumns+` FROM trip_requests WHERE id = $1`, id)
}

func (r *tripRepository) GetForUpdate(ctx context.Context, id int64) (*domain.Trip, error) {
	if !inTx(ctx) {
		return nil, fmt.Errorf("tripRepository.GetForUpdate requires a transaction")
	}
	return r.get(ctx, `SELECT `+tripColumns+` FROM trip_requests WHERE id = $1 FOR UPDATE`, id)
}

func (r *tripRepository) get(ctx context.Context, query string, id int64) (*domain.Trip, error) {
	t := &domain.Trip{}
	err := conn(ctx, r.db).QueryRowContext(ctx, query, id).Scan(
		&t.ID, &t.ClientID, &t.DriverID, &t.FareOffered, &t.FareAssigned, &t.Status,
		&t.AcceptedAt, &t.FinishedAt, &t.PaidAt, &t.CancelledAt, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, mapError(err, fmt.Sprintf("trip %d", id))
	}
	return t, nil
}

// statusTimestampColumn names the column stamped when a trip enters status.
func statusTimestampColumn(status domain.TripStatus) string {
	switch status {
	case domain.TripStatusAccepted:
		return "accepted_at"
	case domain.TripStatusFinished:
		return "finished_at"
	case domain.TripStatusPaid:
		return "paid_at"
	case domain.TripStatusCancelled:
		return "cancelled_at"
	}
	return ""
}

func (r *tripRepository) CompareAndSetStatus(ctx context.Context, id int64, from, to domain.TripStatus) (bool, error) {
	query := `UPDATE trip_requests SET status = $1, updated_at = $2`
	if col := statusTimestampColumn(to); col != "" {
		query += ", " + col + " = $2"
	}
	query += ` WHERE id = $3 AND status = $4`

	logger.DatabaseCall("tripRepository.CompareAndSetStatus", query, "tripID", id, "from", from, "to", to)
	res, err := conn(ctx, r.db).ExecContext(ctx, query, to, time.Now(), id, from)
	if err != nil {
		logger.DatabaseResult("tripRepository.CompareAndSetStatus", 0, err, "tripID", id)
		return false, err
	}
	n, err := res.RowsAffected()
	logger.DatabaseResult("tripRepository.CompareAndSetStatus", n, err, "tripID", id)
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *tripRepository) Assign(ctx context.Context, id, driverID int64, fare decimal.Decimal) (bool, error) {
	query := `UPDATE trip_requests
	          SET driver_id = $1, fare_assigned = $2, status = $3, accepted_at = $4, updated_at = $4
	          WHERE id = $5 AND status = $6 AND driver_id IS NULL`
	res, err := conn(ctx, r.db).ExecContext(ctx, query, driverID, fare, domain.TripStatusAccepted, time.Now(), id, domain.TripStatusCreated)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
