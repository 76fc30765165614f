package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"
	"ridehail-backend-core/internal/domain"
	"ridehail-backend-core/internal/repository"
)

type referralRepository struct {
	db *sql.DB
}

func NewReferralRepository(db *sql.DB) repository.ReferralRepository {
	return &referralRepository{db: db}
}

func (r *referralRepository) GetParent(ctx context.Context, childID int64) (int64, bool, error) {
	var parentID int64
	err := conn(ctx, r.db).QueryRowContext(ctx, `SELECT parent_id FROM referral_edges WHERE child_id = $1`, childID).Scan(&parentID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return parentID, true, nil
}

func (r *referralRepository) ListChildren(ctx context.Context, parentIDs []int64) ([]domain.ReferralEdge, error) {
	if len(parentIDs) == 0 {
		return nil, nil
	}
	query := `SELECT child_id, parent_id FROM referral_edges WHERE parent_id = ANY($1) ORDER BY child_id`
	rows, err := conn(ctx, r.db).QueryContext(ctx, query, pq.Array(parentIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var edges []domain.ReferralEdge
	for rows.Next() {
		var e domain.ReferralEdge
		if err := rows.Scan(&e.ChildID, &e.ParentID); err != nil {
			return nil, err
		}
		edges = append(edges, e)
	}
	return edges, rows.Err()
}

func (r *referralRepository) Link(ctx context.Context, edge domain.ReferralEdge) error {
	_, err := conn(ctx, r.db).ExecContext(ctx,
		`INSERT INTO referral_edges (child_id, parent_id) VALUES ($1, $2)`, edge.ChildID, edge.ParentID)
	return mapError(err, "referral edge")
}
