package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"ridehail-backend-core/internal/domain"
	"ridehail-backend-core/internal/repository"
)

type settingsRepository struct {
	db *sql.DB
}

func NewSettingsRepository(db *sql.DB) repository.SettingsRepository {
	return &settingsRepository{db: db}
}

func (r *settingsRepository) GetSettlementConfig(ctx context.Context) (*domain.SettlementConfig, error) {
	query := `SELECT driver_saving_pct, company_pct, referral_pct, driver_commission_pct, updated_at
	          FROM settlement_settings WHERE id = 1`
	cfg := &domain.SettlementConfig{}
	var referral pq.StringArray
	err := conn(ctx, r.db).QueryRowContext(ctx, query).Scan(
		&cfg.DriverSavingPct, &cfg.CompanyPct, &referral, &cfg.DriverCommissionPct, &cfg.UpdatedAt,
	)
	if err != nil {
		return nil, mapError(err, "settlement settings")
	}
	if len(referral) > domain.MaxReferralLevels {
		return nil, fmt.Errorf("%w: settlement settings list %d referral levels, at most %d supported",
			domain.ErrValidation, len(referral), domain.MaxReferralLevels)
	}
	for i, s := range referral {
		pct, err := decimal.NewFromString(s)
		if err != nil {
			return nil, fmt.Errorf("invalid referral_pct[%d] %q: %w", i+1, s, err)
		}
		cfg.ReferralPct[i] = pct
	}
	return cfg, nil
}
