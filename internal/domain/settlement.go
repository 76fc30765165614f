package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// SettlementConfig is an immutable snapshot of the fare-split percentages.
// The driver commission rate is carried separately from the distribution
// table and is not part of the sum check.
type SettlementConfig struct {
	DriverSavingPct     decimal.Decimal                    `json:"driver_saving_pct"`
	CompanyPct          decimal.Decimal                    `json:"company_pct"`
	ReferralPct         [MaxReferralLevels]decimal.Decimal `json:"referral_pct"`
	DriverCommissionPct decimal.Decimal                    `json:"driver_commission_pct"`
	UpdatedAt           time.Time                          `json:"updated_at"`
}

// DistributedPct is the share of the fare routed away from the driver.
func (c SettlementConfig) DistributedPct() decimal.Decimal {
	total := c.DriverSavingPct.Add(c.CompanyPct)
	for _, p := range c.ReferralPct {
		total = total.Add(p)
	}
	return total
}

func (c SettlementConfig) Validate() error {
	one := decimal.NewFromInt(1)
	check := func(name string, v decimal.Decimal) error {
		if v.IsNegative() || v.GreaterThan(one) {
			return fmt.Errorf("%w: %s must be between 0 and 1, got %s", ErrValidation, name, v)
		}
		return nil
	}
	if err := check("driver_saving_pct", c.DriverSavingPct); err != nil {
		return err
	}
	if err := check("company_pct", c.CompanyPct); err != nil {
		return err
	}
	if err := check("driver_commission_pct", c.DriverCommissionPct); err != nil {
		return err
	}
	for i, p := range c.ReferralPct {
		if err := check(fmt.Sprintf("referral_pct[%d]", i+1), p); err != nil {
			return err
		}
	}
	if c.DistributedPct().GreaterThan(one) {
		return fmt.Errorf("%w: distributed percentages sum to %s, above 1", ErrValidation, c.DistributedPct())
	}
	return nil
}

// ReferralShare is one of the five referral slots of an allocation. A nil
// BeneficiaryID means no ancestor exists at that level and the amount goes to
// the company.
type ReferralShare struct {
	Level         int             `json:"level"`
	BeneficiaryID *int64          `json:"beneficiary_id,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
}

// Allocation is the computed split of one fare.
type Allocation struct {
	Fare           decimal.Decimal `json:"fare"`
	Commission     decimal.Decimal `json:"commission"`
	DriverShare    decimal.Decimal `json:"driver_share"`
	Savings        decimal.Decimal `json:"savings"`
	CompanyService decimal.Decimal `json:"company_service"`
	Residual       decimal.Decimal `json:"residual"`
	Referrals      []ReferralShare `json:"referrals"`
}

// ReferralTotal sums the slots paid to actual ancestors.
func (a Allocation) ReferralTotal() decimal.Decimal {
	total := decimal.Zero
	for _, r := range a.Referrals {
		if r.BeneficiaryID != nil {
			total = total.Add(r.Amount)
		}
	}
	return total
}

// Unclaimed sums the referral slots without an ancestor.
func (a Allocation) Unclaimed() decimal.Decimal {
	total := decimal.Zero
	for _, r := range a.Referrals {
		if r.BeneficiaryID == nil {
			total = total.Add(r.Amount)
		}
	}
	return total
}

func (a Allocation) CompanyTotal() decimal.Decimal {
	return a.CompanyService.Add(a.Unclaimed()).Add(a.Residual)
}

// Total must equal Fare for every allocation the engine produces.
func (a Allocation) Total() decimal.Decimal {
	return a.DriverShare.Add(a.Savings).Add(a.ReferralTotal()).Add(a.CompanyTotal())
}

// Settlement is the persisted record of a trip's one-time fare split.
type Settlement struct {
	ID            string          `json:"id"`
	TripID        int64           `json:"trip_id"`
	Fare          decimal.Decimal `json:"fare"`
	Commission    decimal.Decimal `json:"commission"`
	DriverShare   decimal.Decimal `json:"driver_share"`
	Savings       decimal.Decimal `json:"savings"`
	ReferralTotal decimal.Decimal `json:"referral_total"`
	CompanyTotal  decimal.Decimal `json:"company_total"`
	Residual      decimal.Decimal `json:"residual"`
	CreatedAt     time.Time       `json:"created_at"`
}

// Balanced reports whether the stored lines add up to the fare.
func (s *Settlement) Balanced() bool {
	sum := s.DriverShare.Add(s.Savings).Add(s.ReferralTotal).Add(s.CompanyTotal)
	return sum.Equal(s.Fare)
}
