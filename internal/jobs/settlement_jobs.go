package jobs

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"ridehail-backend-core/internal/domain"
	"ridehail-backend-core/internal/logger"
	"ridehail-backend-core/internal/utils"
)

// AuditReport summarises one audit run.
type AuditReport struct {
	Checked    int
	Mismatched []string // settlement ids
}

// AuditSettlements re-checks every settlement written inside the audit
// window against its stored lines and the entries booked for its trip.
func (jr *JobRunner) AuditSettlements() {
	_ = jr.runWithRecovery("AuditSettlements", func(ctx context.Context) error {
		_, err := jr.auditSettlements(ctx)
		return err
	})
}

func (jr *JobRunner) auditSettlements(ctx context.Context) (*AuditReport, error) {
	since := jr.now().Add(-jr.config.AuditWindow())
	settlements, err := jr.repos.Settlement.ListSince(ctx, since)
	if err != nil {
		return nil, err
	}

	report := &AuditReport{Checked: len(settlements)}
	for i := range settlements {
		s := &settlements[i]
		problems, err := jr.auditOne(ctx, s)
		if err != nil {
			return nil, err
		}
		if len(problems) > 0 {
			report.Mismatched = append(report.Mismatched, s.ID)
			logger.WithTrip(s.TripID).Error("Settlement does not reconcile",
				"settlementID", s.ID, "problems", strings.Join(problems, "; "))
		}
	}

	logger.Info("Settlement audit complete", "checked", report.Checked, "mismatched", len(report.Mismatched))
	return report, nil
}

func (jr *JobRunner) auditOne(ctx context.Context, s *domain.Settlement) ([]string, error) {
	var problems []string
	txs, err := jr.repos.Ledger.ListByTrip(ctx, s.TripID)
	if err != nil {
		return nil, err
	}
	referrals, commission := decimal.Zero, decimal.Zero
	for _, tx := range txs {
		if tx.SettlementID == nil || *tx.SettlementID != s.ID {
			continue
		}
		switch {
		case strings.HasPrefix(string(tx.Type), "REFERRAL_"):
			referrals = referrals.Add(tx.Income)
		case tx.Type == domain.TransactionTypeBonus || tx.Type == domain.TransactionTypeService:
			commission = commission.Add(tx.Expense)
		}
	}
	if !referrals.Equal(s.ReferralTotal) {
		problems = append(problems, "referral rows total "+referrals.StringFixed(utils.MoneyPlaces))
	}
	if !commission.Equal(s.Commission) {
		problems = append(problems, "commission rows total "+commission.StringFixed(utils.MoneyPlaces))
	}

	entries, err := jr.repos.Company.ListByTrip(ctx, s.TripID)
	if err != nil {
		return nil, err
	}
	company := decimal.Zero
	for _, e := range entries {
		if e.SettlementID != nil && *e.SettlementID == s.ID {
			company = company.Add(e.Income).Sub(e.Expense)
		}
	}
	if !company.Equal(s.CompanyTotal) {
		problems = append(problems, "company entries total "+company.StringFixed(utils.MoneyPlaces))
	}

	// The stored residual is derived from the fare, so the split is checked
	// against what was booked rather than against the settlement row itself.
	booked := s.DriverShare.Add(s.Savings).Add(referrals).Add(company)
	if !booked.Equal(s.Fare) {
		problems = append(problems, "booked lines total "+booked.StringFixed(utils.MoneyPlaces)+
			" against fare "+s.Fare.StringFixed(utils.MoneyPlaces))
	}
	return problems, nil
}
