package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"ridehail-backend-core/internal/domain"
	"ridehail-backend-core/internal/logger"
	"ridehail-backend-core/internal/repository"
	"ridehail-backend-core/internal/utils"
)

// Allocate splits fare according to cfg. ancestors lists the client's
// referrers nearest first; slots without an ancestor stay unclaimed and go to
// the company. Every share is rounded half-up to cents and the company takes
// whatever rounding leaves over, so the result always totals fare.
func Allocate(fare decimal.Decimal, cfg domain.SettlementConfig, ancestors []int64) domain.Allocation {
	a := domain.Allocation{
		Fare:           fare,
		Commission:     utils.Share(fare, cfg.DriverCommissionPct),
		Savings:        utils.Share(fare, cfg.DriverSavingPct),
		CompanyService: utils.Share(fare, cfg.CompanyPct),
		DriverShare:    utils.Share(fare, decimal.NewFromInt(1).Sub(cfg.DistributedPct())),
	}

	distributed := a.DriverShare.Add(a.Savings).Add(a.CompanyService)
	for i, pct := range cfg.ReferralPct {
		share := domain.ReferralShare{Level: i + 1, Amount: utils.Share(fare, pct)}
		if i < len(ancestors) {
			id := ancestors[i]
			share.BeneficiaryID = &id
		}
		a.Referrals = append(a.Referrals, share)
		distributed = distributed.Add(share.Amount)
	}
	a.Residual = fare.Sub(distributed)
	return a
}

type settlementEngine struct {
	tx             repository.Transactor
	settlementRepo repository.SettlementRepository
	companyRepo    repository.CompanyRepository
	ledger         LedgerService
	referrals      ReferralResolver
	savings        SavingsService
}

func NewSettlementEngine(
	tx repository.Transactor,
	settlementRepo repository.SettlementRepository,
	companyRepo repository.CompanyRepository,
	ledger LedgerService,
	referrals ReferralResolver,
	savings SavingsService,
) SettlementEngine {
	return &settlementEngine{
		tx:             tx,
		settlementRepo: settlementRepo,
		companyRepo:    companyRepo,
		ledger:         ledger,
		referrals:      referrals,
		savings:        savings,
	}
}

func (e *settlementEngine) Preview(ctx context.Context, trip *domain.Trip, cfg domain.SettlementConfig) (*domain.Allocation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	ancestors, err := e.referrals.Chain(ctx, trip.ClientID, domain.MaxReferralLevels)
	if err != nil {
		return nil, err
	}
	a := Allocate(trip.FareAssigned, cfg, ancestors)
	return &a, nil
}

// Settle writes every entry of the trip's fare split. A non-positive fare
// settles nothing and returns a nil settlement.
func (e *settlementEngine) Settle(ctx context.Context, trip *domain.Trip, cfg domain.SettlementConfig) (*domain.Settlement, error) {
	logger.EnterMethod("settlementEngine.Settle", "tripID", trip.ID, "fare", trip.FareAssigned)

	if !trip.FareAssigned.IsPositive() {
		logger.WithTrip(trip.ID).Warn("Skipping settlement of trip without a positive fare", "fare", trip.FareAssigned)
		return nil, nil
	}
	if trip.DriverID == nil {
		return nil, fmt.Errorf("%w: trip %d has no assigned driver", domain.ErrValidation, trip.ID)
	}
	if err := cfg.Validate(); err != nil {
		logger.ExitMethodWithError("settlementEngine.Settle", err, "tripID", trip.ID)
		return nil, err
	}

	var settlement *domain.Settlement
	err := e.tx.WithinTx(ctx, func(ctx context.Context) error {
		ancestors, err := e.referrals.Chain(ctx, trip.ClientID, domain.MaxReferralLevels)
		if err != nil {
			return err
		}
		driverID := *trip.DriverID
		if err := e.ledger.Lock(ctx, append([]int64{driverID}, ancestors...)...); err != nil {
			return err
		}

		alloc := Allocate(trip.FareAssigned, cfg, ancestors)
		id := uuid.NewString()
		settlement = &domain.Settlement{
			ID:            id,
			TripID:        trip.ID,
			Fare:          alloc.Fare,
			Commission:    alloc.Commission,
			DriverShare:   alloc.DriverShare,
			Savings:       alloc.Savings,
			ReferralTotal: alloc.ReferralTotal(),
			CompanyTotal:  alloc.CompanyTotal(),
			Residual:      alloc.Residual,
		}
		// the unique trip_id makes a second settlement fail here, before any money moves
		if err := e.settlementRepo.Create(ctx, settlement); err != nil {
			return err
		}

		tripID := trip.ID
		if alloc.Commission.IsPositive() {
			if _, err := e.ledger.DebitSplit(ctx, driverID, alloc.Commission, &tripID, &id); err != nil {
				return err
			}
		}
		if alloc.Savings.IsPositive() {
			if _, err := e.savings.Credit(ctx, driverID, alloc.Savings); err != nil {
				return err
			}
		}

		for _, r := range alloc.Referrals {
			if !r.Amount.IsPositive() {
				continue
			}
			if r.BeneficiaryID == nil {
				if err := e.companyEntry(ctx, tripID, id, r.Amount, domain.CompanyEntryTypeAdditional); err != nil {
					return err
				}
				continue
			}
			typ, err := domain.ReferralTransactionType(r.Level)
			if err != nil {
				return err
			}
			if _, err := e.ledger.Record(ctx, LedgerEntry{
				ActorID:      *r.BeneficiaryID,
				Amount:       r.Amount,
				Direction:    domain.DirectionIncome,
				Type:         typ,
				TripID:       &tripID,
				SettlementID: &id,
			}); err != nil {
				return err
			}
		}

		if alloc.CompanyService.IsPositive() {
			if err := e.companyEntry(ctx, tripID, id, alloc.CompanyService, domain.CompanyEntryTypeService); err != nil {
				return err
			}
		}
		if !alloc.Residual.IsZero() {
			if err := e.companyEntry(ctx, tripID, id, alloc.Residual, domain.CompanyEntryTypeAdditional); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("settlementEngine.Settle", err, "tripID", trip.ID)
		return nil, err
	}

	logger.WithTrip(trip.ID).Info("Trip settled",
		"settlementID", settlement.ID,
		"commission", settlement.Commission.StringFixed(utils.MoneyPlaces),
		"company", settlement.CompanyTotal.StringFixed(utils.MoneyPlaces),
		"referrals", settlement.ReferralTotal.StringFixed(utils.MoneyPlaces))
	logger.ExitMethod("settlementEngine.Settle", "tripID", trip.ID)
	return settlement, nil
}

// companyEntry books amount on the company account. Negative amounts are
// booked as expenses.
func (e *settlementEngine) companyEntry(ctx context.Context, tripID int64, settlementID string, amount decimal.Decimal, typ domain.CompanyEntryType) error {
	entry := &domain.CompanyEntry{
		TripID:       &tripID,
		Income:       decimal.Zero,
		Expense:      decimal.Zero,
		Type:         typ,
		SettlementID: &settlementID,
	}
	direction := domain.DirectionIncome
	if amount.IsNegative() {
		entry.Expense = amount.Neg()
		direction = domain.DirectionExpense
	} else {
		entry.Income = amount
	}
	if err := e.companyRepo.CreateEntry(ctx, entry); err != nil {
		return err
	}
	logger.LedgerMovement("company", 0, string(typ), string(direction), amount.Abs().StringFixed(utils.MoneyPlaces), "tripID", tripID)
	return nil
}
