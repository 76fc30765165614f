package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"ridehail-backend-core/internal/domain"
	"ridehail-backend-core/internal/logger"
	"ridehail-backend-core/internal/repository"
	"ridehail-backend-core/internal/utils"
)

// SavingsPolicy holds the configurable savings limits.
type SavingsPolicy struct {
	MinimumWithdrawal decimal.Decimal
	LockDays          int
}

type savingsService struct {
	tx          repository.Transactor
	savingsRepo repository.SavingsRepository
	driverRepo  repository.DriverRepository
	ledger      LedgerService
	policy      SavingsPolicy
}

func NewSavingsService(
	tx repository.Transactor,
	savingsRepo repository.SavingsRepository,
	driverRepo repository.DriverRepository,
	ledger LedgerService,
	policy SavingsPolicy,
) SavingsService {
	return &savingsService{
		tx:          tx,
		savingsRepo: savingsRepo,
		driverRepo:  driverRepo,
		ledger:      ledger,
		policy:      policy,
	}
}

// Credit adds amount to the driver's savings. The maturity date is fixed by
// the credit that opens the account; later credits do not move it.
func (s *savingsService) Credit(ctx context.Context, driverID int64, amount decimal.Decimal) (*domain.SavingsAccount, error) {
	if err := validAmount(amount); err != nil {
		return nil, err
	}
	maturity := utils.MaturityDate(time.Now(), s.policy.LockDays)
	acct, err := s.savingsRepo.Credit(ctx, driverID, amount, maturity)
	if err != nil {
		return nil, err
	}
	logger.LedgerMovement("savings", driverID, "SAVINGS", string(domain.DirectionIncome), amount.StringFixed(utils.MoneyPlaces),
		"balance", acct.Amount.StringFixed(utils.MoneyPlaces))
	return acct, nil
}

func (s *savingsService) TransferToBalance(ctx context.Context, driverID int64, amount decimal.Decimal) (*domain.Transaction, error) {
	logger.EnterMethod("savingsService.TransferToBalance", "driverID", driverID, "amount", amount)

	if err := validAmount(amount); err != nil {
		return nil, err
	}
	if amount.LessThan(s.policy.MinimumWithdrawal) {
		err := fmt.Errorf("%w: transfer of %s is below the minimum withdrawal of %s",
			domain.ErrValidation, amount, s.policy.MinimumWithdrawal)
		logger.ExitMethodWithError("savingsService.TransferToBalance", err, "driverID", driverID)
		return nil, err
	}

	var credited *domain.Transaction
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		status, err := s.driverRepo.GetStatus(ctx, driverID)
		if err != nil {
			return err
		}
		if status != domain.DriverStatusApproved {
			return fmt.Errorf("%w: driver %d is %s, not approved", domain.ErrForbidden, driverID, status)
		}

		if err := s.ledger.Lock(ctx, driverID); err != nil {
			return err
		}
		acct, err := s.savingsRepo.GetForUpdate(ctx, driverID)
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("%w: driver %d has no savings", domain.ErrInsufficientFunds, driverID)
		}
		if err != nil {
			return err
		}
		if acct.Amount.LessThan(amount) {
			return fmt.Errorf("%w: savings of %s cannot cover %s", domain.ErrInsufficientFunds, acct.Amount, amount)
		}

		if err := s.savingsRepo.Debit(ctx, driverID, amount); err != nil {
			return err
		}
		logger.LedgerMovement("savings", driverID, "SAVINGS", string(domain.DirectionExpense), amount.StringFixed(utils.MoneyPlaces))

		credited, err = s.ledger.Record(ctx, LedgerEntry{
			ActorID:   driverID,
			Amount:    amount,
			Direction: domain.DirectionIncome,
			Type:      domain.TransactionTypeTransferSavings,
		})
		return err
	})
	if err != nil {
		logger.ExitMethodWithError("savingsService.TransferToBalance", err, "driverID", driverID)
		return nil, err
	}

	logger.ExitMethod("savingsService.TransferToBalance", "driverID", driverID, "transactionID", credited.ID)
	return credited, nil
}

func (s *savingsService) Status(ctx context.Context, driverID int64) (*domain.SavingsStatusView, error) {
	acct, err := s.savingsRepo.Get(ctx, driverID)
	if errors.Is(err, domain.ErrNotFound) {
		return &domain.SavingsStatusView{
			Amount:  decimal.Zero,
			Message: "No savings yet",
		}, nil
	}
	if err != nil {
		return nil, err
	}

	view := &domain.SavingsStatusView{
		Amount:       acct.Amount,
		MaturityDate: &acct.MaturityDate,
		CanWithdraw:  acct.Amount.GreaterThanOrEqual(s.policy.MinimumWithdrawal),
	}
	if view.CanWithdraw {
		view.Message = "Savings can be transferred to your balance"
	} else {
		view.Message = fmt.Sprintf("Savings must reach %s before they can be transferred",
			s.policy.MinimumWithdrawal.StringFixed(utils.MoneyPlaces))
	}
	return view, nil
}
