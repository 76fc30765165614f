package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"ridehail-backend-core/internal/domain"
	"ridehail-backend-core/internal/logger"
	"ridehail-backend-core/internal/repository"
)

type withdrawalService struct {
	tx             repository.Transactor
	withdrawalRepo repository.WithdrawalRepository
	ledgerRepo     repository.LedgerRepository
	bankRepo       repository.BankAccountRepository
	ledger         LedgerService
}

func NewWithdrawalService(
	tx repository.Transactor,
	withdrawalRepo repository.WithdrawalRepository,
	ledgerRepo repository.LedgerRepository,
	bankRepo repository.BankAccountRepository,
	ledger LedgerService,
) WithdrawalService {
	return &withdrawalService{
		tx:             tx,
		withdrawalRepo: withdrawalRepo,
		ledgerRepo:     ledgerRepo,
		bankRepo:       bankRepo,
		ledger:         ledger,
	}
}

// Request debits the ledger immediately and records a PENDING withdrawal.
func (s *withdrawalService) Request(ctx context.Context, actorID int64, amount decimal.Decimal, bankAccountID int64) (*domain.Withdrawal, error) {
	logger.EnterMethod("withdrawalService.Request", "actorID", actorID, "amount", amount, "bankAccountID", bankAccountID)

	if err := validAmount(amount); err != nil {
		return nil, err
	}

	var w *domain.Withdrawal
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		owned, err := s.bankRepo.BelongsTo(ctx, bankAccountID, actorID)
		if err != nil {
			return err
		}
		if !owned {
			return fmt.Errorf("%w: bank account %d does not belong to actor %d", domain.ErrForbidden, bankAccountID, actorID)
		}

		if err := s.ledger.Lock(ctx, actorID); err != nil {
			return err
		}
		balance, err := s.ledger.Balance(ctx, actorID)
		if err != nil {
			return err
		}
		if balance.Withdrawable.LessThan(amount) {
			return fmt.Errorf("%w: actor %d can withdraw %s, %s requested",
				domain.ErrInsufficientFunds, actorID, balance.Withdrawable, amount)
		}

		debit, err := s.ledger.Record(ctx, LedgerEntry{
			ActorID:   actorID,
			Amount:    amount,
			Direction: domain.DirectionExpense,
			Type:      domain.TransactionTypeWithdrawal,
		})
		if err != nil {
			return err
		}

		w = &domain.Withdrawal{
			ActorID:       actorID,
			Amount:        amount,
			Status:        domain.WithdrawalStatusPending,
			BankAccountID: bankAccountID,
			TransactionID: debit.ID,
		}
		return s.withdrawalRepo.Create(ctx, w)
	})
	if err != nil {
		logger.ExitMethodWithError("withdrawalService.Request", err, "actorID", actorID)
		return nil, err
	}

	logger.ExitMethod("withdrawalService.Request", "withdrawalID", w.ID)
	return w, nil
}

func (s *withdrawalService) Approve(ctx context.Context, admin domain.Actor, withdrawalID int64) (*domain.Withdrawal, error) {
	return s.decide(ctx, admin, withdrawalID, domain.WithdrawalStatusApproved, nil)
}

// Reject refunds the debited amount and marks the original debit unconfirmed.
func (s *withdrawalService) Reject(ctx context.Context, admin domain.Actor, withdrawalID int64) (*domain.Withdrawal, error) {
	return s.decide(ctx, admin, withdrawalID, domain.WithdrawalStatusRejected, func(ctx context.Context, w *domain.Withdrawal) error {
		if _, err := s.ledger.Record(ctx, LedgerEntry{
			ActorID:   w.ActorID,
			Amount:    w.Amount,
			Direction: domain.DirectionIncome,
			Type:      domain.TransactionTypeRefund,
		}); err != nil {
			return err
		}
		return s.ledgerRepo.SetConfirmed(ctx, w.TransactionID, false)
	})
}

func (s *withdrawalService) decide(ctx context.Context, admin domain.Actor, withdrawalID int64, status domain.WithdrawalStatus, then func(context.Context, *domain.Withdrawal) error) (*domain.Withdrawal, error) {
	logger.EnterMethod("withdrawalService.decide", "withdrawalID", withdrawalID, "status", status, "adminID", admin.ID)

	if !admin.IsAdmin() {
		err := fmt.Errorf("%w: only admins can decide withdrawals", domain.ErrForbidden)
		logger.ExitMethodWithError("withdrawalService.decide", err, "withdrawalID", withdrawalID)
		return nil, err
	}

	var w *domain.Withdrawal
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		current, err := s.withdrawalRepo.GetForUpdate(ctx, withdrawalID)
		if err != nil {
			return err
		}
		if current.Status != domain.WithdrawalStatusPending {
			return fmt.Errorf("%w: withdrawal %d is already %s", domain.ErrConflict, withdrawalID, current.Status)
		}

		ok, err := s.withdrawalRepo.Decide(ctx, withdrawalID, status, admin.ID, time.Now())
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: withdrawal %d changed concurrently", domain.ErrConflict, withdrawalID)
		}
		if then != nil {
			if err := s.ledger.Lock(ctx, current.ActorID); err != nil {
				return err
			}
			if err := then(ctx, current); err != nil {
				return err
			}
		}

		w, err = s.withdrawalRepo.GetByID(ctx, withdrawalID)
		return err
	})
	if err != nil {
		logger.ExitMethodWithError("withdrawalService.decide", err, "withdrawalID", withdrawalID)
		return nil, err
	}

	logger.ExitMethod("withdrawalService.decide", "withdrawalID", withdrawalID, "status", w.Status)
	return w, nil
}

func (s *withdrawalService) List(ctx context.Context, actorID int64, statuses []domain.WithdrawalStatus) ([]domain.Withdrawal, error) {
	return s.withdrawalRepo.ListByActor(ctx, actorID, statuses)
}
