package service

import (
	"context"
	"fmt"
	"slices"

	"github.com/shopspring/decimal"
	"ridehail-backend-core/internal/domain"
	"ridehail-backend-core/internal/logger"
	"ridehail-backend-core/internal/repository"
	"ridehail-backend-core/internal/utils"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type ledgerService struct {
	tx         repository.Transactor
	ledgerRepo repository.LedgerRepository
}

func NewLedgerService(tx repository.Transactor, ledgerRepo repository.LedgerRepository) LedgerService {
	return &ledgerService{tx: tx, ledgerRepo: ledgerRepo}
}

func validAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: amount must be positive, got %s", domain.ErrValidation, amount)
	}
	if !amount.Equal(utils.RoundMoney(amount)) {
		return fmt.Errorf("%w: amount %s has more than %d decimal places", domain.ErrValidation, amount, utils.MoneyPlaces)
	}
	return nil
}

func (s *ledgerService) Record(ctx context.Context, entry LedgerEntry) (*domain.Transaction, error) {
	logger.EnterMethod("ledgerService.Record", "actorID", entry.ActorID, "type", entry.Type, "direction", entry.Direction)

	if err := validAmount(entry.Amount); err != nil {
		return nil, err
	}
	if entry.Direction != domain.DirectionIncome && entry.Direction != domain.DirectionExpense {
		return nil, fmt.Errorf("%w: unknown direction %q", domain.ErrValidation, entry.Direction)
	}

	var created *domain.Transaction
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.ledgerRepo.LockActor(ctx, entry.ActorID); err != nil {
			return err
		}

		if entry.Direction == domain.DirectionExpense {
			totals, err := s.ledgerRepo.GetTotals(ctx, entry.ActorID)
			if err != nil {
				return err
			}
			if available := domain.NewBalance(totals).Available; available.LessThan(entry.Amount) {
				return fmt.Errorf("%w: actor %d has %s available, %s requested",
					domain.ErrInsufficientFunds, entry.ActorID, available, entry.Amount)
			}
		}

		t, err := s.insert(ctx, entry.ActorID, entry.Amount, entry.Direction, entry.Type, entry.TripID, entry.SettlementID)
		if err != nil {
			return err
		}
		created = t
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("ledgerService.Record", err, "actorID", entry.ActorID)
		return nil, err
	}

	logger.ExitMethod("ledgerService.Record", "transactionID", created.ID)
	return created, nil
}

func (s *ledgerService) DebitSplit(ctx context.Context, actorID int64, amount decimal.Decimal, tripID *int64, settlementID *string) ([]domain.Transaction, error) {
	logger.EnterMethod("ledgerService.DebitSplit", "actorID", actorID, "amount", amount)

	if err := validAmount(amount); err != nil {
		return nil, err
	}

	var rows []domain.Transaction
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.ledgerRepo.LockActor(ctx, actorID); err != nil {
			return err
		}
		totals, err := s.ledgerRepo.GetTotals(ctx, actorID)
		if err != nil {
			return err
		}

		fromBonus := utils.MinPositive(domain.NewBalance(totals).Bonus, amount)
		fromService := amount.Sub(fromBonus)

		parts := []struct {
			typ    domain.TransactionType
			amount decimal.Decimal
		}{
			{domain.TransactionTypeBonus, fromBonus},
			{domain.TransactionTypeService, fromService},
		}
		for _, p := range parts {
			if !p.amount.IsPositive() {
				continue
			}
			t, err := s.insert(ctx, actorID, p.amount, domain.DirectionExpense, p.typ, tripID, settlementID)
			if err != nil {
				return err
			}
			rows = append(rows, *t)
		}
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("ledgerService.DebitSplit", err, "actorID", actorID)
		return nil, err
	}

	logger.ExitMethod("ledgerService.DebitSplit", "actorID", actorID, "rows", len(rows))
	return rows, nil
}

func (s *ledgerService) insert(ctx context.Context, actorID int64, amount decimal.Decimal, dir domain.Direction, typ domain.TransactionType, tripID *int64, settlementID *string) (*domain.Transaction, error) {
	t := &domain.Transaction{
		ActorID:      actorID,
		Income:       decimal.Zero,
		Expense:      decimal.Zero,
		Type:         typ,
		TripID:       tripID,
		SettlementID: settlementID,
		Confirmed:    true,
	}
	if dir == domain.DirectionIncome {
		t.Income = amount
	} else {
		t.Expense = amount
	}
	if err := s.ledgerRepo.CreateTransaction(ctx, t); err != nil {
		return nil, err
	}
	logger.LedgerMovement("actor", actorID, string(typ), string(dir), amount.StringFixed(utils.MoneyPlaces), "transactionID", t.ID)
	return t, nil
}

func (s *ledgerService) Balance(ctx context.Context, actorID int64) (domain.Balance, error) {
	totals, err := s.ledgerRepo.GetTotals(ctx, actorID)
	if err != nil {
		return domain.Balance{}, err
	}
	return domain.NewBalance(totals), nil
}

func (s *ledgerService) History(ctx context.Context, actorID int64, page, pageSize int32) ([]domain.Transaction, int32, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return s.ledgerRepo.ListTransactions(ctx, actorID, page, pageSize)
}

func (s *ledgerService) Lock(ctx context.Context, actorIDs ...int64) error {
	ids := slices.Clone(actorIDs)
	slices.Sort(ids)
	ids = slices.Compact(ids)
	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		for _, id := range ids {
			if err := s.ledgerRepo.LockActor(ctx, id); err != nil {
				return err
			}
		}
		return nil
	})
}
