package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionTypeBonus           TransactionType = "BONUS"
	TransactionTypeService         TransactionType = "SERVICE"
	TransactionTypeCommission      TransactionType = "COMMISSION"
	TransactionTypeReferral1       TransactionType = "REFERRAL_1"
	TransactionTypeReferral2       TransactionType = "REFERRAL_2"
	TransactionTypeReferral3       TransactionType = "REFERRAL_3"
	TransactionTypeReferral4       TransactionType = "REFERRAL_4"
	TransactionTypeReferral5       TransactionType = "REFERRAL_5"
	TransactionTypeWithdrawal      TransactionType = "WITHDRAWAL"
	TransactionTypeTransferSavings TransactionType = "TRANSFER_SAVINGS"
	TransactionTypeAdjustment      TransactionType = "ADJUSTMENT"
	TransactionTypeRefund          TransactionType = "REFUND"
)

// ReferralTransactionType returns REFERRAL_<level> for levels 1..MaxReferralLevels.
func ReferralTransactionType(level int) (TransactionType, error) {
	if level < 1 || level > MaxReferralLevels {
		return "", fmt.Errorf("%w: referral level %d out of range", ErrValidation, level)
	}
	return TransactionType(fmt.Sprintf("REFERRAL_%d", level)), nil
}

type Direction string

const (
	DirectionIncome  Direction = "INCOME"
	DirectionExpense Direction = "EXPENSE"
)

// Transaction is one immutable ledger row. Exactly one of Income and Expense
// is non-zero.
type Transaction struct {
	ID           int64           `json:"id"`
	ActorID      int64           `json:"actor_id"`
	Income       decimal.Decimal `json:"income"`
	Expense      decimal.Decimal `json:"expense"`
	Type         TransactionType `json:"type"`
	TripID       *int64          `json:"trip_id,omitempty"`
	SettlementID *string         `json:"settlement_id,omitempty"`
	Confirmed    bool            `json:"confirmed"`
	CreatedAt    time.Time       `json:"created_at"`
}

// Amount returns the signed value of the row: income positive, expense negative.
func (t *Transaction) Amount() decimal.Decimal {
	return t.Income.Sub(t.Expense)
}

// LedgerTotals are the raw sums a Balance is derived from.
type LedgerTotals struct {
	BonusIncome     decimal.Decimal
	BonusExpense    decimal.Decimal
	NonBonusIncome  decimal.Decimal
	NonBonusExpense decimal.Decimal
}

type Balance struct {
	Available    decimal.Decimal `json:"available"`
	Withdrawable decimal.Decimal `json:"withdrawable"`
	Bonus        decimal.Decimal `json:"bonus"`
}

// NewBalance derives the balance view from ledger totals.
//
// Withdrawable funds are non-bonus income minus non-bonus expense, floored at
// zero unless that figure equals the whole available balance (an actor with no
// bonus activity shows the same, possibly negative, value in both).
func NewBalance(t LedgerTotals) Balance {
	available := t.BonusIncome.Add(t.NonBonusIncome).Sub(t.BonusExpense).Sub(t.NonBonusExpense)
	withdrawable := t.NonBonusIncome.Sub(t.NonBonusExpense)
	if withdrawable.IsNegative() && !withdrawable.Equal(available) {
		withdrawable = decimal.Zero
	}
	return Balance{
		Available:    available,
		Withdrawable: withdrawable,
		Bonus:        available.Sub(withdrawable),
	}
}
