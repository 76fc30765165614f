package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type WithdrawalStatus string

const (
	WithdrawalStatusPending  WithdrawalStatus = "PENDING"
	WithdrawalStatusApproved WithdrawalStatus = "APPROVED"
	WithdrawalStatusRejected WithdrawalStatus = "REJECTED"
)

type Withdrawal struct {
	ID            int64            `json:"id"`
	ActorID       int64            `json:"actor_id"`
	Amount        decimal.Decimal  `json:"amount"`
	Status        WithdrawalStatus `json:"status"`
	BankAccountID int64            `json:"bank_account_id"`
	TransactionID int64            `json:"transaction_id"` // the WITHDRAWAL debit
	RequestedAt   time.Time        `json:"requested_at"`
	DecidedAt     *time.Time       `json:"decided_at,omitempty"`
	DecidedBy     *int64           `json:"decided_by,omitempty"`
}
