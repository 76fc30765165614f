package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type SavingsStatus string

const (
	SavingsStatusSaving   SavingsStatus = "SAVING"
	SavingsStatusApproved SavingsStatus = "APPROVED"
)

type SavingsAccount struct {
	DriverID     int64           `json:"driver_id"`
	Amount       decimal.Decimal `json:"amount"`
	MaturityDate time.Time       `json:"maturity_date"`
	Status       SavingsStatus   `json:"status"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

type SavingsStatusView struct {
	Amount       decimal.Decimal `json:"amount"`
	MaturityDate *time.Time      `json:"maturity_date,omitempty"`
	CanWithdraw  bool            `json:"can_withdraw"`
	Message      string          `json:"message"`
}
