package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type CompanyEntryType string

const (
	CompanyEntryTypeService    CompanyEntryType = "SERVICE"
	CompanyEntryTypeAdditional CompanyEntryType = "ADDITIONAL"
	CompanyEntryTypeWithdraws  CompanyEntryType = "WITHDRAWS"
)

// CompanyEntry is a row of the platform's own ledger.
type CompanyEntry struct {
	ID           int64            `json:"id"`
	TripID       *int64           `json:"trip_id,omitempty"`
	Income       decimal.Decimal  `json:"income"`
	Expense      decimal.Decimal  `json:"expense"`
	Type         CompanyEntryType `json:"type"`
	SettlementID *string          `json:"settlement_id,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
}
