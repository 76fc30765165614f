package utils

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// MoneyPlaces is the number of fractional digits every stored amount carries.
const MoneyPlaces = 2

// RoundMoney rounds half-up (away from zero) to MoneyPlaces.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyPlaces)
}

// Share returns amount × pct rounded to money precision.
func Share(amount, pct decimal.Decimal) decimal.Decimal {
	return RoundMoney(amount.Mul(pct))
}

// ParseMoney parses a positive amount with at most two fractional digits.
func ParseMoney(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %v", s, err)
	}
	if !d.IsPositive() {
		return decimal.Zero, fmt.Errorf("amount must be positive, got %s", s)
	}
	if !d.Equal(RoundMoney(d)) {
		return decimal.Zero, fmt.Errorf("amount %s has more than %d decimal places", s, MoneyPlaces)
	}
	return d, nil
}

// MinPositive returns the smaller of a and b, never below zero.
func MinPositive(a, b decimal.Decimal) decimal.Decimal {
	m := decimal.Min(a, b)
	if m.IsNegative() {
		return decimal.Zero
	}
	return m
}

// MaturityDate returns the date a savings lock opened at from expires.
func MaturityDate(from time.Time, lockDays int) time.Time {
	return from.AddDate(0, 0, lockDays)
}
