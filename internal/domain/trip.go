package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type TripStatus string

const (
	TripStatusCreated    TripStatus = "CREATED"
	TripStatusAccepted   TripStatus = "ACCEPTED"
	TripStatusOnTheWay   TripStatus = "ON_THE_WAY"
	TripStatusArrived    TripStatus = "ARRIVED"
	TripStatusTravelling TripStatus = "TRAVELLING"
	TripStatusFinished   TripStatus = "FINISHED"
	TripStatusPaid       TripStatus = "PAID"
	TripStatusCancelled  TripStatus = "CANCELLED"
)

func (s TripStatus) IsTerminal() bool {
	return s == TripStatusPaid || s == TripStatusCancelled
}

func (s TripStatus) Valid() bool {
	switch s {
	case TripStatusCreated, TripStatusAccepted, TripStatusOnTheWay, TripStatusArrived,
		TripStatusTravelling, TripStatusFinished, TripStatusPaid, TripStatusCancelled:
		return true
	}
	return false
}

type Trip struct {
	ID           int64           `json:"id"`
	ClientID     int64           `json:"client_id"`
	DriverID     *int64          `json:"driver_id,omitempty"`
	FareOffered  decimal.Decimal `json:"fare_offered"`
	FareAssigned decimal.Decimal `json:"fare_assigned"`
	Status       TripStatus      `json:"status"`
	AcceptedAt   *time.Time      `json:"accepted_at,omitempty"`
	FinishedAt   *time.Time      `json:"finished_at,omitempty"`
	PaidAt       *time.Time      `json:"paid_at,omitempty"`
	CancelledAt  *time.Time      `json:"cancelled_at,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// IsDriver reports whether actorID is the driver assigned to the trip.
func (t *Trip) IsDriver(actorID int64) bool {
	return t.DriverID != nil && *t.DriverID == actorID
}

func (t *Trip) IsClient(actorID int64) bool {
	return t.ClientID == actorID
}
