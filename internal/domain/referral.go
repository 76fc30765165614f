package domain

import "github.com/shopspring/decimal"

// MaxReferralLevels bounds every walk over the referral relation.
const MaxReferralLevels = 5

type ReferralEdge struct {
	ChildID  int64 `json:"child_id"`
	ParentID int64 `json:"parent_id"`
}

// ReferralLevelSummary is one row of an actor's earnings report: the members
// referred at that depth, the configured percentage and what the actor has
// earned from the level so far.
type ReferralLevelSummary struct {
	Level      int             `json:"level"`
	Percentage decimal.Decimal `json:"percentage"`
	Members    []int64         `json:"members"`
	Earned     decimal.Decimal `json:"earned"`
}

type ReferralSummary struct {
	ActorID     int64                  `json:"actor_id"`
	Levels      []ReferralLevelSummary `json:"levels"`
	TotalEarned decimal.Decimal        `json:"total_earned"`
}
