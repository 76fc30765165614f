package domain

type Role string

const (
	RoleClient Role = "CLIENT"
	RoleDriver Role = "DRIVER"
	RoleAdmin  Role = "ADMIN"
)

// Actor is the authenticated caller. Identity and role are verified before a
// request reaches the services.
type Actor struct {
	ID   int64 `json:"id"`
	Role Role  `json:"role"`
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

type DriverStatus string

const (
	DriverStatusPending  DriverStatus = "PENDING"
	DriverStatusApproved DriverStatus = "APPROVED"
	DriverStatusBlocked  DriverStatus = "BLOCKED"
)
