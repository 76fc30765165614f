package config

type SecurityLevel int

const (
	SecurityPublic SecurityLevel = iota // No authentication
	SecurityAccess                      // Access token required
	SecurityAdmin                       // Access token with the ADMIN role
)

const rideService = "/ridehail.v1.RideService/"

// EndpointSecurityConfig maps methods to their required security level
var EndpointSecurityConfig = map[string]SecurityLevel{
	"/grpc.health.v1.Health/Check":                                SecurityPublic,
	"/grpc.health.v1.Health/Watch":                                SecurityPublic,
	"/grpc.reflection.v1.ServerReflection/ServerReflectionInfo":      SecurityPublic,
	"/grpc.reflection.v1alpha.ServerReflection/ServerReflectionInfo": SecurityPublic,

	// Trips
	rideService + "RequestTrip":       SecurityAccess,
	rideService + "AcceptTrip":        SecurityAccess,
	rideService + "ApplyDriverStatus": SecurityAccess,
	rideService + "ApplyClientStatus": SecurityAccess,
	rideService + "MarkPaid":          SecurityAccess,
	rideService + "GetTrip":           SecurityAccess,

	// Ledger, savings and referrals
	rideService + "GetBalance":                 SecurityAccess,
	rideService + "GetTransactions":            SecurityAccess,
	rideService + "TransferSavings":            SecurityAccess,
	rideService + "GetSavingsStatus":           SecurityAccess,
	rideService + "GetReferralEarningsSummary": SecurityAccess,

	// Withdrawals
	rideService + "RequestWithdrawal": SecurityAccess,
	rideService + "ListWithdrawals":   SecurityAccess,
	rideService + "ApproveWithdrawal": SecurityAdmin,
	rideService + "RejectWithdrawal":  SecurityAdmin,

	// Settlement
	rideService + "PreviewSettlement": SecurityAdmin,
}

// GetSecurityLevel returns the security level for a given method
func GetSecurityLevel(method string) SecurityLevel {
	if level, exists := EndpointSecurityConfig[method]; exists {
		return level
	}
	// Default to highest security for unknown endpoints
	return SecurityAdmin
}
