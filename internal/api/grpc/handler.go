package grpc

import (
	"ridehail-backend-core/internal/repository"
	"ridehail-backend-core/internal/service"
)

// RideHandler serves ridehail.v1.RideService on top of the services.
type RideHandler struct {
	tripSvc       service.TripService
	ledgerSvc     service.LedgerService
	savingsSvc    service.SavingsService
	referralSvc   service.ReferralResolver
	withdrawalSvc service.WithdrawalService
	settlementSvc service.SettlementEngine
	settingsRepo  repository.SettingsRepository
}

func NewRideHandler(
	tripSvc service.TripService,
	ledgerSvc service.LedgerService,
	savingsSvc service.SavingsService,
	referralSvc service.ReferralResolver,
	withdrawalSvc service.WithdrawalService,
	settlementSvc service.SettlementEngine,
	settingsRepo repository.SettingsRepository,
) *RideHandler {
	return &RideHandler{
		tripSvc:       tripSvc,
		ledgerSvc:     ledgerSvc,
		savingsSvc:    savingsSvc,
		referralSvc:   referralSvc,
		withdrawalSvc: withdrawalSvc,
		settlementSvc: settlementSvc,
		settingsRepo:  settingsRepo,
	}
}

var _ RideServiceServer = (*RideHandler)(nil)
