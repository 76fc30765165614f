package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"ridehail-backend-core/internal/domain"
	"ridehail-backend-core/internal/logger"
	"ridehail-backend-core/internal/repository"
)

// driverTransitions is the only path a driver may move a trip along.
var driverTransitions = map[domain.TripStatus]domain.TripStatus{
	domain.TripStatusAccepted:   domain.TripStatusOnTheWay,
	domain.TripStatusOnTheWay:   domain.TripStatusArrived,
	domain.TripStatusArrived:    domain.TripStatusTravelling,
	domain.TripStatusTravelling: domain.TripStatusFinished,
}

// clientCancellable lists the states a client may still cancel from.
var clientCancellable = map[domain.TripStatus]bool{
	domain.TripStatusCreated:  true,
	domain.TripStatusAccepted: true,
}

type tripService struct {
	tx           repository.Transactor
	tripRepo     repository.TripRepository
	settingsRepo repository.SettingsRepository
	driverRepo   repository.DriverRepository
	settlement   SettlementEngine
}

func NewTripService(
	tx repository.Transactor,
	tripRepo repository.TripRepository,
	settingsRepo repository.SettingsRepository,
	driverRepo repository.DriverRepository,
	settlement SettlementEngine,
) TripService {
	return &tripService{
		tx:           tx,
		tripRepo:     tripRepo,
		settingsRepo: settingsRepo,
		driverRepo:   driverRepo,
		settlement:   settlement,
	}
}

func illegalTransition(from, to domain.TripStatus) error {
	return fmt.Errorf("%w: illegal transition %s -> %s", domain.ErrValidation, from, to)
}

func (s *tripService) RequestTrip(ctx context.Context, client domain.Actor, fareOffered decimal.Decimal) (*domain.Trip, error) {
	if client.Role != domain.RoleClient {
		return nil, fmt.Errorf("%w: only clients can request trips", domain.ErrForbidden)
	}
	if err := validAmount(fareOffered); err != nil {
		return nil, err
	}
	trip := &domain.Trip{
		ClientID:    client.ID,
		FareOffered: fareOffered,
		Status:      domain.TripStatusCreated,
	}
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		return s.tripRepo.Create(ctx, trip)
	})
	if err != nil {
		return nil, err
	}
	return trip, nil
}

// Accept assigns an approved driver to a CREATED trip. A zero fare keeps the
// client's offer.
func (s *tripService) Accept(ctx context.Context, driver domain.Actor, tripID int64, fare decimal.Decimal) (*domain.Trip, error) {
	logger.EnterMethod("tripService.Accept", "tripID", tripID, "driverID", driver.ID)

	if driver.Role != domain.RoleDriver {
		return nil, fmt.Errorf("%w: only drivers can accept trips", domain.ErrForbidden)
	}
	if fare.IsNegative() {
		return nil, fmt.Errorf("%w: fare must not be negative", domain.ErrValidation)
	}

	var trip *domain.Trip
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		status, err := s.driverRepo.GetStatus(ctx, driver.ID)
		if err != nil {
			return err
		}
		if status != domain.DriverStatusApproved {
			return fmt.Errorf("%w: driver %d is %s, not approved", domain.ErrForbidden, driver.ID, status)
		}

		current, err := s.tripRepo.GetForUpdate(ctx, tripID)
		if err != nil {
			return err
		}
		if current.Status != domain.TripStatusCreated {
			return illegalTransition(current.Status, domain.TripStatusAccepted)
		}
		if fare.IsZero() {
			fare = current.FareOffered
		}

		ok, err := s.tripRepo.Assign(ctx, tripID, driver.ID, fare)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: trip %d was taken by another driver", domain.ErrConflict, tripID)
		}
		trip, err = s.tripRepo.GetByID(ctx, tripID)
		return err
	})
	if err != nil {
		logger.ExitMethodWithError("tripService.Accept", err, "tripID", tripID)
		return nil, err
	}

	logger.ExitMethod("tripService.Accept", "tripID", tripID, "fare", trip.FareAssigned)
	return trip, nil
}

func (s *tripService) ApplyDriverStatus(ctx context.Context, driver domain.Actor, tripID int64, status domain.TripStatus) (*domain.Trip, error) {
	logger.EnterMethod("tripService.ApplyDriverStatus", "tripID", tripID, "driverID", driver.ID, "status", status)

	trip, err := s.transition(ctx, tripID, status, func(t *domain.Trip) error {
		if !t.IsDriver(driver.ID) {
			return fmt.Errorf("%w: actor %d is not the assigned driver of trip %d", domain.ErrForbidden, driver.ID, tripID)
		}
		if next, ok := driverTransitions[t.Status]; !ok || next != status {
			return illegalTransition(t.Status, status)
		}
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("tripService.ApplyDriverStatus", err, "tripID", tripID)
		return nil, err
	}

	logger.ExitMethod("tripService.ApplyDriverStatus", "tripID", tripID, "status", trip.Status)
	return trip, nil
}

func (s *tripService) ApplyClientStatus(ctx context.Context, client domain.Actor, tripID int64, status domain.TripStatus) (*domain.Trip, error) {
	logger.EnterMethod("tripService.ApplyClientStatus", "tripID", tripID, "clientID", client.ID, "status", status)

	trip, err := s.transition(ctx, tripID, status, func(t *domain.Trip) error {
		if !t.IsClient(client.ID) {
			return fmt.Errorf("%w: actor %d did not request trip %d", domain.ErrForbidden, client.ID, tripID)
		}
		if status != domain.TripStatusCancelled || !clientCancellable[t.Status] {
			return illegalTransition(t.Status, status)
		}
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("tripService.ApplyClientStatus", err, "tripID", tripID)
		return nil, err
	}

	logger.ExitMethod("tripService.ApplyClientStatus", "tripID", tripID, "status", trip.Status)
	return trip, nil
}

// transition locks the trip, lets check veto the move and swaps the status.
func (s *tripService) transition(ctx context.Context, tripID int64, to domain.TripStatus, check func(*domain.Trip) error) (*domain.Trip, error) {
	if !to.Valid() {
		return nil, fmt.Errorf("%w: unknown trip status %q", domain.ErrValidation, to)
	}

	var trip *domain.Trip
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		current, err := s.tripRepo.GetForUpdate(ctx, tripID)
		if err != nil {
			return err
		}
		if err := check(current); err != nil {
			return err
		}
		ok, err := s.tripRepo.CompareAndSetStatus(ctx, tripID, current.Status, to)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: trip %d changed status concurrently", domain.ErrConflict, tripID)
		}
		trip, err = s.tripRepo.GetByID(ctx, tripID)
		return err
	})
	return trip, err
}

func (s *tripService) MarkPaid(ctx context.Context, actor domain.Actor, tripID int64) (*domain.Trip, error) {
	logger.EnterMethod("tripService.MarkPaid", "tripID", tripID, "actorID", actor.ID)

	var trip *domain.Trip
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		current, err := s.tripRepo.GetForUpdate(ctx, tripID)
		if err != nil {
			return err
		}
		if !actor.IsAdmin() && !current.IsClient(actor.ID) && !current.IsDriver(actor.ID) {
			return fmt.Errorf("%w: actor %d cannot mark trip %d paid", domain.ErrForbidden, actor.ID, tripID)
		}
		if current.Status == domain.TripStatusPaid {
			trip = current
			return nil
		}
		if current.Status != domain.TripStatusFinished {
			return illegalTransition(current.Status, domain.TripStatusPaid)
		}

		ok, err := s.tripRepo.CompareAndSetStatus(ctx, tripID, domain.TripStatusFinished, domain.TripStatusPaid)
		if err != nil {
			return err
		}
		if !ok {
			again, err := s.tripRepo.GetByID(ctx, tripID)
			if err != nil {
				return err
			}
			if again.Status == domain.TripStatusPaid {
				trip = again
				return nil
			}
			return fmt.Errorf("%w: trip %d moved to %s while being paid", domain.ErrConflict, tripID, again.Status)
		}

		cfg, err := s.settingsRepo.GetSettlementConfig(ctx)
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("%w: settlement settings are not configured", domain.ErrValidation)
		}
		if err != nil {
			return err
		}
		if _, err := s.settlement.Settle(ctx, current, *cfg); err != nil {
			return err
		}

		trip, err = s.tripRepo.GetByID(ctx, tripID)
		return err
	})
	if err != nil {
		logger.ExitMethodWithError("tripService.MarkPaid", err, "tripID", tripID)
		return nil, err
	}

	logger.ExitMethod("tripService.MarkPaid", "tripID", tripID, "status", trip.Status)
	return trip, nil
}

func (s *tripService) GetTrip(ctx context.Context, actor domain.Actor, tripID int64) (*domain.Trip, error) {
	trip, err := s.tripRepo.GetByID(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && !trip.IsClient(actor.ID) && !trip.IsDriver(actor.ID) {
		return nil, fmt.Errorf("%w: actor %d is not a participant of trip %d", domain.ErrForbidden, actor.ID, tripID)
	}
	return trip, nil
}
