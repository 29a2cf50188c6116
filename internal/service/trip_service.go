package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/sekoucamara/bus-reservation/internal/model"
	"github.com/sekoucamara/bus-reservation/internal/repository"
)

// ErrAgencyMismatch is returned when a trip pairs a vehicle and driver from
// different agencies.
var ErrAgencyMismatch = errors.New("vehicle and driver belong to different agencies")

// ErrFleetInactive is returned when a trip assigns a deactivated vehicle or
// driver.
var ErrFleetInactive = errors.New("vehicle or driver is not active")

// CreateTripInput is the operator request to realize a schedule on a
// concrete departure.
type CreateTripInput struct {
	ScheduleID  uint64
	VehicleID   uint64
	DriverID    uint64
	DepartureAt time.Time
}

// TripService is the trip state machine. Status transitions are permissive
// by design: any known status may follow any other, and the only attached
// side effect is the missed-ticket sweep after a trip goes IN_PROGRESS,
// invoked here as an explicit post-transition hook.
type TripService struct {
	trips     *repository.TripRepo
	schedules *repository.ScheduleRepo
	ledger    *CapacityLedger

	// missedSweep is the boarding service's ProcessMissedTicketsForTrip,
	// injected at wiring time to keep the two state machines decoupled.
	missedSweep func(ctx context.Context, tripID uint64) (int64, error)
}

// NewTripService wires the trip state machine. missedSweep may be nil in
// tests that do not exercise the departure hook.
func NewTripService(
	trips *repository.TripRepo,
	schedules *repository.ScheduleRepo,
	ledger *CapacityLedger,
	missedSweep func(ctx context.Context, tripID uint64) (int64, error),
) *TripService {
	return &TripService{trips: trips, schedules: schedules, ledger: ledger, missedSweep: missedSweep}
}

// Create realizes a schedule as a concrete trip. The vehicle and driver
// must belong to the same agency and both must be active; the trip is born
// PLANNED under that agency.
func (s *TripService) Create(ctx context.Context, in CreateTripInput) (*model.Trip, error) {
	if _, _, err := s.schedules.GetWithLeg(ctx, in.ScheduleID); err != nil {
		return nil, err
	}
	vehicleAgency, _, vehicleActive, err := s.trips.VehicleInfo(ctx, in.VehicleID)
	if err != nil {
		return nil, err
	}
	driverAgency, driverActive, err := s.trips.DriverInfo(ctx, in.DriverID)
	if err != nil {
		return nil, err
	}
	if vehicleAgency != driverAgency {
		return nil, ErrAgencyMismatch
	}
	if !vehicleActive || !driverActive {
		return nil, ErrFleetInactive
	}

	trip := &model.Trip{
		ScheduleID:  in.ScheduleID,
		AgencyID:    vehicleAgency,
		VehicleID:   in.VehicleID,
		DriverID:    in.DriverID,
		DepartureAt: in.DepartureAt.UTC(),
		Status:      model.TripPlanned,
	}

	tx, err := s.trips.DB().BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := s.trips.CreateTx(ctx, tx, trip); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return trip, nil
}

// UpdateStatus moves a trip to the given status, optionally recording a
// transit location report. The new status only has to be a member of the
// known set. Agents and drivers may only touch trips of their own agency;
// callers with agencyID 0 (admins) are unscoped. When the trip enters
// IN_PROGRESS, the missed-ticket sweep runs after the transition commits.
func (s *TripService) UpdateStatus(ctx context.Context, tripID uint64, status string, location *string, agencyID uint64) (*model.Trip, error) {
	if !model.KnownTripStatus(status) {
		return nil, &model.InvalidTransitionError{Entity: "trip", From: "?", To: status}
	}

	tx, err := s.trips.DB().BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	trip, err := s.trips.GetByIDForUpdateTx(ctx, tx, tripID)
	if err != nil {
		return nil, err
	}
	if agencyID != 0 && trip.AgencyID != agencyID {
		return nil, repository.ErrForbidden
	}
	previous := trip.Status
	if err := s.trips.UpdateStatusTx(ctx, tx, tripID, status, location); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true

	trip.Status = status
	if location != nil {
		trip.CurrentLocation = location
	}

	if status == model.TripInProgress && previous != model.TripInProgress && s.missedSweep != nil {
		if n, err := s.missedSweep(ctx, tripID); err != nil {
			log.Printf("trip-service: missed-ticket sweep for trip %d failed: %v", tripID, err)
		} else if n > 0 {
			log.Printf("trip-service: trip %d departed, %d tickets marked missed", tripID, n)
		}
	}
	return trip, nil
}

// AvailableSeats returns the remaining seats of one trip via the capacity
// ledger.
func (s *TripService) AvailableSeats(ctx context.Context, tripID uint64) (int, error) {
	return s.ledger.AvailableSeatsForTrip(ctx, tripID)
}

// Get returns a trip by id.
func (s *TripService) Get(ctx context.Context, tripID uint64) (*model.Trip, error) {
	return s.trips.GetByID(ctx, tripID)
}
