package service

import (
	"context"
	"time"

	"github.com/sekoucamara/bus-reservation/internal/model"
	"github.com/sekoucamara/bus-reservation/internal/repository"
)

// CapacityLedger computes remaining seats for a schedule/date pair or a
// single trip. Seats are consumed three ways: active tickets bound to the
// realizing trips, active tickets awaiting a trip assignment, and the seat
// claims of unexpired PENDING reservations. Counting the pending claims is
// what makes an admission consume capacity immediately, before any ticket
// exists.
//
// The ledger itself takes no locks; the admission path passes trips it has
// already locked with SELECT ... FOR UPDATE so the check-and-insert is
// serialized per schedule/date.
type CapacityLedger struct {
	trips        *repository.TripRepo
	tickets      *repository.TicketRepo
	reservations *repository.ReservationRepo
}

// NewCapacityLedger wires the ledger to its repositories.
func NewCapacityLedger(trips *repository.TripRepo, tickets *repository.TicketRepo, reservations *repository.ReservationRepo) *CapacityLedger {
	return &CapacityLedger{trips: trips, tickets: tickets, reservations: reservations}
}

// AvailableForTripsTx computes the remaining seats over a pre-fetched trip
// set for the given schedule and date. Never negative.
func (l *CapacityLedger) AvailableForTripsTx(ctx context.Context, tx repository.Runner, trips []model.Trip, scheduleID uint64, travelDate, now time.Time) (int, error) {
	if len(trips) == 0 {
		return 0, nil
	}
	tripIDs := make([]uint64, len(trips))
	for i, t := range trips {
		tripIDs[i] = t.ID
	}
	supply, err := l.trips.SeatSupplyTx(ctx, tx, tripIDs)
	if err != nil {
		return 0, err
	}
	bound, err := l.tickets.BoundTicketCountTx(ctx, tx, tripIDs)
	if err != nil {
		return 0, err
	}
	unassigned, err := l.tickets.UnassignedTicketCountTx(ctx, tx, scheduleID, travelDate)
	if err != nil {
		return 0, err
	}
	pending, err := l.reservations.PendingSeatClaimTx(ctx, tx, scheduleID, travelDate, now)
	if err != nil {
		return 0, err
	}
	avail := supply - bound - unassigned - pending
	if avail < 0 {
		avail = 0
	}
	return avail, nil
}

// AvailableSeatsForSchedule returns the remaining seats for a schedule on a
// travel date without taking locks. Serves the public availability
// endpoint; admission must not rely on this value alone.
func (l *CapacityLedger) AvailableSeatsForSchedule(ctx context.Context, scheduleID uint64, travelDate, now time.Time) (int, error) {
	db := l.trips.DB()
	trips, err := l.trips.ListForScheduleDateTx(ctx, db, scheduleID, travelDate)
	if err != nil {
		return 0, err
	}
	return l.AvailableForTripsTx(ctx, db, trips, scheduleID, travelDate, now)
}

// AvailableSeatsForTrip returns vehicle capacity minus active tickets bound
// to the trip, floored at zero.
func (l *CapacityLedger) AvailableSeatsForTrip(ctx context.Context, tripID uint64) (int, error) {
	capacity, err := l.trips.VehicleCapacity(ctx, tripID)
	if err != nil {
		return 0, err
	}
	used, err := l.tickets.TicketCountForTrip(ctx, tripID)
	if err != nil {
		return 0, err
	}
	avail := capacity - used
	if avail < 0 {
		avail = 0
	}
	return avail, nil
}
