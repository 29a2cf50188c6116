package service

import (
	"context"
	"time"

	"github.com/sekoucamara/bus-reservation/internal/model"
	"github.com/sekoucamara/bus-reservation/internal/queue"
	"github.com/sekoucamara/bus-reservation/internal/repository"
)

// ScanResult is the structured outcome of a boarding scan. Soft failures
// (already boarded, trip departed, trip completed, generally ineligible)
// are data, not errors, so gate agents can branch on the flags without
// exception handling. Only missing tickets and infrastructure failures
// surface as errors.
type ScanResult struct {
	Success            bool    `json:"success"`
	Message            string  `json:"message"`
	TicketCode         string  `json:"ticket_code"`
	TicketStatus       string  `json:"ticket_status"`
	TripStatus         string  `json:"trip_status,omitempty"`
	AlreadyBoarded     bool    `json:"already_boarded"`
	TripDeparted       bool    `json:"trip_departed"`
	TripCompleted      bool    `json:"trip_completed"`
	BoardingInProgress bool    `json:"boarding_in_progress"`
	CurrentLocation    *string `json:"current_location,omitempty"`
	DepartureAt        string  `json:"departure_at,omitempty"`
}

// BoardingService is the ticket boarding state machine. Scans consult the
// bound trip's state and the boarding gate window; the missed-ticket sweep
// runs after a trip departs.
type BoardingService struct {
	tickets   *repository.TicketRepo
	trips     *repository.TripRepo
	publisher Publisher

	now func() time.Time
}

// NewBoardingService wires the boarding state machine.
func NewBoardingService(tickets *repository.TicketRepo, trips *repository.TripRepo, publisher Publisher) *BoardingService {
	return &BoardingService{
		tickets:   tickets,
		trips:     trips,
		publisher: publisher,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Scan processes a boarding attempt for the ticket with the given code.
//
// Outcomes are evaluated in a fixed order: already-boarded first, then the
// too-late check for trips that are boarding, under way or completed, then
// completed trips inside the grace window, then the eligibility gate. A
// ticket on a still-PLANNED trip whose gate window has closed falls through
// to the generic ineligible result with TripDeparted false; that ordering
// is deliberate and covered by a regression test.
func (s *BoardingService) Scan(ctx context.Context, code string, scannedBy uint64, location *string) (*ScanResult, error) {
	ticket, err := s.tickets.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	var trip *model.Trip
	if ticket.TripID != nil {
		trip, err = s.trips.GetByID(ctx, *ticket.TripID)
		if err != nil {
			return nil, err
		}
	}

	now := s.now()
	result := &ScanResult{
		TicketCode:   ticket.Code,
		TicketStatus: ticket.Status,
	}
	if trip != nil {
		result.TripStatus = trip.Status
		result.DepartureAt = trip.DepartureAt.Format(time.RFC3339)
		result.BoardingInProgress = model.BoardingInProgress(trip.DepartureAt, now)
	}

	// 1. Repeat scan of a boarded ticket.
	if ticket.Status == model.TicketBoarded || ticket.ScannedAt != nil {
		result.AlreadyBoarded = true
		result.Message = "ticket already boarded"
		if trip != nil && trip.Status == model.TripInProgress {
			result.CurrentLocation = trip.CurrentLocation
		}
		return result, nil
	}

	// 2. First attempt arriving too late on a trip that has started
	// boarding or departed.
	if trip != nil && !model.BoardingGateOpen(trip.DepartureAt, now) &&
		(trip.Status == model.TripBoarding || trip.Departed()) {
		result.TripDeparted = true
		result.Message = "trip has departed; boarding window closed"
		return result, nil
	}

	// 3. Completed trip inside the grace window.
	if trip != nil && trip.Status == model.TripCompleted {
		result.TripCompleted = true
		result.Message = "trip already completed"
		return result, nil
	}

	// 4. Eligibility gate.
	if ticket.Boardable() && trip != nil &&
		(trip.Status == model.TripPlanned || trip.Status == model.TripBoarding) &&
		model.BoardingGateOpen(trip.DepartureAt, now) {
		ok, err := s.tickets.MarkBoarded(ctx, ticket.ID, scannedBy, location, now)
		if err != nil {
			return nil, err
		}
		if !ok {
			// Lost the race against a concurrent scan or sweep; report the
			// state that beat us.
			fresh, err := s.tickets.GetByCode(ctx, code)
			if err != nil {
				return nil, err
			}
			result.TicketStatus = fresh.Status
			result.AlreadyBoarded = fresh.Status == model.TicketBoarded
			result.Message = "ticket state changed during scan"
			return result, nil
		}
		result.Success = true
		result.TicketStatus = model.TicketBoarded
		result.Message = "boarding recorded"
		s.publisher.Publish(ctx, queue.NotificationEvent{
			Type:       queue.EventTicketBoarded,
			Recipient:  ticket.BuyerID,
			OccurredAt: now.Format(time.RFC3339),
			Payload: map[string]string{
				"ticket_code": ticket.Code,
				"passenger":   ticket.PassengerName,
			},
		})
		return result, nil
	}

	// 5. Everything else: wrong ticket state, no trip assigned yet, or a
	// PLANNED trip whose window has closed.
	result.Message = "ticket is not eligible for boarding"
	return result, nil
}

// ProcessMissedTicketsForTrip flags every still-CONFIRMED, unscanned
// ticket of a departed trip as MISSED. Idempotent: the guarded UPDATE
// matches nothing on a second run, and tickets boarded meanwhile are left
// alone. Only trips currently IN_PROGRESS are swept. Returns the number of
// tickets newly flagged.
func (s *BoardingService) ProcessMissedTicketsForTrip(ctx context.Context, tripID uint64) (int64, error) {
	trip, err := s.trips.GetByID(ctx, tripID)
	if err != nil {
		return 0, err
	}
	if trip.Status != model.TripInProgress {
		return 0, nil
	}
	return s.tickets.MarkMissedForTrip(ctx, tripID)
}
