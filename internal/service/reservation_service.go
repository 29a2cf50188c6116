package service

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/sekoucamara/bus-reservation/internal/config"
	"github.com/sekoucamara/bus-reservation/internal/model"
	"github.com/sekoucamara/bus-reservation/internal/queue"
	"github.com/sekoucamara/bus-reservation/internal/repository"
	"github.com/sekoucamara/bus-reservation/internal/utils"
)

// createRetries bounds how often an insert is retried after the UNIQUE
// constraint on the code column catches a collision the generator's probe
// missed.
const createRetries = 3

// expirySweepBatch caps how many overdue reservations one sweeper pass
// touches.
const expirySweepBatch = 500

// PassengerInput carries per-seat passenger details supplied at
// confirmation time. Seats without an input get a blank manifest entry
// that agents can fill in later.
type PassengerInput struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
	IDNumber string `json:"id_number"`
}

// CreateReservationInput is the admission request.
type CreateReservationInput struct {
	BuyerID    uint64
	ScheduleID uint64
	TravelDate time.Time
	Seats      int
	Notes      string
}

// ReservationService drives the reservation lifecycle: admission under the
// capacity ledger, confirmation fanning out to tickets, cancellation with
// cascade, and the expiry sweep. All multi-row operations run inside a
// transaction opened here.
type ReservationService struct {
	reservations *repository.ReservationRepo
	tickets      *repository.TicketRepo
	trips        *repository.TripRepo
	schedules    *repository.ScheduleRepo
	ledger       *CapacityLedger
	settings     *config.Settings
	publisher    Publisher

	now func() time.Time
}

// NewReservationService wires the reservation state machine.
func NewReservationService(
	reservations *repository.ReservationRepo,
	tickets *repository.TicketRepo,
	trips *repository.TripRepo,
	schedules *repository.ScheduleRepo,
	ledger *CapacityLedger,
	settings *config.Settings,
	publisher Publisher,
) *ReservationService {
	return &ReservationService{
		reservations: reservations,
		tickets:      tickets,
		trips:        trips,
		schedules:    schedules,
		ledger:       ledger,
		settings:     settings,
		publisher:    publisher,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// Create admits a new reservation. It validates the seat count against the
// company ceiling, prices the booking from the schedule's leg, re-checks
// capacity while holding row locks on the realizing trips, mints a unique
// code and stores the reservation PENDING with its expiry deadline.
//
// A CapacityExceededError is returned to the caller untouched; the core
// never retries admission on its own.
func (s *ReservationService) Create(ctx context.Context, in CreateReservationInput) (*model.Reservation, error) {
	if in.Seats < 1 {
		return nil, &model.SeatLimitError{Requested: in.Seats, Max: s.settings.MaxSeatsPerBooking(ctx)}
	}
	if max := s.settings.MaxSeatsPerBooking(ctx); in.Seats > max {
		return nil, &model.SeatLimitError{Requested: in.Seats, Max: max}
	}
	sched, leg, err := s.schedules.GetWithLeg(ctx, in.ScheduleID)
	if err != nil {
		return nil, err
	}
	if !sched.Active {
		return nil, repository.ErrScheduleNotFound
	}

	now := s.now()
	expiry := now.Add(time.Duration(s.settings.BookingExpiryMinutes(ctx)) * time.Minute)
	res := &model.Reservation{
		BuyerID:         in.BuyerID,
		ScheduleID:      in.ScheduleID,
		TravelDate:      in.TravelDate,
		SeatCount:       in.Seats,
		TotalPriceCents: leg.PriceCents * int64(in.Seats),
		Status:          model.ReservationPending,
		ExpiresAt:       &expiry,
		Notes:           in.Notes,
	}

	tx, err := s.reservations.DB().BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	// Row locks on the realizing trips serialize concurrent admissions for
	// the same schedule/date; the ledger value is authoritative while they
	// are held.
	trips, err := s.trips.LockForScheduleDateTx(ctx, tx, in.ScheduleID, in.TravelDate)
	if err != nil {
		return nil, err
	}
	avail, err := s.ledger.AvailableForTripsTx(ctx, tx, trips, in.ScheduleID, in.TravelDate, now)
	if err != nil {
		return nil, err
	}
	if in.Seats > avail {
		return nil, &model.CapacityExceededError{
			ScheduleID: in.ScheduleID,
			Requested:  in.Seats,
			Available:  avail,
		}
	}

	for attempt := 0; ; attempt++ {
		res.Code, err = utils.GenerateCode(ctx,
			utils.ReservationCodePrefix, utils.ReservationCodeRandLen,
			utils.ReservationCodeMaxLen, s.reservations.CodeExists)
		if err != nil {
			return nil, err
		}
		err = s.reservations.CreateTx(ctx, tx, res)
		if err == nil {
			break
		}
		if !repository.IsDuplicateKey(err) || attempt+1 >= createRetries {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return res, nil
}

// Confirm moves a PENDING reservation to CONFIRMED and creates one ticket
// per seat, binding them to the earliest open trip realizing the schedule
// and date when one exists. Confirming an already CONFIRMED or PAID
// reservation is a no-op returning the reservation as-is with its existing
// ticket codes; terminal reservations return an InvalidTransitionError. A
// PENDING reservation past its deadline is expired on the spot instead of
// confirmed.
func (s *ReservationService) Confirm(ctx context.Context, code string, passengers []PassengerInput) (*model.Reservation, []string, error) {
	tx, err := s.reservations.DB().BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := s.reservations.GetByCodeForUpdateTx(ctx, tx, code)
	if err != nil {
		return nil, nil, err
	}

	switch res.Status {
	case model.ReservationConfirmed, model.ReservationPaid:
		if err := tx.Commit(); err != nil {
			return nil, nil, err
		}
		committed = true
		codes, err := s.ticketCodes(ctx, res.ID)
		if err != nil {
			return nil, nil, err
		}
		return res, codes, nil
	case model.ReservationCancelled, model.ReservationExpired:
		return nil, nil, &model.InvalidTransitionError{
			Entity: "reservation " + res.Code, From: res.Status, To: model.ReservationConfirmed,
		}
	}

	now := s.now()
	if res.ExpiredAt(now) {
		// Lazy expiry: the sweeper has not reached this one yet.
		if err := s.reservations.UpdateStatusTx(ctx, tx, res.ID, model.ReservationExpired, true); err != nil {
			return nil, nil, err
		}
		if err := tx.Commit(); err != nil {
			return nil, nil, err
		}
		committed = true
		s.publishReservationEvent(ctx, queue.EventReservationExpired, res)
		return nil, nil, &model.InvalidTransitionError{
			Entity: "reservation " + res.Code, From: model.ReservationExpired, To: model.ReservationConfirmed,
		}
	}

	tickets, err := s.createTicketsTx(ctx, tx, res, passengers)
	if err != nil {
		return nil, nil, err
	}
	if err := s.reservations.UpdateStatusTx(ctx, tx, res.ID, model.ReservationConfirmed, true); err != nil {
		return nil, nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, nil, err
	}
	committed = true

	res.Status = model.ReservationConfirmed
	res.ExpiresAt = nil
	s.publishReservationEvent(ctx, queue.EventReservationConfirmed, res)

	codes := make([]string, len(tickets))
	for i, t := range tickets {
		codes[i] = t.Code
	}
	return res, codes, nil
}

// createTicketsTx mints codes and inserts one CONFIRMED ticket per seat
// inside the caller's transaction. The payment ledger reuses it when a
// completed payment auto-confirms a still-PENDING reservation.
func (s *ReservationService) createTicketsTx(ctx context.Context, tx repository.Runner, res *model.Reservation, passengers []PassengerInput) ([]model.Ticket, error) {
	trips, err := s.trips.LockForScheduleDateTx(ctx, tx, res.ScheduleID, res.TravelDate)
	if err != nil {
		return nil, err
	}
	target := repository.FirstOpenTrip(trips)

	for attempt := 0; ; attempt++ {
		tickets := make([]model.Ticket, res.SeatCount)
		for i := range tickets {
			code, err := utils.GenerateCode(ctx,
				utils.TicketCodePrefix, utils.TicketCodeRandLen,
				utils.TicketCodeMaxLen, s.tickets.CodeExists)
			if err != nil {
				return nil, err
			}
			t := model.Ticket{
				Code:          code,
				ReservationID: res.ID,
				BuyerID:       res.BuyerID,
				Status:        model.TicketConfirmed,
			}
			if target != nil {
				id := target.ID
				t.TripID = &id
			}
			if i < len(passengers) {
				t.PassengerName = passengers[i].Name
				t.PassengerPhone = passengers[i].Phone
				t.PassengerEmail = passengers[i].Email
				t.PassengerIDNumber = passengers[i].IDNumber
			}
			tickets[i] = t
		}
		err = s.tickets.CreateBulkTx(ctx, tx, tickets)
		if err == nil {
			return tickets, nil
		}
		if !repository.IsDuplicateKey(err) || attempt+1 >= createRetries {
			return nil, err
		}
	}
}

// Cancel moves a reservation to CANCELLED, records the reason in its notes
// and cascades the cancellation to its still-CONFIRMED tickets. Boarded or
// missed tickets keep their state; refunds are the only override.
func (s *ReservationService) Cancel(ctx context.Context, code, reason string) error {
	tx, err := s.reservations.DB().BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := s.reservations.GetByCodeForUpdateTx(ctx, tx, code)
	if err != nil {
		return err
	}
	if model.ReservationTerminal(res.Status) {
		return &model.InvalidTransitionError{
			Entity: "reservation " + res.Code, From: res.Status, To: model.ReservationCancelled,
		}
	}
	if err := s.reservations.UpdateStatusTx(ctx, tx, res.ID, model.ReservationCancelled, true); err != nil {
		return err
	}
	if reason != "" {
		if err := s.reservations.AppendNoteTx(ctx, tx, res.ID, "cancelled: "+reason); err != nil {
			return err
		}
	}
	if _, err := s.tickets.CascadeStatusTx(ctx, tx, res.ID, model.TicketCancelled,
		[]string{model.TicketConfirmed}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true

	s.publishReservationEvent(ctx, queue.EventReservationCancelled, res)
	return nil
}

// Get returns a reservation and its tickets.
func (s *ReservationService) Get(ctx context.Context, code string) (*model.Reservation, []model.Ticket, error) {
	res, err := s.reservations.GetByCode(ctx, code)
	if err != nil {
		return nil, nil, err
	}
	tickets, err := s.tickets.ListByReservation(ctx, res.ID)
	if err != nil {
		return nil, nil, err
	}
	return res, tickets, nil
}

// ExpireSweep transitions overdue PENDING reservations to EXPIRED. Each
// candidate is expired through a guarded UPDATE so a confirm racing the
// sweep wins cleanly; only actual transitions emit an event. Returns the
// number of reservations expired.
func (s *ReservationService) ExpireSweep(ctx context.Context) (int, error) {
	now := s.now()
	due, err := s.reservations.ListExpiredPending(ctx, now, expirySweepBatch)
	if err != nil {
		return 0, err
	}
	expired := 0
	for i := range due {
		ok, err := s.reservations.MarkExpired(ctx, due[i].ID, now)
		if err != nil {
			return expired, err
		}
		if ok {
			expired++
			s.publishReservationEvent(ctx, queue.EventReservationExpired, &due[i])
		}
	}
	return expired, nil
}

// RunExpirySweeper blocks, running ExpireSweep on the given interval until
// the context is cancelled. Started as a goroutine from main.
func (s *ReservationService) RunExpirySweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.ExpireSweep(ctx)
			if err != nil {
				log.Printf("booking-sweeper: expiry sweep failed: %v", err)
				continue
			}
			if n > 0 {
				log.Printf("booking-sweeper: expired %d reservations", n)
			}
		}
	}
}

func (s *ReservationService) ticketCodes(ctx context.Context, reservationID uint64) ([]string, error) {
	tickets, err := s.tickets.ListByReservation(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	codes := make([]string, len(tickets))
	for i, t := range tickets {
		codes[i] = t.Code
	}
	return codes, nil
}

func (s *ReservationService) publishReservationEvent(ctx context.Context, eventType string, res *model.Reservation) {
	s.publisher.Publish(ctx, queue.NotificationEvent{
		Type:       eventType,
		Recipient:  res.BuyerID,
		OccurredAt: s.now().Format(time.RFC3339),
		Payload: map[string]string{
			"reservation_code": res.Code,
			"travel_date":      res.TravelDate.Format("2006-01-02"),
			"seats":            fmt.Sprintf("%d", res.SeatCount),
			"total_cents":      fmt.Sprintf("%d", res.TotalPriceCents),
		},
	})
}

// reservationDB lets the payment service share this service's transaction
// helpers without re-wiring repositories.
func (s *ReservationService) reservationDB() *sql.DB { return s.reservations.DB() }
