package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sekoucamara/bus-reservation/internal/model"
	"github.com/sekoucamara/bus-reservation/internal/queue"
	"github.com/sekoucamara/bus-reservation/internal/repository"
)

// defaultPaymentMethod is recorded when the completion request does not
// name a channel.
const defaultPaymentMethod = "CASH"

// PaymentService is the payment ledger. Completion is the sole trigger
// that moves a reservation to PAID; refunds cascade REFUNDED to every
// sibling ticket as an administrative override.
type PaymentService struct {
	payments     *repository.PaymentRepo
	reservations *ReservationService
	resRepo      *repository.ReservationRepo
	tickets      *repository.TicketRepo
	schedules    *repository.ScheduleRepo
	publisher    Publisher

	now func() time.Time
}

// NewPaymentService wires the payment ledger. It leans on the reservation
// service for the ticket fan-out when a completed payment auto-confirms a
// still-PENDING reservation.
func NewPaymentService(
	payments *repository.PaymentRepo,
	reservations *ReservationService,
	resRepo *repository.ReservationRepo,
	tickets *repository.TicketRepo,
	schedules *repository.ScheduleRepo,
	publisher Publisher,
) *PaymentService {
	return &PaymentService{
		payments:     payments,
		reservations: reservations,
		resRepo:      resRepo,
		tickets:      tickets,
		schedules:    schedules,
		publisher:    publisher,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// MarkCompleted records a successful payment for the reservation with the
// given code and drives the reservation to PAID. A reservation still
// PENDING is confirmed on the way (tickets included) so a PAID reservation
// is never ticket-less. Completing an already COMPLETED payment is a
// no-op. Terminal reservations reject the payment with an
// InvalidTransitionError.
func (s *PaymentService) MarkCompleted(ctx context.Context, code string, method string, providerRef *string) (*model.Reservation, error) {
	if method == "" {
		method = defaultPaymentMethod
	}

	tx, err := s.reservations.reservationDB().BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := s.resRepo.GetByCodeForUpdateTx(ctx, tx, code)
	if err != nil {
		return nil, err
	}
	if model.ReservationTerminal(res.Status) {
		return nil, &model.InvalidTransitionError{
			Entity: "reservation " + res.Code, From: res.Status, To: model.ReservationPaid,
		}
	}

	payment, err := s.payments.GetByReservationForUpdateTx(ctx, tx, res.ID)
	if errors.Is(err, repository.ErrPaymentNotFound) {
		sched, _, serr := s.schedules.GetWithLeg(ctx, res.ScheduleID)
		if serr != nil {
			return nil, serr
		}
		payment = &model.Payment{
			ReservationID: res.ID,
			AgencyID:      sched.AgencyID,
			Method:        method,
			AmountCents:   res.TotalPriceCents,
			Status:        model.PaymentPending,
		}
		err = s.payments.CreateTx(ctx, tx, payment)
	}
	if err != nil {
		return nil, err
	}
	if payment.Status == model.PaymentCompleted {
		if err := tx.Commit(); err != nil {
			return nil, err
		}
		committed = true
		return res, nil
	}
	if payment.Status == model.PaymentRefunded {
		return nil, &model.InvalidTransitionError{
			Entity: fmt.Sprintf("payment %d", payment.ID), From: payment.Status, To: model.PaymentCompleted,
		}
	}

	now := s.now()
	if err := s.payments.MarkCompletedTx(ctx, tx, payment.ID, providerRef, now); err != nil {
		return nil, err
	}

	// A still-PENDING reservation gets its tickets here; the decision that
	// PAID implies confirmed is recorded in DESIGN.md.
	if res.Status == model.ReservationPending {
		if res.ExpiredAt(now) {
			return nil, &model.InvalidTransitionError{
				Entity: "reservation " + res.Code, From: model.ReservationExpired, To: model.ReservationPaid,
			}
		}
		if _, err := s.reservations.createTicketsTx(ctx, tx, res, nil); err != nil {
			return nil, err
		}
	}
	if err := s.resRepo.UpdateStatusTx(ctx, tx, res.ID, model.ReservationPaid, true); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true

	res.Status = model.ReservationPaid
	s.publisher.Publish(ctx, queue.NotificationEvent{
		Type:       queue.EventPaymentCompleted,
		Recipient:  res.BuyerID,
		OccurredAt: now.Format(time.RFC3339),
		Payload: map[string]string{
			"reservation_code": res.Code,
			"amount_cents":     fmt.Sprintf("%d", payment.AmountCents),
			"method":           method,
		},
	})
	return res, nil
}

// MarkFailed records a failed payment attempt. No cascade: the reservation
// keeps its status and expiry.
func (s *PaymentService) MarkFailed(ctx context.Context, code string) error {
	tx, err := s.reservations.reservationDB().BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := s.resRepo.GetByCodeForUpdateTx(ctx, tx, code)
	if err != nil {
		return err
	}
	payment, err := s.payments.GetByReservationForUpdateTx(ctx, tx, res.ID)
	if err != nil {
		return err
	}
	if payment.Status != model.PaymentPending {
		return &model.InvalidTransitionError{
			Entity: fmt.Sprintf("payment %d", payment.ID), From: payment.Status, To: model.PaymentFailed,
		}
	}
	if err := s.payments.MarkFailedTx(ctx, tx, payment.ID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// MarkRefunded refunds a completed payment and cascades REFUNDED to all
// tickets of the reservation, bypassing the normal ticket transition
// guards. amountCents of zero refunds the full paid amount.
func (s *PaymentService) MarkRefunded(ctx context.Context, code string, amountCents int64) error {
	tx, err := s.reservations.reservationDB().BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := s.resRepo.GetByCodeForUpdateTx(ctx, tx, code)
	if err != nil {
		return err
	}
	payment, err := s.payments.GetByReservationForUpdateTx(ctx, tx, res.ID)
	if err != nil {
		return err
	}
	if payment.Status != model.PaymentCompleted {
		return &model.InvalidTransitionError{
			Entity: fmt.Sprintf("payment %d", payment.ID), From: payment.Status, To: model.PaymentRefunded,
		}
	}
	if amountCents <= 0 || amountCents > payment.AmountCents {
		amountCents = payment.AmountCents
	}
	now := s.now()
	if err := s.payments.MarkRefundedTx(ctx, tx, payment.ID, amountCents, now); err != nil {
		return err
	}
	// Administrative override: every ticket becomes REFUNDED regardless of
	// its current state.
	if _, err := s.tickets.CascadeStatusTx(ctx, tx, res.ID, model.TicketRefunded, nil); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true

	s.publisher.Publish(ctx, queue.NotificationEvent{
		Type:       queue.EventPaymentRefunded,
		Recipient:  res.BuyerID,
		OccurredAt: now.Format(time.RFC3339),
		Payload: map[string]string{
			"reservation_code": res.Code,
			"amount_cents":     fmt.Sprintf("%d", amountCents),
		},
	})
	return nil
}
