package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/sekoucamara/bus-reservation/internal/model"
	"github.com/sekoucamara/bus-reservation/internal/queue"
)

func TestMarkCompletedAutoConfirmsPendingReservation(t *testing.T) {
	env := newTestEnv(t)
	expiry := testNow.Add(10 * time.Minute)

	env.mock.ExpectBegin()
	env.mock.ExpectQuery("FROM reservations WHERE code").
		WillReturnRows(reservationRow(7, "RSV260314AAAA", model.ReservationPending, 1, expiry))
	// No payment row yet: one is created PENDING under the schedule's agency.
	env.mock.ExpectQuery("FROM payments WHERE reservation_id").
		WillReturnRows(sqlmock.NewRows(paymentCols))
	env.mock.ExpectQuery("JOIN legs").
		WillReturnRows(scheduleWithLegRow(true, 5000))
	env.mock.ExpectExec("INSERT INTO payments").
		WillReturnResult(sqlmock.NewResult(3, 1))
	env.mock.ExpectExec("UPDATE payments").
		WillReturnResult(sqlmock.NewResult(0, 1))
	// Auto-confirm: tickets are created before the reservation goes PAID.
	env.mock.ExpectQuery(`DATE\(departure_at\)`).
		WillReturnRows(tripRow(5, model.TripPlanned, travelDate.Add(9*time.Hour), nil))
	env.mock.ExpectQuery(`COUNT\(1\) FROM tickets WHERE code`).
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(0))
	env.mock.ExpectExec("INSERT INTO tickets").
		WillReturnResult(sqlmock.NewResult(100, 1))
	env.mock.ExpectExec("UPDATE reservations SET status").
		WillReturnResult(sqlmock.NewResult(0, 1))
	env.mock.ExpectCommit()

	res, err := env.payments.MarkCompleted(context.Background(), "RSV260314AAAA", "MOBILE_MONEY", nil)
	if err != nil {
		t.Fatalf("mark completed: %v", err)
	}
	if res.Status != model.ReservationPaid {
		t.Fatalf("status = %s, want PAID", res.Status)
	}
	if got := env.publisher.types(); len(got) != 1 || got[0] != queue.EventPaymentCompleted {
		t.Fatalf("events = %v, want [payment.completed]", got)
	}
	env.expectationsMet(t)
}

func TestMarkCompletedTwiceIsIdempotent(t *testing.T) {
	env := newTestEnv(t)

	env.mock.ExpectBegin()
	env.mock.ExpectQuery("FROM reservations WHERE code").
		WillReturnRows(reservationRow(7, "RSV260314AAAA", model.ReservationPaid, 1, nil))
	env.mock.ExpectQuery("FROM payments WHERE reservation_id").
		WillReturnRows(paymentRow(3, model.PaymentCompleted, 5000))
	env.mock.ExpectCommit()

	res, err := env.payments.MarkCompleted(context.Background(), "RSV260314AAAA", "", nil)
	if err != nil {
		t.Fatalf("mark completed: %v", err)
	}
	if res.Status != model.ReservationPaid {
		t.Fatalf("status = %s, want PAID", res.Status)
	}
	if len(env.publisher.events) != 0 {
		t.Fatalf("no events expected on repeat completion, got %v", env.publisher.types())
	}
	env.expectationsMet(t)
}

func TestMarkCompletedRejectsTerminalReservation(t *testing.T) {
	env := newTestEnv(t)

	env.mock.ExpectBegin()
	env.mock.ExpectQuery("FROM reservations WHERE code").
		WillReturnRows(reservationRow(7, "RSV260314AAAA", model.ReservationCancelled, 1, nil))
	env.mock.ExpectRollback()

	_, err := env.payments.MarkCompleted(context.Background(), "RSV260314AAAA", "", nil)
	var transErr *model.InvalidTransitionError
	if !errors.As(err, &transErr) {
		t.Fatalf("expected InvalidTransitionError, got %v", err)
	}
	env.expectationsMet(t)
}

func TestMarkCompletedRejectsOverdueReservation(t *testing.T) {
	env := newTestEnv(t)
	expiry := testNow.Add(-time.Minute)

	env.mock.ExpectBegin()
	env.mock.ExpectQuery("FROM reservations WHERE code").
		WillReturnRows(reservationRow(7, "RSV260314AAAA", model.ReservationPending, 1, expiry))
	env.mock.ExpectQuery("FROM payments WHERE reservation_id").
		WillReturnRows(paymentRow(3, model.PaymentPending, 5000))
	env.mock.ExpectExec("UPDATE payments").
		WillReturnResult(sqlmock.NewResult(0, 1))
	env.mock.ExpectRollback()

	_, err := env.payments.MarkCompleted(context.Background(), "RSV260314AAAA", "", nil)
	var transErr *model.InvalidTransitionError
	if !errors.As(err, &transErr) {
		t.Fatalf("expected InvalidTransitionError, got %v", err)
	}
	if transErr.From != model.ReservationExpired {
		t.Fatalf("from = %s, want EXPIRED", transErr.From)
	}
	env.expectationsMet(t)
}

func TestMarkFailedRequiresPendingPayment(t *testing.T) {
	env := newTestEnv(t)

	env.mock.ExpectBegin()
	env.mock.ExpectQuery("FROM reservations WHERE code").
		WillReturnRows(reservationRow(7, "RSV260314AAAA", model.ReservationPending, 1, nil))
	env.mock.ExpectQuery("FROM payments WHERE reservation_id").
		WillReturnRows(paymentRow(3, model.PaymentCompleted, 5000))
	env.mock.ExpectRollback()

	err := env.payments.MarkFailed(context.Background(), "RSV260314AAAA")
	var transErr *model.InvalidTransitionError
	if !errors.As(err, &transErr) {
		t.Fatalf("expected InvalidTransitionError, got %v", err)
	}
	env.expectationsMet(t)
}

func TestMarkRefundedCascadesAllTickets(t *testing.T) {
	env := newTestEnv(t)

	env.mock.ExpectBegin()
	env.mock.ExpectQuery("FROM reservations WHERE code").
		WillReturnRows(reservationRow(7, "RSV260314AAAA", model.ReservationPaid, 2, nil))
	env.mock.ExpectQuery("FROM payments WHERE reservation_id").
		WillReturnRows(paymentRow(3, model.PaymentCompleted, 10000))
	env.mock.ExpectExec("UPDATE payments").
		WillReturnResult(sqlmock.NewResult(0, 1))
	// Administrative override: the cascade has no status filter, boarded
	// and missed tickets are refunded too.
	env.mock.ExpectExec("UPDATE tickets SET status").WithArgs(model.TicketRefunded, uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	env.mock.ExpectCommit()

	if err := env.payments.MarkRefunded(context.Background(), "RSV260314AAAA", 0); err != nil {
		t.Fatalf("refund: %v", err)
	}
	if got := env.publisher.types(); len(got) != 1 || got[0] != queue.EventPaymentRefunded {
		t.Fatalf("events = %v, want [payment.refunded]", got)
	}
	// Zero amount refunds the full paid amount.
	if got := env.publisher.events[0].Payload["amount_cents"]; got != "10000" {
		t.Fatalf("amount_cents = %s, want 10000", got)
	}
	env.expectationsMet(t)
}

func TestMarkRefundedRequiresCompletedPayment(t *testing.T) {
	env := newTestEnv(t)

	env.mock.ExpectBegin()
	env.mock.ExpectQuery("FROM reservations WHERE code").
		WillReturnRows(reservationRow(7, "RSV260314AAAA", model.ReservationConfirmed, 2, nil))
	env.mock.ExpectQuery("FROM payments WHERE reservation_id").
		WillReturnRows(paymentRow(3, model.PaymentPending, 10000))
	env.mock.ExpectRollback()

	err := env.payments.MarkRefunded(context.Background(), "RSV260314AAAA", 0)
	var transErr *model.InvalidTransitionError
	if !errors.As(err, &transErr) {
		t.Fatalf("expected InvalidTransitionError, got %v", err)
	}
	env.expectationsMet(t)
}
