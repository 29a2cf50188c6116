package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/sekoucamara/bus-reservation/internal/config"
	"github.com/sekoucamara/bus-reservation/internal/queue"
	"github.com/sekoucamara/bus-reservation/internal/repository"
)

// testNow is the frozen clock every service test runs on.
var testNow = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

// travelDate is the booking day used throughout the fixtures.
var travelDate = time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

// capturePublisher records emitted events instead of talking to a broker.
type capturePublisher struct {
	events []queue.NotificationEvent
}

func (p *capturePublisher) Publish(_ context.Context, e queue.NotificationEvent) {
	p.events = append(p.events, e)
}

func (p *capturePublisher) types() []string {
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

// testEnv bundles the mocked database with fully wired services.
type testEnv struct {
	db        *sql.DB
	mock      sqlmock.Sqlmock
	publisher *capturePublisher

	reservations *ReservationService
	boarding     *BoardingService
	trips        *TripService
	payments     *PaymentService
	ledger       *CapacityLedger
}

// newTestEnv wires every service against one sqlmock handle with the clock
// frozen at testNow. Settings are primed so the lazy load never fires
// mid-test.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	mock.MatchExpectationsInOrder(false)

	mock.ExpectQuery("SELECT name, value FROM company_settings").
		WillReturnRows(sqlmock.NewRows([]string{"name", "value"}))
	settings := config.NewSettings(db)
	if err := settings.Reload(context.Background()); err != nil {
		t.Fatalf("prime settings: %v", err)
	}

	resRepo := repository.NewReservationRepo(db)
	ticketRepo := repository.NewTicketRepo(db)
	tripRepo := repository.NewTripRepo(db)
	schedRepo := repository.NewScheduleRepo(db)
	payRepo := repository.NewPaymentRepo(db)

	pub := &capturePublisher{}
	ledger := NewCapacityLedger(tripRepo, ticketRepo, resRepo)

	reservations := NewReservationService(resRepo, ticketRepo, tripRepo, schedRepo, ledger, settings, pub)
	reservations.now = func() time.Time { return testNow }

	boarding := NewBoardingService(ticketRepo, tripRepo, pub)
	boarding.now = func() time.Time { return testNow }

	trips := NewTripService(tripRepo, schedRepo, ledger, boarding.ProcessMissedTicketsForTrip)

	payments := NewPaymentService(payRepo, reservations, resRepo, ticketRepo, schedRepo, pub)
	payments.now = func() time.Time { return testNow }

	return &testEnv{
		db:           db,
		mock:         mock,
		publisher:    pub,
		reservations: reservations,
		boarding:     boarding,
		trips:        trips,
		payments:     payments,
		ledger:       ledger,
	}
}

func (e *testEnv) expectationsMet(t *testing.T) {
	t.Helper()
	if err := e.mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

var reservationCols = []string{
	"id", "code", "buyer_id", "schedule_id", "travel_date", "seat_count",
	"total_price_cents", "status", "expires_at", "notes", "created_at", "updated_at",
}

func reservationRow(id uint64, code, status string, seats int, expiresAt any) *sqlmock.Rows {
	return sqlmock.NewRows(reservationCols).
		AddRow(id, code, uint64(9), uint64(1), travelDate, seats,
			int64(5000*seats), status, expiresAt, nil, testNow, testNow)
}

var tripCols = []string{
	"id", "schedule_id", "agency_id", "vehicle_id", "driver_id", "departure_at",
	"status", "current_location", "created_at", "updated_at",
}

func tripRow(id uint64, status string, departureAt time.Time, location any) *sqlmock.Rows {
	return sqlmock.NewRows(tripCols).
		AddRow(id, uint64(1), uint64(2), uint64(3), uint64(4), departureAt,
			status, location, testNow, testNow)
}

var ticketCols = []string{
	"id", "code", "reservation_id", "trip_id", "buyer_id", "passenger_name",
	"passenger_phone", "passenger_email", "passenger_id_number", "seat_number",
	"status", "scanned_at", "scanned_by", "boarding_time", "scan_location",
	"created_at", "updated_at",
}

func ticketRow(id uint64, code string, tripID any, status string, scannedAt any) *sqlmock.Rows {
	return sqlmock.NewRows(ticketCols).
		AddRow(id, code, uint64(7), tripID, uint64(9), "Aissata Diallo",
			"", "", "", nil, status, scannedAt, nil, nil, nil, testNow, testNow)
}

var paymentCols = []string{
	"id", "reservation_id", "agency_id", "method", "amount_cents", "status",
	"provider_ref", "paid_at", "refunded_cents", "refunded_at", "created_at", "updated_at",
}

func paymentRow(id uint64, status string, amountCents int64) *sqlmock.Rows {
	return sqlmock.NewRows(paymentCols).
		AddRow(id, uint64(7), uint64(2), "CASH", amountCents, status,
			nil, nil, int64(0), nil, testNow, testNow)
}

func scheduleWithLegRow(active bool, priceCents int64) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"s_id", "leg_id", "agency_id", "departure_time", "weekdays", "active",
		"created_at", "updated_at", "l_id", "route_id", "origin", "destination",
		"price_cents", "duration_min",
	}).AddRow(uint64(1), uint64(11), uint64(2), "08:30", "1,2,3,4,5", active,
		testNow, testNow, uint64(11), uint64(21), "Conakry", "Kindia", priceCents, 180)
}

// expectLedger queues the four capacity aggregates: total vehicle supply,
// tickets bound to the trips, unassigned active tickets, and pending seat
// claims.
func (e *testEnv) expectLedger(supply, bound, unassigned, pending int) {
	e.mock.ExpectQuery(`SUM\(v\.capacity\)`).
		WillReturnRows(sqlmock.NewRows([]string{"supply"}).AddRow(supply))
	e.mock.ExpectQuery(`COUNT\(1\) FROM tickets WHERE status IN`).
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(bound))
	e.mock.ExpectQuery(`trip_id IS NULL`).
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(unassigned))
	e.mock.ExpectQuery(`SUM\(seat_count\)`).
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(pending))
}
