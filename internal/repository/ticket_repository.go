package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/sekoucamara/bus-reservation/internal/model"
)

// TicketRepo provides data access for tickets, the boardable unit of the
// platform. Tickets are owned by a reservation (cascade on delete) and hold
// a nullable reference to the concrete trip they board (set null on trip
// deletion).
type TicketRepo struct {
	db *sql.DB
}

// NewTicketRepo returns a TicketRepo bound to the given database.
func NewTicketRepo(db *sql.DB) *TicketRepo { return &TicketRepo{db: db} }

const ticketColumns = `id, code, reservation_id, trip_id, buyer_id, passenger_name,
       passenger_phone, passenger_email, passenger_id_number, seat_number, status,
       scanned_at, scanned_by, boarding_time, scan_location, created_at, updated_at`

func scanTicket(row interface{ Scan(...any) error }) (*model.Ticket, error) {
	var t model.Ticket
	var tripID, scannedBy sql.NullInt64
	var seatNumber, scanLocation sql.NullString
	var scannedAt, boardingTime sql.NullTime
	err := row.Scan(
		&t.ID, &t.Code, &t.ReservationID, &tripID, &t.BuyerID, &t.PassengerName,
		&t.PassengerPhone, &t.PassengerEmail, &t.PassengerIDNumber, &seatNumber,
		&t.Status, &scannedAt, &scannedBy, &boardingTime, &scanLocation,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if tripID.Valid {
		v := uint64(tripID.Int64)
		t.TripID = &v
	}
	if scannedBy.Valid {
		v := uint64(scannedBy.Int64)
		t.ScannedBy = &v
	}
	if seatNumber.Valid {
		t.SeatNumber = &seatNumber.String
	}
	if scanLocation.Valid {
		t.ScanLocation = &scanLocation.String
	}
	if scannedAt.Valid {
		v := scannedAt.Time.UTC()
		t.ScannedAt = &v
	}
	if boardingTime.Valid {
		v := boardingTime.Time.UTC()
		t.BoardingTime = &v
	}
	return &t, nil
}

// CodeExists reports whether a ticket code is already taken.
func (r *TicketRepo) CodeExists(ctx context.Context, code string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM tickets WHERE code = ?`, code).Scan(&n)
	return n > 0, err
}

// CreateBulkTx inserts the given tickets in one statement. Codes must be
// pre-minted by the caller; the code column is UNIQUE, so a duplicate key
// error means a code collision slipped past the generator's probe and the
// caller should regenerate and retry the whole batch.
func (r *TicketRepo) CreateBulkTx(ctx context.Context, tx Runner, tickets []model.Ticket) error {
	if len(tickets) == 0 {
		return nil
	}
	query := `INSERT INTO tickets
	          (code, reservation_id, trip_id, buyer_id, passenger_name, passenger_phone,
	           passenger_email, passenger_id_number, seat_number, status) VALUES `
	args := make([]any, 0, len(tickets)*10)
	for i, t := range tickets {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"
		var tripID any
		if t.TripID != nil {
			tripID = *t.TripID
		}
		var seat any
		if t.SeatNumber != nil {
			seat = *t.SeatNumber
		}
		args = append(args, t.Code, t.ReservationID, tripID, t.BuyerID,
			t.PassengerName, t.PassengerPhone, t.PassengerEmail,
			t.PassengerIDNumber, seat, t.Status)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// GetByCode returns the ticket with the given code, or ErrTicketNotFound.
func (r *TicketRepo) GetByCode(ctx context.Context, code string) (*model.Ticket, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+ticketColumns+` FROM tickets WHERE code = ?`, code)
	t, err := scanTicket(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTicketNotFound
	}
	return t, err
}

// ListByReservation returns all tickets of a reservation, oldest first.
func (r *TicketRepo) ListByReservation(ctx context.Context, reservationID uint64) ([]model.Ticket, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+ticketColumns+` FROM tickets WHERE reservation_id = ? ORDER BY id`, reservationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Ticket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

// MarkBoarded records a successful scan. The guarded UPDATE only fires when
// the ticket is still CONFIRMED and unscanned, which linearizes racing
// scans and the missed-ticket sweep per ticket: whoever updates first wins
// and everyone else observes the new state. It reports whether this call
// performed the transition.
func (r *TicketRepo) MarkBoarded(ctx context.Context, id uint64, scannedBy uint64, location *string, now time.Time) (bool, error) {
	const q = `UPDATE tickets
	           SET status = ?, scanned_at = ?, scanned_by = ?, boarding_time = ?,
	               scan_location = ?, updated_at = UTC_TIMESTAMP()
	           WHERE id = ? AND status = ? AND scanned_at IS NULL`
	var loc any
	if location != nil {
		loc = *location
	}
	ts := now.UTC()
	result, err := r.db.ExecContext(ctx, q,
		model.TicketBoarded, ts, scannedBy, ts, loc, id, model.TicketConfirmed)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	return n > 0, err
}

// MarkMissedForTrip flags every still-CONFIRMED, never-scanned ticket of a
// trip as MISSED. The WHERE clause makes the sweep idempotent: a second run
// matches nothing, and a ticket boarded in between is left untouched.
func (r *TicketRepo) MarkMissedForTrip(ctx context.Context, tripID uint64) (int64, error) {
	const q = `UPDATE tickets
	           SET status = ?, updated_at = UTC_TIMESTAMP()
	           WHERE trip_id = ? AND status = ? AND scanned_at IS NULL`
	result, err := r.db.ExecContext(ctx, q, model.TicketMissed, tripID, model.TicketConfirmed)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// CascadeStatusTx moves all tickets of a reservation to the given status.
// When onlyFrom is non-empty the cascade is restricted to tickets currently
// in one of those states (cancellation skips already-boarded tickets);
// refunds pass nil to override every guard.
func (r *TicketRepo) CascadeStatusTx(ctx context.Context, tx Runner, reservationID uint64, to string, onlyFrom []string) (int64, error) {
	query := `UPDATE tickets SET status = ?, updated_at = UTC_TIMESTAMP() WHERE reservation_id = ?`
	args := []any{to, reservationID}
	if len(onlyFrom) > 0 {
		query += ` AND status IN (`
		for i, s := range onlyFrom {
			if i > 0 {
				query += ","
			}
			query += "?"
			args = append(args, s)
		}
		query += `)`
	}
	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// BoundTicketCountTx counts active (CONFIRMED or BOARDED) tickets bound to
// any of the given trips. Part of the capacity ledger.
func (r *TicketRepo) BoundTicketCountTx(ctx context.Context, tx Runner, tripIDs []uint64) (int, error) {
	if len(tripIDs) == 0 {
		return 0, nil
	}
	query := `SELECT COUNT(1) FROM tickets WHERE status IN (?, ?) AND trip_id IN (`
	args := []any{model.TicketConfirmed, model.TicketBoarded}
	for i, id := range tripIDs {
		if i > 0 {
			query += ","
		}
		query += "?"
		args = append(args, id)
	}
	query += `)`
	var n int
	err := tx.QueryRowContext(ctx, query, args...).Scan(&n)
	return n, err
}

// UnassignedTicketCountTx counts active tickets that belong to reservations
// of the given schedule and date but are not yet bound to any trip. They
// consume capacity even without a trip assignment.
func (r *TicketRepo) UnassignedTicketCountTx(ctx context.Context, tx Runner, scheduleID uint64, travelDate time.Time) (int, error) {
	const q = `SELECT COUNT(1)
	           FROM tickets t
	           JOIN reservations res ON res.id = t.reservation_id
	           WHERE t.trip_id IS NULL AND t.status IN (?, ?)
	             AND res.schedule_id = ? AND res.travel_date = ?`
	var n int
	err := tx.QueryRowContext(ctx, q,
		model.TicketConfirmed, model.TicketBoarded,
		scheduleID, travelDate.UTC().Format("2006-01-02")).Scan(&n)
	return n, err
}

// TicketCountForTrip counts active tickets bound to one trip. Used for the
// per-trip available seats query.
func (r *TicketRepo) TicketCountForTrip(ctx context.Context, tripID uint64) (int, error) {
	const q = `SELECT COUNT(1) FROM tickets WHERE trip_id = ? AND status IN (?, ?)`
	var n int
	err := r.db.QueryRowContext(ctx, q, tripID, model.TicketConfirmed, model.TicketBoarded).Scan(&n)
	return n, err
}
