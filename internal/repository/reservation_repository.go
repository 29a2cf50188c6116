package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/sekoucamara/bus-reservation/internal/model"
)

// ReservationRepo provides data access for reservations. A reservation
// groups the seats a buyer claimed on one schedule for one travel date; its
// tickets live in the tickets table and are managed by TicketRepo. All
// timestamps are stored in UTC.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// DB exposes the underlying handle so services can open transactions.
func (r *ReservationRepo) DB() *sql.DB { return r.db }

const reservationColumns = `id, code, buyer_id, schedule_id, travel_date, seat_count,
       total_price_cents, status, expires_at, notes, created_at, updated_at`

// scanReservation reads one reservation row in reservationColumns order.
func scanReservation(row interface{ Scan(...any) error }) (*model.Reservation, error) {
	var res model.Reservation
	var expires sql.NullTime
	var notes sql.NullString
	err := row.Scan(
		&res.ID, &res.Code, &res.BuyerID, &res.ScheduleID, &res.TravelDate,
		&res.SeatCount, &res.TotalPriceCents, &res.Status, &expires, &notes,
		&res.CreatedAt, &res.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if expires.Valid {
		t := expires.Time.UTC()
		res.ExpiresAt = &t
	}
	if notes.Valid {
		res.Notes = notes.String
	}
	return &res, nil
}

// CodeExists reports whether a reservation code is already taken. Used as
// the uniqueness predicate by the code generator.
func (r *ReservationRepo) CodeExists(ctx context.Context, code string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM reservations WHERE code = ?`, code).Scan(&n)
	return n > 0, err
}

// CreateTx inserts a new reservation inside an existing transaction and
// populates the generated ID and timestamps on the passed value. The code
// column carries a UNIQUE constraint; callers must regenerate the code and
// retry when IsDuplicateKey reports a collision.
func (r *ReservationRepo) CreateTx(ctx context.Context, tx Runner, res *model.Reservation) error {
	const q = `INSERT INTO reservations
	           (code, buyer_id, schedule_id, travel_date, seat_count, total_price_cents, status, expires_at, notes)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	var expires any
	if res.ExpiresAt != nil {
		expires = res.ExpiresAt.UTC()
	}
	result, err := tx.ExecContext(ctx, q,
		res.Code, res.BuyerID, res.ScheduleID, res.TravelDate.UTC().Format("2006-01-02"),
		res.SeatCount, res.TotalPriceCents, res.Status, expires, res.Notes,
	)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	res.ID = uint64(id)
	now := time.Now().UTC()
	res.CreatedAt = now
	res.UpdatedAt = now
	return nil
}

// GetByCode returns the reservation with the given code, or
// ErrReservationNotFound.
func (r *ReservationRepo) GetByCode(ctx context.Context, code string) (*model.Reservation, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+reservationColumns+` FROM reservations WHERE code = ?`, code)
	res, err := scanReservation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrReservationNotFound
	}
	return res, err
}

// GetByCodeForUpdateTx loads a reservation with a row lock held for the
// duration of the transaction. State transitions (confirm, cancel, pay)
// read through this to serialize concurrent operations per reservation.
func (r *ReservationRepo) GetByCodeForUpdateTx(ctx context.Context, tx Runner, code string) (*model.Reservation, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+reservationColumns+` FROM reservations WHERE code = ? FOR UPDATE`, code)
	res, err := scanReservation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrReservationNotFound
	}
	return res, err
}

// UpdateStatusTx moves a reservation to the given status. When clearExpiry
// is true the expiry deadline is removed, which every transition out of
// PENDING does.
func (r *ReservationRepo) UpdateStatusTx(ctx context.Context, tx Runner, id uint64, status string, clearExpiry bool) error {
	if clearExpiry {
		_, err := tx.ExecContext(ctx,
			`UPDATE reservations SET status = ?, expires_at = NULL, updated_at = UTC_TIMESTAMP() WHERE id = ?`,
			status, id)
		return err
	}
	_, err := tx.ExecContext(ctx,
		`UPDATE reservations SET status = ?, updated_at = UTC_TIMESTAMP() WHERE id = ?`,
		status, id)
	return err
}

// AppendNoteTx appends a line to the reservation's free-text notes.
// Cancellation reasons are recorded this way.
func (r *ReservationRepo) AppendNoteTx(ctx context.Context, tx Runner, id uint64, note string) error {
	const q = `UPDATE reservations
	           SET notes = TRIM(BOTH '\n' FROM CONCAT(COALESCE(notes, ''), '\n', ?)),
	               updated_at = UTC_TIMESTAMP()
	           WHERE id = ?`
	_, err := tx.ExecContext(ctx, q, note, id)
	return err
}

// ListExpiredPending returns reservations that are past their expiry
// deadline and still PENDING, capped at limit. The sweeper expires each one
// individually through MarkExpired so a concurrent confirm never loses.
func (r *ReservationRepo) ListExpiredPending(ctx context.Context, now time.Time, limit int) ([]model.Reservation, error) {
	const q = `SELECT ` + reservationColumns + `
	           FROM reservations
	           WHERE status = ? AND expires_at IS NOT NULL AND expires_at < ?
	           ORDER BY expires_at
	           LIMIT ?`
	rows, err := r.db.QueryContext(ctx, q, model.ReservationPending, now.UTC(), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *res)
	}
	return out, rows.Err()
}

// MarkExpired transitions one reservation to EXPIRED if and only if it is
// still PENDING with a deadline in the past. The guarded UPDATE makes the
// sweep idempotent and safe against racing confirms: it reports whether the
// transition actually happened.
func (r *ReservationRepo) MarkExpired(ctx context.Context, id uint64, now time.Time) (bool, error) {
	const q = `UPDATE reservations
	           SET status = ?, expires_at = NULL, updated_at = UTC_TIMESTAMP()
	           WHERE id = ? AND status = ? AND expires_at IS NOT NULL AND expires_at < ?`
	result, err := r.db.ExecContext(ctx, q, model.ReservationExpired, id, model.ReservationPending, now.UTC())
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	return n > 0, err
}

// PendingSeatClaimTx sums the seat counts of unexpired PENDING reservations
// for a schedule and travel date. These claims consume capacity from the
// moment of admission, before any tickets exist.
func (r *ReservationRepo) PendingSeatClaimTx(ctx context.Context, tx Runner, scheduleID uint64, travelDate time.Time, now time.Time) (int, error) {
	const q = `SELECT COALESCE(SUM(seat_count), 0)
	           FROM reservations
	           WHERE schedule_id = ? AND travel_date = ? AND status = ?
	             AND (expires_at IS NULL OR expires_at >= ?)`
	var n int
	err := tx.QueryRowContext(ctx, q,
		scheduleID, travelDate.UTC().Format("2006-01-02"), model.ReservationPending, now.UTC()).Scan(&n)
	return n, err
}
