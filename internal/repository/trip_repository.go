package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/sekoucamara/bus-reservation/internal/model"
)

// TripRepo provides data access for trips and the fleet lookups trip
// creation depends on. Capacity aggregates over trips live here as well;
// the service-layer ledger composes them.
type TripRepo struct {
	db *sql.DB
}

// NewTripRepo returns a TripRepo bound to the given database.
func NewTripRepo(db *sql.DB) *TripRepo { return &TripRepo{db: db} }

// DB exposes the underlying handle so services can open transactions.
func (r *TripRepo) DB() *sql.DB { return r.db }

const tripColumns = `id, schedule_id, agency_id, vehicle_id, driver_id, departure_at,
       status, current_location, created_at, updated_at`

func scanTrip(row interface{ Scan(...any) error }) (*model.Trip, error) {
	var t model.Trip
	var loc sql.NullString
	err := row.Scan(
		&t.ID, &t.ScheduleID, &t.AgencyID, &t.VehicleID, &t.DriverID,
		&t.DepartureAt, &t.Status, &loc, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if loc.Valid {
		t.CurrentLocation = &loc.String
	}
	t.DepartureAt = t.DepartureAt.UTC()
	return &t, nil
}

// CreateTx inserts a new trip and populates the generated ID. Agency
// consistency between vehicle and driver is validated by the trip service
// before this is called.
func (r *TripRepo) CreateTx(ctx context.Context, tx Runner, t *model.Trip) error {
	const q = `INSERT INTO trips (schedule_id, agency_id, vehicle_id, driver_id, departure_at, status)
	           VALUES (?, ?, ?, ?, ?, ?)`
	result, err := tx.ExecContext(ctx, q,
		t.ScheduleID, t.AgencyID, t.VehicleID, t.DriverID, t.DepartureAt.UTC(), t.Status)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	return nil
}

// GetByID returns the trip with the given id, or ErrTripNotFound.
func (r *TripRepo) GetByID(ctx context.Context, id uint64) (*model.Trip, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+tripColumns+` FROM trips WHERE id = ?`, id)
	t, err := scanTrip(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTripNotFound
	}
	return t, err
}

// GetByIDForUpdateTx loads a trip with a row lock so a status transition
// and its side effects serialize against concurrent transitions.
func (r *TripRepo) GetByIDForUpdateTx(ctx context.Context, tx Runner, id uint64) (*model.Trip, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+tripColumns+` FROM trips WHERE id = ? FOR UPDATE`, id)
	t, err := scanTrip(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTripNotFound
	}
	return t, err
}

// UpdateStatusTx moves a trip to the given status and optionally records a
// transit location report.
func (r *TripRepo) UpdateStatusTx(ctx context.Context, tx Runner, id uint64, status string, location *string) error {
	if location != nil {
		_, err := tx.ExecContext(ctx,
			`UPDATE trips SET status = ?, current_location = ?, updated_at = UTC_TIMESTAMP() WHERE id = ?`,
			status, *location, id)
		return err
	}
	_, err := tx.ExecContext(ctx,
		`UPDATE trips SET status = ?, updated_at = UTC_TIMESTAMP() WHERE id = ?`,
		status, id)
	return err
}

// LockForScheduleDateTx selects all non-cancelled trips realizing a
// schedule on a travel date, holding row locks until the transaction ends.
// Admission takes these locks before re-checking capacity so two bookings
// racing on the same schedule and date serialize on the trip rows.
func (r *TripRepo) LockForScheduleDateTx(ctx context.Context, tx Runner, scheduleID uint64, travelDate time.Time) ([]model.Trip, error) {
	return r.listForScheduleDate(ctx, tx, scheduleID, travelDate, true)
}

// ListForScheduleDateTx is the lock-free variant used by read-only
// availability queries.
func (r *TripRepo) ListForScheduleDateTx(ctx context.Context, tx Runner, scheduleID uint64, travelDate time.Time) ([]model.Trip, error) {
	return r.listForScheduleDate(ctx, tx, scheduleID, travelDate, false)
}

func (r *TripRepo) listForScheduleDate(ctx context.Context, tx Runner, scheduleID uint64, travelDate time.Time, lock bool) ([]model.Trip, error) {
	q := `SELECT ` + tripColumns + `
	      FROM trips
	      WHERE schedule_id = ? AND DATE(departure_at) = ? AND status <> ?
	      ORDER BY departure_at`
	if lock {
		q += ` FOR UPDATE`
	}
	rows, err := tx.QueryContext(ctx, q,
		scheduleID, travelDate.UTC().Format("2006-01-02"), model.TripCancelled)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Trip
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

// SeatSupplyTx sums the vehicle capacities of the given trips.
func (r *TripRepo) SeatSupplyTx(ctx context.Context, tx Runner, tripIDs []uint64) (int, error) {
	if len(tripIDs) == 0 {
		return 0, nil
	}
	query := `SELECT COALESCE(SUM(v.capacity), 0)
	          FROM trips t JOIN vehicles v ON v.id = t.vehicle_id
	          WHERE t.id IN (`
	args := make([]any, 0, len(tripIDs))
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

// VehicleInfo returns the agency and capacity of a vehicle. Inactive
// vehicles are reported so trip creation can reject them.
func (r *TripRepo) VehicleInfo(ctx context.Context, id uint64) (agencyID uint64, capacity int, active bool, err error) {
	err = r.db.QueryRowContext(ctx,
		`SELECT agency_id, capacity, active FROM vehicles WHERE id = ?`, id).
		Scan(&agencyID, &capacity, &active)
	if errors.Is(err, sql.ErrNoRows) {
		err = ErrTripNotFound
	}
	return
}

// DriverInfo returns the agency and active flag of a driver.
func (r *TripRepo) DriverInfo(ctx context.Context, id uint64) (agencyID uint64, active bool, err error) {
	err = r.db.QueryRowContext(ctx,
		`SELECT agency_id, active FROM drivers WHERE id = ?`, id).
		Scan(&agencyID, &active)
	if errors.Is(err, sql.ErrNoRows) {
		err = ErrTripNotFound
	}
	return
}

// VehicleCapacity returns the capacity of the vehicle assigned to a trip.
func (r *TripRepo) VehicleCapacity(ctx context.Context, tripID uint64) (int, error) {
	const q = `SELECT v.capacity FROM trips t JOIN vehicles v ON v.id = t.vehicle_id WHERE t.id = ?`
	var n int
	err := r.db.QueryRowContext(ctx, q, tripID).Scan(&n)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrTripNotFound
	}
	return n, err
}

// FirstOpenTrip returns the earliest PLANNED or BOARDING trip among the
// given trips, used to bind fresh tickets at confirmation time. Returns nil
// when none qualifies.
func FirstOpenTrip(trips []model.Trip) *model.Trip {
	for i := range trips {
		if trips[i].Status == model.TripPlanned || trips[i].Status == model.TripBoarding {
			return &trips[i]
		}
	}
	return nil
}
