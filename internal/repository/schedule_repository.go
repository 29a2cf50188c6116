package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/sekoucamara/bus-reservation/internal/model"
)

// ScheduleRepo provides read access to schedules and their priced legs.
// Schedule CRUD belongs to the surrounding administration surface; the
// reservation core only reads.
type ScheduleRepo struct {
	db *sql.DB
}

// NewScheduleRepo returns a ScheduleRepo bound to the given database.
func NewScheduleRepo(db *sql.DB) *ScheduleRepo { return &ScheduleRepo{db: db} }

// GetWithLeg returns a schedule together with the leg it runs, or
// ErrScheduleNotFound. Inactive schedules are returned too; admission
// decides whether to accept them.
func (r *ScheduleRepo) GetWithLeg(ctx context.Context, id uint64) (*model.Schedule, *model.Leg, error) {
	const q = `SELECT s.id, s.leg_id, s.agency_id, s.departure_time, s.weekdays, s.active,
	                  s.created_at, s.updated_at,
	                  l.id, l.route_id, l.origin, l.destination, l.price_cents, l.duration_min
	           FROM schedules s
	           JOIN legs l ON l.id = s.leg_id
	           WHERE s.id = ?`
	var s model.Schedule
	var l model.Leg
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&s.ID, &s.LegID, &s.AgencyID, &s.DepartureTime, &s.Weekdays, &s.Active,
		&s.CreatedAt, &s.UpdatedAt,
		&l.ID, &l.RouteID, &l.Origin, &l.Destination, &l.PriceCents, &l.DurationMin,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, ErrScheduleNotFound
	}
	if err != nil {
		return nil, nil, err
	}
	return &s, &l, nil
}
