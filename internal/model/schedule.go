package model

import "time"

// Schedule is a recurring departure template: a priced leg, a departure
// time of day and a days-of-week pattern. Trips realize a schedule on
// concrete dates; the capacity ledger aggregates over those trips.
//
// Fields:
//  ID            – primary key identifier.
//  LegID         – priced segment this schedule runs.
//  AgencyID      – agency operating the schedule.
//  DepartureTime – time of day, "15:04" 24h format.
//  Weekdays      – comma-separated weekday numbers, "0"=Sunday (e.g. "1,3,5").
//  Active        – inactive schedules reject new reservations.
type Schedule struct {
	ID            uint64    // schedules.id
	LegID         uint64    // schedules.leg_id
	AgencyID      uint64    // schedules.agency_id
	DepartureTime string    // schedules.departure_time
	Weekdays      string    // schedules.weekdays
	Active        bool      // schedules.active
	CreatedAt     time.Time // schedules.created_at
	UpdatedAt     time.Time // schedules.updated_at
}

// Leg is a priced, timed segment between two cities. The reservation total
// price is the leg price multiplied by the seat count.
type Leg struct {
	ID          uint64 // legs.id
	RouteID     uint64 // legs.route_id
	Origin      string // legs.origin
	Destination string // legs.destination
	PriceCents  int64  // legs.price_cents
	DurationMin int    // legs.duration_min
}
