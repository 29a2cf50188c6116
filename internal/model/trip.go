package model

import "time"

// Trip statuses. Transitions are operator actions and deliberately
// permissive: any known status may follow any other. The only side effect
// tied to a transition is the missed-ticket sweep after a trip enters
// IN_PROGRESS, which the trip service invokes explicitly.
const (
	TripPlanned    = "PLANNED"
	TripBoarding   = "BOARDING"
	TripInProgress = "IN_PROGRESS"
	TripCompleted  = "COMPLETED"
	TripCancelled  = "CANCELLED"
)

// tripStatuses is the closed set of valid trip states.
var tripStatuses = map[string]bool{
	TripPlanned:    true,
	TripBoarding:   true,
	TripInProgress: true,
	TripCompleted:  true,
	TripCancelled:  true,
}

// KnownTripStatus reports whether s is a member of the trip status set.
func KnownTripStatus(s string) bool { return tripStatuses[s] }

// Trip is one concrete realization of a schedule: a vehicle and driver
// departing at a specific instant. Vehicle and driver must belong to the
// same agency; trip creation enforces that.
//
// Fields:
//  ID          – primary key identifier.
//  ScheduleID  – schedule this trip realizes.
//  AgencyID    – operating agency.
//  VehicleID   – assigned vehicle (capacity source).
//  DriverID    – assigned driver.
//  DepartureAt – scheduled departure instant (UTC).
//  Status      – trip state.
//  CurrentLocation – last reported transit position, free text (nullable).
type Trip struct {
	ID              uint64    // trips.id
	ScheduleID      uint64    // trips.schedule_id
	AgencyID        uint64    // trips.agency_id
	VehicleID       uint64    // trips.vehicle_id
	DriverID        uint64    // trips.driver_id
	DepartureAt     time.Time // trips.departure_at
	Status          string    // trips.status
	CurrentLocation *string   // trips.current_location (nullable)
	CreatedAt       time.Time // trips.created_at
	UpdatedAt       time.Time // trips.updated_at
}

// Departed reports whether the trip has moved past the point where new
// boardings make sense regardless of the clock.
func (t *Trip) Departed() bool {
	return t.Status == TripInProgress || t.Status == TripCompleted
}
