package model

import "time"

// Agency levels, top to bottom of the tenancy hierarchy.
const (
	AgencyNational = "NATIONAL"
	AgencyCentral  = "CENTRAL"
	AgencyLocal    = "LOCAL"
)

// Agency is a tenant in the national/central/local hierarchy. Only the
// reference is needed here; hierarchy management lives outside this service.
type Agency struct {
	ID        uint64    // agencies.id
	ParentID  *uint64   // agencies.parent_id (nullable, nil for national)
	Name      string    // agencies.name
	Level     string    // agencies.level
	CreatedAt time.Time // agencies.created_at
}

// Vehicle is a bus or van owned by an agency. Its capacity is the seat
// supply every trip it runs contributes to the capacity ledger.
type Vehicle struct {
	ID        uint64    // vehicles.id
	AgencyID  uint64    // vehicles.agency_id
	Plate     string    // vehicles.plate
	Capacity  int       // vehicles.capacity
	Active    bool      // vehicles.active
	CreatedAt time.Time // vehicles.created_at
}

// Driver is a staff member qualified to run trips. A trip's driver and
// vehicle must belong to the same agency.
type Driver struct {
	ID        uint64    // drivers.id
	AgencyID  uint64    // drivers.agency_id
	Name      string    // drivers.name
	Phone     string    // drivers.phone
	Active    bool      // drivers.active
	CreatedAt time.Time // drivers.created_at
}
