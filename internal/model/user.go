package model

import "time"

// Staff roles stored in the JWT "role" claim and checked by the role
// middleware. ADMIN manages trips and settings, AGENT sells and confirms
// reservations, DRIVER may scan tickets at the door.
const (
	RoleAdmin  = "ADMIN"
	RoleAgent  = "AGENT"
	RoleDriver = "DRIVER"
)

// User is a staff account attached to an agency. Passenger identities are
// plain buyer references on reservations; only staff authenticate here.
type User struct {
	ID           uint64    // users.id
	AgencyID     uint64    // users.agency_id
	FullName     string    // users.full_name
	Email        string    // users.email
	PasswordHash string    // users.password_hash
	Role         string    // users.role
	Active       bool      // users.active
	CreatedAt    time.Time // users.created_at
}
