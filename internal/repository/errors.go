// Package repository implements raw-SQL data access for the reservation
// core. Sentinel errors defined here let handlers distinguish failure
// scenarios without string matching: not-found values map to HTTP 404,
// ErrForbidden to 403 and ErrConflict to 409.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrReservationNotFound is returned when no reservation matches the given
// code or id.
var ErrReservationNotFound = errors.New("reservation not found")

// ErrTicketNotFound is returned when no ticket matches the given code.
var ErrTicketNotFound = errors.New("ticket not found")

// ErrTripNotFound is returned when a referenced trip does not exist.
var ErrTripNotFound = errors.New("trip not found")

// ErrScheduleNotFound is returned when a referenced schedule does not exist
// or is inactive.
var ErrScheduleNotFound = errors.New("schedule not found")

// ErrPaymentNotFound is returned when a reservation has no payment row yet.
var ErrPaymentNotFound = errors.New("payment not found")

// ErrUserNotFound is returned when a login email matches no staff account.
var ErrUserNotFound = errors.New("user not found")

// ErrForbidden is returned when the caller attempts an operation on a
// resource owned by another agency.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when an insert or update cannot proceed because
// of existing state, such as a second payment row for a reservation.
var ErrConflict = errors.New("conflict")

// IsDuplicateKey reports whether err is a MySQL duplicate-entry violation
// (error 1062). The unique constraints on the code columns make this the
// authoritative collision signal for the code generator's retry loop.
func IsDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}
