package model

import "time"

// Reservation statuses. PENDING reservations carry an expiry deadline and
// are swept to EXPIRED once it passes; CONFIRMED and PAID are the active
// states; CANCELLED and EXPIRED are terminal.
const (
	ReservationPending   = "PENDING"
	ReservationConfirmed = "CONFIRMED"
	ReservationPaid      = "PAID"
	ReservationCancelled = "CANCELLED"
	ReservationExpired   = "EXPIRED"
)

// Reservation records a buyer's claim on a number of seats for one schedule
// on one travel date. Seats become individual tickets at confirmation time.
//
// Fields:
//  ID              – primary key identifier.
//  Code            – unique human-readable booking code (RSV + yymmdd + 4 random).
//  BuyerID         – user who made the booking.
//  ScheduleID      – schedule being booked.
//  TravelDate      – date of travel (the schedule realization day).
//  SeatCount       – number of seats claimed (>= 1).
//  TotalPriceCents – leg price times seat count, in cents.
//  Status          – reservation state.
//  ExpiresAt       – deadline for PENDING reservations; nil otherwise.
//  Notes           – free-text notes; cancellation reasons are appended here.
type Reservation struct {
	ID              uint64     // reservations.id
	Code            string     // reservations.code
	BuyerID         uint64     // reservations.buyer_id
	ScheduleID      uint64     // reservations.schedule_id
	TravelDate      time.Time  // reservations.travel_date (DATE, UTC midnight)
	SeatCount       int        // reservations.seat_count
	TotalPriceCents int64      // reservations.total_price_cents
	Status          string     // reservations.status
	ExpiresAt       *time.Time // reservations.expires_at (nullable)
	Notes           string     // reservations.notes
	CreatedAt       time.Time  // reservations.created_at
	UpdatedAt       time.Time  // reservations.updated_at
}

// ReservationTerminal reports whether a reservation status admits no
// further lifecycle transitions.
func ReservationTerminal(status string) bool {
	return status == ReservationCancelled || status == ReservationExpired
}

// ExpiredAt reports whether the reservation should be considered expired at
// the given instant. Only PENDING reservations with a deadline strictly in
// the past qualify; everything else keeps its current status.
func (r *Reservation) ExpiredAt(now time.Time) bool {
	return r.Status == ReservationPending && r.ExpiresAt != nil && now.After(*r.ExpiresAt)
}
