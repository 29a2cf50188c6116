package model

import "time"

// Ticket statuses. A ticket is born CONFIRMED when its reservation is
// confirmed. Scanning moves it to BOARDED; the post-departure sweep moves
// unscanned tickets to MISSED; CANCELLED and REFUNDED are propagated from
// the owning reservation and payment respectively.
const (
	TicketConfirmed = "CONFIRMED"
	TicketBoarded   = "BOARDED"
	TicketMissed    = "MISSED"
	TicketCancelled = "CANCELLED"
	TicketRefunded  = "REFUNDED"
)

// Boarding window bounds, relative to the trip departure time. The gate
// accepts scans until departure+30m. The narrower window around departure
// is informational only ("boarding in progress" display) and must never be
// used for the scan eligibility decision.
const (
	BoardingGateTail     = 30 * time.Minute
	BoardingDisplayLead  = 30 * time.Minute
	BoardingDisplayTrail = 15 * time.Minute
)

// Ticket is one seat on one concrete trip, owned by a reservation. The trip
// reference is nullable: a reservation confirmed before any trip has been
// realized for its schedule and date leaves its tickets unassigned.
//
// Fields:
//  ID            – primary key identifier.
//  Code          – unique ticket code (TKT + yymmdd + 6 random).
//  ReservationID – owning reservation.
//  TripID        – concrete trip the seat is on (nullable).
//  BuyerID       – user who paid for the ticket.
//  PassengerName – name of the traveling passenger.
//  PassengerPhone, PassengerEmail, PassengerIDNumber – passenger contact data.
//  SeatNumber    – assigned seat label, when the vehicle has fixed seats.
//  Status        – ticket state.
//  ScannedAt     – when the boarding scan happened (nullable).
//  ScannedBy     – staff user who performed the scan (nullable).
//  BoardingTime  – recorded boarding instant (nullable).
//  ScanLocation  – station/terminal where the scan happened (nullable).
type Ticket struct {
	ID                uint64     // tickets.id
	Code              string     // tickets.code
	ReservationID     uint64     // tickets.reservation_id
	TripID            *uint64    // tickets.trip_id (nullable)
	BuyerID           uint64     // tickets.buyer_id
	PassengerName     string     // tickets.passenger_name
	PassengerPhone    string     // tickets.passenger_phone
	PassengerEmail    string     // tickets.passenger_email
	PassengerIDNumber string     // tickets.passenger_id_number
	SeatNumber        *string    // tickets.seat_number (nullable)
	Status            string     // tickets.status
	ScannedAt         *time.Time // tickets.scanned_at (nullable)
	ScannedBy         *uint64    // tickets.scanned_by (nullable)
	BoardingTime      *time.Time // tickets.boarding_time (nullable)
	ScanLocation      *string    // tickets.scan_location (nullable)
	CreatedAt         time.Time  // tickets.created_at
	UpdatedAt         time.Time  // tickets.updated_at
}

// BoardingGateOpen reports whether a scan at instant now is still inside the
// boarding gate for a trip departing at departure. The gate is open-ended
// backwards and closes 30 minutes after departure.
func BoardingGateOpen(departure, now time.Time) bool {
	return !now.After(departure.Add(BoardingGateTail))
}

// BoardingInProgress reports whether the informational boarding window
// [departure-30m, departure+15m] contains now. Display only.
func BoardingInProgress(departure, now time.Time) bool {
	return !now.Before(departure.Add(-BoardingDisplayLead)) &&
		!now.After(departure.Add(BoardingDisplayTrail))
}

// Boardable reports whether the ticket itself is in a scannable state. The
// full eligibility decision also involves the trip status and the gate
// window; those checks live in the boarding service.
func (t *Ticket) Boardable() bool {
	return t.Status == TicketConfirmed && t.ScannedAt == nil
}
