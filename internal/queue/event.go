// Package queue defines the domain events the reservation core emits and
// the background consumer that plays the notification dispatcher role.
package queue

// Event types published on the notification queue.
const (
	EventReservationConfirmed = "reservation.confirmed"
	EventReservationCancelled = "reservation.cancelled"
	EventReservationExpired   = "reservation.expired"
	EventTicketBoarded        = "ticket.boarded"
	EventPaymentCompleted     = "payment.completed"
	EventPaymentRefunded      = "payment.refunded"
)

// NotificationEvent is the envelope every state transition publishes. The
// core fires these and forgets them; the notification dispatcher consumes
// them to deliver user-facing messages. Payload keys depend on Type but
// always carry code identifiers rather than database ids so downstream
// consumers can compose messages without querying the primary store.
type NotificationEvent struct {
	Type       string            `json:"type"`
	Recipient  uint64            `json:"recipient"`
	OccurredAt string            `json:"occurred_at"`
	Payload    map[string]string `json:"payload"`
}
