package model

import "time"

// Payment statuses. COMPLETED drives the owning reservation to PAID;
// REFUNDED cascades REFUNDED to all sibling tickets as an administrative
// override of the normal ticket transition guards.
const (
	PaymentPending   = "PENDING"
	PaymentCompleted = "COMPLETED"
	PaymentFailed    = "FAILED"
	PaymentRefunded  = "REFUNDED"
)

// Payment is one attempt to pay a reservation's total price. At most one
// payment row exists per reservation (UNIQUE on reservation_id).
//
// Fields:
//  ID            – primary key identifier.
//  ReservationID – reservation being paid (one-to-one).
//  AgencyID      – agency collecting the payment.
//  Method        – payment channel, e.g. CASH, MOBILE_MONEY, CARD.
//  AmountCents   – amount in cents.
//  Status        – payment state.
//  ProviderRef   – external provider transaction reference (nullable).
//  PaidAt        – completion instant (nullable).
//  RefundedCents – refunded amount in cents; zero until a refund happens.
//  RefundedAt    – refund instant (nullable).
type Payment struct {
	ID            uint64     // payments.id
	ReservationID uint64     // payments.reservation_id
	AgencyID      uint64     // payments.agency_id
	Method        string     // payments.method
	AmountCents   int64      // payments.amount_cents
	Status        string     // payments.status
	ProviderRef   *string    // payments.provider_ref (nullable)
	PaidAt        *time.Time // payments.paid_at (nullable)
	RefundedCents int64      // payments.refunded_cents
	RefundedAt    *time.Time // payments.refunded_at (nullable)
	CreatedAt     time.Time  // payments.created_at
	UpdatedAt     time.Time  // payments.updated_at
}
