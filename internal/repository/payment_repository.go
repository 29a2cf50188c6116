package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/sekoucamara/bus-reservation/internal/model"
)

// PaymentRepo provides data access for payments. The reservation_id column
// carries a UNIQUE constraint, which is the hard guarantee behind the
// one-payment-per-reservation invariant.
type PaymentRepo struct {
	db *sql.DB
}

// NewPaymentRepo returns a PaymentRepo bound to the given database.
func NewPaymentRepo(db *sql.DB) *PaymentRepo { return &PaymentRepo{db: db} }

const paymentColumns = `id, reservation_id, agency_id, method, amount_cents, status,
       provider_ref, paid_at, refunded_cents, refunded_at, created_at, updated_at`

func scanPayment(row interface{ Scan(...any) error }) (*model.Payment, error) {
	var p model.Payment
	var providerRef sql.NullString
	var paidAt, refundedAt sql.NullTime
	err := row.Scan(
		&p.ID, &p.ReservationID, &p.AgencyID, &p.Method, &p.AmountCents, &p.Status,
		&providerRef, &paidAt, &p.RefundedCents, &refundedAt,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if providerRef.Valid {
		p.ProviderRef = &providerRef.String
	}
	if paidAt.Valid {
		v := paidAt.Time.UTC()
		p.PaidAt = &v
	}
	if refundedAt.Valid {
		v := refundedAt.Time.UTC()
		p.RefundedAt = &v
	}
	return &p, nil
}

// CreateTx inserts a PENDING payment for a reservation. A duplicate-key
// error is mapped to ErrConflict: the reservation already has its payment
// row.
func (r *PaymentRepo) CreateTx(ctx context.Context, tx Runner, p *model.Payment) error {
	const q = `INSERT INTO payments (reservation_id, agency_id, method, amount_cents, status)
	           VALUES (?, ?, ?, ?, ?)`
	result, err := tx.ExecContext(ctx, q,
		p.ReservationID, p.AgencyID, p.Method, p.AmountCents, p.Status)
	if err != nil {
		if IsDuplicateKey(err) {
			return ErrConflict
		}
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return nil
}

// GetByReservationForUpdateTx loads a reservation's payment with a row lock
// held for the duration of the transaction, or ErrPaymentNotFound.
func (r *PaymentRepo) GetByReservationForUpdateTx(ctx context.Context, tx Runner, reservationID uint64) (*model.Payment, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE reservation_id = ? FOR UPDATE`, reservationID)
	p, err := scanPayment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPaymentNotFound
	}
	return p, err
}

// MarkCompletedTx stamps a payment COMPLETED with its provider reference
// and completion instant.
func (r *PaymentRepo) MarkCompletedTx(ctx context.Context, tx Runner, id uint64, providerRef *string, now time.Time) error {
	const q = `UPDATE payments
	           SET status = ?, provider_ref = ?, paid_at = ?, updated_at = UTC_TIMESTAMP()
	           WHERE id = ?`
	var ref any
	if providerRef != nil {
		ref = *providerRef
	}
	_, err := tx.ExecContext(ctx, q, model.PaymentCompleted, ref, now.UTC(), id)
	return err
}

// MarkFailedTx moves a payment to FAILED. No cascade.
func (r *PaymentRepo) MarkFailedTx(ctx context.Context, tx Runner, id uint64) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE payments SET status = ?, updated_at = UTC_TIMESTAMP() WHERE id = ?`,
		model.PaymentFailed, id)
	return err
}

// MarkRefundedTx stamps refund metadata on a payment.
func (r *PaymentRepo) MarkRefundedTx(ctx context.Context, tx Runner, id uint64, amountCents int64, now time.Time) error {
	const q = `UPDATE payments
	           SET status = ?, refunded_cents = ?, refunded_at = ?, updated_at = UTC_TIMESTAMP()
	           WHERE id = ?`
	_, err := tx.ExecContext(ctx, q, model.PaymentRefunded, amountCents, now.UTC(), id)
	return err
}
