package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/event-attendance/internal/model"
)

const cancellationColumns = `id, rsvp_id, user_id, event_id, cancelled_at, initiated_by,
	cancelled_by_user_id, payment_status, amount_paid_cents, payment_intent_id,
	refund_status, refunded_at, gateway_refund_id, refunded_by_user_id`

// CreateCancellation appends an audit record snapshotting the payment
// fields of a reservation that is about to be deleted.
func (s *Store) CreateCancellation(ctx context.Context, c *model.CancelledRSVP) error {
	const q = `INSERT INTO cancelled_rsvps
			   (rsvp_id, user_id, event_id, cancelled_at, initiated_by, cancelled_by_user_id,
				payment_status, amount_paid_cents, payment_intent_id)
			   VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if c.CancelledAt.IsZero() {
		c.CancelledAt = time.Now().UTC()
	}
	res, err := s.q(ctx).ExecContext(ctx, q,
		c.RSVPID, c.UserID, c.EventID, c.CancelledAt, c.InitiatedBy, c.CancelledByID,
		c.PaymentStatus, c.AmountPaidCents, c.PaymentIntentID,
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)
	return nil
}

// GetCancellation loads an audit record without locking it.  Used for
// read-only projections such as enriching the refund response; the
// refund processor itself uses GetCancellationForUpdate.  Returns nil
// when the record does not exist.
func (s *Store) GetCancellation(ctx context.Context, id uint64) (*model.CancelledRSVP, error) {
	const q = `SELECT ` + cancellationColumns + ` FROM cancelled_rsvps WHERE id = ?`
	return scanCancellation(s.q(ctx).QueryRowContext(ctx, q, id))
}

// GetCancellationForUpdate loads an audit record under an exclusive
// row lock so that concurrent refund attempts for the same record run
// one at a time.  Returns nil when the record does not exist.
func (s *Store) GetCancellationForUpdate(ctx context.Context, id uint64) (*model.CancelledRSVP, error) {
	const q = `SELECT ` + cancellationColumns + ` FROM cancelled_rsvps WHERE id = ? FOR UPDATE`
	return scanCancellation(s.q(ctx).QueryRowContext(ctx, q, id))
}

// SetRefundResult records a refund outcome on the audit record.  This
// is the only mutation ever applied to a cancellation row.
func (s *Store) SetRefundResult(ctx context.Context, id uint64, status string, refundID *string, refundedAt *time.Time, refundedBy *uint64) error {
	const q = `UPDATE cancelled_rsvps
			   SET refund_status = ?, gateway_refund_id = ?, refunded_at = ?, refunded_by_user_id = ?
			   WHERE id = ?`
	_, err := s.q(ctx).ExecContext(ctx, q, status, refundID, refundedAt, refundedBy, id)
	return err
}

func scanCancellation(row *sql.Row) (*model.CancelledRSVP, error) {
	var c model.CancelledRSVP
	var cancelledBy, refundedBy sql.NullInt64
	var payStatus, intent, refStatus, refundID sql.NullString
	var amount sql.NullInt64
	var refundedAt sql.NullTime
	err := row.Scan(
		&c.ID, &c.RSVPID, &c.UserID, &c.EventID, &c.CancelledAt, &c.InitiatedBy,
		&cancelledBy, &payStatus, &amount, &intent,
		&refStatus, &refundedAt, &refundID, &refundedBy,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	if cancelledBy.Valid {
		v := uint64(cancelledBy.Int64)
		c.CancelledByID = &v
	}
	if payStatus.Valid {
		v := payStatus.String
		c.PaymentStatus = &v
	}
	if amount.Valid {
		v := amount.Int64
		c.AmountPaidCents = &v
	}
	if intent.Valid {
		v := intent.String
		c.PaymentIntentID = &v
	}
	if refStatus.Valid {
		v := refStatus.String
		c.RefundStatus = &v
	}
	if refundedAt.Valid {
		t := refundedAt.Time
		c.RefundedAt = &t
	}
	if refundID.Valid {
		v := refundID.String
		c.RefundID = &v
	}
	if refundedBy.Valid {
		v := uint64(refundedBy.Int64)
		c.RefundedByID = &v
	}
	return &c, nil
}
