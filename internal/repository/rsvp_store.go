package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/event-attendance/internal/attendance"
	"github.com/iliyamo/event-attendance/internal/model"
)

const rsvpColumns = `id, user_id, event_id, payment_status, payment_intent_id, amount_paid_cents, created_at`

// CountRSVPs returns the number of reserved slots for the event.
// Pending RSVPs count against capacity until they are paid, expired
// or cancelled.
func (s *Store) CountRSVPs(ctx context.Context, eventID uint64) (int64, error) {
	const q = `SELECT COUNT(*) FROM rsvps WHERE event_id = ?`
	var n int64
	if err := s.q(ctx).QueryRowContext(ctx, q, eventID).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// GetRSVP fetches the reservation a user holds for an event, or nil
// when none exists.
func (s *Store) GetRSVP(ctx context.Context, eventID, userID uint64) (*model.RSVP, error) {
	const q = `SELECT ` + rsvpColumns + ` FROM rsvps WHERE event_id = ? AND user_id = ?`
	return scanRSVP(s.q(ctx).QueryRowContext(ctx, q, eventID, userID))
}

// GetRSVPByID fetches a reservation by primary key, or nil when it has
// been deleted.  The reconciler relies on the nil return to drop late
// webhooks for already-cancelled reservations.
func (s *Store) GetRSVPByID(ctx context.Context, rsvpID uint64) (*model.RSVP, error) {
	const q = `SELECT ` + rsvpColumns + ` FROM rsvps WHERE id = ?`
	return scanRSVP(s.q(ctx).QueryRowContext(ctx, q, rsvpID))
}

// CreateRSVP inserts a new reservation and fills in its generated ID
// and creation time.  A unique-key violation on (user_id, event_id)
// maps to attendance.ErrAlreadyReserved, so a race between two
// requests from the same user still yields one reservation.
func (s *Store) CreateRSVP(ctx context.Context, r *model.RSVP) error {
	const q = `INSERT INTO rsvps (user_id, event_id, payment_status, created_at)
			   VALUES (?, ?, ?, ?)`
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	res, err := s.q(ctx).ExecContext(ctx, q, r.UserID, r.EventID, r.PaymentStatus, r.CreatedAt)
	if err != nil {
		if isDuplicateEntry(err) {
			return attendance.ErrAlreadyReserved
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	r.ID = uint64(id)
	return nil
}

// DeleteRSVP removes the reservation row.  Ledger rows referencing it
// must be deleted first (DeletePaymentsForRSVP) to satisfy the foreign
// key.
func (s *Store) DeleteRSVP(ctx context.Context, rsvpID uint64) error {
	const q = `DELETE FROM rsvps WHERE id = ?`
	_, err := s.q(ctx).ExecContext(ctx, q, rsvpID)
	return err
}

// SetRSVPPaid marks a pending reservation paid with the amount and
// payment reference confirmed by the gateway.
func (s *Store) SetRSVPPaid(ctx context.Context, rsvpID uint64, paymentIntentID string, amountCents int64) error {
	const q = `UPDATE rsvps
			   SET payment_status = ?, payment_intent_id = ?, amount_paid_cents = ?
			   WHERE id = ?`
	_, err := s.q(ctx).ExecContext(ctx, q, model.PaymentStatusPaid, paymentIntentID, amountCents, rsvpID)
	return err
}

// SetRSVPPaymentFailed marks a pending reservation's payment attempt
// as failed.  The slot stays held; the attendee may retry checkout.
func (s *Store) SetRSVPPaymentFailed(ctx context.Context, rsvpID uint64) error {
	const q = `UPDATE rsvps SET payment_status = ? WHERE id = ?`
	_, err := s.q(ctx).ExecContext(ctx, q, model.PaymentStatusFailed, rsvpID)
	return err
}

// ListPendingRSVPsBefore returns payment-pending reservations created
// before the cutoff, oldest first, for the expiry sweeper.
func (s *Store) ListPendingRSVPsBefore(ctx context.Context, cutoff time.Time, limit int) ([]model.RSVP, error) {
	const q = `SELECT ` + rsvpColumns + ` FROM rsvps
			   WHERE payment_status = ? AND created_at < ?
			   ORDER BY created_at ASC
			   LIMIT ?`
	rows, err := s.q(ctx).QueryContext(ctx, q, model.PaymentStatusPending, cutoff, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.RSVP
	for rows.Next() {
		var r model.RSVP
		var status, intent sql.NullString
		var amount sql.NullInt64
		if err := rows.Scan(&r.ID, &r.UserID, &r.EventID, &status, &intent, &amount, &r.CreatedAt); err != nil {
			return nil, err
		}
		applyRSVPNulls(&r, status, intent, amount)
		out = append(out, r)
	}
	return out, rows.Err()
}

func scanRSVP(row *sql.Row) (*model.RSVP, error) {
	var r model.RSVP
	var status, intent sql.NullString
	var amount sql.NullInt64
	err := row.Scan(&r.ID, &r.UserID, &r.EventID, &status, &intent, &amount, &r.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	applyRSVPNulls(&r, status, intent, amount)
	return &r, nil
}

func applyRSVPNulls(r *model.RSVP, status, intent sql.NullString, amount sql.NullInt64) {
	if status.Valid {
		v := status.String
		r.PaymentStatus = &v
	}
	if intent.Valid {
		v := intent.String
		r.PaymentIntentID = &v
	}
	if amount.Valid {
		v := amount.Int64
		r.AmountPaidCents = &v
	}
}
