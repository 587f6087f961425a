package repository

import (
	"context"
	"database/sql"
	"time"
)

// Read-only projections joined with the user directory for the
// organiser views and the attendee's own reservation list.  These do
// not go through the attendance service layer; they never mutate
// state.

// AttendeeRow is one entry of an event's attendee list.
type AttendeeRow struct {
	RSVPID          uint64
	UserID          uint64
	DisplayName     string
	Email           string
	PaymentStatus   *string
	AmountPaidCents *int64
	ReservedAt      time.Time
}

// BlockedRow is one entry of an event's blocked-user list.
type BlockedRow struct {
	UserID      uint64
	DisplayName string
	Email       string
	BlockedByID uint64
	BlockedAt   time.Time
}

// CancellationRow is one entry of an event's cancellation audit list.
type CancellationRow struct {
	ID              uint64
	UserID          uint64
	DisplayName     string
	CancelledAt     time.Time
	InitiatedBy     string
	PaymentStatus   *string
	AmountPaidCents *int64
	RefundStatus    *string
	RefundedAt      *time.Time
}

// MyRSVPRow is one entry of a user's own reservation list.
type MyRSVPRow struct {
	RSVPID          uint64
	EventID         uint64
	EventTitle      string
	StartsAt        *time.Time
	PaymentStatus   *string
	AmountPaidCents *int64
	ReservedAt      time.Time
}

// ListAttendees returns the attendees of an event ordered by
// reservation time, optionally filtered by a name/email search term,
// with LIMIT/OFFSET paging.
func (s *Store) ListAttendees(ctx context.Context, eventID uint64, search string, limit, offset int) ([]AttendeeRow, error) {
	const q = `SELECT r.id, r.user_id, u.display_name, u.email,
					  r.payment_status, r.amount_paid_cents, r.created_at
			   FROM rsvps r
			   JOIN users u ON u.id = r.user_id
			   WHERE r.event_id = ?
				 AND (? = '' OR u.display_name LIKE ? OR u.email LIKE ?)
			   ORDER BY r.created_at ASC
			   LIMIT ? OFFSET ?`
	like := "%" + search + "%"
	rows, err := s.q(ctx).QueryContext(ctx, q, eventID, search, like, like, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AttendeeRow
	for rows.Next() {
		var a AttendeeRow
		var status sql.NullString
		var amount sql.NullInt64
		if err := rows.Scan(&a.RSVPID, &a.UserID, &a.DisplayName, &a.Email, &status, &amount, &a.ReservedAt); err != nil {
			return nil, err
		}
		if status.Valid {
			v := status.String
			a.PaymentStatus = &v
		}
		if amount.Valid {
			v := amount.Int64
			a.AmountPaidCents = &v
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// ListBlocked returns the users barred from an event, most recent
// block first.
func (s *Store) ListBlocked(ctx context.Context, eventID uint64) ([]BlockedRow, error) {
	const q = `SELECT b.user_id, u.display_name, u.email, b.blocked_by_user_id, b.blocked_at
			   FROM blocked_rsvps b
			   JOIN users u ON u.id = b.user_id
			   WHERE b.event_id = ?
			   ORDER BY b.blocked_at DESC`
	rows, err := s.q(ctx).QueryContext(ctx, q, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []BlockedRow
	for rows.Next() {
		var b BlockedRow
		if err := rows.Scan(&b.UserID, &b.DisplayName, &b.Email, &b.BlockedByID, &b.BlockedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// ListCancellations returns an event's cancellation audit log, most
// recent first.
func (s *Store) ListCancellations(ctx context.Context, eventID uint64) ([]CancellationRow, error) {
	const q = `SELECT c.id, c.user_id, u.display_name, c.cancelled_at, c.initiated_by,
					  c.payment_status, c.amount_paid_cents, c.refund_status, c.refunded_at
			   FROM cancelled_rsvps c
			   JOIN users u ON u.id = c.user_id
			   WHERE c.event_id = ?
			   ORDER BY c.cancelled_at DESC`
	rows, err := s.q(ctx).QueryContext(ctx, q, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CancellationRow
	for rows.Next() {
		var c CancellationRow
		var payStatus, refStatus sql.NullString
		var amount sql.NullInt64
		var refundedAt sql.NullTime
		err := rows.Scan(&c.ID, &c.UserID, &c.DisplayName, &c.CancelledAt, &c.InitiatedBy,
			&payStatus, &amount, &refStatus, &refundedAt)
		if err != nil {
			return nil, err
		}
		if payStatus.Valid {
			v := payStatus.String
			c.PaymentStatus = &v
		}
		if amount.Valid {
			v := amount.Int64
			c.AmountPaidCents = &v
		}
		if refStatus.Valid {
			v := refStatus.String
			c.RefundStatus = &v
		}
		if refundedAt.Valid {
			t := refundedAt.Time
			c.RefundedAt = &t
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ListMyRSVPs returns all reservations held by a user across events,
// soonest event first.
func (s *Store) ListMyRSVPs(ctx context.Context, userID uint64) ([]MyRSVPRow, error) {
	const q = `SELECT r.id, r.event_id, e.title, e.starts_at,
					  r.payment_status, r.amount_paid_cents, r.created_at
			   FROM rsvps r
			   JOIN events e ON e.id = r.event_id
			   WHERE r.user_id = ?
			   ORDER BY e.starts_at IS NULL, e.starts_at ASC`
	rows, err := s.q(ctx).QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []MyRSVPRow
	for rows.Next() {
		var m MyRSVPRow
		var startsAt sql.NullTime
		var status sql.NullString
		var amount sql.NullInt64
		if err := rows.Scan(&m.RSVPID, &m.EventID, &m.EventTitle, &startsAt, &status, &amount, &m.ReservedAt); err != nil {
			return nil, err
		}
		if startsAt.Valid {
			t := startsAt.Time
			m.StartsAt = &t
		}
		if status.Valid {
			v := status.String
			m.PaymentStatus = &v
		}
		if amount.Valid {
			v := amount.Int64
			m.AmountPaidCents = &v
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
