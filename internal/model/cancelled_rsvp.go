package model

import "time"

// Who initiated the removal of an RSVP.  "admin" also covers system
// actions such as the pending-payment expiry sweep, in which case
// CancelledByID is nil.
const (
	InitiatedByAttendee  = "attendee"
	InitiatedByOrganiser = "organiser"
	InitiatedByAdmin     = "admin"
)

// Refund outcome values on a cancellation record.  A nil refund status
// means no refund has been attempted yet.  "failed" is retriable by
// re-invoking the refund operation.
const (
	RefundStatusRefunded = "refunded"
	RefundStatusFailed   = "failed"
)

// CancelledRSVP is the immutable audit record written whenever an RSVP
// with payment activity is removed (self-cancel, organiser cancel or
// block).  It snapshots the payment fields of the deleted RSVP so a
// refund can be processed after the reservation itself is gone.  Rows
// are never deleted; only the refund fields may be updated, and only
// by the refund processor.
type CancelledRSVP struct {
	ID              uint64     // cancelled_rsvps.id
	RSVPID          uint64     // cancelled_rsvps.rsvp_id (original reservation)
	UserID          uint64     // cancelled_rsvps.user_id
	EventID         uint64     // cancelled_rsvps.event_id
	CancelledAt     time.Time  // cancelled_rsvps.cancelled_at
	InitiatedBy     string     // cancelled_rsvps.initiated_by (attendee/organiser/admin)
	CancelledByID   *uint64    // cancelled_rsvps.cancelled_by_user_id (nil for system sweeps)
	PaymentStatus   *string    // snapshot of rsvps.payment_status
	AmountPaidCents *int64     // snapshot of rsvps.amount_paid_cents
	PaymentIntentID *string    // snapshot of rsvps.payment_intent_id
	RefundStatus    *string    // cancelled_rsvps.refund_status (nullable)
	RefundedAt      *time.Time // cancelled_rsvps.refunded_at (nullable)
	RefundID        *string    // cancelled_rsvps.gateway_refund_id (nullable)
	RefundedByID    *uint64    // cancelled_rsvps.refunded_by_user_id (nullable)
}

// Refunded reports whether the snapshot has already been refunded.
func (c CancelledRSVP) Refunded() bool {
	return c.RefundStatus != nil && *c.RefundStatus == RefundStatusRefunded
}
