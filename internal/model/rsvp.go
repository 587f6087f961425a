package model

import "time"

// Payment status values tracked on an RSVP.  A nil status means the
// event was free and no payment lifecycle applies.  Paid events start
// at "pending" and move to "paid" or "failed" only when the gateway
// confirms the outcome via webhook.
const (
	PaymentStatusPending = "pending"
	PaymentStatusPaid    = "paid"
	PaymentStatusFailed  = "failed"
)

// RSVP records a user's claim on one slot of an event's capacity.
// At most one RSVP may exist per (user, event) pair; the `rsvps`
// table enforces this with a unique constraint in addition to the
// application-level duplicate check.
//
// Fields:
//  ID              – primary key identifier.
//  UserID          – attendee who reserved the slot.
//  EventID         – event being attended.
//  PaymentStatus   – nil for free events, else pending/paid/failed.
//  PaymentIntentID – gateway payment reference, set once paid.
//  AmountPaidCents – confirmed amount in cents, set once paid.
//  CreatedAt       – when the RSVP was made.
type RSVP struct {
	ID              uint64    // rsvps.id
	UserID          uint64    // rsvps.user_id
	EventID         uint64    // rsvps.event_id
	PaymentStatus   *string   // rsvps.payment_status (nullable)
	PaymentIntentID *string   // rsvps.payment_intent_id (nullable)
	AmountPaidCents *int64    // rsvps.amount_paid_cents (nullable)
	CreatedAt       time.Time // rsvps.created_at
}

// HasPaymentActivity reports whether the RSVP ever entered the payment
// lifecycle.  Cancellations only produce an audit record when this is
// true; removing a free RSVP leaves no trail.
func (r RSVP) HasPaymentActivity() bool {
	return r.PaymentStatus != nil
}
