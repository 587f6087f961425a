package model

import "time"

// Payment is the durable ledger entry written when the gateway
// confirms a successful charge for an RSVP.  The amount and gateway
// reference come from the verified webhook notification, never from
// client input.  A ledger row is deleted only when its owning RSVP is
// deleted, immediately before the RSVP row itself.
type Payment struct {
	ID              uint64    // payments.id
	RSVPID          uint64    // payments.rsvp_id
	PaymentIntentID string    // payments.payment_intent_id
	AmountCents     int64     // payments.amount_cents
	Status          string    // payments.status (always "paid" today)
	CreatedAt       time.Time // payments.created_at
}
