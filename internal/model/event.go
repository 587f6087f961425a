package model

import "time"

// Event mirrors a row in the `events` table.  Events are owned by the
// wider platform (creation, browsing and search live outside this
// service); the attendance core only reads them to enforce capacity
// and pricing rules.  A nil Capacity means unlimited attendance and a
// nil PriceCents means the event is free.
//
// Invariant: RequiresPayment is true exactly when PriceCents is set.
type Event struct {
	ID              uint64     // events.id
	Title           string     // events.title
	OrganiserID     uint64     // events.created_by_user_id
	Capacity        *uint32    // events.capacity (nullable = unlimited)
	PriceCents      *int64     // events.price_cents (nullable = free)
	RequiresPayment bool       // events.requires_payment
	StartsAt        *time.Time // events.starts_at (nullable)
	CreatedAt       time.Time  // events.created_at
	UpdatedAt       time.Time  // events.updated_at
}

// Free reports whether the event carries no payment obligation.
func (e Event) Free() bool {
	return !e.RequiresPayment || e.PriceCents == nil
}
