package model

import "time"

// BlockedRSVP marks a user as barred from attending a specific event.
// While a block exists the user cannot create an RSVP for the event.
// Blocks are created by the event organiser (or an admin) and are
// unique per (event, user).
type BlockedRSVP struct {
	ID          uint64    // blocked_rsvps.id
	EventID     uint64    // blocked_rsvps.event_id
	UserID      uint64    // blocked_rsvps.user_id
	BlockedByID uint64    // blocked_rsvps.blocked_by_user_id
	BlockedAt   time.Time // blocked_rsvps.blocked_at
}
