package model

import "time"

// WebhookEvent records a gateway notification that has already been
// processed.  The gateway may deliver the same event more than once;
// inserting the gateway's own event ID into `webhook_events` (unique)
// lets the reconciler reject repeats outright instead of relying only
// on the payment state machine's non-pending guard.
type WebhookEvent struct {
	ID             uint64    // webhook_events.id
	GatewayEventID string    // webhook_events.gateway_event_id (unique)
	EventType      string    // webhook_events.event_type
	ReceivedAt     time.Time // webhook_events.received_at
}
