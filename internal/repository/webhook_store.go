package repository

import (
	"context"
	"time"
)

// InsertWebhookEvent records a gateway event ID as processed.  Returns
// false when the ID was already recorded, which is how redelivered
// webhooks are rejected without touching the payment state.
func (s *Store) InsertWebhookEvent(ctx context.Context, gatewayEventID, eventType string) (bool, error) {
	const q = `INSERT INTO webhook_events (gateway_event_id, event_type, received_at)
			   VALUES (?, ?, ?)`
	_, err := s.q(ctx).ExecContext(ctx, q, gatewayEventID, eventType, time.Now().UTC())
	if err != nil {
		if isDuplicateEntry(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
