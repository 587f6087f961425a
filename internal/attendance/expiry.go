package attendance

import (
	"context"
	"log"
	"time"

	"github.com/iliyamo/event-attendance/internal/model"
)

// expiryBatchSize caps how many stale RSVPs a single sweep processes.
const expiryBatchSize = 100

// ExpirePending cancels RSVPs that have sat in payment status
// "pending" for longer than ttl.  The gateway never confirmed or
// failed these payments, so their slots are released back to the
// event.  Each removal takes the event lock and re-reads the RSVP, so
// a webhook landing mid-sweep wins the race: an RSVP that just turned
// "paid" is skipped.  Audit records are written with initiated_by
// "admin" and no cancelling user (system action).
//
// Returns the number of RSVPs expired.
func (s *RSVPService) ExpirePending(ctx context.Context, ttl time.Duration) (int, error) {
	cutoff := s.now().UTC().Add(-ttl)
	stale, err := s.store.ListPendingRSVPsBefore(ctx, cutoff, expiryBatchSize)
	if err != nil {
		return 0, err
	}
	expired := 0
	for _, candidate := range stale {
		err := s.store.WithTx(ctx, func(ctx context.Context) error {
			ev, err := s.store.LockEvent(ctx, candidate.EventID)
			if err != nil {
				return err
			}
			r, err := s.store.GetRSVPByID(ctx, candidate.ID)
			if err != nil {
				return err
			}
			if r == nil || r.PaymentStatus == nil || *r.PaymentStatus != model.PaymentStatusPending {
				return nil // resolved while we were sweeping
			}
			if err := s.removeWithAudit(ctx, ev, r, model.InitiatedByAdmin, nil); err != nil {
				return err
			}
			expired++
			return nil
		})
		if err != nil {
			return expired, err
		}
	}
	return expired, nil
}

// RunExpirySweeper periodically expires stale pending RSVPs until the
// context is cancelled.  Intended to be launched as a goroutine from
// main.  Errors are logged and the loop keeps running.
func (s *RSVPService) RunExpirySweeper(ctx context.Context, interval, ttl time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.ExpirePending(ctx, ttl)
			if err != nil {
				log.Printf("expiry: sweep failed: %v", err)
				continue
			}
			if n > 0 {
				log.Printf("expiry: released %d stale pending rsvps", n)
			}
		}
	}
}
