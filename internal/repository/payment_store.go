package repository

import (
	"context"
	"time"

	"github.com/iliyamo/event-attendance/internal/model"
)

// CreatePayment appends a ledger entry for a gateway-confirmed charge.
func (s *Store) CreatePayment(ctx context.Context, p *model.Payment) error {
	const q = `INSERT INTO payments (rsvp_id, payment_intent_id, amount_cents, status, created_at)
			   VALUES (?, ?, ?, ?, ?)`
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	res, err := s.q(ctx).ExecContext(ctx, q, p.RSVPID, p.PaymentIntentID, p.AmountCents, p.Status, p.CreatedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return nil
}

// DeletePaymentsForRSVP clears the ledger rows referencing a
// reservation.  Called right before DeleteRSVP; the foreign key from
// payments to rsvps forbids the opposite order.
func (s *Store) DeletePaymentsForRSVP(ctx context.Context, rsvpID uint64) error {
	const q = `DELETE FROM payments WHERE rsvp_id = ?`
	_, err := s.q(ctx).ExecContext(ctx, q, rsvpID)
	return err
}
