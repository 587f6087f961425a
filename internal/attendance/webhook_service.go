package attendance

import (
	"context"
	"log"

	"github.com/iliyamo/event-attendance/internal/model"
)

// CheckoutCompleted carries the verified fields of a successful
// checkout notification.  The amount and payment reference come from
// the gateway event, never from client input, so a tampered client
// cannot influence what the ledger records.
type CheckoutCompleted struct {
	GatewayEventID  string // gateway's own event identifier, used for dedup
	RSVPID          uint64
	PaymentIntentID string
	AmountCents     int64
}

// PaymentFailed carries the verified fields of a failed payment
// notification.
type PaymentFailed struct {
	GatewayEventID string
	RSVPID         uint64
}

// WebhookService reconciles asynchronous gateway notifications with
// local reservation state.  Signature verification happens at the
// transport layer; by the time a notification reaches this service it
// is authentic.  Deliveries may be duplicated or arrive after the
// reservation is gone — both cases are absorbed without error so the
// gateway stops retrying.
type WebhookService struct {
	store Store
}

// NewWebhookService constructs a WebhookService backed by the store.
func NewWebhookService(store Store) *WebhookService {
	return &WebhookService{store: store}
}

// HandleCheckoutCompleted drives the pending→paid transition and
// writes the payment ledger entry.  The whole sequence runs in one
// transaction: recording the gateway event ID, updating the RSVP and
// inserting the ledger row commit together or not at all.
//
// Silent no-op cases (logged, nil error, gateway gets a 200):
//   - the gateway event ID was already processed (duplicate delivery)
//   - the RSVP no longer exists (cancelled before the webhook landed)
//   - the RSVP is not currently pending (state machine guard)
func (s *WebhookService) HandleCheckoutCompleted(ctx context.Context, n CheckoutCompleted) error {
	return s.store.WithTx(ctx, func(ctx context.Context) error {
		fresh, err := s.store.InsertWebhookEvent(ctx, n.GatewayEventID, "checkout.session.completed")
		if err != nil {
			return err
		}
		if !fresh {
			log.Printf("webhook: duplicate event %s ignored", n.GatewayEventID)
			return nil
		}
		r, err := s.store.GetRSVPByID(ctx, n.RSVPID)
		if err != nil {
			return err
		}
		if r == nil {
			log.Printf("webhook: rsvp %d no longer exists, event %s dropped", n.RSVPID, n.GatewayEventID)
			return nil
		}
		if r.PaymentStatus == nil || *r.PaymentStatus != model.PaymentStatusPending {
			log.Printf("webhook: rsvp %d not pending, event %s ignored", n.RSVPID, n.GatewayEventID)
			return nil
		}
		if err := s.store.SetRSVPPaid(ctx, r.ID, n.PaymentIntentID, n.AmountCents); err != nil {
			return err
		}
		return s.store.CreatePayment(ctx, &model.Payment{
			RSVPID:          r.ID,
			PaymentIntentID: n.PaymentIntentID,
			AmountCents:     n.AmountCents,
			Status:          model.PaymentStatusPaid,
		})
	})
}

// HandlePaymentFailed drives the pending→failed transition.  No
// ledger entry is written for failures.  The same dedup and
// non-pending guards apply as for successful payments.
func (s *WebhookService) HandlePaymentFailed(ctx context.Context, n PaymentFailed) error {
	return s.store.WithTx(ctx, func(ctx context.Context) error {
		fresh, err := s.store.InsertWebhookEvent(ctx, n.GatewayEventID, "checkout.session.async_payment_failed")
		if err != nil {
			return err
		}
		if !fresh {
			log.Printf("webhook: duplicate event %s ignored", n.GatewayEventID)
			return nil
		}
		r, err := s.store.GetRSVPByID(ctx, n.RSVPID)
		if err != nil {
			return err
		}
		if r == nil {
			log.Printf("webhook: rsvp %d no longer exists, event %s dropped", n.RSVPID, n.GatewayEventID)
			return nil
		}
		if r.PaymentStatus == nil || *r.PaymentStatus != model.PaymentStatusPending {
			log.Printf("webhook: rsvp %d not pending, event %s ignored", n.RSVPID, n.GatewayEventID)
			return nil
		}
		return s.store.SetRSVPPaymentFailed(ctx, r.ID)
	})
}
