package attendance

import (
	"context"
	"time"

	"github.com/iliyamo/event-attendance/internal/auth"
	"github.com/iliyamo/event-attendance/internal/model"
)

// gatewayTimeout bounds every outbound call to the payment gateway.
// A slow gateway surfaces a retriable failure instead of holding the
// request (or the refund transaction) open indefinitely.
const gatewayTimeout = 10 * time.Second

// CheckoutParams describes the checkout session the gateway should
// create.  The RSVP, event and user identifiers travel as opaque
// metadata and must be echoed back in the webhook notification.
type CheckoutParams struct {
	EventID     uint64
	UserID      uint64
	RSVPID      uint64
	EventTitle  string
	AmountCents int64
	Currency    string
}

// CheckoutGateway creates hosted checkout sessions with the external
// payment provider.
type CheckoutGateway interface {
	CreateCheckoutSession(ctx context.Context, p CheckoutParams) (string, error)
}

// CheckoutService produces gateway checkout URLs for RSVPs awaiting
// payment.
type CheckoutService struct {
	store    Store
	gateway  CheckoutGateway
	currency string
}

// NewCheckoutService constructs a CheckoutService.  The currency is
// the ISO code charged for every event (the platform is single
// currency).
func NewCheckoutService(store Store, gateway CheckoutGateway, currency string) *CheckoutService {
	return &CheckoutService{store: store, gateway: gateway, currency: currency}
}

// CreateSession returns a redirect URL for paying the principal's
// pending RSVP on the event.  The event must be priced and the RSVP
// must currently be pending; a paid or failed RSVP cannot re-enter
// checkout.
func (s *CheckoutService) CreateSession(ctx context.Context, p auth.Principal, eventID uint64) (string, error) {
	ev, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		return "", err
	}
	if ev.Free() {
		return "", ErrPaymentNotRequired
	}
	r, err := s.store.GetRSVP(ctx, eventID, p.UserID)
	if err != nil {
		return "", err
	}
	if r == nil {
		return "", ErrRSVPNotFound
	}
	if r.PaymentStatus == nil || *r.PaymentStatus != model.PaymentStatusPending {
		return "", ErrPaymentNotPending
	}

	gctx, cancel := context.WithTimeout(ctx, gatewayTimeout)
	defer cancel()
	url, err := s.gateway.CreateCheckoutSession(gctx, CheckoutParams{
		EventID:     ev.ID,
		UserID:      p.UserID,
		RSVPID:      r.ID,
		EventTitle:  ev.Title,
		AmountCents: *ev.PriceCents,
		Currency:    s.currency,
	})
	if err != nil {
		if _, ok := err.(*GatewayError); ok {
			return "", err
		}
		return "", &GatewayError{Err: err}
	}
	return url, nil
}
