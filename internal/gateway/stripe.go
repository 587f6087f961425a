// Package gateway talks to the external payment provider.  The
// attendance services depend only on the small CheckoutGateway and
// RefundGateway interfaces; this package provides the Stripe
// implementation used in production.
package gateway

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v82"
	checkoutsession "github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/refund"

	"github.com/iliyamo/event-attendance/internal/attendance"
)

// StripeGateway implements attendance.CheckoutGateway and
// attendance.RefundGateway against the Stripe API.
type StripeGateway struct {
	baseURL string // app base URL for checkout redirects
}

// NewStripeGateway configures the global Stripe client key and returns
// a gateway whose checkout sessions redirect back to baseURL.
func NewStripeGateway(secretKey, baseURL string) (*StripeGateway, error) {
	if secretKey == "" {
		return nil, errors.New("stripe secret key is required")
	}
	stripe.Key = secretKey
	return &StripeGateway{baseURL: baseURL}, nil
}

// CreateCheckoutSession creates a hosted checkout session for a
// pending reservation and returns its redirect URL.  The reservation,
// event and user identifiers travel as session metadata and come back
// on the completion webhook, which is the only place payment outcomes
// are trusted.
func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, p attendance.CheckoutParams) (string, error) {
	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(p.Currency),
					UnitAmount: stripe.Int64(p.AmountCents),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(p.EventTitle),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(fmt.Sprintf("%s/events/%d?payment=success", g.baseURL, p.EventID)),
		CancelURL:  stripe.String(fmt.Sprintf("%s/events/%d?payment=cancelled", g.baseURL, p.EventID)),
		Metadata: map[string]string{
			"rsvp_id":  fmt.Sprintf("%d", p.RSVPID),
			"event_id": fmt.Sprintf("%d", p.EventID),
			"user_id":  fmt.Sprintf("%d", p.UserID),
		},
	}
	params.Context = ctx
	params.SetIdempotencyKey(uuid.NewString())

	sess, err := checkoutsession.New(params)
	if err != nil {
		return "", wrapStripeErr(err)
	}
	return sess.URL, nil
}

// Refund reverses a confirmed payment by its payment intent and
// returns Stripe's refund ID.
func (g *StripeGateway) Refund(ctx context.Context, paymentIntentID string, amountCents int64) (string, error) {
	if paymentIntentID == "" {
		return "", &attendance.GatewayError{Permanent: true, Err: errors.New("missing payment intent reference")}
	}
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(paymentIntentID),
		Amount:        stripe.Int64(amountCents),
	}
	params.Context = ctx
	params.SetIdempotencyKey(uuid.NewString())

	ref, err := refund.New(params)
	if err != nil {
		return "", wrapStripeErr(err)
	}
	return ref.ID, nil
}

// wrapStripeErr maps a Stripe client error onto GatewayError.  Invalid
// requests will not succeed on retry and are marked permanent; network
// and server-side failures stay retriable.
func wrapStripeErr(err error) error {
	var serr *stripe.Error
	if errors.As(err, &serr) {
		permanent := serr.Type == stripe.ErrorTypeInvalidRequest || serr.Type == stripe.ErrorTypeCard
		return &attendance.GatewayError{Permanent: permanent, Err: err}
	}
	return &attendance.GatewayError{Err: err}
}
