package handler

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"

	"github.com/iliyamo/event-attendance/internal/attendance"
	"github.com/iliyamo/event-attendance/internal/model"
	"github.com/iliyamo/event-attendance/internal/queue"
)

// eventViews is the minimal read surface the webhook handler needs to
// enrich published events.  *repository.Store satisfies it.
type eventViews interface {
	GetEvent(ctx context.Context, eventID uint64) (model.Event, error)
}

// WebhookHandler receives asynchronous payment notifications from
// Stripe.  The HTTP contract drives the gateway's retry behaviour:
// 200 acknowledges the event (including benign no-ops, so redelivery
// stops), 400 marks it permanently unprocessable (bad signature or
// payload; retrying cannot help), 500 asks the gateway to deliver it
// again later.
type WebhookHandler struct {
	Hooks         *attendance.WebhookService
	Views         eventViews
	Publish       Publisher
	webhookSecret string
}

// NewWebhookHandler constructs a WebhookHandler verifying signatures
// with the given endpoint secret.
func NewWebhookHandler(hooks *attendance.WebhookService, views eventViews, pub Publisher, webhookSecret string) *WebhookHandler {
	if hooks == nil || views == nil || pub == nil {
		panic("nil dependency passed to NewWebhookHandler")
	}
	return &WebhookHandler{Hooks: hooks, Views: views, Publish: pub, webhookSecret: webhookSecret}
}

// HandleStripeWebhook handles POST /v1/payments/webhook.  The raw body
// is verified against the Stripe-Signature header before anything in
// it is trusted; all payment facts (amount, payment reference) come
// from the verified event, never from client input.
func (h *WebhookHandler) HandleStripeWebhook(c echo.Context) error {
	payload, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "failed to read request body"})
	}
	sig := c.Request().Header.Get("Stripe-Signature")
	if sig == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing Stripe-Signature header"})
	}
	event, err := webhook.ConstructEvent(payload, sig, h.webhookSecret)
	if err != nil {
		log.Printf("webhook: signature verification failed: %v", err)
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid signature"})
	}

	switch event.Type {
	case "checkout.session.completed":
		return h.handleCheckoutCompleted(c, event)
	case "checkout.session.async_payment_failed":
		return h.handlePaymentFailed(c, event)
	default:
		log.Printf("webhook: unhandled event type %s acknowledged", event.Type)
		return c.JSON(http.StatusOK, echo.Map{"received": true})
	}
}

func (h *WebhookHandler) handleCheckoutCompleted(c echo.Context, event stripe.Event) error {
	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		log.Printf("webhook: failed to parse checkout.session.completed: %v", err)
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "failed to parse event data"})
	}
	// Sessions can complete with delayed payment methods still
	// unsettled; only a settled session confirms the reservation.
	if sess.PaymentStatus != stripe.CheckoutSessionPaymentStatusPaid {
		log.Printf("webhook: session %s completed but payment_status=%s, acknowledged", sess.ID, sess.PaymentStatus)
		return c.JSON(http.StatusOK, echo.Map{"received": true})
	}
	rsvpID, ok := metadataID(sess.Metadata, "rsvp_id")
	if !ok {
		log.Printf("webhook: session %s missing rsvp_id metadata", sess.ID)
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing rsvp_id metadata"})
	}
	intentID := ""
	if sess.PaymentIntent != nil {
		intentID = sess.PaymentIntent.ID
	}

	ctx := c.Request().Context()
	err := h.Hooks.HandleCheckoutCompleted(ctx, attendance.CheckoutCompleted{
		GatewayEventID:  event.ID,
		RSVPID:          rsvpID,
		PaymentIntentID: intentID,
		AmountCents:     sess.AmountTotal,
	})
	if err != nil {
		log.Printf("webhook: processing event %s failed: %v", event.ID, err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "processing failed"})
	}

	if eventID, ok := metadataID(sess.Metadata, "event_id"); ok {
		if userID, ok := metadataID(sess.Metadata, "user_id"); ok {
			title := ""
			if ev, gerr := h.Views.GetEvent(ctx, eventID); gerr == nil {
				title = ev.Title
			}
			_ = h.Publish.AttendanceConfirmed(ctx, queue.AttendanceConfirmedEvent{
				RSVPID:      rsvpID,
				UserID:      userID,
				EventID:     eventID,
				EventTitle:  title,
				AmountCents: sess.AmountTotal,
				ConfirmedAt: time.Now().UTC().Format(time.RFC3339),
			})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"received": true})
}

func (h *WebhookHandler) handlePaymentFailed(c echo.Context, event stripe.Event) error {
	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		log.Printf("webhook: failed to parse checkout.session.async_payment_failed: %v", err)
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "failed to parse event data"})
	}
	rsvpID, ok := metadataID(sess.Metadata, "rsvp_id")
	if !ok {
		log.Printf("webhook: session %s missing rsvp_id metadata", sess.ID)
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing rsvp_id metadata"})
	}
	err := h.Hooks.HandlePaymentFailed(c.Request().Context(), attendance.PaymentFailed{
		GatewayEventID: event.ID,
		RSVPID:         rsvpID,
	})
	if err != nil {
		log.Printf("webhook: processing event %s failed: %v", event.ID, err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "processing failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"received": true})
}

// metadataID parses a numeric identifier out of session metadata.
func metadataID(md map[string]string, key string) (uint64, bool) {
	v, ok := md[key]
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseUint(v, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}
