package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-attendance/internal/attendance"
	"github.com/iliyamo/event-attendance/internal/model"
	"github.com/iliyamo/event-attendance/internal/queue"
	"github.com/iliyamo/event-attendance/internal/repository"
)

// Publisher emits best-effort domain events to the message broker.
// Failures are logged by the implementation and never fail a request.
type Publisher interface {
	AttendanceConfirmed(ctx context.Context, ev queue.AttendanceConfirmedEvent) error
	AttendanceCancelled(ctx context.Context, ev queue.AttendanceCancelledEvent) error
	PaymentRefunded(ctx context.Context, ev queue.PaymentRefundedEvent) error
}

// attendeeViews is the read-only projection surface the attendee
// endpoints need.  *repository.Store satisfies it.
type attendeeViews interface {
	GetEvent(ctx context.Context, eventID uint64) (model.Event, error)
	GetRSVP(ctx context.Context, eventID, userID uint64) (*model.RSVP, error)
	ListMyRSVPs(ctx context.Context, userID uint64) ([]repository.MyRSVPRow, error)
}

// AttendeeHandler serves the attendee-facing reservation endpoints.
// All methods assume that JWT authentication and role validation have
// already been performed by middleware and may return 401 when the
// user ID cannot be extracted from the context.
type AttendeeHandler struct {
	RSVPs    *attendance.RSVPService
	Checkout *attendance.CheckoutService
	Views    attendeeViews
	Publish  Publisher
}

// NewAttendeeHandler constructs an AttendeeHandler.  All dependencies
// must be non-nil.
func NewAttendeeHandler(rsvps *attendance.RSVPService, checkout *attendance.CheckoutService, views attendeeViews, pub Publisher) *AttendeeHandler {
	if rsvps == nil || checkout == nil || views == nil || pub == nil {
		panic("nil dependency passed to NewAttendeeHandler")
	}
	return &AttendeeHandler{RSVPs: rsvps, Checkout: checkout, Views: views, Publish: pub}
}

// CreateRSVP handles POST /v1/events/:id/rsvp.  It reserves one slot
// for the caller, returning 201 with the reservation.  Paid events
// respond with payment_status "pending" and the client is expected to
// follow up with POST /v1/events/:id/checkout.  Business failures map
// to 403 (blocked), 409 (duplicate or full) and 404 (unknown event).
func (h *AttendeeHandler) CreateRSVP(c echo.Context) error {
	p, err := getPrincipal(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	eventID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	ctx := c.Request().Context()
	r, err := h.RSVPs.Create(ctx, p, eventID)
	if err != nil {
		return serviceError(c, err)
	}
	// Free events are confirmed on the spot; paid ones announce
	// themselves once the gateway webhook lands.
	if r.PaymentStatus == nil {
		if ev, gerr := h.Views.GetEvent(ctx, eventID); gerr == nil {
			_ = h.Publish.AttendanceConfirmed(ctx, queue.AttendanceConfirmedEvent{
				RSVPID:      r.ID,
				UserID:      r.UserID,
				EventID:     r.EventID,
				EventTitle:  ev.Title,
				ConfirmedAt: time.Now().UTC().Format(time.RFC3339),
			})
		}
	}
	resp := echo.Map{
		"rsvp_id":    r.ID,
		"event_id":   r.EventID,
		"created_at": r.CreatedAt.Format(time.RFC3339),
	}
	if r.PaymentStatus != nil {
		resp["payment_status"] = *r.PaymentStatus
	}
	return c.JSON(http.StatusCreated, resp)
}

// CancelRSVP handles DELETE /v1/events/:id/rsvp.  It removes the
// caller's own reservation, writing a cancellation audit record first
// when payment activity exists.  Returns 204 on success and 404 when
// no reservation is held.
func (h *AttendeeHandler) CancelRSVP(c echo.Context) error {
	p, err := getPrincipal(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	eventID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	ctx := c.Request().Context()
	r, err := h.Views.GetRSVP(ctx, eventID, p.UserID)
	if err != nil {
		return serviceError(c, err)
	}
	if err := h.RSVPs.Cancel(ctx, p, eventID); err != nil {
		return serviceError(c, err)
	}
	if r != nil {
		_ = h.Publish.AttendanceCancelled(ctx, queue.AttendanceCancelledEvent{
			RSVPID:      r.ID,
			UserID:      p.UserID,
			EventID:     eventID,
			InitiatedBy: model.InitiatedByAttendee,
			CancelledAt: time.Now().UTC().Format(time.RFC3339),
		})
	}
	return c.NoContent(http.StatusNoContent)
}

// ListMyRSVPs handles GET /v1/my-rsvps.  It returns all reservations
// held by the caller with event details, soonest event first.  When
// no reservations exist it returns an empty array.
func (h *AttendeeHandler) ListMyRSVPs(c echo.Context) error {
	p, err := getPrincipal(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	rows, err := h.Views.ListMyRSVPs(c.Request().Context(), p.UserID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load reservations"})
	}
	items := make([]echo.Map, 0, len(rows))
	for _, r := range rows {
		item := echo.Map{
			"rsvp_id":     r.RSVPID,
			"event_id":    r.EventID,
			"event_title": r.EventTitle,
			"reserved_at": r.ReservedAt.Format(time.RFC3339),
		}
		if r.StartsAt != nil {
			item["starts_at"] = r.StartsAt.Format(time.RFC3339)
		}
		if r.PaymentStatus != nil {
			item["payment_status"] = *r.PaymentStatus
		}
		if r.AmountPaidCents != nil {
			item["amount_paid_cents"] = *r.AmountPaidCents
		}
		items = append(items, item)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// CreateCheckout handles POST /v1/events/:id/checkout.  It asks the
// payment gateway for a hosted checkout session covering the caller's
// pending reservation and returns its redirect URL.  The reservation
// itself is not touched; confirmation arrives via webhook.
func (h *AttendeeHandler) CreateCheckout(c echo.Context) error {
	p, err := getPrincipal(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	eventID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	url, err := h.Checkout.CreateSession(c.Request().Context(), p, eventID)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"checkout_url": url})
}
