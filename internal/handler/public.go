package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-attendance/internal/attendance"
)

// PublicHandler exposes unauthenticated read-only projections.
type PublicHandler struct {
	RSVPs *attendance.RSVPService
	Views eventViews
}

// NewPublicHandler constructs a PublicHandler.
func NewPublicHandler(rsvps *attendance.RSVPService, views eventViews) *PublicHandler {
	if rsvps == nil || views == nil {
		panic("nil dependency passed to NewPublicHandler")
	}
	return &PublicHandler{RSVPs: rsvps, Views: views}
}

// Availability handles GET /v1/events/:id/availability.  It reports
// the event's capacity and current attendee count so clients can show
// remaining slots before attempting to reserve.  The count is a
// snapshot; admission is decided under the event lock, not here.
func (h *PublicHandler) Availability(c echo.Context) error {
	eventID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	ctx := c.Request().Context()
	ev, err := h.Views.GetEvent(ctx, eventID)
	if err != nil {
		return serviceError(c, err)
	}
	count, err := h.RSVPs.AttendeeCount(ctx, eventID)
	if err != nil {
		return serviceError(c, err)
	}
	resp := echo.Map{
		"event_id":       ev.ID,
		"attendee_count": count,
	}
	if ev.Capacity != nil {
		resp["capacity"] = *ev.Capacity
		remaining := int64(*ev.Capacity) - count
		if remaining < 0 {
			remaining = 0
		}
		resp["remaining"] = remaining
	}
	return c.JSON(http.StatusOK, resp)
}
