package handler

import (
	"context"
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-attendance/internal/attendance"
	"github.com/iliyamo/event-attendance/internal/auth"
	"github.com/iliyamo/event-attendance/internal/model"
	"github.com/iliyamo/event-attendance/internal/queue"
	"github.com/iliyamo/event-attendance/internal/repository"
)

// exportLimit caps how many rows a CSV export fetches in one request.
const exportLimit = 10000

// organiserViews is the read-only projection surface the moderation
// endpoints need.  *repository.Store satisfies it.
type organiserViews interface {
	GetEvent(ctx context.Context, eventID uint64) (model.Event, error)
	GetRSVP(ctx context.Context, eventID, userID uint64) (*model.RSVP, error)
	IsAdmin(ctx context.Context, userID uint64) (bool, error)
	ListAttendees(ctx context.Context, eventID uint64, search string, limit, offset int) ([]repository.AttendeeRow, error)
	ListBlocked(ctx context.Context, eventID uint64) ([]repository.BlockedRow, error)
	ListCancellations(ctx context.Context, eventID uint64) ([]repository.CancellationRow, error)
	GetCancellation(ctx context.Context, id uint64) (*model.CancelledRSVP, error)
}

// OrganiserHandler serves the moderation endpoints: attendee lists,
// organiser cancellations, the block registry, the cancellation audit
// log and refunds.  Per-event ownership is enforced here for reads and
// inside the services for mutations; admins pass both checks.
type OrganiserHandler struct {
	RSVPs   *attendance.RSVPService
	Refunds *attendance.RefundService
	Views   organiserViews
	Publish Publisher
}

// NewOrganiserHandler constructs an OrganiserHandler.  All dependencies
// must be non-nil.
func NewOrganiserHandler(rsvps *attendance.RSVPService, refunds *attendance.RefundService, views organiserViews, pub Publisher) *OrganiserHandler {
	if rsvps == nil || refunds == nil || views == nil || pub == nil {
		panic("nil dependency passed to NewOrganiserHandler")
	}
	return &OrganiserHandler{RSVPs: rsvps, Refunds: refunds, Views: views, Publish: pub}
}

// canManage verifies the principal owns the event or is an admin.
// Used by the read-only listing endpoints; mutations re-check inside
// their transaction.
func (h *OrganiserHandler) canManage(c echo.Context, p auth.Principal, eventID uint64) error {
	ctx := c.Request().Context()
	ev, err := h.Views.GetEvent(ctx, eventID)
	if err != nil {
		return err
	}
	if ev.OrganiserID == p.UserID {
		return nil
	}
	admin, err := h.Views.IsAdmin(ctx, p.UserID)
	if err != nil {
		return err
	}
	if !admin {
		return attendance.ErrAccessDenied
	}
	return nil
}

// ListAttendees handles GET /v1/events/:id/attendees.  It returns the
// event's attendees ordered by reservation time.  Supports ?q= name or
// email search, ?limit= / ?offset= paging and ?format=csv export.
func (h *OrganiserHandler) ListAttendees(c echo.Context) error {
	p, err := getPrincipal(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	eventID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	if err := h.canManage(c, p, eventID); err != nil {
		return serviceError(c, err)
	}
	search := c.QueryParam("q")
	limit, offset := pageParams(c)
	if c.QueryParam("format") == "csv" {
		limit, offset = exportLimit, 0
	}
	rows, err := h.Views.ListAttendees(c.Request().Context(), eventID, search, limit, offset)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load attendees"})
	}
	if c.QueryParam("format") == "csv" {
		return writeCSV(c, fmt.Sprintf("attendees-%d.csv", eventID),
			[]string{"user_id", "name", "email", "payment_status", "amount_paid_cents", "reserved_at"},
			len(rows), func(i int) []string {
				r := rows[i]
				return []string{
					strconv.FormatUint(r.UserID, 10),
					r.DisplayName,
					r.Email,
					strOrEmpty(r.PaymentStatus),
					centsOrEmpty(r.AmountPaidCents),
					r.ReservedAt.Format(time.RFC3339),
				}
			})
	}
	items := make([]echo.Map, 0, len(rows))
	for _, r := range rows {
		item := echo.Map{
			"user_id":     r.UserID,
			"name":        r.DisplayName,
			"email":       r.Email,
			"reserved_at": r.ReservedAt.Format(time.RFC3339),
		}
		if r.PaymentStatus != nil {
			item["payment_status"] = *r.PaymentStatus
		}
		if r.AmountPaidCents != nil {
			item["amount_paid_cents"] = *r.AmountPaidCents
		}
		items = append(items, item)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items, "limit": limit, "offset": offset})
}

// CancelAttendee handles DELETE /v1/events/:id/attendees/:userID.  It
// removes an attendee's reservation on behalf of the organiser, with
// the usual audit record when payment activity exists.  The attendee
// may reserve again afterwards.
func (h *OrganiserHandler) CancelAttendee(c echo.Context) error {
	p, err := getPrincipal(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	eventID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	userID, ok := pathID(c, "userID")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	ctx := c.Request().Context()
	r, err := h.Views.GetRSVP(ctx, eventID, userID)
	if err != nil {
		return serviceError(c, err)
	}
	if err := h.RSVPs.CancelAsOrganiser(ctx, p, eventID, userID); err != nil {
		return serviceError(c, err)
	}
	if r != nil {
		_ = h.Publish.AttendanceCancelled(ctx, queue.AttendanceCancelledEvent{
			RSVPID:      r.ID,
			UserID:      userID,
			EventID:     eventID,
			InitiatedBy: model.InitiatedByOrganiser,
			CancelledAt: time.Now().UTC().Format(time.RFC3339),
		})
	}
	return c.NoContent(http.StatusNoContent)
}

// BlockUser handles POST /v1/events/:id/blocks/:userID.  Blocking
// cancels any existing reservation (with audit) and bars the user from
// reserving again until unblocked.
func (h *OrganiserHandler) BlockUser(c echo.Context) error {
	p, err := getPrincipal(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	eventID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	userID, ok := pathID(c, "userID")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	if err := h.RSVPs.Block(c.Request().Context(), p, eventID, userID); err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"blocked": true})
}

// UnblockUser handles DELETE /v1/events/:id/blocks/:userID.  Removing
// a block lets the user reserve again; it never restores a previously
// cancelled reservation.
func (h *OrganiserHandler) UnblockUser(c echo.Context) error {
	p, err := getPrincipal(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	eventID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	userID, ok := pathID(c, "userID")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	if err := h.RSVPs.Unblock(c.Request().Context(), p, eventID, userID); err != nil {
		return serviceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ListBlocked handles GET /v1/events/:id/blocks.  Returns the users
// currently barred from the event; supports ?format=csv.
func (h *OrganiserHandler) ListBlocked(c echo.Context) error {
	p, err := getPrincipal(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	eventID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	if err := h.canManage(c, p, eventID); err != nil {
		return serviceError(c, err)
	}
	rows, err := h.Views.ListBlocked(c.Request().Context(), eventID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load blocked users"})
	}
	if c.QueryParam("format") == "csv" {
		return writeCSV(c, fmt.Sprintf("blocked-%d.csv", eventID),
			[]string{"user_id", "name", "email", "blocked_by", "blocked_at"},
			len(rows), func(i int) []string {
				b := rows[i]
				return []string{
					strconv.FormatUint(b.UserID, 10),
					b.DisplayName,
					b.Email,
					strconv.FormatUint(b.BlockedByID, 10),
					b.BlockedAt.Format(time.RFC3339),
				}
			})
	}
	items := make([]echo.Map, 0, len(rows))
	for _, b := range rows {
		items = append(items, echo.Map{
			"user_id":    b.UserID,
			"name":       b.DisplayName,
			"email":      b.Email,
			"blocked_by": b.BlockedByID,
			"blocked_at": b.BlockedAt.Format(time.RFC3339),
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// ListCancellations handles GET /v1/events/:id/cancellations.  Returns
// the event's cancellation audit log, most recent first; supports
// ?format=csv.
func (h *OrganiserHandler) ListCancellations(c echo.Context) error {
	p, err := getPrincipal(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	eventID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	if err := h.canManage(c, p, eventID); err != nil {
		return serviceError(c, err)
	}
	rows, err := h.Views.ListCancellations(c.Request().Context(), eventID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load cancellations"})
	}
	if c.QueryParam("format") == "csv" {
		return writeCSV(c, fmt.Sprintf("cancellations-%d.csv", eventID),
			[]string{"cancellation_id", "user_id", "name", "cancelled_at", "initiated_by", "payment_status", "amount_paid_cents", "refund_status"},
			len(rows), func(i int) []string {
				r := rows[i]
				return []string{
					strconv.FormatUint(r.ID, 10),
					strconv.FormatUint(r.UserID, 10),
					r.DisplayName,
					r.CancelledAt.Format(time.RFC3339),
					r.InitiatedBy,
					strOrEmpty(r.PaymentStatus),
					centsOrEmpty(r.AmountPaidCents),
					strOrEmpty(r.RefundStatus),
				}
			})
	}
	items := make([]echo.Map, 0, len(rows))
	for _, r := range rows {
		item := echo.Map{
			"cancellation_id": r.ID,
			"user_id":         r.UserID,
			"name":            r.DisplayName,
			"cancelled_at":    r.CancelledAt.Format(time.RFC3339),
			"initiated_by":    r.InitiatedBy,
		}
		if r.PaymentStatus != nil {
			item["payment_status"] = *r.PaymentStatus
		}
		if r.AmountPaidCents != nil {
			item["amount_paid_cents"] = *r.AmountPaidCents
		}
		if r.RefundStatus != nil {
			item["refund_status"] = *r.RefundStatus
		}
		if r.RefundedAt != nil {
			item["refunded_at"] = r.RefundedAt.Format(time.RFC3339)
		}
		items = append(items, item)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// RefundCancellation handles POST /v1/cancellations/:id/refund.  It
// reverses the payment snapshotted on a cancellation record.  On
// gateway failure the record commits refund_status "failed" and the
// response is 502; the operation may be retried.
func (h *OrganiserHandler) RefundCancellation(c echo.Context) error {
	p, err := getPrincipal(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid cancellation id"})
	}
	ctx := c.Request().Context()
	if err := h.Refunds.Refund(ctx, p, id); err != nil {
		return serviceError(c, err)
	}
	rec, err := h.Views.GetCancellation(ctx, id)
	if err != nil || rec == nil {
		// Refund succeeded; the read-back is best effort.
		return c.JSON(http.StatusOK, echo.Map{"refund_status": model.RefundStatusRefunded})
	}
	amount := int64(0)
	if rec.AmountPaidCents != nil {
		amount = *rec.AmountPaidCents
	}
	_ = h.Publish.PaymentRefunded(ctx, queue.PaymentRefundedEvent{
		CancellationID: rec.ID,
		UserID:         rec.UserID,
		EventID:        rec.EventID,
		AmountCents:    amount,
		RefundID:       strOrEmpty(rec.RefundID),
		RefundedAt:     time.Now().UTC().Format(time.RFC3339),
	})
	resp := echo.Map{"refund_status": model.RefundStatusRefunded}
	if rec.RefundID != nil {
		resp["refund_id"] = *rec.RefundID
	}
	if rec.AmountPaidCents != nil {
		resp["amount_cents"] = *rec.AmountPaidCents
	}
	return c.JSON(http.StatusOK, resp)
}

// pageParams reads ?limit= and ?offset= with sane defaults.
func pageParams(c echo.Context) (limit, offset int) {
	limit = 50
	if v, err := strconv.Atoi(c.QueryParam("limit")); err == nil && v > 0 && v <= 500 {
		limit = v
	}
	if v, err := strconv.Atoi(c.QueryParam("offset")); err == nil && v >= 0 {
		offset = v
	}
	return limit, offset
}

// writeCSV streams a CSV attachment with the given header and rows.
func writeCSV(c echo.Context, filename string, header []string, n int, row func(i int) []string) error {
	c.Response().Header().Set(echo.HeaderContentType, "text/csv")
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	c.Response().WriteHeader(http.StatusOK)
	w := csv.NewWriter(c.Response())
	if err := w.Write(header); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		if err := w.Write(row(i)); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func strOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func centsOrEmpty(n *int64) string {
	if n == nil {
		return ""
	}
	return strconv.FormatInt(*n, 10)
}
