package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/event-attendance/internal/auth"
	"github.com/iliyamo/event-attendance/internal/config"
	"github.com/iliyamo/event-attendance/internal/handler"
	"github.com/iliyamo/event-attendance/internal/middleware"
)

// RegisterOrganiser registers the moderation endpoints under /v1.  The
// role middleware admits organisers and admins; per-event ownership is
// enforced inside the handlers and services, so an organiser can only
// manage their own events while admins can manage any.
func RegisterOrganiser(e *echo.Echo, h *handler.OrganiserHandler, jwtSecret string, rdb *redis.Client) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(auth.RoleOrganiser, auth.RoleAdmin),
		middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb),
	)
	g.GET("/events/:id/attendees", h.ListAttendees)
	g.DELETE("/events/:id/attendees/:userID", h.CancelAttendee)
	g.GET("/events/:id/blocks", h.ListBlocked)
	g.POST("/events/:id/blocks/:userID", h.BlockUser)
	g.DELETE("/events/:id/blocks/:userID", h.UnblockUser)
	g.GET("/events/:id/cancellations", h.ListCancellations)
	g.POST("/cancellations/:id/refund", h.RefundCancellation)
}
