package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/event-attendance/internal/auth"
	"github.com/iliyamo/event-attendance/internal/config"
	"github.com/iliyamo/event-attendance/internal/handler"
	"github.com/iliyamo/event-attendance/internal/middleware"
)

// RegisterAttendee registers attendee-scoped endpoints under /v1.  All
// routes require a valid JWT; organisers and admins attend events too,
// so every platform role is accepted here.  The whole group sits
// behind the Redis token-bucket rate limiter.
func RegisterAttendee(e *echo.Echo, h *handler.AttendeeHandler, jwtSecret string, rdb *redis.Client) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(auth.RoleAttendee, auth.RoleOrganiser, auth.RoleAdmin),
		middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb),
	)
	g.POST("/events/:id/rsvp", h.CreateRSVP)
	g.DELETE("/events/:id/rsvp", h.CancelRSVP)
	g.GET("/my-rsvps", h.ListMyRSVPs)
	g.POST("/events/:id/checkout", h.CreateCheckout)
}
