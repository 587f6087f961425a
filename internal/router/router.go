package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/event-attendance/internal/config"
	"github.com/iliyamo/event-attendance/internal/handler"
	"github.com/iliyamo/event-attendance/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication on
// the provided Echo instance: the health check, the public availability
// projection and the payment gateway webhook.  The availability
// endpoint sits behind the Redis response cache; the webhook endpoint
// deliberately bypasses both cache and rate limiting so gateway
// deliveries are never dropped.
func RegisterRoutes(e *echo.Echo, p *handler.PublicHandler, w *handler.WebhookHandler, rdb *redis.Client) {
	// Health check used by load balancers and monitoring systems.
	e.GET("/healthz", handler.Health)

	// Capacity/attendee-count projection.  Cached: it is read often
	// while people decide whether to reserve, and a stale count is
	// harmless because admission is decided under the event lock.
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)
	e.GET("/v1/events/:id/availability", p.Availability, cache)

	// Stripe posts payment notifications here.  Authenticity comes
	// from signature verification inside the handler, not from JWTs.
	e.POST("/v1/payments/webhook", w.HandleStripeWebhook)
}
