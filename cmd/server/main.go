package main // Entry point package

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-attendance/internal/attendance"
	"github.com/iliyamo/event-attendance/internal/config"
	"github.com/iliyamo/event-attendance/internal/database"
	"github.com/iliyamo/event-attendance/internal/gateway"
	"github.com/iliyamo/event-attendance/internal/handler"
	"github.com/iliyamo/event-attendance/internal/queue"
	"github.com/iliyamo/event-attendance/internal/repository"
	"github.com/iliyamo/event-attendance/internal/router"
	queue_publisher "github.com/iliyamo/event-attendance/internal/service"
)

func main() {
	// .env is optional; real deployments set variables directly.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	store := repository.NewStore(db)

	stripeGW, err := gateway.NewStripeGateway(cfg.StripeSecret, cfg.AppBaseURL)
	if err != nil {
		log.Fatalf("stripe: %v", err)
	}

	rsvps := attendance.NewRSVPService(store)
	hooks := attendance.NewWebhookService(store)
	checkout := attendance.NewCheckoutService(store, stripeGW, cfg.Currency)
	refunds := attendance.NewRefundService(store, stripeGW)

	// Redis backs rate limiting and the availability cache.  A nil
	// client disables both and the server still works.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable; rate limiting and response cache disabled")
	}

	pub := queue_publisher.Publisher{}
	e := echo.New()
	router.RegisterRoutes(e,
		handler.NewPublicHandler(rsvps, store),
		handler.NewWebhookHandler(hooks, store, pub, cfg.WebhookSecret),
		rdb,
	)
	router.RegisterAttendee(e, handler.NewAttendeeHandler(rsvps, checkout, store, pub), cfg.JWTSecret, rdb)
	router.RegisterOrganiser(e, handler.NewOrganiserHandler(rsvps, refunds, store, pub), cfg.JWTSecret, rdb)

	// Background consumer mirrors attendance events into logs/attendance.log.
	go func() {
		if err := queue.StartAttendanceConsumer(); err != nil {
			log.Printf("attendance-consumer stopped: %v", err)
		}
	}()

	// Pending-payment expiry sweeper frees slots held by RSVPs whose
	// checkout never completed.
	go rsvps.RunExpirySweeper(
		context.Background(),
		time.Duration(cfg.SweepEveryMin)*time.Minute,
		time.Duration(cfg.PendingTTLMin)*time.Minute,
	)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
