package config // package config loads application configuration from environment variables

import (
	"log" // log is used to report configuration errors and halt execution
	"os"  // os provides access to environment variables
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  The types reflect how the values are used in
// the application: strings for identifiers and secrets, ints for durations.
type Config struct {
	Env           string // application environment (e.g. "dev", "prod")
	Port          string // HTTP port to listen on
	DBUser        string // database username
	DBPass        string // database password (optional)
	DBHost        string // database host address
	DBPort        string // database port number
	DBName        string // database name
	JWTSecret     string // secret used to verify JWTs issued by the identity service
	StripeSecret  string // Stripe API secret key
	WebhookSecret string // Stripe webhook endpoint signing secret
	AppBaseURL    string // public base URL used for checkout redirects
	Currency      string // ISO currency code charged for paid events
	PendingTTLMin int    // minutes a payment-pending RSVP may live before expiry
	SweepEveryMin int    // minutes between pending-expiry sweeps
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
	return Config{
		Env:           must("APP_ENV"),  // environment (dev/test/prod)
		Port:          must("APP_PORT"), // port to bind the HTTP server
		DBUser:        must("DB_USER"),  // database user
		DBPass:        os.Getenv("DB_PASS"),
		DBHost:        must("DB_HOST"),
		DBPort:        must("DB_PORT"),
		DBName:        must("DB_NAME"),
		JWTSecret:     must("JWT_SECRET"),
		StripeSecret:  must("STRIPE_SECRET_KEY"),
		WebhookSecret: must("STRIPE_WEBHOOK_SECRET"),
		AppBaseURL:    must("APP_BASE_URL"),
		Currency:      envStr("CURRENCY", "aud"),
		PendingTTLMin: envInt("PENDING_RSVP_TTL_MIN", 30),
		SweepEveryMin: envInt("PENDING_SWEEP_EVERY_MIN", 5),
	}
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}
