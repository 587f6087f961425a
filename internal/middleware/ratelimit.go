package middleware

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/event-attendance/internal/config"
)

// tokenBucketScript refills and drains one bucket atomically.  State is
// a Redis hash of remaining tokens and the last refill timestamp; the
// whole decision happens server-side so concurrent API instances share
// one budget per caller.
var tokenBucketScript = redis.NewScript(`
	local key = KEYS[1]
	local now = tonumber(ARGV[1])
	local capacity = tonumber(ARGV[2])
	local refill = tonumber(ARGV[3])
	local interval = tonumber(ARGV[4])
	local ttl = tonumber(ARGV[5])

	local state = redis.call('HMGET', key, 'tokens', 'stamp')
	local tokens = tonumber(state[1])
	local stamp = tonumber(state[2])
	if tokens == nil or stamp == nil then
		tokens = capacity
		stamp = now
	end

	local elapsed = math.max(0, now - stamp)
	local steps = math.floor(elapsed / interval)
	if steps > 0 then
		tokens = math.min(capacity, tokens + steps * refill)
		stamp = stamp + steps * interval
	end

	local allowed = 0
	local wait = 0
	if tokens > 0 then
		allowed = 1
		tokens = tokens - 1
	else
		wait = math.max(0, interval - (now - stamp))
	end

	redis.call('HMSET', key, 'tokens', tokens, 'stamp', stamp)
	redis.call('EXPIRE', key, ttl)
	return { allowed, tokens, wait }
`)

// NewTokenBucket rate limits the authenticated reservation routes.
// Popular events attract claim storms the moment capacity opens up;
// the bucket keeps one misbehaving client from starving the event lock
// for everyone else.  Keys are per user (falling back to client IP for
// anything unauthenticated) and per route, so a burst of RSVP attempts
// cannot exhaust the caller's read budget.  Redis being down fails
// open: the limiter steps aside rather than taking the API with it.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := bucketKey(cfg.Prefix, c)
			args := []interface{}{
				time.Now().UnixMilli(),
				cfg.Capacity,
				cfg.RefillTokens,
				cfg.RefillInterval.Milliseconds(),
				int64(cfg.TTL / time.Second),
			}

			vals, err := tokenBucketScript.Run(c.Request().Context(), rdb, []string{key}, args...).Int64Slice()
			if err != nil || len(vals) != 3 {
				c.Logger().Warnf("ratelimit: script failed for %s: %v", key, err)
				return next(c)
			}
			allowed, remaining, waitMs := vals[0] == 1, vals[1], vals[2]

			c.Response().Header().Set("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
			c.Response().Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

			if !allowed {
				secs := int(math.Ceil(float64(waitMs) / 1000.0))
				c.Response().Header().Set("Retry-After", strconv.Itoa(secs))
				return c.JSON(http.StatusTooManyRequests, echo.Map{
					"error":       "rate limit exceeded",
					"retry_after": secs,
				})
			}
			return next(c)
		}
	}
}

// bucketKey prefers the authenticated user over the client IP so NAT'd
// attendees do not share a bucket.
func bucketKey(prefix string, c echo.Context) string {
	who := ""
	switch v := c.Get("user_id").(type) {
	case uint64:
		who = "u" + strconv.FormatUint(v, 10)
	case float64:
		who = "u" + strconv.FormatUint(uint64(v), 10)
	case string:
		if v != "" {
			who = "u" + v
		}
	}
	if who == "" {
		who = "ip" + c.RealIP()
	}
	return fmt.Sprintf("%s:%s:%s %s", prefix, who, c.Request().Method, c.Path())
}
