package middleware

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/planetarium-booking/internal/config"
)

// tokenBucketScript refills the bucket by whole intervals, takes one
// token when available and returns {allowed, remaining, retry_after_ms}.
var tokenBucketScript = redis.NewScript(`
local key = KEYS[1]
local now_ms = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local refill_tokens = tonumber(ARGV[3])
local interval_ms = tonumber(ARGV[4])
local ttl_seconds = tonumber(ARGV[5])

local state = redis.call('HMGET', key, 'tokens', 'last_refill_ms')
local tokens = tonumber(state[1])
local last_refill = tonumber(state[2])
if tokens == nil or last_refill == nil then
    tokens = capacity
    last_refill = now_ms
end

if interval_ms > 0 and refill_tokens > 0 then
    local intervals = math.floor(math.max(0, now_ms - last_refill) / interval_ms)
    if intervals > 0 then
        tokens = math.min(capacity, tokens + intervals * refill_tokens)
        last_refill = last_refill + intervals * interval_ms
    end
end

local allowed = 0
local retry_after_ms = 0
if tokens > 0 then
    allowed = 1
    tokens = tokens - 1
else
    retry_after_ms = math.max(0, interval_ms - (now_ms - last_refill))
end

redis.call('HSET', key, 'tokens', tokens, 'last_refill_ms', last_refill)
redis.call('EXPIRE', key, ttl_seconds)
return { allowed, tokens, retry_after_ms }
`)

// bucketResult is the decoded reply of tokenBucketScript.
type bucketResult struct {
	Allowed    bool
	Remaining  int64
	RetryAfter time.Duration
}

// RetrySeconds rounds RetryAfter up to whole seconds for Retry-After.
func (r bucketResult) RetrySeconds() int {
	secs := int(math.Ceil(r.RetryAfter.Seconds()))
	if secs < 0 {
		return 0
	}
	return secs
}

// takeToken runs the bucket script for key.
func takeToken(ctx context.Context, rdb *redis.Client, cfg config.RateLimitConfig, key string, now time.Time) (bucketResult, error) {
	vals, err := tokenBucketScript.Run(ctx, rdb, []string{key},
		now.UnixMilli(),
		cfg.Capacity,
		cfg.RefillTokens,
		cfg.RefillInterval.Milliseconds(),
		int64(cfg.TTL/time.Second),
	).Result()
	if err != nil {
		return bucketResult{}, err
	}
	return parseBucketResult(vals)
}

func parseBucketResult(vals interface{}) (bucketResult, error) {
	arr, ok := vals.([]interface{})
	if !ok || len(arr) != 3 {
		return bucketResult{}, fmt.Errorf("unexpected script result %#v", vals)
	}
	return bucketResult{
		Allowed:    asInt64(arr[0]) == 1,
		Remaining:  asInt64(arr[1]),
		RetryAfter: time.Duration(asInt64(arr[2])) * time.Millisecond,
	}, nil
}

// NewTokenBucket limits requests with a token bucket kept in Redis.  The
// bucket key is built from cfg.KeyStrategy; authenticated requests are
// keyed by principal id, anonymous ones by "guest".  Redis errors let
// the request through.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := buildRateKey(cfg, c)
			res, err := takeToken(c.Request().Context(), rdb, cfg, key, time.Now())
			if err != nil {
				if cfg.Debug {
					c.Logger().Warnf("[ratelimit] key=%s: %v", key, err)
				}
				return next(c)
			}

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(res.Remaining, 10))
			if cfg.Debug {
				h.Set("X-RateLimit-Key", key)
			}
			if res.Allowed {
				return next(c)
			}

			secs := res.RetrySeconds()
			h.Set("Retry-After", strconv.Itoa(secs))
			if cfg.Debug {
				c.Logger().Infof("[ratelimit] block key=%s retry=%s", key, res.RetryAfter)
			}
			return c.JSON(http.StatusTooManyRequests, echo.Map{
				"error":       "rate limit exceeded",
				"retry_after": secs,
			})
		}
	}
}

func asInt64(v interface{}) int64 {
	switch t := v.(type) {
	case int64:
		return t
	case int:
		return int64(t)
	case float64:
		return int64(t)
	case string:
		n, _ := strconv.ParseInt(t, 10, 64)
		return n
	}
	return 0
}

// buildRateKey joins the prefix with the parts named by the strategy
// ("ip", "user", "route" joined by "_"); unknown strategies use all
// three.
func buildRateKey(cfg config.RateLimitConfig, c echo.Context) string {
	ip := c.RealIP()
	if ip == "" {
		ip = "unknown"
	}
	values := map[string]string{
		"ip":    ip,
		"user":  userID(c),
		"route": c.Request().Method + " " + c.Path(),
	}

	parts := []string{cfg.Prefix}
	for _, name := range strings.Split(strings.ToLower(cfg.KeyStrategy), "_") {
		if v, ok := values[name]; ok {
			parts = append(parts, name, v)
		}
	}
	if len(parts) == 1 {
		parts = append(parts, "ip", ip, "user", values["user"], "route", values["route"])
	}
	return strings.Join(parts, ":")
}
