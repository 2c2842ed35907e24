package config

import (
	"os"
	"strconv"
	"time"
)

// RateLimitConfig drives the Redis token bucket.  Booking* settings apply
// a separate, usually smaller, bucket to reservation creation.
type RateLimitConfig struct {
	Enabled        bool
	Capacity       int
	RefillTokens   int
	RefillInterval time.Duration
	TTL            time.Duration
	KeyStrategy    string
	Prefix         string
	Debug          bool

	BookingCapacity       int
	BookingRefillInterval time.Duration
}

func LoadRateLimitConfig() RateLimitConfig {
	def := RateLimitConfig{
		Enabled:        envBool("RATE_LIMIT_ENABLED", true),
		Capacity:       envInt("RATE_LIMIT_CAPACITY", 60),
		RefillTokens:   envInt("RATE_LIMIT_REFILL_TOKENS", 1),
		RefillInterval: envDur("RATE_LIMIT_REFILL_INTERVAL", time.Second),
		TTL:            envDur("RATE_LIMIT_TTL", 10*time.Minute),
		KeyStrategy:    envStr("RATE_LIMIT_KEY_STRATEGY", "ip_user_route"),
		Prefix:         envStr("RATE_LIMIT_PREFIX", "planetarium:rl"),
		Debug:          envBool("RATE_LIMIT_DEBUG", false),

		BookingCapacity:       envInt("RATE_LIMIT_BOOKING_CAPACITY", 10),
		BookingRefillInterval: envDur("RATE_LIMIT_BOOKING_REFILL_INTERVAL", 6*time.Second),
	}
	if b := envInt("RATE_LIMIT_BURST", -1); b > 0 {
		def.Capacity = b
	}
	if every := envDur("RATE_LIMIT_REFILL_EVERY", 0); every > 0 {
		def.RefillTokens = 1
		def.RefillInterval = every
	}
	if def.Capacity < 1 {
		def.Capacity = 1
	}
	if def.RefillTokens < 1 {
		def.RefillTokens = 1
	}
	if def.RefillInterval <= 0 {
		def.RefillInterval = time.Second
	}
	if def.BookingCapacity < 1 {
		def.BookingCapacity = 1
	}
	if def.BookingRefillInterval <= 0 {
		def.BookingRefillInterval = def.RefillInterval
	}
	minTTL := 5 * def.RefillInterval
	if b := 5 * def.BookingRefillInterval; b > minTTL {
		minTTL = b
	}
	if def.TTL < minTTL {
		def.TTL = minTTL
	}
	return def
}

// Booking returns the bucket settings used for reservation creation.
func (c RateLimitConfig) Booking() RateLimitConfig {
	b := c
	b.Capacity = c.BookingCapacity
	b.RefillTokens = 1
	b.RefillInterval = c.BookingRefillInterval
	b.Prefix = c.Prefix + ":booking"
	return b
}

func envStr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func envBool(k string, d bool) bool {
	switch os.Getenv(k) {
	case "1", "true", "TRUE", "True", "yes", "YES", "on", "ON":
		return true
	case "0", "false", "FALSE", "False", "no", "NO", "off", "OFF":
		return false
	}
	return d
}

func envInt(k string, d int) int {
	if n, err := strconv.Atoi(os.Getenv(k)); err == nil {
		return n
	}
	return d
}

func envDur(k string, d time.Duration) time.Duration {
	if dur, err := time.ParseDuration(os.Getenv(k)); err == nil {
		return dur
	}
	return d
}
