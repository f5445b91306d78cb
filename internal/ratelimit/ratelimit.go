// Package ratelimit provides token-bucket throttling keyed by an identity
// such as a user id or client IP.
//
// Two implementations are provided:
//   - MemoryLimiter: per-process buckets backed by golang.org/x/time/rate
//   - RedisLimiter: buckets shared across replicas, stored in Redis
package ratelimit

import (
	"context"
	"fmt"
	"time"
)

// Limiter consumes tokens from the bucket identified by key.
type Limiter interface {
	// Protect tries to take requested tokens. A denial is reported in the
	// Decision, not as an error; errors mean the limiter itself failed.
	Protect(ctx context.Context, key string, requested int) (Decision, error)
}

// Decision is the outcome of a Protect call.
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// IsDenied reports whether the request was throttled.
func (d Decision) IsDenied() bool {
	return !d.Allowed
}

// Config describes a token bucket: it holds at most Capacity tokens and gains
// Refill tokens every Interval.
type Config struct {
	Capacity int
	Refill   int
	Interval time.Duration

	// Prefix namespaces keys so several buckets can share one backend.
	Prefix string
}

// DefaultInterviewConfig is the bucket applied to interview creation.
func DefaultInterviewConfig() Config {
	return Config{
		Capacity: 12,
		Refill:   4,
		Interval: 24 * time.Hour,
		Prefix:   "interview",
	}
}

// Validate checks the bucket parameters.
func (c Config) Validate() error {
	if c.Capacity <= 0 {
		return fmt.Errorf("ratelimit: capacity must be positive, got %d", c.Capacity)
	}
	if c.Refill <= 0 {
		return fmt.Errorf("ratelimit: refill must be positive, got %d", c.Refill)
	}
	if c.Interval <= 0 {
		return fmt.Errorf("ratelimit: interval must be positive, got %s", c.Interval)
	}
	return nil
}

// fullRefill is how long an empty bucket takes to fill completely. A bucket
// idle for this long is indistinguishable from a new one.
func (c Config) fullRefill() time.Duration {
	periods := (c.Capacity + c.Refill - 1) / c.Refill
	return time.Duration(periods) * c.Interval
}

func (c Config) key(key string) string {
	if c.Prefix == "" {
		return key
	}
	return c.Prefix + ":" + key
}
