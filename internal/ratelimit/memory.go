package ratelimit

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// bucket is a per-key limiter and its last access time.
type bucket struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// MemoryLimiter keeps one token bucket per key in process memory. Tokens
// refill continuously at Refill/Interval, so a 4-per-day bucket regains one
// token every six hours.
type MemoryLimiter struct {
	config   Config
	limit    rate.Limit
	perToken time.Duration
	now      func() time.Time

	mu      sync.Mutex
	buckets map[string]*bucket

	stopCh chan struct{}
	once   sync.Once
}

// NewMemoryLimiter creates a MemoryLimiter and starts a background loop that
// drops buckets idle long enough to have refilled completely.
func NewMemoryLimiter(config Config) (*MemoryLimiter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	m := newMemoryLimiter(config, time.Now)
	go m.cleanupLoop(cleanupInterval(config))
	return m, nil
}

func newMemoryLimiter(config Config, now func() time.Time) *MemoryLimiter {
	perToken := config.Interval / time.Duration(config.Refill)
	return &MemoryLimiter{
		config:   config,
		limit:    rate.Every(perToken),
		perToken: perToken,
		now:      now,
		buckets:  make(map[string]*bucket),
		stopCh:   make(chan struct{}),
	}
}

// Protect implements Limiter.
func (m *MemoryLimiter) Protect(ctx context.Context, key string, requested int) (Decision, error) {
	if err := ctx.Err(); err != nil {
		return Decision{}, err
	}
	if requested <= 0 {
		return Decision{}, fmt.Errorf("ratelimit: requested must be positive, got %d", requested)
	}

	now := m.now()
	lim := m.getOrCreate(m.config.key(key), now)

	if lim.AllowN(now, requested) {
		return Decision{Allowed: true, Remaining: floorTokens(lim.TokensAt(now))}, nil
	}

	tokens := lim.TokensAt(now)
	missing := float64(requested) - tokens
	retry := time.Duration(math.Ceil(missing * float64(m.perToken)))
	return Decision{Allowed: false, Remaining: floorTokens(tokens), RetryAfter: retry}, nil
}

// Len returns the number of tracked buckets.
func (m *MemoryLimiter) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.buckets)
}

// Stop ends the cleanup loop. It is safe to call more than once.
func (m *MemoryLimiter) Stop() {
	m.once.Do(func() { close(m.stopCh) })
}

func (m *MemoryLimiter) getOrCreate(key string, now time.Time) *rate.Limiter {
	m.mu.Lock()
	defer m.mu.Unlock()

	if b, ok := m.buckets[key]; ok {
		b.lastAccess = now
		return b.limiter
	}

	lim := rate.NewLimiter(m.limit, m.config.Capacity)
	m.buckets[key] = &bucket{limiter: lim, lastAccess: now}
	return lim
}

func (m *MemoryLimiter) cleanupLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.cleanup()
		case <-m.stopCh:
			return
		}
	}
}

// cleanup removes buckets that have been idle for a full refill.
func (m *MemoryLimiter) cleanup() {
	ttl := m.config.fullRefill()
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()
	for key, b := range m.buckets {
		if now.Sub(b.lastAccess) > ttl {
			delete(m.buckets, key)
		}
	}
}

func cleanupInterval(c Config) time.Duration {
	every := c.Interval / time.Duration(c.Refill)
	if every > 10*time.Minute {
		every = 10 * time.Minute
	}
	if every < time.Second {
		every = time.Second
	}
	return every
}

func floorTokens(t float64) int {
	if t <= 0 {
		return 0
	}
	return int(math.Floor(t))
}
