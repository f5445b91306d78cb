package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// tokenBucketScript refills in whole intervals: every Interval the bucket
// gains Refill tokens, capped at Capacity. State is a hash of the current
// token count and the timestamp of the last refill.
//
// KEYS[1] bucket key
// ARGV    capacity, refill, interval_ms, now_ms, requested
// returns {allowed, remaining, retry_after_ms}
var tokenBucketScript = redis.NewScript(`
local key = KEYS[1]
local capacity = tonumber(ARGV[1])
local refill = tonumber(ARGV[2])
local interval = tonumber(ARGV[3])
local now = tonumber(ARGV[4])
local requested = tonumber(ARGV[5])

local state = redis.call('HMGET', key, 'tokens', 'ts')
local tokens = tonumber(state[1])
local ts = tonumber(state[2])
if tokens == nil or ts == nil then
  tokens = capacity
  ts = now
end

if now > ts then
  local periods = math.floor((now - ts) / interval)
  if periods > 0 then
    tokens = math.min(capacity, tokens + periods * refill)
    ts = ts + periods * interval
  end
end
if tokens >= capacity then
  ts = now
end

local allowed = 0
local retry = 0
if tokens >= requested then
  tokens = tokens - requested
  allowed = 1
else
  local needed = math.ceil((requested - tokens) / refill)
  retry = (ts + needed * interval) - now
end

redis.call('HSET', key, 'tokens', tokens, 'ts', ts)
redis.call('PEXPIRE', key, ARGV[6])
return {allowed, tokens, retry}
`)

// RedisLimiter stores token buckets in Redis so every replica draws from the
// same bucket for a key.
type RedisLimiter struct {
	rdb    *redis.Client
	config Config
	now    func() time.Time
}

// NewRedisLimiter creates a RedisLimiter using rdb.
func NewRedisLimiter(rdb *redis.Client, config Config) (*RedisLimiter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &RedisLimiter{rdb: rdb, config: config, now: time.Now}, nil
}

// NewRedisClient parses a redis:// URL and verifies the connection.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("ratelimit: parse redis url: %w", err)
	}

	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("ratelimit: ping redis: %w", err)
	}
	return rdb, nil
}

// Protect implements Limiter.
func (l *RedisLimiter) Protect(ctx context.Context, key string, requested int) (Decision, error) {
	if requested <= 0 {
		return Decision{}, fmt.Errorf("ratelimit: requested must be positive, got %d", requested)
	}

	ttl := l.config.fullRefill() + l.config.Interval
	res, err := tokenBucketScript.Run(ctx, l.rdb,
		[]string{"ratelimit:" + l.config.key(key)},
		l.config.Capacity,
		l.config.Refill,
		l.config.Interval.Milliseconds(),
		l.now().UnixMilli(),
		requested,
		ttl.Milliseconds(),
	).Int64Slice()
	if err != nil {
		return Decision{}, fmt.Errorf("ratelimit: run token bucket script: %w", err)
	}
	if len(res) != 3 {
		return Decision{}, fmt.Errorf("ratelimit: unexpected script result %v", res)
	}

	return Decision{
		Allowed:    res[0] == 1,
		Remaining:  int(res[1]),
		RetryAfter: time.Duration(res[2]) * time.Millisecond,
	}, nil
}
