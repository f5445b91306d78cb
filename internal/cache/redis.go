package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// DefaultChannel is the pub/sub channel invalidations are sent on.
const DefaultChannel = "certum:cache:invalidate"

const publishTimeout = 2 * time.Second

// RedisBus broadcasts tag invalidations over Redis pub/sub so every server
// replica and certumctl drop the same entries. Pub/sub delivery is at most
// once; the store TTL covers messages lost during a reconnect.
type RedisBus struct {
	rdb     *redis.Client
	channel string
	origin  string
	logger  *slog.Logger
}

type invalidation struct {
	Origin string   `json:"origin"`
	Tags   []string `json:"tags"`
}

// NewRedisBus creates a RedisBus on channel. An empty channel uses
// DefaultChannel.
func NewRedisBus(rdb *redis.Client, channel string, logger *slog.Logger) *RedisBus {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisBus{
		rdb:     rdb,
		channel: channel,
		origin:  uuid.NewString(),
		logger:  logger,
	}
}

// Publish implements Publisher. A failed publish is logged; the local
// invalidation has already happened.
func (b *RedisBus) Publish(tags []string) {
	payload, err := json.Marshal(invalidation{Origin: b.origin, Tags: tags})
	if err != nil {
		b.logger.Error("cache invalidation encode failed", "tags", tags, "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := b.rdb.Publish(ctx, b.channel, payload).Err(); err != nil {
		b.logger.Error("cache invalidation publish failed", "tags", tags, "error", err)
	}
}

// Listen subscribes to the channel and applies invalidations from other
// processes to s until ctx is done or stop is called. It returns once the
// subscription is confirmed.
func (b *RedisBus) Listen(ctx context.Context, s *Store) (stop func(), err error) {
	pubsub := b.rdb.Subscribe(ctx, b.channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("cache: subscribe %s: %w", b.channel, err)
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer pubsub.Close()

		msgs := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				b.apply(s, msg.Payload)
			}
		}
	}()

	return func() {
		cancel()
		<-done
	}, nil
}

// apply invalidates the tags in payload unless this bus sent them.
func (b *RedisBus) apply(s *Store, payload string) int {
	var inv invalidation
	if err := json.Unmarshal([]byte(payload), &inv); err != nil {
		b.logger.Warn("ignoring malformed cache invalidation", "error", err)
		return 0
	}
	if inv.Origin == b.origin {
		return 0
	}
	return s.invalidateLocal(inv.Tags)
}
