package cache

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func cachedUser(t *testing.T, s *Store, userID, value string) {
	t.Helper()
	_, err := Remember(context.Background(), s, "usage:"+userID, []string{UserTag(userID)}, func(context.Context) (string, error) {
		return value, nil
	})
	require.NoError(t, err)
}

func payload(t *testing.T, origin string, tags ...string) string {
	t.Helper()
	b, err := json.Marshal(invalidation{Origin: origin, Tags: tags})
	require.NoError(t, err)
	return string(b)
}

func TestRedisBus_AppliesRemoteInvalidations(t *testing.T) {
	bus := NewRedisBus(nil, "", discardLogger())
	s := New()
	cachedUser(t, s, "user_1", "2 used")
	cachedUser(t, s, "user_2", "0 used")

	assert.Equal(t, 1, bus.apply(s, payload(t, "other-process", UserTag("user_1"))))
	assert.Equal(t, 1, s.Len())
}

func TestRedisBus_IgnoresOwnMessages(t *testing.T) {
	bus := NewRedisBus(nil, "", discardLogger())
	s := New()
	cachedUser(t, s, "user_1", "2 used")

	assert.Equal(t, 0, bus.apply(s, payload(t, bus.origin, UserTag("user_1"))))
	assert.Equal(t, 1, s.Len())
}

func TestRedisBus_IgnoresMalformedPayload(t *testing.T) {
	bus := NewRedisBus(nil, "", discardLogger())
	s := New()
	cachedUser(t, s, "user_1", "2 used")

	assert.Equal(t, 0, bus.apply(s, "not json"))
	assert.Equal(t, 1, s.Len())
}

// Requires a reachable Redis at TEST_REDIS_URL.
func TestRedisBus_InvalidationReachesOtherProcess(t *testing.T) {
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set")
	}
	opt, err := redis.ParseURL(url)
	require.NoError(t, err)
	rdb := redis.NewClient(opt)
	t.Cleanup(func() { rdb.Close() })

	channel := "test:cache:" + uuid.NewString()
	serverBus := NewRedisBus(rdb, channel, discardLogger())
	cliBus := NewRedisBus(rdb, channel, discardLogger())

	server := New(WithPublisher(serverBus))
	cli := New(WithPublisher(cliBus))
	cachedUser(t, server, "user_1", "2 used")

	stop, err := serverBus.Listen(context.Background(), server)
	require.NoError(t, err)
	defer stop()

	cli.Invalidate(UserTag("user_1"))

	assert.Eventually(t, func() bool { return server.Len() == 0 }, 2*time.Second, 10*time.Millisecond)
}
