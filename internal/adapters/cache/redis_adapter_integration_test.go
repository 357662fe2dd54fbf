//go:build integration

package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/clinicdesk/backend/internal/domain/providers"
)

func TestRedisAdapter_Integration(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { client.Close() })

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("redis not available at %s: %v", addr, err)
	}

	adapter := NewRedisAdapterFromCmdable(client)
	key := "test:hint:patient:code:P002"
	t.Cleanup(func() { client.Del(ctx, key) })

	require.NoError(t, adapter.Set(ctx, key, []byte("p2"), 0))

	got, err := adapter.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, []byte("p2"), got)

	ttl, err := client.TTL(ctx, key).Result()
	require.NoError(t, err)
	assert.Equal(t, time.Duration(-1), ttl, "hints are stored without expiry")

	require.NoError(t, adapter.Delete(ctx, key))
	_, err = adapter.Get(ctx, key)
	assert.ErrorIs(t, err, providers.ErrCacheMiss)
}
