package redis

import (
	"context"
	"os"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCache_Unreachable(t *testing.T) {
	_, err := NewCache(Config{Addr: "127.0.0.1:1"})
	assert.Error(t, err)
}

// liveCache connects to REDIS_ADDR on a scratch db, skipping when unset.
func liveCache(t *testing.T) *RedisCache {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	client := goredis.NewClient(&goredis.Options{Addr: addr, DB: 15})
	require.NoError(t, client.FlushDB(context.Background()).Err())
	c := NewFromClient(client)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestRedis_KVAndHash(t *testing.T) {
	c := liveCache(t)
	ctx := context.Background()

	_, err := c.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, c.Set(ctx, "room:gym:battle_1_data", "{}", time.Minute))
	v, err := c.Get(ctx, "room:gym:battle_1_data")
	require.NoError(t, err)
	assert.Equal(t, "{}", v)
	ok, err := c.Exists(ctx, "room:gym:battle_1_data")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, c.HSet(ctx, "battle:registry", "b1", "gym"))
	all, err := c.HGetAll(ctx, "battle:registry")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"b1": "gym"}, all)
	require.NoError(t, c.HDel(ctx, "battle:registry", "b1"))
	_, err = c.HGet(ctx, "battle:registry", "b1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedis_ListTail(t *testing.T) {
	c := liveCache(t)
	ctx := context.Background()

	require.NoError(t, c.LPush(ctx, "battle:log:b1", "a", "b", "c"))
	require.NoError(t, c.LTrim(ctx, "battle:log:b1", 0, 1))
	lines, err := c.LRange(ctx, "battle:log:b1", 0, -1)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "b"}, lines)
	require.NoError(t, c.Expire(ctx, "battle:log:b1", time.Minute))
}
