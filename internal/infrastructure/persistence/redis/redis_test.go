package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 需要本地Redis，地址可用LIBRARY_TEST_REDIS_ADDR覆盖，连不上时跳过
func setupRedis(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("LIBRARY_TEST_REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	client := redis.NewClient(&redis.Options{Addr: addr, DialTimeout: 500 * time.Millisecond})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		t.Skipf("Redis不可用: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestTokenBlacklist(t *testing.T) {
	client := setupRedis(t)
	ctx := context.Background()
	bl := NewTokenBlacklist(client)
	jti := uuid.NewString()

	revoked, err := bl.IsRevoked(ctx, jti)
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, bl.Revoke(ctx, jti, time.Minute))
	revoked, err = bl.IsRevoked(ctx, jti)
	require.NoError(t, err)
	assert.True(t, revoked)

	ttl := client.TTL(ctx, blacklistKey(jti)).Val()
	assert.True(t, ttl > 0 && ttl <= time.Minute)

	t.Run("已过期的Token不写入", func(t *testing.T) {
		other := uuid.NewString()
		require.NoError(t, bl.Revoke(ctx, other, 0))
		revoked, err := bl.IsRevoked(ctx, other)
		require.NoError(t, err)
		assert.False(t, revoked)
	})
}

func TestLocker(t *testing.T) {
	client := setupRedis(t)
	ctx := context.Background()
	locker := NewLocker(client)
	name := "test-sweep-" + uuid.NewString()

	lk, err := locker.TryLock(ctx, name, time.Minute)
	require.NoError(t, err)

	_, err = locker.TryLock(ctx, name, time.Minute)
	assert.ErrorIs(t, err, ErrLockHeld)
	t.Log("✓ 同一时刻只有一个持有者")

	require.NoError(t, lk.Release(ctx))
	again, err := locker.TryLock(ctx, name, time.Minute)
	require.NoError(t, err)

	// 旧锁再次释放不会删掉新持有者的锁
	require.NoError(t, lk.Release(ctx))
	_, err = locker.TryLock(ctx, name, time.Minute)
	assert.ErrorIs(t, err, ErrLockHeld)
	require.NoError(t, again.Release(ctx))
}
