package redis

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLockHeld 锁被其他实例持有
var ErrLockHeld = errors.New("lock held by another instance")

// 只删除自己持有的锁，避免TTL过期后误删别人的锁
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker 基于SET NX PX的分布式锁
// 多实例部署时保证同一时刻只有一个实例执行预约过期清理
type Locker struct {
	client *redis.Client
	prefix string
}

// NewLocker 创建分布式锁
func NewLocker(client *redis.Client) *Locker {
	return &Locker{client: client, prefix: "lock:"}
}

// Lock 已持有的锁
type Lock struct {
	client *redis.Client
	key    string
	token  string
}

// TryLock 尝试加锁，已被持有时返回ErrLockHeld
func (l *Locker) TryLock(ctx context.Context, name string, ttl time.Duration) (*Lock, error) {
	key := l.prefix + name
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrLockHeld
	}
	return &Lock{client: l.client, key: key, token: token}, nil
}

// Release 释放锁，锁已过期或被他人持有时什么也不做
func (lk *Lock) Release(ctx context.Context) error {
	return unlockScript.Run(ctx, lk.client, []string{lk.key}, lk.token).Err()
}

// Acquire 尝试加锁，acquired为false表示锁被其他实例持有
func (l *Locker) Acquire(ctx context.Context, name string, ttl time.Duration) (release func(context.Context) error, acquired bool, err error) {
	lk, err := l.TryLock(ctx, name, ttl)
	if errors.Is(err, ErrLockHeld) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return lk.Release, true, nil
}
