// file: internals/features/attendance/sessions/scheduler/locker.go
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// Locker menjamin satu sweep aktif di seluruh replika.
// release dipanggil hanya kalau acquired = true.
type Locker interface {
	TryLock(ctx context.Context) (release func(context.Context), acquired bool, err error)
}

/* ===================== REDIS ===================== */

const DefaultLockKey = "attendance:auto-checkout:lock"

// hapus hanya kalau token masih milik kita (lock bisa expired & diambil replika lain)
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type RedisLocker struct {
	Client *redis.Client
	Key    string
	TTL    time.Duration
}

func NewRedisLocker(client *redis.Client, ttl time.Duration) *RedisLocker {
	return &RedisLocker{Client: client, Key: DefaultLockKey, TTL: ttl}
}

func (l *RedisLocker) TryLock(ctx context.Context) (func(context.Context), bool, error) {
	token := uuid.NewString()
	ok, err := l.Client.SetNX(ctx, l.Key, token, l.TTL).Result()
	if err != nil {
		return nil, false, fmt.Errorf("redis lock %s: %w", l.Key, err)
	}
	if !ok {
		return nil, false, nil
	}
	release := func(ctx context.Context) {
		_ = releaseScript.Run(ctx, l.Client, []string{l.Key}, token).Err()
	}
	return release, true, nil
}

/* ===================== LOCAL ===================== */

// LocalLocker: cukup untuk satu proses (tanpa Redis).
type LocalLocker struct {
	ch chan struct{}
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{ch: make(chan struct{}, 1)}
}

func (l *LocalLocker) TryLock(ctx context.Context) (func(context.Context), bool, error) {
	select {
	case l.ch <- struct{}{}:
		return func(context.Context) { <-l.ch }, true, nil
	default:
		return nil, false, nil
	}
}
