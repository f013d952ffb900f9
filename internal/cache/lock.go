package cache

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

var ErrBusy = errors.New("outra operação está em andamento, tente novamente")

// Locker serializes batch operations across instances. Without redis it
// falls back to an in-process mutex.
type Locker struct {
	client *redislock.Client
	local  sync.Mutex
}

func NewLocker(rdb *redis.Client) *Locker {
	l := &Locker{}
	if rdb != nil {
		l.client = redislock.New(rdb)
	}
	return l
}

func (l *Locker) WithLock(ctx context.Context, key string, ttl time.Duration, fn func() error) error {
	if l.client == nil {
		l.local.Lock()
		defer l.local.Unlock()
		return fn()
	}

	lock, err := l.client.Obtain(ctx, "lock:"+key, ttl, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(100*time.Millisecond), 20),
	})
	// Obtain gives up with a deadline error once ttl passes without the lock.
	if errors.Is(err, redislock.ErrNotObtained) || (errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil) {
		return ErrBusy
	}
	if err != nil {
		return err
	}
	defer func() {
		_ = lock.Release(context.Background())
	}()

	return fn()
}
