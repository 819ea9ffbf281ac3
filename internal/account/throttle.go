package account

import (
	"context"
	"sync"
	"time"

	"weeklychef/pkg/utils"

	"github.com/redis/go-redis/v9"
)

// Throttle counts failed logins per key within a window.
type Throttle interface {
	Allow(ctx context.Context, key string) (bool, error)
	Fail(ctx context.Context, key string) error
	Reset(ctx context.Context, key string) error
}

const throttlePrefix = "weeklychef:login:fail:"

// RedisThrottle shares failure counters between API replicas.
type RedisThrottle struct {
	rdb    *redis.Client
	max    int
	window time.Duration
}

func NewRedisThrottle(rdb *redis.Client, maxFailures int, window time.Duration) *RedisThrottle {
	return &RedisThrottle{rdb: rdb, max: maxFailures, window: window}
}

func (t *RedisThrottle) Allow(ctx context.Context, key string) (bool, error) {
	n, err := utils.WindowCounter(ctx, t.rdb, throttlePrefix+key)
	if err != nil {
		return true, err
	}
	return n < int64(t.max), nil
}

func (t *RedisThrottle) Fail(ctx context.Context, key string) error {
	_, err := utils.IncrWindowCounter(ctx, t.rdb, throttlePrefix+key, t.window)
	return err
}

func (t *RedisThrottle) Reset(ctx context.Context, key string) error {
	return utils.ResetWindowCounter(ctx, t.rdb, throttlePrefix+key)
}

// MemoryThrottle is the single-process fallback when Redis is not configured.
type MemoryThrottle struct {
	mu      sync.Mutex
	max     int
	window  time.Duration
	clock   func() time.Time
	entries map[string]failureWindow
}

type failureWindow struct {
	count   int
	expires time.Time
}

func NewMemoryThrottle(maxFailures int, window time.Duration) *MemoryThrottle {
	return &MemoryThrottle{
		max:     maxFailures,
		window:  window,
		clock:   time.Now,
		entries: make(map[string]failureWindow),
	}
}

func (t *MemoryThrottle) Allow(_ context.Context, key string) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	w, ok := t.current(key)
	return !ok || w.count < t.max, nil
}

func (t *MemoryThrottle) Fail(_ context.Context, key string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	w, ok := t.current(key)
	if !ok {
		w = failureWindow{expires: t.clock().Add(t.window)}
	}
	w.count++
	t.entries[key] = w
	return nil
}

func (t *MemoryThrottle) Reset(_ context.Context, key string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.entries, key)
	return nil
}

// current must be called with mu held.
func (t *MemoryThrottle) current(key string) (failureWindow, bool) {
	w, ok := t.entries[key]
	if !ok {
		return failureWindow{}, false
	}
	if !t.clock().Before(w.expires) {
		delete(t.entries, key)
		return failureWindow{}, false
	}
	return w, true
}
