package utils

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig is the connection setup for the login throttle store.
// Zero durations and sizes take defaults.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int

	PoolSize    int
	OpTimeout   time.Duration
	PingTimeout time.Duration
}

func (c RedisConfig) withDefaults() RedisConfig {
	if c.PoolSize <= 0 {
		c.PoolSize = 10
	}
	if c.OpTimeout <= 0 {
		c.OpTimeout = 500 * time.Millisecond
	}
	if c.PingTimeout <= 0 {
		c.PingTimeout = 2 * time.Second
	}
	return c
}

// OpenRedis builds a client and fails fast when the server does not answer PING.
// Operation timeouts are short: a slow Redis must not stall logins.
func OpenRedis(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	if cfg.Addr == "" {
		return nil, errors.New("redis addr is required")
	}
	cfg = cfg.withDefaults()

	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		DialTimeout:  cfg.PingTimeout,
		ReadTimeout:  cfg.OpTimeout,
		WriteTimeout: cfg.OpTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, cfg.PingTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}
	return rdb, nil
}

var errNilRedis = errors.New("redis client is nil")

var windowCounterScript = redis.NewScript(`
-- KEYS[1] = counter key
-- ARGV[1] = window_ms (int)
--
-- Returns the counter value after increment.
-- The window starts at the first increment and is not extended afterwards.
local current = redis.call('INCR', KEYS[1])
if current == 1 or redis.call('PTTL', KEYS[1]) < 0 then
  redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
return current
`)

// IncrWindowCounter atomically increments a counter that expires window after
// its first increment. Intended for failure counting (e.g. login attempts).
func IncrWindowCounter(ctx context.Context, rdb *redis.Client, key string, window time.Duration) (int64, error) {
	switch {
	case rdb == nil:
		return 0, errNilRedis
	case key == "":
		return 0, errors.New("window counter key is required")
	case window <= 0:
		return 0, errors.New("window counter window must be positive")
	}
	return windowCounterScript.Run(ctx, rdb, []string{key}, window.Milliseconds()).Int64()
}

// WindowCounter reads the current counter value; a missing key reads as zero.
func WindowCounter(ctx context.Context, rdb *redis.Client, key string) (int64, error) {
	if rdb == nil {
		return 0, errNilRedis
	}
	n, err := rdb.Get(ctx, key).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return n, err
}

// ResetWindowCounter clears the counter.
func ResetWindowCounter(ctx context.Context, rdb *redis.Client, key string) error {
	if rdb == nil {
		return errNilRedis
	}
	return rdb.Del(ctx, key).Err()
}
