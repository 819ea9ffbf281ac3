package utils

import (
	"context"
	"testing"
	"time"
)

func TestWindowCounterScriptInitialized(t *testing.T) {
	if windowCounterScript == nil {
		t.Fatalf("expected script to be initialized")
	}
}

func TestWindowCounter_RejectsBadArguments(t *testing.T) {
	ctx := context.Background()
	if _, err := IncrWindowCounter(ctx, nil, "k", time.Minute); err == nil {
		t.Fatalf("expected error for nil client")
	}
	if _, err := WindowCounter(ctx, nil, "k"); err == nil {
		t.Fatalf("expected error for nil client")
	}
	if err := ResetWindowCounter(ctx, nil, "k"); err == nil {
		t.Fatalf("expected error for nil client")
	}
}

func TestRedisConfigDefaults(t *testing.T) {
	c := RedisConfig{Addr: "localhost:6379"}.withDefaults()
	if c.PoolSize != 10 || c.OpTimeout != 500*time.Millisecond || c.PingTimeout != 2*time.Second {
		t.Fatalf("unexpected defaults: %+v", c)
	}
}

func TestOpenRedis_RequiresAddr(t *testing.T) {
	if _, err := OpenRedis(context.Background(), RedisConfig{}); err == nil {
		t.Fatalf("expected error without addr")
	}
}
