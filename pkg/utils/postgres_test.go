package utils

import (
	"testing"
	"time"
)

func TestPostgresPoolConfigDefaults(t *testing.T) {
	c := PostgresPoolConfig{}.withDefaults()
	if c.MaxOpenConns != 25 || c.MaxIdleConns != 25 {
		t.Fatalf("unexpected conns: %+v", c)
	}
	if c.ConnMaxLifetime != 30*time.Minute || c.PingTimeout != 5*time.Second {
		t.Fatalf("unexpected durations: %+v", c)
	}
}

func TestPostgresPoolConfigKeepsExplicitValues(t *testing.T) {
	c := PostgresPoolConfig{MaxOpenConns: 5, MaxIdleConns: 2, PingTimeout: time.Second}.withDefaults()
	if c.MaxOpenConns != 5 || c.MaxIdleConns != 2 || c.PingTimeout != time.Second {
		t.Fatalf("explicit values must be kept: %+v", c)
	}
}

func TestPostgresPoolConfigClampsIdleToOpen(t *testing.T) {
	c := PostgresPoolConfig{MaxOpenConns: 4, MaxIdleConns: 10}.withDefaults()
	if c.MaxIdleConns != 4 {
		t.Fatalf("expected idle clamped to 4, got %d", c.MaxIdleConns)
	}
}
