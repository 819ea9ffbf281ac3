package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestMapPgError(t *testing.T) {
	cases := []struct {
		code string
		want error
	}{
		{"23505", ErrConflict},
		{"23503", ErrInvalidReference},
		{"23502", ErrInvalidValue},
		{"22P02", ErrInvalidValue},
	}
	for _, c := range cases {
		err := mapPgError(fmt.Errorf("wrapped: %w", &pgconn.PgError{Code: c.code}))
		if !errors.Is(err, c.want) {
			t.Fatalf("code %s: expected %v, got %v", c.code, c.want, err)
		}
	}

	plain := errors.New("conn reset")
	if got := mapPgError(plain); got != plain {
		t.Fatalf("expected passthrough, got %v", got)
	}
}

func TestNormalize(t *testing.T) {
	if v := normalize(float64(3)); v != int64(3) {
		t.Fatalf("expected int64 3, got %#v", v)
	}
	if v := normalize(float64(2.5)); v != float64(2.5) {
		t.Fatalf("expected float 2.5, got %#v", v)
	}
	if v := normalize(json.Number("12")); v != int64(12) {
		t.Fatalf("expected int64 12, got %#v", v)
	}
	if v := normalize("x"); v != "x" {
		t.Fatalf("expected passthrough string, got %#v", v)
	}
}

func TestIdent(t *testing.T) {
	if got := ident("recipe_cart"); got != `"recipe_cart"` {
		t.Fatalf("unexpected identifier %s", got)
	}
}
