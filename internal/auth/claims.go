package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the decoded claim set carried by every token this service issues.
// A zero ExpiresAt means the token has no exp claim.
type Claims struct {
	Issuer    string
	SubjectID int64
	CreatedAt time.Time
	IsRefresh bool
	IsStaff   *bool
	ExpiresAt time.Time
}

// Staff reports the snapshotted staff flag; absent means false.
func (c Claims) Staff() bool {
	return c.IsStaff != nil && *c.IsStaff
}

// wireClaims is the JSON shape on the wire.
type wireClaims struct {
	jwt.RegisteredClaims

	UserID         int64 `json:"user_id"`
	IsRefreshToken bool  `json:"is_refresh_token"`
	IsStaff        *bool `json:"is_staff,omitempty"`
}

func toWire(c Claims) wireClaims {
	w := wireClaims{
		RegisteredClaims: jwt.RegisteredClaims{Issuer: c.Issuer},
		UserID:           c.SubjectID,
		IsRefreshToken:   c.IsRefresh,
		IsStaff:          c.IsStaff,
	}
	if !c.CreatedAt.IsZero() {
		w.IssuedAt = jwt.NewNumericDate(c.CreatedAt)
	}
	if !c.ExpiresAt.IsZero() {
		w.ExpiresAt = jwt.NewNumericDate(c.ExpiresAt)
	}
	return w
}

func fromWire(w wireClaims) Claims {
	c := Claims{
		Issuer:    w.Issuer,
		SubjectID: w.UserID,
		IsRefresh: w.IsRefreshToken,
		IsStaff:   w.IsStaff,
	}
	if w.IssuedAt != nil {
		c.CreatedAt = w.IssuedAt.Time.UTC()
	}
	if w.ExpiresAt != nil {
		c.ExpiresAt = w.ExpiresAt.Time.UTC()
	}
	return c
}

func boolPtr(v bool) *bool { return &v }

func truncateSeconds(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC().Truncate(time.Second)
}
