package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"weeklychef/internal/config"
	"weeklychef/internal/store"
)

// StaffLookup reads the current staff flag of a user.
// It must return store.ErrNotFound for unknown users.
type StaffLookup interface {
	GetUserStaffFlag(ctx context.Context, userID int64) (bool, error)
}

type TokenPair struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token"`
}

// SessionIssuer mints access/refresh pairs and exchanges refresh tokens.
type SessionIssuer struct {
	codec      *Codec
	users      StaffLookup
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewSessionIssuer(codec *Codec, users StaffLookup, cfg config.AuthConfig) (*SessionIssuer, error) {
	if codec == nil {
		return nil, errors.New("auth: codec is required")
	}
	if users == nil {
		return nil, errors.New("auth: staff lookup is required")
	}
	accessTTL := cfg.AccessTokenTTL
	if accessTTL <= 0 {
		accessTTL = 30 * 24 * time.Hour
	}
	return &SessionIssuer{
		codec:      codec,
		users:      users,
		accessTTL:  accessTTL,
		refreshTTL: cfg.RefreshTokenTTL,
	}, nil
}

func (s *SessionIssuer) Codec() *Codec { return s.codec }

/* ===================== ISSUE TOKENS ===================== */

func (s *SessionIssuer) Issue(now time.Time, subjectID int64, isStaff bool) (TokenPair, error) {
	if subjectID <= 0 {
		return TokenPair{}, fmt.Errorf("auth: invalid subject id %d", subjectID)
	}
	now = truncateSeconds(now)

	access, err := s.codec.Encode(Claims{
		SubjectID: subjectID,
		CreatedAt: now,
		IsRefresh: false,
		IsStaff:   boolPtr(isStaff),
		ExpiresAt: now.Add(s.accessTTL),
	})
	if err != nil {
		return TokenPair{}, err
	}

	// Refresh tokens carry no staff flag; it is re-read from the store on use.
	refreshClaims := Claims{
		SubjectID: subjectID,
		CreatedAt: now,
		IsRefresh: true,
	}
	if s.refreshTTL > 0 {
		refreshClaims.ExpiresAt = now.Add(s.refreshTTL)
	}
	refresh, err := s.codec.Encode(refreshClaims)
	if err != nil {
		return TokenPair{}, err
	}

	return TokenPair{Token: access, RefreshToken: refresh}, nil
}

/* ===================== REFRESH ===================== */

func (s *SessionIssuer) Refresh(ctx context.Context, refreshToken string, now time.Time) (TokenPair, error) {
	claims, err := s.codec.Decode(refreshToken, now)
	if err != nil {
		return TokenPair{}, err
	}
	if !claims.IsRefresh {
		return TokenPair{}, ErrNotARefreshToken
	}

	isStaff, err := s.users.GetUserStaffFlag(ctx, claims.SubjectID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return TokenPair{}, ErrUnknownSubject
		}
		return TokenPair{}, fmt.Errorf("auth: staff lookup: %w", err)
	}
	return s.Issue(now, claims.SubjectID, isStaff)
}

/* ===================== VERIFY ===================== */

// VerifyAccess decodes an access token; refresh tokens are rejected.
func (s *SessionIssuer) VerifyAccess(token string, now time.Time) (Claims, error) {
	claims, err := s.codec.Decode(token, now)
	if err != nil {
		return Claims{}, err
	}
	if claims.IsRefresh {
		return Claims{}, ErrNotARefreshToken
	}
	return claims, nil
}
