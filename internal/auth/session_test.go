package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"weeklychef/internal/config"
	"weeklychef/internal/store"
)

type fakeStaff struct {
	flags map[int64]bool
	err   error
}

func (f *fakeStaff) GetUserStaffFlag(_ context.Context, userID int64) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	v, ok := f.flags[userID]
	if !ok {
		return false, store.ErrNotFound
	}
	return v, nil
}

func testSessions(t *testing.T, users StaffLookup) *SessionIssuer {
	t.Helper()
	cfg := config.AuthConfig{JWTSecret: "secret", JWTIssuer: "weeklychef"}
	codec, err := NewCodec(cfg)
	if err != nil {
		t.Fatalf("codec: %v", err)
	}
	s, err := NewSessionIssuer(codec, users, cfg)
	if err != nil {
		t.Fatalf("sessions: %v", err)
	}
	return s
}

func TestIssue_AccessAndRefreshClaims(t *testing.T) {
	s := testSessions(t, &fakeStaff{})
	now := time.Unix(1700000000, 0).UTC()

	pair, err := s.Issue(now, 5, true)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	access, err := s.Codec().Decode(pair.Token, now)
	if err != nil {
		t.Fatalf("decode access: %v", err)
	}
	if access.IsRefresh || !access.Staff() || access.SubjectID != 5 {
		t.Fatalf("unexpected access claims: %+v", access)
	}
	if !access.ExpiresAt.Equal(now.Add(30 * 24 * time.Hour)) {
		t.Fatalf("expected 30 day expiry, got %v", access.ExpiresAt)
	}

	refresh, err := s.Codec().Decode(pair.RefreshToken, now)
	if err != nil {
		t.Fatalf("decode refresh: %v", err)
	}
	if !refresh.IsRefresh || refresh.IsStaff != nil || !refresh.ExpiresAt.IsZero() {
		t.Fatalf("unexpected refresh claims: %+v", refresh)
	}
}

func TestIssue_OptInRefreshExpiry(t *testing.T) {
	cfg := config.AuthConfig{JWTSecret: "secret", JWTIssuer: "weeklychef", AccessTokenTTL: time.Hour, RefreshTokenTTL: 48 * time.Hour}
	codec, _ := NewCodec(cfg)
	s, _ := NewSessionIssuer(codec, &fakeStaff{}, cfg)
	now := time.Unix(1700000000, 0).UTC()

	pair, _ := s.Issue(now, 1, false)
	refresh, err := codec.Decode(pair.RefreshToken, now)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !refresh.ExpiresAt.Equal(now.Add(48 * time.Hour)) {
		t.Fatalf("expected refresh exp, got %v", refresh.ExpiresAt)
	}
}

func TestTokenKindSeparation(t *testing.T) {
	users := &fakeStaff{flags: map[int64]bool{1: false}}
	s := testSessions(t, users)
	now := time.Unix(1700000000, 0).UTC()
	pair, _ := s.Issue(now, 1, false)

	if _, err := s.VerifyAccess(pair.RefreshToken, now); !errors.Is(err, ErrNotARefreshToken) {
		t.Fatalf("refresh as access: expected ErrNotARefreshToken, got %v", err)
	}
	if _, err := s.Refresh(context.Background(), pair.Token, now); !errors.Is(err, ErrNotARefreshToken) {
		t.Fatalf("access as refresh: expected ErrNotARefreshToken, got %v", err)
	}
	if _, err := s.VerifyAccess(pair.Token, now); err != nil {
		t.Fatalf("access should verify: %v", err)
	}
}

func TestRefresh_RederivesStaffFlag(t *testing.T) {
	users := &fakeStaff{flags: map[int64]bool{9: false}}
	s := testSessions(t, users)
	now := time.Unix(1700000000, 0).UTC()

	pair, _ := s.Issue(now, 9, false)

	// promoted after issuance
	users.flags[9] = true

	later := now.Add(time.Hour)
	next, err := s.Refresh(context.Background(), pair.RefreshToken, later)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	claims, err := s.VerifyAccess(next.Token, later)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !claims.Staff() || claims.SubjectID != 9 {
		t.Fatalf("expected staff access token for 9, got %+v", claims)
	}
}

func TestRefresh_UnknownSubject(t *testing.T) {
	s := testSessions(t, &fakeStaff{flags: map[int64]bool{}})
	now := time.Unix(1700000000, 0).UTC()
	pair, _ := s.Issue(now, 3, false)

	if _, err := s.Refresh(context.Background(), pair.RefreshToken, now); !errors.Is(err, ErrUnknownSubject) {
		t.Fatalf("expected ErrUnknownSubject, got %v", err)
	}
}

func TestRefresh_StoreFailureIsWrapped(t *testing.T) {
	boom := errors.New("boom")
	s := testSessions(t, &fakeStaff{err: boom})
	now := time.Unix(1700000000, 0).UTC()
	pair, _ := s.Issue(now, 3, false)

	_, err := s.Refresh(context.Background(), pair.RefreshToken, now)
	if !errors.Is(err, boom) || errors.Is(err, ErrUnknownSubject) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
}

func TestIssue_RejectsInvalidSubject(t *testing.T) {
	s := testSessions(t, &fakeStaff{})
	if _, err := s.Issue(time.Now(), 0, false); err == nil {
		t.Fatalf("expected error for subject 0")
	}
}

func TestIssue_SubSecondNowIsTruncated(t *testing.T) {
	s := testSessions(t, &fakeStaff{flags: map[int64]bool{1: false}})
	now := time.Unix(1700000000, 500_000_000).UTC()

	pair, err := s.Issue(now, 1, false)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	cl, err := s.VerifyAccess(pair.Token, now)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	want := now.Truncate(time.Second)
	if !cl.CreatedAt.Equal(want) || !cl.ExpiresAt.Equal(want.Add(30*24*time.Hour)) {
		t.Fatalf("unexpected times iat=%v exp=%v", cl.CreatedAt, cl.ExpiresAt)
	}
}
