package auth

import (
	"errors"
	"log/slog"
	"strings"
	"time"
)

// Identity is the caller as seen by the permission layer. It is built once
// per request and never changes afterwards.
type Identity struct {
	id    int64
	staff bool
}

func NewIdentity(id int64, isStaff bool) Identity {
	if id <= 0 {
		return Anonymous()
	}
	return Identity{id: id, staff: isStaff}
}

func Anonymous() Identity { return Identity{} }

func (i Identity) ID() (int64, bool) { return i.id, i.id > 0 }

func (i Identity) IsStaff() bool { return i.id > 0 && i.staff }

func (i Identity) IsAuthenticated() bool { return i.id > 0 }

// Resolve outcomes, used as metric labels.
const (
	OutcomeAuthenticated    = "authenticated"
	OutcomeMissing          = "missing"
	OutcomeMalformedHeader  = "malformed_header"
	OutcomeMalformedToken   = "malformed_token"
	OutcomeInvalidSignature = "invalid_signature"
	OutcomeExpired          = "expired"
	OutcomeRefreshToken     = "refresh_token"
)

// ResolveObserver is notified once per resolution. May be nil.
type ResolveObserver interface {
	ObserveIdentity(outcome string)
}

const bearerPrefix = "Bearer "

// Resolver turns an Authorization header into an Identity.
type Resolver struct {
	sessions *SessionIssuer
	log      *slog.Logger
	observer ResolveObserver
	now      func() time.Time
}

func NewResolver(sessions *SessionIssuer, log *slog.Logger, observer ResolveObserver) *Resolver {
	if log == nil {
		log = slog.Default()
	}
	return &Resolver{sessions: sessions, log: log, observer: observer, now: time.Now}
}

// Resolve never fails: every authentication problem degrades to Anonymous.
func (r *Resolver) Resolve(header string) Identity {
	id, outcome := r.resolve(header)
	if r.observer != nil {
		r.observer.ObserveIdentity(outcome)
	}
	if outcome != OutcomeAuthenticated && outcome != OutcomeMissing {
		r.log.Debug("bearer token rejected", "outcome", outcome)
	}
	return id
}

func (r *Resolver) resolve(header string) (Identity, string) {
	if header == "" {
		return Anonymous(), OutcomeMissing
	}
	if !strings.HasPrefix(header, bearerPrefix) {
		return Anonymous(), OutcomeMalformedHeader
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))
	if token == "" {
		return Anonymous(), OutcomeMalformedHeader
	}

	claims, err := r.sessions.VerifyAccess(token, r.now())
	switch {
	case err == nil:
		return NewIdentity(claims.SubjectID, claims.Staff()), OutcomeAuthenticated
	case errors.Is(err, ErrExpired):
		return Anonymous(), OutcomeExpired
	case errors.Is(err, ErrInvalidSignature):
		return Anonymous(), OutcomeInvalidSignature
	case errors.Is(err, ErrNotARefreshToken):
		return Anonymous(), OutcomeRefreshToken
	default:
		return Anonymous(), OutcomeMalformedToken
	}
}
