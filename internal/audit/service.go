package audit

import (
	"context"
	"errors"
	"time"

	"weeklychef/internal/auth"
	"weeklychef/internal/permission"

	"github.com/google/uuid"
)

// Repository is the persistence contract for audit events.
// It is append-only; there are no Update or Delete methods.
type Repository interface {
	Append(ctx context.Context, e Event) error
}

// Service records security relevant permission decisions.
// Callers should treat audit logging as best-effort.
type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

var ErrInvalidEvent = errors.New("audit: invalid event")

func (s *Service) Append(ctx context.Context, e Event) error {
	if s.repo == nil {
		return errors.New("audit: repository not configured")
	}
	if e.Type == "" || e.Family == "" || e.Verb == "" {
		return ErrInvalidEvent
	}

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.clock().UTC()
	}
	return s.repo.Append(ctx, e)
}

// RecordDecision appends an event for staff mutations and for denials.
// Other decisions are not recorded. It reports whether an event was written.
func (s *Service) RecordDecision(ctx context.Context, actor auth.Identity, ip string, d permission.Decision, targetID int64) (bool, error) {
	var typ EventType
	switch {
	case !d.Allowed:
		typ = EventTypeDenied
	case d.Reason == permission.ReasonStaffBypass && d.Verb.Mutating():
		typ = EventTypeStaffBypass
	default:
		return false, nil
	}

	uid, _ := actor.ID()
	e := Event{
		Type:        typ,
		ActorUserID: uid,
		ActorStaff:  actor.IsStaff(),
		IPAddress:   ip,
		Family:      string(d.Family),
		Verb:        string(d.Verb),
		TargetID:    targetID,
		Reason:      string(d.Reason),
	}
	if d.Err != nil {
		e.Message = d.Err.Error()
	}
	if err := s.Append(ctx, e); err != nil {
		return false, err
	}
	return true, nil
}
