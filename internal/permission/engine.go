package permission

import (
	"context"
	"errors"
	"fmt"

	"weeklychef/internal/auth"
	"weeklychef/internal/catalog"
)

// DecisionObserver sees every decision the engine makes. May be nil.
type DecisionObserver interface {
	ObserveDecision(d Decision)
}

// Owners resolves the owner of a request target.
type Owners interface {
	ResolveOwner(ctx context.Context, family catalog.Family, verb Verb, t Target) (Owner, error)
}

// Engine decides whether an identity may apply a verb to a family target.
// It keeps no state between calls.
type Engine struct {
	policies Policies
	owners   Owners
	observer DecisionObserver
}

func NewEngine(policies Policies, owners Owners, observer DecisionObserver) *Engine {
	if policies == nil {
		policies = DefaultPolicies()
	}
	return &Engine{policies: policies, owners: owners, observer: observer}
}

// Check returns an error only when ownership could not be determined because
// of an infrastructure failure. Every other outcome is a Decision.
func (e *Engine) Check(ctx context.Context, id auth.Identity, family catalog.Family, verb Verb, t Target) (Decision, error) {
	d, err := e.decide(ctx, id, family, verb, t)
	if err != nil {
		return Decision{}, err
	}
	if e.observer != nil {
		e.observer.ObserveDecision(d)
	}
	return d, nil
}

func (e *Engine) decide(ctx context.Context, id auth.Identity, family catalog.Family, verb Verb, t Target) (Decision, error) {
	allow := func(r Reason) Decision {
		return Decision{Family: family, Verb: verb, Allowed: true, Reason: r}
	}
	deny := func(r Reason, err error) Decision {
		return Decision{Family: family, Verb: verb, Reason: r, Err: err}
	}

	p, ok := e.policies[family]
	if !ok {
		return Decision{}, fmt.Errorf("permission: no policy for family %q", family)
	}

	if !id.IsAuthenticated() {
		return deny(ReasonUnauthenticated, nil), nil
	}
	if id.IsStaff() {
		return allow(ReasonStaffBypass), nil
	}
	if !p.Supports(verb) {
		return deny(ReasonUnsupported, ErrUnsupportedOperation), nil
	}

	if p.Strategy == StrategyNone {
		if verb == VerbRead {
			return allow(ReasonOpenRead), nil
		}
		return deny(ReasonStaffRequired, nil), nil
	}
	if p.staffOnly(verb) {
		return deny(ReasonStaffRequired, nil), nil
	}
	if verb == VerbRead && !p.GateReads {
		return allow(ReasonOpenRead), nil
	}

	uid, _ := id.ID()

	owner, err := e.owners.ResolveOwner(ctx, family, verb, t)
	if err != nil {
		return denyResolveError(family, verb, err)
	}
	if !owner.Known || owner.UserID != uid {
		return deny(ReasonNotOwner, nil), nil
	}

	// An update may also move the row: the owner it would have afterwards
	// must be the caller too.
	if verb == VerbUpdate && p.PayloadField != "" {
		if _, moves := t.Payload[p.PayloadField]; moves {
			next, err := e.owners.ResolveOwner(ctx, family, VerbCreate, WithPayload(t.Payload))
			if err != nil {
				return denyResolveError(family, verb, err)
			}
			if !next.Known || next.UserID != uid {
				return deny(ReasonNotOwner, nil), nil
			}
		}
	}
	return allow(ReasonOwner), nil
}

// denyResolveError turns an ownership failure into a denial. Infrastructure
// failures are returned as errors.
func denyResolveError(family catalog.Family, verb Verb, err error) (Decision, error) {
	var r Reason
	switch {
	case errors.Is(err, ErrMissingField):
		r = ReasonMissingField
	case errors.Is(err, ErrNotFound):
		r = ReasonNotFound
	case errors.Is(err, ErrUnsupportedOperation):
		r = ReasonUnsupported
	case errors.Is(err, ErrOrphaned):
		r = ReasonNotOwner
	default:
		return Decision{}, err
	}
	return Decision{Family: family, Verb: verb, Reason: r, Err: err}, nil
}
