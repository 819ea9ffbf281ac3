package permission

import (
	"context"
	"errors"
	"fmt"

	"weeklychef/internal/catalog"
	"weeklychef/internal/store"
)

// Target identifies what a request acts on: a row id, a create payload, or both.
type Target struct {
	ID      int64
	HasID   bool
	Payload map[string]any
}

func ByID(id int64) Target { return Target{ID: id, HasID: true} }

func WithPayload(payload map[string]any) Target { return Target{Payload: payload} }

// Owner is the resolved owner. Known is false for families without an owner concept.
type Owner struct {
	UserID int64
	Known  bool
}

var NoOwnerConcept = Owner{}

// A chain longer than this means the policy table is misconfigured.
const maxHops = 3

// OwnershipResolver maps a request to the user owning the targeted row.
// Lookups dispatch on the family policy, never on the request path.
type OwnershipResolver struct {
	rows     store.Reader
	policies Policies
}

func NewOwnershipResolver(rows store.Reader, policies Policies) *OwnershipResolver {
	if policies == nil {
		policies = DefaultPolicies()
	}
	return &OwnershipResolver{rows: rows, policies: policies}
}

func (r *OwnershipResolver) ResolveOwner(ctx context.Context, family catalog.Family, verb Verb, t Target) (Owner, error) {
	p, ok := r.policies[family]
	if !ok {
		return Owner{}, fmt.Errorf("permission: no policy for family %q", family)
	}
	if p.Strategy == StrategyNone {
		return NoOwnerConcept, nil
	}

	if verb == VerbCreate {
		return r.ownerFromPayload(ctx, p, t.Payload)
	}

	if !t.HasID {
		if verb == VerbRead {
			return Owner{}, ErrUnsupportedOperation
		}
		return Owner{}, &MissingFieldError{Field: "id"}
	}

	row, err := r.load(ctx, family, t.ID)
	if err != nil {
		return Owner{}, err
	}
	return r.ownerOfRow(ctx, p, row, 1)
}

func (r *OwnershipResolver) ownerFromPayload(ctx context.Context, p Policy, payload map[string]any) (Owner, error) {
	raw, present := payload[p.PayloadField]
	if !present {
		return Owner{}, &MissingFieldError{Field: p.PayloadField}
	}
	id, ok := catalog.ToInt64(raw)
	if !ok || id <= 0 {
		return Owner{}, &MissingFieldError{Field: p.PayloadField}
	}

	if p.Strategy == StrategyDirect {
		return Owner{UserID: id, Known: true}, nil
	}

	parent, err := r.load(ctx, p.Parent, id)
	if err != nil {
		return Owner{}, err
	}
	pp, ok := r.policies[p.Parent]
	if !ok {
		return Owner{}, fmt.Errorf("permission: no policy for parent family %q", p.Parent)
	}
	return r.ownerOfRow(ctx, pp, parent, 1)
}

func (r *OwnershipResolver) ownerOfRow(ctx context.Context, p Policy, row catalog.Row, hops int) (Owner, error) {
	switch p.Strategy {
	case StrategyDirect:
		uid, ok := row.Int64(p.OwnerColumn)
		if !ok {
			return Owner{}, ErrOrphaned
		}
		return Owner{UserID: uid, Known: true}, nil

	case StrategyIndirect, StrategyViaSecondary:
		if hops >= maxHops {
			return Owner{}, fmt.Errorf("permission: ownership chain for %q exceeds %d hops", p.Family, maxHops)
		}
		parentID, ok := row.Int64(p.ParentColumn)
		if !ok {
			return Owner{}, ErrOrphaned
		}
		parent, err := r.load(ctx, p.Parent, parentID)
		if err != nil {
			return Owner{}, err
		}
		pp, ok := r.policies[p.Parent]
		if !ok {
			return Owner{}, fmt.Errorf("permission: no policy for parent family %q", p.Parent)
		}
		return r.ownerOfRow(ctx, pp, parent, hops+1)

	default:
		return NoOwnerConcept, nil
	}
}

func (r *OwnershipResolver) load(ctx context.Context, family catalog.Family, id int64) (catalog.Row, error) {
	row, err := r.rows.GetByID(ctx, family, id)
	if errors.Is(err, store.ErrNotFound) {
		return catalog.Row{}, &NotFoundError{Family: family, ID: id}
	}
	if err != nil {
		return catalog.Row{}, fmt.Errorf("permission: load %s %d: %w", family, id, err)
	}
	return row, nil
}
