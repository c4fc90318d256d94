// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Trailhead Contributors

package policy

import (
	"context"
	"errors"

	"github.com/samber/oops"

	"github.com/trailhead/trailhead/internal/identity"
)

// ErrUnauthorized is returned when a policy rejects the caller.
var ErrUnauthorized = errors.New("unauthorized")

// Request is the scratch space threaded through one chain invocation.
// Body is the mutable create/update payload, empty for read operations.
type Request struct {
	Identity identity.Identity
	Body     map[string]any
	Scope    Scope
}

// Policy inspects the caller and accumulates constraints on the request.
// Policies are pure with respect to the store except where documented
// (FilterOwnerOrLeaderOfOwner resolves the leader's unit roster).
type Policy func(ctx context.Context, req *Request) error

// Chain is an ordered policy set applied left to right.
type Chain []Policy

// Run evaluates the chain over a fresh Request. A nil body is normalized to
// an empty map so override policies always have somewhere to write; the
// payload appliers then report missing required fields as bad requests.
// The first rejecting policy halts evaluation; no partially applied scope
// is returned on failure.
func (c Chain) Run(ctx context.Context, ident identity.Identity, body map[string]any) (*Request, error) {
	if body == nil {
		body = map[string]any{}
	}
	req := &Request{Identity: ident, Body: body}
	for _, p := range c {
		if err := p(ctx, req); err != nil {
			return nil, err
		}
	}
	return req, nil
}

// reject records the rejection and returns a coded unauthorized error.
func reject(policyName string) error {
	policyRejections.WithLabelValues(policyName).Inc()
	return oops.Code("UNAUTHORIZED").With("policy", policyName).Wrap(ErrUnauthorized)
}

// FilterRoles rejects callers whose role is not in the allowed set.
func FilterRoles(allowed ...identity.Role) Policy {
	return func(_ context.Context, req *Request) error {
		for _, r := range allowed {
			if req.Identity.Role == r {
				return nil
			}
		}
		return reject("filter_roles")
	}
}

// FilterUnit scopes reads and targeted writes to the caller's unit.
// Admins are exempt; everyone else must carry a unit.
func FilterUnit(key string) Policy {
	return func(_ context.Context, req *Request) error {
		switch req.Identity.Role {
		case identity.RoleAdmin:
			return nil
		case identity.RoleScout, identity.RoleLeader:
			unitID, ok := req.Identity.Unit()
			if !ok {
				return reject("filter_unit")
			}
			req.Scope.WhereEq(key, unitID)
			return nil
		default:
			return reject("filter_unit")
		}
	}
}

// AppendUnit forces the caller's unit id into the payload so that non-admin
// writes always land in the caller's own unit.
func AppendUnit() Policy {
	return func(_ context.Context, req *Request) error {
		switch req.Identity.Role {
		case identity.RoleAdmin:
			return nil
		case identity.RoleScout, identity.RoleLeader:
			unitID, ok := req.Identity.Unit()
			if !ok {
				return reject("append_unit")
			}
			req.Scope.Override(KeyUnitID, unitID)
			return nil
		default:
			return reject("append_unit")
		}
	}
}

// FilterOwner scopes non-admin reads to rows owned by the caller.
func FilterOwner(key string) Policy {
	return func(_ context.Context, req *Request) error {
		if req.Identity.IsAdmin() {
			return nil
		}
		req.Scope.WhereEq(key, req.Identity.UserID)
		return nil
	}
}

// AppendUser forces the caller's user id into the payload.
func AppendUser(key string) Policy {
	return func(_ context.Context, req *Request) error {
		req.Scope.Override(key, req.Identity.UserID)
		return nil
	}
}

// UserDirectory resolves unit membership for leader-scoped reads.
type UserDirectory interface {
	// UnitMemberIDs returns the ids of all users belonging to the unit.
	UnitMemberIDs(ctx context.Context, unitID int64) ([]int64, error)
}

// FilterOwnerOrLeaderOfOwner scopes reads of user-owned records:
// scouts see their own rows, leaders see rows owned by any member of their
// unit (one directory lookup), admins see everything.
func FilterOwnerOrLeaderOfOwner(dir UserDirectory) Policy {
	return func(ctx context.Context, req *Request) error {
		switch req.Identity.Role {
		case identity.RoleAdmin:
			return nil
		case identity.RoleScout:
			req.Scope.WhereEq(KeyUserID, req.Identity.UserID)
			return nil
		case identity.RoleLeader:
			unitID, ok := req.Identity.Unit()
			if !ok {
				return reject("filter_owner_or_leader_of_owner")
			}
			memberIDs, err := dir.UnitMemberIDs(ctx, unitID)
			if err != nil {
				// A failed roster lookup must not widen visibility.
				policyRejections.WithLabelValues("filter_owner_or_leader_of_owner").Inc()
				return oops.Code("UNAUTHORIZED").
					With("policy", "filter_owner_or_leader_of_owner").
					With("unit_id", unitID).
					With("cause", err.Error()).
					Wrap(ErrUnauthorized)
			}
			req.Scope.WhereIn(KeyUserID, memberIDs)
			return nil
		default:
			return reject("filter_owner_or_leader_of_owner")
		}
	}
}

// OnlyPublishedToScouts hides unpublished quests from scouts.
// Leaders and admins see drafts; an unknown role fails closed.
func OnlyPublishedToScouts() Policy {
	return func(_ context.Context, req *Request) error {
		switch req.Identity.Role {
		case identity.RoleScout:
			req.Scope.WhereEq(KeyPublished, true)
			return nil
		case identity.RoleLeader, identity.RoleAdmin:
			return nil
		default:
			return reject("only_published_to_scouts")
		}
	}
}

// OnlyPublicToLeaders restricts the catalog to public items for everyone
// but admins.
func OnlyPublicToLeaders() Policy {
	return func(_ context.Context, req *Request) error {
		if req.Identity.IsAdmin() {
			return nil
		}
		req.Scope.WhereEq(KeyType, "public")
		return nil
	}
}

// StripNestedObjects removes object- and array-typed fields from the
// payload before it reaches the store, so clients cannot smuggle nested
// association writes through a create or update. It is a sanitizer, not an
// authorization policy; endpoints compose it in the same chain.
func StripNestedObjects() Policy {
	return func(_ context.Context, req *Request) error {
		for k, v := range req.Body {
			switch v.(type) {
			case map[string]any, []any, []map[string]any:
				delete(req.Body, k)
			}
		}
		return nil
	}
}
