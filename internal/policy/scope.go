// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Trailhead Contributors

// Package policy implements the role-scoped data visibility filter chain.
//
// A chain of composable policies runs once per request, before any store
// access, and narrows what the caller can see or write:
//
//   - where constraints restrict reads and targeted writes to rows the
//     caller's role and unit membership permit
//   - body overrides force fields in create/update payloads (a leader can
//     only ever create quests for their own unit, whatever the payload says)
//
// Any policy may halt the chain with ErrUnauthorized; on failure no
// constraint is applied and the store is never touched. The scratch space is
// built fresh per request and handed through the chain by pointer; nothing
// ambient survives the request.
package policy

// Constraint field keys shared by policies and the repositories that compile
// scopes into queries. Values are column names.
const (
	KeyID        = "id"
	KeyUnitID    = "unit_id"
	KeyUserID    = "user_id"
	KeyPublished = "published"
	KeyType      = "type"
)

// Condition constrains one field. Exactly one of Eq or In is set.
type Condition struct {
	// Eq requires the field to equal this value.
	Eq any

	// In requires the field to be a member of this id set.
	In []int64
}

// Scope is the per-request scratch space accumulated by a policy chain.
// The zero value is an unconstrained scope.
type Scope struct {
	where     map[string]Condition
	overrides map[string]any
}

// WhereEq adds an equality constraint for key. A later write for the same
// key wins; endpoints compose policy sets with non-overlapping keys, so a
// collision indicates a miswired chain rather than a merge to resolve.
func (s *Scope) WhereEq(key string, value any) {
	if s.where == nil {
		s.where = make(map[string]Condition)
	}
	s.where[key] = Condition{Eq: value}
}

// WhereIn adds a set membership constraint for key.
func (s *Scope) WhereIn(key string, ids []int64) {
	if s.where == nil {
		s.where = make(map[string]Condition)
	}
	s.where[key] = Condition{In: ids}
}

// Override forces a field value in the create/update payload.
func (s *Scope) Override(key string, value any) {
	if s.overrides == nil {
		s.overrides = make(map[string]any)
	}
	s.overrides[key] = value
}

// Where returns the accumulated constraints. The returned map is shared;
// callers must not mutate it.
func (s *Scope) Where() map[string]Condition {
	return s.where
}

// Condition returns the constraint for key, if any.
func (s *Scope) Condition(key string) (Condition, bool) {
	c, ok := s.where[key]
	return c, ok
}

// ApplyOverrides writes the accumulated body overrides into body,
// replacing any client-supplied values for the same keys.
func (s *Scope) ApplyOverrides(body map[string]any) {
	for k, v := range s.overrides {
		body[k] = v
	}
}

// Overrides returns the accumulated body overrides. The returned map is
// shared; callers must not mutate it.
func (s *Scope) Overrides() map[string]any {
	return s.overrides
}
