// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Trailhead Contributors

// Package identity defines the authenticated caller model for Trailhead.
//
// An Identity is derived once per request from a verified credential and is
// immutable for the request's lifetime. Every policy and every progression
// operation receives the caller's Identity; nothing downstream re-derives it.
package identity

import "fmt"

// Role is the closed set of caller roles. Adding a role requires updating
// every switch over Role; policies fail closed on unknown values.
type Role string

// Role constants define the valid caller roles.
const (
	RoleScout  Role = "scout"
	RoleLeader Role = "leader"
	RoleAdmin  Role = "admin"
)

// Validate returns an error if the role is not one of the known variants.
func (r Role) Validate() error {
	switch r {
	case RoleScout, RoleLeader, RoleAdmin:
		return nil
	default:
		return fmt.Errorf("identity: unknown role %q", string(r))
	}
}

// String returns the underlying string value for serialization.
func (r Role) String() string {
	return string(r)
}

// ParseRole converts a stored role string into a Role.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if err := r.Validate(); err != nil {
		return "", err
	}
	return r, nil
}

// Identity is the authenticated caller for one request.
// UnitID is nil for admins that belong to no unit.
type Identity struct {
	UserID int64
	Role   Role
	UnitID *int64
}

// New creates a validated Identity.
// Scouts and leaders must carry a unit; admins may omit it.
func New(userID int64, role Role, unitID *int64) (Identity, error) {
	if err := role.Validate(); err != nil {
		return Identity{}, err
	}
	if userID <= 0 {
		return Identity{}, fmt.Errorf("identity: user id must be positive, got %d", userID)
	}
	if unitID == nil && role != RoleAdmin {
		return Identity{}, fmt.Errorf("identity: role %s requires a unit", role)
	}
	return Identity{UserID: userID, Role: role, UnitID: unitID}, nil
}

// IsAdmin reports whether the caller is exempt from unit scoping.
func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

// Unit returns the caller's unit id and whether one is set.
func (i Identity) Unit() (int64, bool) {
	if i.UnitID == nil {
		return 0, false
	}
	return *i.UnitID, true
}
