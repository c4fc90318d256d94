// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Trailhead Contributors

package hunt

import (
	"time"

	"github.com/trailhead/trailhead/internal/identity"
)

// Login lockout parameters.
const (
	// LockoutThreshold is the failed attempt count that triggers a lockout.
	LockoutThreshold = 5
	// LockoutDuration is how long an account stays locked.
	LockoutDuration = 15 * time.Minute
)

// User is an account belonging to at most one unit.
// Scouts and leaders always carry a unit; admins may not.
type User struct {
	ID             int64
	UnitID         *int64
	Role           identity.Role
	Name           string
	Email          string
	PasswordHash   string
	FailedAttempts int
	LockedUntil    *time.Time
	CreatedAt      time.Time
}

// Identity derives the request identity for this user.
func (u *User) Identity() (identity.Identity, error) {
	return identity.New(u.ID, u.Role, u.UnitID)
}

// IsLocked reports whether the account is currently locked out.
func (u *User) IsLocked() bool {
	return u.LockedUntil != nil && time.Now().Before(*u.LockedUntil)
}

// RecordFailure increments the failure counter and arms the lockout once
// the threshold is reached.
func (u *User) RecordFailure() {
	u.FailedAttempts++
	if u.FailedAttempts >= LockoutThreshold {
		until := time.Now().Add(LockoutDuration)
		u.LockedUntil = &until
	}
}

// RecordSuccess resets the failure counter and lockout.
func (u *User) RecordSuccess() {
	u.FailedAttempts = 0
	u.LockedUntil = nil
}
