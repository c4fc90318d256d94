// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Trailhead Contributors

package auth

import (
	"context"
	"errors"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/trailhead/trailhead/internal/hunt"
	"github.com/trailhead/trailhead/internal/identity"
	"github.com/trailhead/trailhead/internal/policy"
)

// Service provides credential verification and session management.
type Service struct {
	users    hunt.UserRepository
	sessions SessionRepository
	hasher   PasswordHasher
}

// NewService creates a new Service.
func NewService(users hunt.UserRepository, sessions SessionRepository, hasher PasswordHasher) *Service {
	return &Service{
		users:    users,
		sessions: sessions,
		hasher:   hasher,
	}
}

// dummyPasswordHash is used when a user doesn't exist to prevent timing attacks.
// We still run password verification to make response time consistent.
// This is NOT a real credential - it's a fake hash that will never match any password.
//
//nolint:gosec // G101: This is an intentionally fake hash for timing attack prevention, not a credential.
const dummyPasswordHash = "$argon2id$v=19$m=65536,t=1,p=4$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

// Login authenticates a user by email and creates a session.
// Returns the session, the plaintext token, and the caller identity.
// Uses constant-time operations to prevent timing-based email enumeration.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, string, identity.Identity, error) {
	user, lookupErr := s.users.GetByEmail(ctx, email)

	// Determine which hash to verify against (real or dummy for timing attack prevention)
	var targetHash string
	var userExists bool

	if lookupErr != nil {
		if errors.Is(lookupErr, hunt.ErrNotFound) {
			// Use dummy hash - still perform verification to maintain constant time
			targetHash = dummyPasswordHash
			userExists = false
		} else {
			return nil, "", identity.Identity{}, oops.Code("AUTH_LOGIN_FAILED").
				With("operation", "get user by email").
				Wrap(lookupErr)
		}
	} else {
		targetHash = user.PasswordHash
		userExists = true
	}

	// Always verify password (constant-time operation for timing attack prevention)
	valid, verifyErr := s.hasher.Verify(password, targetHash)
	if verifyErr != nil {
		// For dummy hash verification errors, just treat as invalid
		if !userExists {
			return nil, "", identity.Identity{}, oops.Code("AUTH_INVALID_CREDENTIALS").Wrap(ErrInvalidCredentials)
		}
		return nil, "", identity.Identity{}, oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "verify password").
			Wrap(verifyErr)
	}

	// If the user doesn't exist OR the password is invalid, return the same error
	if !userExists || !valid {
		if userExists {
			// Record failure only for existing users
			user.RecordFailure()
			_ = s.users.Update(ctx, user) //nolint:errcheck // Best effort
		}
		return nil, "", identity.Identity{}, oops.Code("AUTH_INVALID_CREDENTIALS").Wrap(ErrInvalidCredentials)
	}

	// Check lockout AFTER password verification to maintain constant time
	if user.IsLocked() {
		return nil, "", identity.Identity{}, oops.Code("AUTH_ACCOUNT_LOCKED").
			With("locked_until", user.LockedUntil).
			Wrap(ErrAccountLocked)
	}

	// Success - reset the failure counter.
	// Ignore errors - login should succeed even if the update fails.
	user.RecordSuccess()
	_ = s.users.Update(ctx, user) //nolint:errcheck // Best effort, login succeeds regardless

	ident, err := user.Identity()
	if err != nil {
		return nil, "", identity.Identity{}, oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "derive identity").
			Wrap(err)
	}

	token, tokenHash, err := GenerateSessionToken()
	if err != nil {
		return nil, "", identity.Identity{}, oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "generate session token").
			Wrap(err)
	}

	expiresAt := time.Now().Add(SessionTokenExpiry)
	session, err := NewSession(user.ID, tokenHash, expiresAt)
	if err != nil {
		return nil, "", identity.Identity{}, oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "create session").
			Wrap(err)
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, "", identity.Identity{}, oops.Code("AUTH_SESSION_CREATE_FAILED").
			With("operation", "persist session").
			Wrap(err)
	}

	return session, token, ident, nil
}

// Logout invalidates a session.
func (s *Service) Logout(ctx context.Context, sessionID ulid.ULID) error {
	err := s.sessions.Delete(ctx, sessionID)
	if err != nil {
		if errors.Is(err, hunt.ErrNotFound) {
			return oops.Code("SESSION_NOT_FOUND").
				With("session_id", sessionID.String()).
				Wrap(err)
		}
		return oops.Code("AUTH_LOGOUT_FAILED").
			With("operation", "delete session").
			With("session_id", sessionID.String()).
			Wrap(err)
	}
	return nil
}

// Authenticate resolves a session token to the caller identity.
// Also updates the LastSeenAt timestamp.
func (s *Service) Authenticate(ctx context.Context, token string) (identity.Identity, error) {
	if token == "" {
		return identity.Identity{}, oops.Code("SESSION_TOKEN_EMPTY").Wrap(ErrSessionInvalid)
	}

	// Hash the token to look it up
	tokenHash := HashSessionToken(token)

	session, err := s.sessions.GetByTokenHash(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, hunt.ErrNotFound) {
			return identity.Identity{}, oops.Code("SESSION_INVALID").Wrap(ErrSessionInvalid)
		}
		return identity.Identity{}, oops.Code("SESSION_VALIDATE_FAILED").
			With("operation", "get session by token hash").
			Wrap(err)
	}

	if session.IsExpiredAt(time.Now()) {
		return identity.Identity{}, oops.Code("SESSION_EXPIRED").Wrap(ErrSessionInvalid)
	}

	user, err := s.users.Get(ctx, session.UserID, policy.Scope{})
	if err != nil {
		if errors.Is(err, hunt.ErrNotFound) {
			// User deleted since login; the session is dead.
			return identity.Identity{}, oops.Code("SESSION_INVALID").Wrap(ErrSessionInvalid)
		}
		return identity.Identity{}, oops.Code("SESSION_VALIDATE_FAILED").
			With("operation", "get session user").
			With("user_id", session.UserID).
			Wrap(err)
	}

	ident, err := user.Identity()
	if err != nil {
		return identity.Identity{}, oops.Code("SESSION_VALIDATE_FAILED").
			With("operation", "derive identity").
			Wrap(err)
	}

	// Update last seen timestamp (non-blocking, ignore errors)
	_ = s.sessions.UpdateLastSeen(ctx, session.ID, time.Now()) //nolint:errcheck // Best effort, validation succeeds regardless

	return ident, nil
}

// PruneSessions deletes sessions that expired before now and returns the count.
func (s *Service) PruneSessions(ctx context.Context) (int64, error) {
	n, err := s.sessions.DeleteExpired(ctx, time.Now())
	if err != nil {
		return 0, oops.Code("SESSION_PRUNE_FAILED").Wrap(err)
	}
	return n, nil
}
