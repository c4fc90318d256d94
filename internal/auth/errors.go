// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Trailhead Contributors

package auth

import "errors"

// ErrInvalidCredentials is returned for a wrong email or password. The two
// cases are deliberately indistinguishable.
var ErrInvalidCredentials = errors.New("invalid email or password")

// ErrAccountLocked is returned while a lockout is armed.
var ErrAccountLocked = errors.New("account is temporarily locked")

// ErrSessionInvalid is returned for an unknown or expired session token.
var ErrSessionInvalid = errors.New("session is invalid or expired")
