// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Trailhead Contributors

package hunt

import (
	"errors"
	"fmt"
)

// Sentinel errors shared by repositories and services.
var (
	// ErrNotFound is returned when an entity is absent or outside the
	// caller's visible scope. The two cases are intentionally
	// indistinguishable so out-of-scope records do not leak existence.
	ErrNotFound = errors.New("not found")

	// ErrDuplicate is returned when a store uniqueness constraint rejects
	// a write, e.g. a concurrent first start racing on the same quest run.
	ErrDuplicate = errors.New("duplicate record")

	// ErrBadRequest is returned when a required input field is missing
	// or malformed.
	ErrBadRequest = errors.New("bad request")
)

// ValidationError represents an input validation failure for one field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Unwrap lets callers match validation failures as bad requests.
func (e *ValidationError) Unwrap() error {
	return ErrBadRequest
}
