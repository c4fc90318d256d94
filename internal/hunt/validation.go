// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Trailhead Contributors

package hunt

import (
	"fmt"
	"net/mail"
	"unicode/utf8"
)

// Validation limits for domain types.
const (
	MaxNameLength        = 100
	MaxDescriptionLength = 2000
	MaxTimeLimitMinutes  = 24 * 60
)

// ValidateName checks that a display name is usable: non-empty, valid
// UTF-8, no control characters, within the length limit.
func ValidateName(name string) error {
	if name == "" {
		return &ValidationError{Field: "name", Message: "cannot be empty"}
	}
	if !utf8.ValidString(name) {
		return &ValidationError{Field: "name", Message: "must be valid UTF-8"}
	}
	if len(name) > MaxNameLength {
		return &ValidationError{Field: "name", Message: fmt.Sprintf("exceeds maximum length of %d", MaxNameLength)}
	}
	for _, r := range name {
		if r < 0x20 || r == 0x7f {
			return &ValidationError{Field: "name", Message: "cannot contain control characters"}
		}
	}
	return nil
}

// ValidateDescription checks an optional description field.
func ValidateDescription(desc string) error {
	if len(desc) > MaxDescriptionLength {
		return &ValidationError{Field: "description", Message: fmt.Sprintf("exceeds maximum length of %d", MaxDescriptionLength)}
	}
	if !utf8.ValidString(desc) {
		return &ValidationError{Field: "description", Message: "must be valid UTF-8"}
	}
	return nil
}

// ValidateEmail checks an account email address.
func ValidateEmail(email string) error {
	if email == "" {
		return &ValidationError{Field: "email", Message: "cannot be empty"}
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return &ValidationError{Field: "email", Message: "is not a valid address"}
	}
	return nil
}

// ValidateTimeLimit checks a quest time limit in minutes.
func ValidateTimeLimit(minutes int) error {
	if minutes <= 0 {
		return &ValidationError{Field: "time_limit", Message: "must be positive"}
	}
	if minutes > MaxTimeLimitMinutes {
		return &ValidationError{Field: "time_limit", Message: fmt.Sprintf("exceeds maximum of %d minutes", MaxTimeLimitMinutes)}
	}
	return nil
}

// ValidateLocation checks a placement coordinate.
func ValidateLocation(p *GeoPoint) error {
	if p == nil {
		return nil
	}
	if p.Lon < -180 || p.Lon > 180 {
		return &ValidationError{Field: "location", Message: "longitude out of range"}
	}
	if p.Lat < -90 || p.Lat > 90 {
		return &ValidationError{Field: "location", Message: "latitude out of range"}
	}
	return nil
}
