// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Trailhead Contributors

// Package errutil provides helpers for logging and classifying errors.
package errutil

import (
	"log/slog"

	"github.com/samber/oops"
)

// LogError logs an error with structured context.
// For oops errors the code and context attributes are extracted; standard
// errors are logged as a plain string.
func LogError(logger *slog.Logger, msg string, err error) {
	if oopsErr, ok := oops.AsOops(err); ok {
		attrs := []any{
			"error", oopsErr.Error(),
		}
		if code := oopsErr.Code(); code != nil {
			attrs = append(attrs, "code", code)
		}
		if ctx := oopsErr.Context(); len(ctx) > 0 {
			attrs = append(attrs, "context", ctx)
		}
		logger.Error(msg, attrs...)
	} else {
		logger.Error(msg, "error", err)
	}
}

// Code returns the oops error code attached to err, or "" when err is not
// a coded error. Presentation layers map codes to their status taxonomy
// (UNAUTHORIZED, *_NOT_FOUND, BAD_REQUEST, everything else a server error).
func Code(err error) string {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return ""
	}
	if code, ok := oopsErr.Code().(string); ok {
		return code
	}
	return ""
}
