// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Trailhead Contributors

package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trailhead/trailhead/internal/config"
	"github.com/trailhead/trailhead/pkg/errutil"
)

// execute runs the root command with args and returns stdout and the error.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	errBuf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(errBuf)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return buf.String(), err
}

func TestMigrateCommand_Help(t *testing.T) {
	output, err := execute(t, "migrate", "--help")
	require.NoError(t, err)

	for _, sub := range []string{"up", "down", "steps", "version", "force"} {
		assert.Contains(t, output, sub, "migrate help missing %q action", sub)
	}
}

func TestMigrateCommand_Properties(t *testing.T) {
	cmd := NewMigrateCmd()

	assert.Equal(t, "migrate", cmd.Use)
	assert.Contains(t, cmd.Short, "migration", "Short description should mention migrations")
	assert.Contains(t, cmd.Long, "PostgreSQL", "Long description should mention PostgreSQL")
}

func TestMigrateUp_NoDatabaseURL(t *testing.T) {
	t.Setenv("TRAILHEAD_DATABASE_URL", "")

	_, err := execute(t, "migrate", "up")
	require.Error(t, err, "Expected error when no database URL is configured")
	errutil.AssertErrorCode(t, err, "CONFIG_INVALID")
	assert.Contains(t, err.Error(), "database URL")
}

func TestMigrateUp_UnknownScheme(t *testing.T) {
	// An unknown scheme fails at driver lookup, before any network I/O.
	t.Setenv("TRAILHEAD_DATABASE_URL", "mysql://localhost:3306/trailhead")

	_, err := execute(t, "migrate", "up")
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "MIGRATION_INIT_FAILED")
}

func TestMigrateSteps_InvalidArgument(t *testing.T) {
	t.Setenv("TRAILHEAD_DATABASE_URL", "postgres://localhost:5432/trailhead")

	_, err := execute(t, "migrate", "steps", "two")
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "INVALID_ARGUMENT")
}

func TestMigrateSteps_MissingArgument(t *testing.T) {
	_, err := execute(t, "migrate", "steps")
	require.Error(t, err, "steps requires an argument")
}

func TestMigrateForce_InvalidArgument(t *testing.T) {
	t.Setenv("TRAILHEAD_DATABASE_URL", "postgres://localhost:5432/trailhead")

	_, err := execute(t, "migrate", "force", "latest")
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "INVALID_ARGUMENT")
}

func TestRequireDatabaseURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{
			name:    "empty URL rejected",
			url:     "",
			wantErr: true,
		},
		{
			name:    "configured URL accepted",
			url:     "postgres://localhost:5432/trailhead",
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{}
			cfg.Database.URL = tt.url

			err := requireDatabaseURL(cfg)
			if tt.wantErr {
				require.Error(t, err)
				errutil.AssertErrorCode(t, err, "CONFIG_INVALID")
			} else {
				require.NoError(t, err)
			}
		})
	}
}
