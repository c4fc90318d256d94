// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Trailhead Contributors

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trailhead/trailhead/pkg/errutil"
)

const testSeedFile = `
units:
  - name: Falcon Patrol
users:
  - name: Site Admin
    email: admin@example.com
    password: changeme123
    role: admin
quests:
  - name: Spring Hunt
    unit: Falcon Patrol
    time_limit: 60
`

// writeSeedFile writes content to a temp file and returns its path.
func writeSeedFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestSeedCommand_Help(t *testing.T) {
	output, err := execute(t, "seed", "--help")
	require.NoError(t, err)

	assert.Contains(t, output, "--file")
	assert.Contains(t, output, "--timeout")
	assert.Contains(t, output, "idempotent")
}

func TestSeedCommand_NoDatabaseURL(t *testing.T) {
	t.Setenv("TRAILHEAD_DATABASE_URL", "")

	_, err := execute(t, "seed", "--file", writeSeedFile(t, testSeedFile))
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "CONFIG_INVALID")
}

func TestSeedCommand_MissingFile(t *testing.T) {
	t.Setenv("TRAILHEAD_DATABASE_URL", "postgres://localhost:5432/trailhead")

	_, err := execute(t, "seed", "--file", filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "SEED_FILE_UNREADABLE")
}

func TestSeedCommand_InvalidFileRejectedBeforeConnecting(t *testing.T) {
	// Parse failures must surface without touching the database, so a
	// bogus URL never gets dialed.
	t.Setenv("TRAILHEAD_DATABASE_URL", "postgres://localhost:1/unreachable")

	path := writeSeedFile(t, `
users:
  - name: No Email
    password: short
    role: admin
`)

	_, err := execute(t, "seed", "--file", path)
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "SEED_INVALID")
}
