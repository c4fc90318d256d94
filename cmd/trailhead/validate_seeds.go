// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Trailhead Contributors

package main

import (
	"os"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/trailhead/trailhead/internal/seed"
)

// NewValidateSeedsCmd creates the validate-seeds subcommand.
func NewValidateSeedsCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "validate-seeds",
		Short: "Validate a seed file without touching the database",
		Long: `Validates a YAML seed file against the seed schema and its
referential rules. Does NOT require a database connection.
Exits with code 0 on success, non-zero on failure.

Useful in CI pipelines to catch seed errors early:
  trailhead validate-seeds --file seed.yaml`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runValidateSeeds(cmd, file)
		},
	}

	cmd.Flags().StringVar(&file, "file", "seed.yaml", "seed file path")

	return cmd
}

func runValidateSeeds(cmd *cobra.Command, file string) error {
	data, err := os.ReadFile(file)
	if err != nil {
		return oops.Code("SEED_FILE_UNREADABLE").With("path", file).Wrap(err)
	}

	f, err := seed.Parse(data)
	if err != nil {
		cmd.PrintErrln(seed.FormatSchemaError(err))
		return oops.Code("SEED_INVALID").With("path", file).Wrap(err)
	}

	cmd.Printf("Seed file valid: %d units, %d users, %d items, %d quests\n",
		len(f.Units), len(f.Users), len(f.Items), len(f.Quests))
	return nil
}
