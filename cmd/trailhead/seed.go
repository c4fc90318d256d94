// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Trailhead Contributors

package main

import (
	"context"
	"os"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/trailhead/trailhead/internal/auth"
	"github.com/trailhead/trailhead/internal/seed"
	"github.com/trailhead/trailhead/internal/store"
)

// Default timeout for seed database operations.
const defaultSeedTimeout = 30 * time.Second

// seedConfig holds configuration for the seed command.
type seedConfig struct {
	file    string
	timeout time.Duration
}

// NewSeedCmd creates the seed subcommand.
func NewSeedCmd() *cobra.Command {
	cfg := &seedConfig{}

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load initial data from a seed file",
		Long: `Validates a YAML seed file against its schema, runs pending
migrations, and inserts units, users, items, and quests.
This command is idempotent - re-running the same file creates no duplicates.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd, args, cfg)
		},
	}

	cmd.Flags().StringVar(&cfg.file, "file", "seed.yaml", "seed file path")
	cmd.Flags().DurationVar(&cfg.timeout, "timeout", defaultSeedTimeout, "timeout for database operations (e.g., 30s, 1m)")

	return cmd
}

func runSeed(cmd *cobra.Command, _ []string, sc *seedConfig) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := requireDatabaseURL(cfg); err != nil {
		return err
	}

	data, err := os.ReadFile(sc.file)
	if err != nil {
		return oops.Code("SEED_FILE_UNREADABLE").With("path", sc.file).Wrap(err)
	}

	f, err := seed.Parse(data)
	if err != nil {
		return oops.Code("SEED_INVALID").With("path", sc.file).Wrap(err)
	}

	// Use cmd.Context() to respect SIGINT/SIGTERM signals
	ctx, cancel := context.WithTimeout(cmd.Context(), sc.timeout)
	defer cancel()

	cmd.Println("Connecting to database...")
	pool, err := store.Connect(ctx, cfg.Database.URL, store.PoolConfig{
		MaxConns: cfg.Database.MaxConns,
		MinConns: cfg.Database.MinConns,
	})
	if err != nil {
		return err
	}
	defer pool.Close()

	cmd.Println("Running migrations...")
	m, err := store.NewMigrator(cfg.Database.URL)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil {
		_ = m.Close() //nolint:errcheck // migrate error takes precedence
		return err
	}
	if err := m.Close(); err != nil {
		return err
	}

	loader := seed.NewLoader(pool, auth.NewArgon2idHasher())
	sum, err := loader.Apply(ctx, f)
	if err != nil {
		return err
	}

	cmd.Printf("Seed complete: %d units, %d users, %d items, %d quests created (%d already present)\n",
		sum.UnitsCreated, sum.UsersCreated, sum.ItemsCreated, sum.QuestsCreated, sum.Skipped)
	return nil
}
