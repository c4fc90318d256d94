// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Trailhead Contributors

package main

import (
	"strconv"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/trailhead/trailhead/internal/config"
	"github.com/trailhead/trailhead/internal/store"
)

// NewMigrateCmd creates the migrate subcommand and its actions.
func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage database schema migrations",
		Long:  `Apply, roll back, and inspect the PostgreSQL schema migrations.`,
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withMigrator(cmd, func(m *store.Migrator) error {
					if err := m.Up(); err != nil {
						return err
					}
					cmd.Println("Migrations applied")
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back all migrations (drops all data)",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withMigrator(cmd, func(m *store.Migrator) error {
					if err := m.Down(); err != nil {
						return err
					}
					cmd.Println("Migrations rolled back")
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "steps <n>",
			Short: "Apply n migrations (negative n rolls back)",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				n, err := strconv.Atoi(args[0])
				if err != nil {
					return oops.Code("INVALID_ARGUMENT").
						Errorf("steps must be an integer, got %q", args[0])
				}
				return withMigrator(cmd, func(m *store.Migrator) error {
					if err := m.Steps(n); err != nil {
						return err
					}
					cmd.Printf("Applied %d migration step(s)\n", n)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Show the current migration version",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withMigrator(cmd, func(m *store.Migrator) error {
					version, dirty, err := m.Version()
					if err != nil {
						return err
					}
					if dirty {
						cmd.Printf("Version: %d (dirty - manual intervention required)\n", version)
					} else {
						cmd.Printf("Version: %d\n", version)
					}
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "force <version>",
			Short: "Set the migration version without running migrations",
			Long: `Set the recorded migration version without running any SQL.
Only for recovering from a dirty state after fixing the database by hand.`,
			Args: cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				v, err := strconv.Atoi(args[0])
				if err != nil {
					return oops.Code("INVALID_ARGUMENT").
						Errorf("version must be an integer, got %q", args[0])
				}
				return withMigrator(cmd, func(m *store.Migrator) error {
					if err := m.Force(v); err != nil {
						return err
					}
					cmd.Printf("Forced version to %d\n", v)
					return nil
				})
			},
		},
	)

	return cmd
}

// withMigrator resolves the configuration, opens a migrator, runs fn, and
// closes the migrator.
func withMigrator(cmd *cobra.Command, fn func(*store.Migrator) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := requireDatabaseURL(cfg); err != nil {
		return err
	}

	m, err := store.NewMigrator(cfg.Database.URL)
	if err != nil {
		return err
	}
	defer func() { _ = m.Close() }() //nolint:errcheck // close error after work is logged by migrate

	return fn(m)
}

// requireDatabaseURL rejects commands that need a database when none is
// configured.
func requireDatabaseURL(cfg *config.Config) error {
	if cfg.Database.URL == "" {
		return oops.Code("CONFIG_INVALID").
			Errorf("database URL is required (set TRAILHEAD_DATABASE_URL, --database-url, or database.url in the config file)")
	}
	return nil
}
