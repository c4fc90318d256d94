// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Trailhead Contributors

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/trailhead/trailhead/internal/config"
	"github.com/trailhead/trailhead/internal/store"
)

const statusTimeout = 5 * time.Second

// DatabaseStatus holds connectivity and migration state for the database.
type DatabaseStatus struct {
	Reachable bool   `json:"reachable"`
	Version   uint   `json:"migration_version"`
	Dirty     bool   `json:"dirty"`
	Pending   int    `json:"pending_migrations"`
	Error     string `json:"error,omitempty"`
}

// statusConfig holds configuration for the status command.
type statusConfig struct {
	jsonOutput bool
}

// NewStatusCmd creates the status subcommand with all flags configured.
func NewStatusCmd() *cobra.Command {
	cfg := &statusConfig{}

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show database connectivity and migration status",
		Long: `Connects to the configured database and reports whether it is
reachable, which migration version is applied, and how many
migrations are still pending.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatus(cmd, cfg)
		},
	}

	cmd.Flags().BoolVar(&cfg.jsonOutput, "json", false, "output status as JSON")

	return cmd
}

// runStatus executes the status command.
func runStatus(cmd *cobra.Command, cfg *statusConfig) error {
	appCfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := requireDatabaseURL(appCfg); err != nil {
		return err
	}

	status := queryDatabaseStatus(cmd, appCfg)

	var output string
	if cfg.jsonOutput {
		output, err = formatStatusJSON(status)
		if err != nil {
			return oops.Code("STATUS_FORMAT_FAILED").Wrap(err)
		}
	} else {
		output = formatStatusTable(status)
	}

	cmd.Println(output)
	return nil
}

// queryDatabaseStatus checks connectivity and migration state. Failures are
// reported in the returned status rather than as errors so the command can
// still print a useful table for an unreachable database.
func queryDatabaseStatus(cmd *cobra.Command, cfg *config.Config) DatabaseStatus {
	var status DatabaseStatus

	ctx, cancel := context.WithTimeout(cmd.Context(), statusTimeout)
	defer cancel()

	pool, err := store.Connect(ctx, cfg.Database.URL, store.PoolConfig{
		MaxConns: 1,
		MinConns: 1,
	})
	if err != nil {
		status.Error = fmt.Sprintf("failed to connect: %v", err)
		return status
	}
	pool.Close()
	status.Reachable = true

	migrator, err := store.NewMigrator(cfg.Database.URL)
	if err != nil {
		status.Error = fmt.Sprintf("failed to open migrator: %v", err)
		return status
	}
	defer func() { _ = migrator.Close() }()

	version, dirty, err := migrator.Version()
	if err != nil {
		status.Error = fmt.Sprintf("failed to read migration version: %v", err)
		return status
	}
	status.Version = version
	status.Dirty = dirty

	available, err := store.MigrationVersions()
	if err != nil {
		status.Error = fmt.Sprintf("failed to list migrations: %v", err)
		return status
	}
	for _, v := range available {
		if v > version {
			status.Pending++
		}
	}

	return status
}

// formatStatusTable formats the status as a human-readable table.
func formatStatusTable(status DatabaseStatus) string {
	var buf []byte
	w := tabwriter.NewWriter((*byteWriter)(&buf), 0, 0, 2, ' ', 0)

	_, _ = fmt.Fprintln(w, "DATABASE\tVERSION\tDIRTY\tPENDING")
	_, _ = fmt.Fprintln(w, "--------\t-------\t-----\t-------")

	if status.Reachable && status.Error == "" {
		_, _ = fmt.Fprintf(w, "reachable\t%d\t%t\t%d\n",
			status.Version, status.Dirty, status.Pending)
	} else {
		reason := "unreachable"
		if status.Error != "" {
			reason = status.Error
		}
		_, _ = fmt.Fprintf(w, "%s\t-\t-\t-\n", reason)
	}

	_ = w.Flush()
	return string(buf)
}

// formatStatusJSON formats the status as JSON.
func formatStatusJSON(status DatabaseStatus) (string, error) {
	data, err := json.MarshalIndent(status, "", "  ")
	if err != nil {
		return "", oops.Code("STATUS_FORMAT_FAILED").Wrap(err)
	}
	return string(data), nil
}

// byteWriter is a simple writer that appends to a byte slice.
type byteWriter []byte

func (w *byteWriter) Write(p []byte) (int, error) {
	*w = append(*w, p...)
	return len(p), nil
}
