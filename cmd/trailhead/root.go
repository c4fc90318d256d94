// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Trailhead Contributors

package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/trailhead/trailhead/internal/config"
	"github.com/trailhead/trailhead/internal/logging"
	"github.com/trailhead/trailhead/internal/xdg"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the trailhead CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trailhead",
		Short: "Trailhead - a scouting treasure hunt backend",
		Long: `Trailhead is the backend for unit-scoped scouting treasure hunts:
quests, placed items, scout runs, and role-scoped data visibility.`,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")
	cmd.PersistentFlags().String("log-format", "json", "log format (json or text)")
	cmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	cmd.PersistentFlags().String("database-url", "", "PostgreSQL connection URL")

	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewSeedCmd())
	cmd.AddCommand(NewValidateSeedsCmd())
	cmd.AddCommand(NewStatusCmd())

	return cmd
}

// loadConfig resolves the configuration for a subcommand and installs the
// default logger. Without --config, the XDG config file is used when it
// exists.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path := configFile
	if path == "" {
		if candidate := xdg.DefaultConfigFile(); fileExists(candidate) {
			path = candidate
		}
	}

	cfg, err := config.Load(path, cmd.Flags())
	if err != nil {
		return nil, err
	}
	logging.SetDefault("trailhead", version, cfg.Log.Format, cfg.Log.Level)
	return cfg, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
