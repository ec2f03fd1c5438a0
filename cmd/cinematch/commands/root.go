// Cinematch - Movie Similarity Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

// Package commands implements the cinematch CLI.
package commands

import (
	"context"
	"io"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/tomtom215/cinematch/internal/config"
	"github.com/tomtom215/cinematch/internal/logging"
)

var (
	// Global flags
	configPath   string
	catalogPath  string
	affinityPath string
	verbose      bool
)

var rootCmd = &cobra.Command{
	Use:   "cinematch",
	Short: "Movie similarity lookups from the command line",
	Long: `cinematch - query and maintain a Cinematch deployment.

Configuration is read the same way the server reads it: built-in defaults,
then config.yaml (or --config), then environment variables such as
TMDB_API_KEY, CATALOG_PATH and AFFINITY_PATH.

Examples:
  # Five movies similar to Avatar, enriched from TMDB
  cinematch recommend Avatar -k 5

  # Convert a JSON matrix to the compact msgpack form
  cinematch convert --kind affinity similarity.json similarity.msgpack

  # Check that the snapshots agree before a deploy
  cinematch validate --catalog movies.json --affinity similarity.msgpack`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := "warn"
		if verbose {
			level = "debug"
		}
		logging.Init(logging.Config{Level: level, Format: "console", Output: cmd.ErrOrStderr()})
	},
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: search standard paths)")
	rootCmd.PersistentFlags().StringVar(&catalogPath, "catalog", "", "catalog snapshot, overrides configuration")
	rootCmd.PersistentFlags().StringVar(&affinityPath, "affinity", "", "affinity snapshot, overrides configuration")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// loadConfig loads configuration and applies the snapshot path flags.
// needAPIKey is false for commands that never contact TMDB.
func loadConfig(needAPIKey bool) (*config.Config, error) {
	cfg, err := config.LoadWithKoanf(config.LoadOptions{
		Path:       configPath,
		SkipAPIKey: !needAPIKey,
	})
	if err != nil {
		return nil, err
	}
	if catalogPath != "" {
		cfg.Snapshots.CatalogPath = catalogPath
	}
	if affinityPath != "" {
		cfg.Snapshots.AffinityPath = affinityPath
	}
	return cfg, nil
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
