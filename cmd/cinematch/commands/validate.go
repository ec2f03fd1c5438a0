// Cinematch - Movie Similarity Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tomtom215/cinematch/internal/app"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check configuration and snapshots",
	Long: `Load configuration and both snapshots and check that the affinity
matrix is square and matches the catalog size. Exits non-zero on any error
the server would refuse to start with.`,
	Args: cobra.NoArgs,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(true)
	if err != nil {
		return err
	}
	cat, aff, err := app.Snapshots(&cfg.Snapshots)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "catalog:   %s (%d movies)\n", cfg.Snapshots.CatalogPath, cat.Len())
	fmt.Fprintf(out, "affinity:  %s (%dx%d)\n", cfg.Snapshots.AffinityPath, aff.Dim(), aff.Dim())
	if dups := cat.DuplicateTitles(); dups > 0 {
		fmt.Fprintf(out, "warning:   %d duplicate titles, lookups resolve to the lowest index\n", dups)
	}
	_, err = fmt.Fprintln(out, "ok")
	return err
}
