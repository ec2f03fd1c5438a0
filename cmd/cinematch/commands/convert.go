// Cinematch - Movie Similarity Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tomtom215/cinematch/internal/affinity"
	"github.com/tomtom215/cinematch/internal/catalog"
	"github.com/tomtom215/cinematch/internal/logging"
	"github.com/tomtom215/cinematch/internal/snapshot"
)

var convertKind string

var convertCmd = &cobra.Command{
	Use:   "convert <in> <out>",
	Short: "Convert a snapshot between JSON, CSV and msgpack",
	Long: `Convert a catalog or affinity snapshot. Formats are chosen by file
extension (.json, .csv, .msgpack or .mpk). The input is validated the same
way the server validates it at startup before anything is written.`,
	Args: cobra.ExactArgs(2),
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().StringVar(&convertKind, "kind", "", "snapshot kind: catalog or affinity (required)")
	_ = convertCmd.MarkFlagRequired("kind")
	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	in, out := args[0], args[1]

	var n int
	switch convertKind {
	case "catalog":
		records, err := snapshot.ReadCatalogFile(in)
		if err != nil {
			return &catalog.LoadError{Path: in, Err: err}
		}
		if _, err := catalog.New(records); err != nil {
			return fmt.Errorf("%s: %w", in, err)
		}
		if err := snapshot.WriteCatalogFile(out, records); err != nil {
			return err
		}
		n = len(records)
	case "affinity":
		rows, err := snapshot.ReadMatrixFile(in)
		if err != nil {
			return &affinity.LoadError{Path: in, Err: err}
		}
		if _, err := affinity.New(rows); err != nil {
			return fmt.Errorf("%s: %w", in, err)
		}
		if err := snapshot.WriteMatrixFile(out, rows); err != nil {
			return err
		}
		n = len(rows)
	default:
		return fmt.Errorf("unknown --kind %q (want catalog or affinity)", convertKind)
	}

	logging.Debug().Str("kind", convertKind).Str("in", in).Str("out", out).Int("entries", n).Msg("Snapshot converted")
	_, err := fmt.Fprintf(cmd.OutOrStdout(), "wrote %d %s entries to %s\n", n, convertKind, out)
	return err
}
