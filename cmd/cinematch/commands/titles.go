// Cinematch - Movie Similarity Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tomtom215/cinematch/internal/catalog"
)

var titlesLimit int

var titlesCmd = &cobra.Command{
	Use:   "titles",
	Short: "List catalog titles with their row index",
	RunE:  runTitles,
}

func init() {
	titlesCmd.Flags().IntVar(&titlesLimit, "limit", 0, "maximum titles to print (0 = all)")
	rootCmd.AddCommand(titlesCmd)
}

func runTitles(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(false)
	if err != nil {
		return err
	}
	cat, err := catalog.Load(cfg.Snapshots.CatalogPath)
	if err != nil {
		return err
	}

	titles := cat.Titles()
	if titlesLimit > 0 && titlesLimit < len(titles) {
		titles = titles[:titlesLimit]
	}
	out := cmd.OutOrStdout()
	for i, t := range titles {
		if _, err := fmt.Fprintf(out, "%d\t%s\n", i, t); err != nil {
			return err
		}
	}
	return nil
}
