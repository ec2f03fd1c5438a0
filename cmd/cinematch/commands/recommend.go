// Cinematch - Movie Similarity Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tomtom215/cinematch/internal/app"
	"github.com/tomtom215/cinematch/internal/logging"
	"github.com/tomtom215/cinematch/internal/validation"
)

var recommendK int

var recommendCmd = &cobra.Command{
	Use:   "recommend <title>",
	Short: "Print movies similar to a title as JSON",
	Long: `Print the top-k movies similar to a title, enriched from TMDB.

The title must match a catalog entry exactly. Words are joined with single
spaces, so quoting is optional:

  cinematch recommend The Dark Knight -k 3`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRecommend,
}

func init() {
	recommendCmd.Flags().IntVarP(&recommendK, "k", "k", 0, "number of recommendations (default from configuration)")
	rootCmd.AddCommand(recommendCmd)
}

func runRecommend(cmd *cobra.Command, args []string) error {
	title := strings.Join(args, " ")
	if verr := validation.ValidateVar("title", title, "required,title,max=500"); verr != nil {
		return verr
	}

	cfg, err := loadConfig(true)
	if err != nil {
		return err
	}
	if recommendK != 0 {
		if verr := validation.ValidateVar("k", recommendK, fmt.Sprintf("min=1,max=%d", app.EngineConfig(cfg).MaxK)); verr != nil {
			return verr
		}
	}

	a, err := app.New(cfg, logging.WithComponent("app"))
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(); cerr != nil {
			logging.Warn().Err(cerr).Msg("Error closing enrichment store")
		}
	}()

	resp := a.Engine.Recommend(cmd.Context(), title, recommendK)
	if err := printJSON(cmd.OutOrStdout(), resp); err != nil {
		return err
	}
	if !resp.Found {
		return fmt.Errorf("title %q is not in the catalog", title)
	}
	return nil
}
