package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/vitos/perp_screener/internal/usecase"
)

func newAnalyzeCmd(root *rootOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "analyze <symbol>",
		Short: "Score one symbol on every configured timeframe",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := root.load()
			if err != nil {
				return err
			}
			defer log.Sync()

			a, err := buildApp(cfg, log, buildOptions{logOnly: true})
			if err != nil {
				return err
			}
			defer a.Close()

			assessment := a.service.Assess(cmd.Context(), strings.ToUpper(args[0]))
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(assessment)
			}

			if len(assessment.Timeframes) == 0 {
				return fmt.Errorf("no timeframe of %s had enough data to score", assessment.Symbol)
			}
			score := max(assessment.LongTotal, assessment.ShortTotal)
			fmt.Fprintln(out, usecase.FormatAssessment(assessment, score))
			fmt.Fprintf(out, "signal: %s (LONG=%d, SHORT=%d)\n", assessment.Signal, assessment.LongTotal, assessment.ShortTotal)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the assessment as JSON")
	return cmd
}
