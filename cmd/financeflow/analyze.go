// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/financeflow/internal/analysis"
	"github.com/pdiddy/financeflow/pkg/types"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Produce a structured financial report for a document",
	Long: `Analyze sends an excerpt of the document to the configured analyzer and
prints the report. The analyzer is chosen by analysis.backend: openai (needs
.secrets/openai-api-key), http (needs analysis.endpoint), or none. Without an
explicit backend an OpenAI key selects openai and an endpoint selects http.

Any analyzer failure yields the fallback report (source: fallback); the
reason is printed to stderr.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(viper.GetViper(), loadedSecrets)
		if err != nil {
			return err
		}
		format, _ := cmd.Flags().GetString("format")

		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading %s: %w", args[0], err)
		}

		a, err := newApp(cmd.Context(), cfg, os.Stderr)
		if err != nil {
			return err
		}
		defer a.Close()

		s := a.session()
		s.Select(types.NewDocument(filepath.Base(args[0]), data))
		res, err := s.Analyze(cmd.Context())
		if err != nil {
			return err
		}
		return analysis.WriteReport(cmd.OutOrStdout(), res.Report, format)
	},
}

func init() {
	analyzeCmd.Flags().String("format", "yaml", "output format: yaml, json, or text")
	analyzeCmd.Flags().String("backend", "", "analysis backend: none, http, or openai")
	analyzeCmd.Flags().String("endpoint", "", "remote analysis endpoint URL for the http backend")
	analyzeCmd.Flags().String("model", "", "OpenAI model for the openai backend")
	_ = viper.BindPFlag("analysis.backend", analyzeCmd.Flags().Lookup("backend"))
	_ = viper.BindPFlag("analysis.endpoint", analyzeCmd.Flags().Lookup("endpoint"))
	_ = viper.BindPFlag("analysis.ai.model", analyzeCmd.Flags().Lookup("model"))

	rootCmd.AddCommand(analyzeCmd)
}
