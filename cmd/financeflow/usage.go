// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/financeflow/pkg/types"
)

// usageReport is the output of the usage command.
type usageReport struct {
	Date      string         `yaml:"date"`
	Used      map[string]int `yaml:"used"`
	Remaining map[string]int `yaml:"remaining"`
}

var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Show or reset today's conversion and analysis counts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(viper.GetViper(), loadedSecrets)
		if err != nil {
			return err
		}
		reset, _ := cmd.Flags().GetBool("reset")

		a, err := newApp(cmd.Context(), cfg, os.Stderr)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		if reset {
			if err := a.meter.Reset(ctx); err != nil {
				return err
			}
			fmt.Fprintln(os.Stderr, "usage: counters reset")
		}

		rec, err := a.meter.Snapshot(ctx)
		if err != nil {
			return err
		}
		out := usageReport{
			Date:      rec.Date,
			Used:      map[string]int{},
			Remaining: map[string]int{},
		}
		for _, kind := range []types.ActionKind{types.ActionConversion, types.ActionAnalysis} {
			left, err := a.meter.Remaining(ctx, kind)
			if err != nil {
				return err
			}
			out.Used[string(kind)] = rec.Count(kind)
			out.Remaining[string(kind)] = left
		}

		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		if err := enc.Encode(out); err != nil {
			return fmt.Errorf("encoding usage: %w", err)
		}
		return enc.Close()
	},
}

func init() {
	usageCmd.Flags().Bool("reset", false, "clear today's counters")

	rootCmd.AddCommand(usageCmd)
}
