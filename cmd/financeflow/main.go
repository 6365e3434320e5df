// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the financeflow CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/financeflow/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets secrets.Set

// rootCmd is the base command for the financeflow CLI.
var rootCmd = &cobra.Command{
	Use:   "financeflow",
	Short: "Convert and analyze small financial documents",
	Long: `financeflow converts spreadsheets and text documents between formats and
produces structured financial analysis reports. Conversions and analyses are
metered against a daily allowance stored in a local SQLite database.

When the remote analyzer is unavailable, analyze returns a fixed fallback
report instead of failing; the cause is written to stderr.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/", os.Stderr)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", s.Keys())
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./financeflow.yaml or ~/.config/financeflow/financeflow.yaml)")
	rootCmd.PersistentFlags().Bool("strict", false, "enforce daily limits with an atomic check-and-increment")
	_ = viper.BindPFlag("usage.strict", rootCmd.PersistentFlags().Lookup("strict"))
}

func initConfig() {
	setDefaults(viper.GetViper())

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("financeflow")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "financeflow"))
		}
	}

	viper.SetEnvPrefix("FINANCEFLOW")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
