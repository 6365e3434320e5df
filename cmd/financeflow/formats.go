// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/financeflow/internal/formats"
)

var formatsCmd = &cobra.Command{
	Use:   "formats [ext]",
	Short: "List the conversion targets for each supported extension",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		exts := formats.Extensions()
		if len(args) == 1 {
			if !formats.Supported(args[0]) {
				return fmt.Errorf("unsupported format: %s", args[0])
			}
			exts = []string{strings.ToLower(strings.TrimPrefix(args[0], "."))}
		}
		printFormats(cmd.OutOrStdout(), exts)
		return nil
	},
}

// printFormats writes one line per extension, default target first.
// Targets that need an external converter are marked with an asterisk.
func printFormats(w io.Writer, exts []string) {
	for _, ext := range exts {
		var names []string
		for _, f := range formats.SupportedTargets(ext) {
			name := f.String()
			if f.ServerSide {
				name += "*"
			}
			names = append(names, name)
		}
		fmt.Fprintf(w, "%-5s %s\n", ext, strings.Join(names, ", "))
	}
}

func init() {
	rootCmd.AddCommand(formatsCmd)
}
