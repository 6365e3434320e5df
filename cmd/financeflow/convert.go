// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/financeflow/pkg/types"
)

var convertCmd = &cobra.Command{
	Use:   "convert <file>",
	Short: "Convert a document to another format",
	Long: `Convert reads a csv, xlsx, or xls file and writes it as another tabular
format. Without --to the first offered target is used (csv becomes Excel,
workbooks become CSV). Only the first sheet of a workbook is converted.

pdf and docx sources convert to text through the markitdown container when
conversion.markitdown is enabled.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(viper.GetViper(), loadedSecrets)
		if err != nil {
			return err
		}
		to, _ := cmd.Flags().GetString("to")

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
		res, err := s.Convert(cmd.Context(), to)
		if err != nil {
			return err
		}

		if err := os.MkdirAll(cfg.Conversion.OutputDir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", cfg.Conversion.OutputDir, err)
		}
		out := filepath.Join(cfg.Conversion.OutputDir, res.Filename)
		if err := os.WriteFile(out, res.Data, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", out, err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), out)
		return nil
	},
}

func init() {
	convertCmd.Flags().String("to", "", "target format label or extension (e.g. Excel, json)")
	convertCmd.Flags().String("out", "", "output directory (default: conversion.output_dir)")
	convertCmd.Flags().Bool("infer-numbers", false, "emit numeric cells as JSON numbers")
	_ = viper.BindPFlag("conversion.output_dir", convertCmd.Flags().Lookup("out"))
	_ = viper.BindPFlag("conversion.infer_numbers", convertCmd.Flags().Lookup("infer-numbers"))

	rootCmd.AddCommand(convertCmd)
}
