// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package analysis

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/financeflow/pkg/types"
)

// WriteReport renders report to w as "yaml", "json", or "text".
func WriteReport(w io.Writer, report types.AnalysisReport, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	case "yaml", "":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(report); err != nil {
			return fmt.Errorf("encoding report: %w", err)
		}
		return enc.Close()
	case "text":
		return writeText(w, report)
	}
	return fmt.Errorf("unsupported report format %q: use yaml, json, or text", format)
}

func writeText(w io.Writer, r types.AnalysisReport) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", r.Summary)
	fmt.Fprintf(&b, "%s (%d bytes) · %s · %s\n",
		r.FileInfo.Name, r.FileInfo.Size, r.FileInfo.Source,
		r.FileInfo.ProcessedAt.Format(time.RFC3339))
	for _, cat := range r.Insights {
		fmt.Fprintf(&b, "\n%s\n", cat.Category)
		for _, item := range cat.Items {
			fmt.Fprintf(&b, "  - %s\n", item)
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}
