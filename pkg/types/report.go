// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// ReportSource tells whether a report came from the remote analysis backend
// or was generated locally.
type ReportSource string

const (
	SourceRemote   ReportSource = "remote"
	SourceFallback ReportSource = "fallback"
)

// InsightCategory is a named group of textual findings.
type InsightCategory struct {
	Category string   `json:"category" yaml:"category"`
	Items    []string `json:"items" yaml:"items"`
}

// FileInfo describes the analyzed file and how the report was produced.
type FileInfo struct {
	Name        string       `json:"name" yaml:"name"`
	Size        int64        `json:"size" yaml:"size"`
	ProcessedAt time.Time    `json:"processedAt" yaml:"processed_at"`
	Source      ReportSource `json:"source" yaml:"source"`
}

// AnalysisReport is the structured result of analyzing one document.
// Insights is never empty, including for fallback reports.
type AnalysisReport struct {
	Summary  string            `json:"summary" yaml:"summary"`
	Insights []InsightCategory `json:"insights" yaml:"insights"`
	FileInfo FileInfo          `json:"fileInfo" yaml:"file_info"`
}
