// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package analysis

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/pdiddy/financeflow/pkg/types"
)

// wireReport is the JSON body exchanged with the remote endpoint. FileInfo
// is read leniently: the size may arrive as a number or a display string.
type wireReport struct {
	Summary  *string                 `json:"summary"`
	Insights []types.InsightCategory `json:"insights"`
	FileInfo struct {
		ProcessedAt string `json:"processedAt"`
	} `json:"fileInfo"`
}

// DecodeReport parses a remote JSON body into a report. Malformed JSON is a
// ReasonDecode failure; JSON of the wrong shape is a ReasonShape failure.
func DecodeReport(data []byte) (types.AnalysisReport, error) {
	var w wireReport
	if err := json.Unmarshal(data, &w); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return types.AnalysisReport{}, &RemoteError{Reason: ReasonShape, Err: fmt.Errorf("field %s: %w", typeErr.Field, err)}
		}
		return types.AnalysisReport{}, &RemoteError{Reason: ReasonDecode, Err: err}
	}
	if w.Summary == nil {
		return types.AnalysisReport{}, &RemoteError{Reason: ReasonShape, Err: errors.New("missing summary")}
	}

	report := types.AnalysisReport{Summary: *w.Summary, Insights: w.Insights}
	if ts, err := time.Parse(time.RFC3339, w.FileInfo.ProcessedAt); err == nil {
		report.FileInfo.ProcessedAt = ts
	}
	if err := Validate(report); err != nil {
		return types.AnalysisReport{}, &RemoteError{Reason: ReasonShape, Err: err}
	}
	return report, nil
}
