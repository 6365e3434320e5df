// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// ActionKind identifies a metered user action.
type ActionKind string

const (
	ActionConversion ActionKind = "conversion"
	ActionAnalysis   ActionKind = "analysis"
)

// DateLayout is the day-precision layout used for UsageRecord.Date.
const DateLayout = "2006-01-02"

// UsageRecord holds the per-day action counters. Date is compared against
// today before any count is read; a stale record starts over at zero.
type UsageRecord struct {
	Conversions int    `json:"conversions" yaml:"conversions"`
	Analyses    int    `json:"analyses" yaml:"analyses"`
	Date        string `json:"date" yaml:"date"`
}

// Count returns the counter for kind, or 0 for an unknown kind.
func (r UsageRecord) Count(kind ActionKind) int {
	switch kind {
	case ActionConversion:
		return r.Conversions
	case ActionAnalysis:
		return r.Analyses
	}
	return 0
}
