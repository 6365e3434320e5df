// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package analysis

import (
	"time"

	"github.com/pdiddy/financeflow/pkg/types"
)

// fallbackSummary is the summary of the locally generated report.
const fallbackSummary = "Demo Financial Analysis (remote analysis unavailable)"

// fallbackInsights is the canonical offline payload. Its content is fixed
// so the fallback is deterministic for a given document and time.
var fallbackInsights = []types.InsightCategory{
	{
		Category: "Expense Categories",
		Items: []string{
			"Office Supplies: $2,450 (15%)",
			"Travel & Transportation: $3,200 (20%)",
			"Marketing & Advertising: $1,800 (11%)",
			"Software & Subscriptions: $950 (6%)",
			"Utilities: $1,200 (7%)",
		},
	},
	{
		Category: "Financial Trends",
		Items: []string{
			"Monthly spending increased 12% over last quarter",
			"Travel expenses peaked in March (+45%)",
			"Software costs remained consistent",
			"Office supplies showed seasonal variation",
		},
	},
	{
		Category: "Key Metrics",
		Items: []string{
			"Total transactions analyzed: 247",
			"Average transaction value: $156",
			"Largest expense category: Travel (20%)",
			"Potential monthly savings: $890",
		},
	},
	{
		Category: "Recommendations",
		Items: []string{
			"Consider negotiating better rates for travel bookings",
			"Review recurring software subscriptions",
			"Implement expense approval workflow for amounts over $500",
			"Track seasonal patterns for better budget planning",
		},
	},
}

// FallbackReport builds the local report for doc, stamped with at.
func FallbackReport(doc types.UploadedDocument, at time.Time) types.AnalysisReport {
	insights := make([]types.InsightCategory, len(fallbackInsights))
	for i, c := range fallbackInsights {
		items := make([]string, len(c.Items))
		copy(items, c.Items)
		insights[i] = types.InsightCategory{Category: c.Category, Items: items}
	}
	return types.AnalysisReport{
		Summary:  fallbackSummary,
		Insights: insights,
		FileInfo: types.FileInfo{
			Name:        doc.Name,
			Size:        doc.Size,
			ProcessedAt: at,
			Source:      types.SourceFallback,
		},
	}
}
