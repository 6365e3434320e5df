// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package analysis

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/financeflow/pkg/types"
)

func sampleReport() types.AnalysisReport {
	r := FallbackReport(types.NewDocument("expenses.csv", []byte("a,b\n")), processedAt)
	return r
}

func TestWriteReport_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteReport(&buf, sampleReport(), "json"))

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, fallbackSummary, got["summary"])
	info := got["fileInfo"].(map[string]any)
	assert.Equal(t, "expenses.csv", info["name"])
	assert.Equal(t, "fallback", info["source"])
	assert.Equal(t, "2026-04-02T15:04:05Z", info["processedAt"])
}

func TestWriteReport_YAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteReport(&buf, sampleReport(), "yaml"))

	var got map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, fallbackSummary, got["summary"])
	assert.Contains(t, buf.String(), "Expense Categories")
}

func TestWriteReport_Text(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteReport(&buf, sampleReport(), "text"))

	out := buf.String()
	assert.Contains(t, out, fallbackSummary+"\n")
	assert.Contains(t, out, "expenses.csv (4 bytes)")
	assert.Contains(t, out, "\nRecommendations\n  - ")
}

func TestWriteReport_UnknownFormat(t *testing.T) {
	err := WriteReport(&bytes.Buffer{}, sampleReport(), "xml")
	assert.ErrorContains(t, err, "unsupported report format")
}
