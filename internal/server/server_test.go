// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/financeflow/internal/analysis"
	"github.com/pdiddy/financeflow/internal/clock"
	"github.com/pdiddy/financeflow/internal/convert"
	"github.com/pdiddy/financeflow/pkg/types"
)

var at = time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)

// syncBuffer is a log writer safe to read while handlers write to it.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// waitForLog waits until the request log contains want.
func waitForLog(t *testing.T, log *syncBuffer, want string) {
	t.Helper()
	assert.Eventually(t, func() bool {
		return strings.Contains(log.String(), want)
	}, 2*time.Second, 10*time.Millisecond, "log %q does not contain %q", log.String(), want)
}

func newTestServer(t *testing.T, backend analysis.Backend) (*httptest.Server, *syncBuffer) {
	t.Helper()
	log := &syncBuffer{}
	engine := &convert.Engine{}
	client := &analysis.Client{Backend: backend, Extractor: engine, Clock: clock.NewManual(at)}
	s := New(engine, client, types.ServerConfig{MaxUploadBytes: 1 << 16}, log)
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return srv, log
}

func upload(t *testing.T, url, name string, content []byte) *http.Response {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	resp, err := http.Post(url, w.FormDataContentType(), &body)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

// failingBackend always fails with a network error.
type failingBackend struct{}

func (failingBackend) Analyze(context.Context, analysis.Request) (types.AnalysisReport, error) {
	return types.AnalysisReport{}, io.ErrUnexpectedEOF
}

// staticBackend returns a fixed report.
type staticBackend struct{ report types.AnalysisReport }

func (b staticBackend) Analyze(context.Context, analysis.Request) (types.AnalysisReport, error) {
	return b.report, nil
}

func TestHealth(t *testing.T) {
	srv, log := newTestServer(t, nil)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", string(body))
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
	waitForLog(t, log, "method=GET path=/health status=200")
}

func TestAnalyzeDocument_FallbackBody(t *testing.T) {
	srv, _ := newTestServer(t, failingBackend{})

	resp := upload(t, srv.URL+"/analyze-document", "expenses.csv", []byte("a,b\n1,2\n"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var report types.AnalysisReport
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&report))
	assert.Equal(t, types.SourceFallback, report.FileInfo.Source)
	assert.NotEmpty(t, report.Insights)
	assert.Equal(t, "expenses.csv", report.FileInfo.Name)
	assert.Equal(t, int64(8), report.FileInfo.Size)
	assert.Equal(t, at, report.FileInfo.ProcessedAt)
}

func TestAnalyzeDocument_RemoteBodyDecodesOnClient(t *testing.T) {
	remote := types.AnalysisReport{
		Summary:  "Healthy cash flow",
		Insights: []types.InsightCategory{{Category: "Key Metrics", Items: []string{"Net: +$1,200"}}},
	}
	srv, _ := newTestServer(t, staticBackend{report: remote})

	// A financeflow client pointed at this server sees a remote report.
	client := &analysis.Client{Backend: &analysis.HTTPBackend{Endpoint: srv.URL + "/analyze-document"}, Clock: clock.NewManual(at)}
	res := client.Analyze(context.Background(), types.NewDocument("q.csv", []byte("a\n1\n")))

	require.False(t, res.FellBack(), "failure: %v", res.Failure)
	assert.Equal(t, "Healthy cash flow", res.Report.Summary)
	assert.Equal(t, remote.Insights, res.Report.Insights)
	assert.Equal(t, types.SourceRemote, res.Report.FileInfo.Source)
}

func TestAnalyzeDocument_BadRequests(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	t.Run("no file part", func(t *testing.T) {
		resp, err := http.Post(srv.URL+"/analyze-document", "text/plain", bytes.NewBufferString("hello"))
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("wrong method", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/analyze-document")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	})

	t.Run("too large", func(t *testing.T) {
		resp := upload(t, srv.URL+"/analyze-document", "big.csv", bytes.Repeat([]byte("a"), 1<<17))
		assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
	})
}

func TestConvert(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	t.Run("csv to json", func(t *testing.T) {
		resp := upload(t, srv.URL+"/convert?target=JSON", "expenses.csv", []byte("Item,Cost\nPens,3\n"))
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
		assert.Equal(t, `attachment; filename="expenses.json"`, resp.Header.Get("Content-Disposition"))

		var rows []map[string]string
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&rows))
		assert.Equal(t, []map[string]string{{"Item": "Pens", "Cost": "3"}}, rows)
	})

	t.Run("default target", func(t *testing.T) {
		resp := upload(t, srv.URL+"/convert", "expenses.csv", []byte("Item,Cost\nPens,3\n"))
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, resp.Header.Get("Content-Disposition"), "expenses.xlsx")
	})

	tests := []struct {
		name    string
		url     string
		file    string
		content []byte
		status  int
	}{
		{"unsupported extension", "/convert", "logo.png", []byte{0x89, 'P'}, http.StatusUnsupportedMediaType},
		{"target not offered", "/convert?target=PDF", "a.csv", []byte("a\n1\n"), http.StatusUnsupportedMediaType},
		{"malformed workbook", "/convert", "a.xlsx", []byte("not a zip"), http.StatusUnprocessableEntity},
		{"server side target", "/convert", "notes.txt", []byte("hello"), http.StatusNotImplemented},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := upload(t, srv.URL+tt.url, tt.file, tt.content)
			assert.Equal(t, tt.status, resp.StatusCode)

			var body map[string]string
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestFormats(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	resp, err := http.Get(srv.URL + "/formats?ext=CSV")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var one formatsResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&one))
	assert.Equal(t, "csv", one.Extension)
	require.Len(t, one.Targets, 2)
	assert.Equal(t, types.FormatExcel, one.Targets[0].Label)
	assert.Equal(t, types.FormatJSON, one.Targets[1].Label)

	resp2, err := http.Get(srv.URL + "/formats")
	require.NoError(t, err)
	defer resp2.Body.Close()
	var all formatsResponse
	require.NoError(t, json.NewDecoder(resp2.Body).Decode(&all))
	assert.Contains(t, all.Formats, "xlsx")
	assert.Contains(t, all.Formats, "docx")

	resp3, err := http.Get(srv.URL + "/formats?ext=png")
	require.NoError(t, err)
	defer resp3.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp3.StatusCode)
}

func TestCORSPreflight(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/analyze-document", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Content-Type")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Contains(t, resp.Header.Get("Access-Control-Allow-Methods"), http.MethodPost)
}

func TestRequestIDEcho(t *testing.T) {
	srv, log := newTestServer(t, nil)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/health", nil)
	require.NoError(t, err)
	req.Header.Set("X-Request-ID", "req-42")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "req-42", resp.Header.Get("X-Request-ID"))
	waitForLog(t, log, "request_id=req-42")
}

func TestListenAndServe_Shutdown(t *testing.T) {
	s := New(&convert.Engine{}, &analysis.Client{}, types.ServerConfig{}, io.Discard)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx, "127.0.0.1:0") }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not shut down")
	}
}
