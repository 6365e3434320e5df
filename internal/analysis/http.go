// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package analysis

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/pdiddy/financeflow/pkg/types"
)

// maxResponseBytes bounds the body read from the remote endpoint.
const maxResponseBytes = 1 << 20

// HTTPBackend posts the document to a remote analysis endpoint as a
// multipart upload with one "file" part.
type HTTPBackend struct {
	Endpoint  string
	Token     string
	UserAgent string
	Client    *http.Client
}

// NewHTTPBackend creates a backend from configuration. The HTTP client
// carries the configured timeout; zero means no client-side limit.
func NewHTTPBackend(cfg types.AnalysisConfig) *HTTPBackend {
	return &HTTPBackend{
		Endpoint:  cfg.Endpoint,
		Token:     cfg.Token,
		UserAgent: cfg.UserAgent,
		Client:    &http.Client{Timeout: cfg.Timeout},
	}
}

// Analyze implements Backend.
func (b *HTTPBackend) Analyze(ctx context.Context, req Request) (types.AnalysisReport, error) {
	body, contentType, err := multipartBody(req)
	if err != nil {
		return types.AnalysisReport{}, &RemoteError{Reason: ReasonNetwork, Err: fmt.Errorf("building request body: %w", err)}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, b.Endpoint, body)
	if err != nil {
		return types.AnalysisReport{}, &RemoteError{Reason: ReasonNetwork, Err: fmt.Errorf("creating request: %w", err)}
	}
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-ID", uuid.NewString())
	if b.UserAgent != "" {
		httpReq.Header.Set("User-Agent", b.UserAgent)
	}
	if b.Token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+b.Token)
	}

	client := b.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return types.AnalysisReport{}, &RemoteError{Reason: ReasonNetwork, Err: fmt.Errorf("calling analysis endpoint: %w", err)}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return types.AnalysisReport{}, &RemoteError{Reason: ReasonNetwork, Err: fmt.Errorf("reading response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return types.AnalysisReport{}, &RemoteError{
			Reason:     ReasonStatus,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("analysis endpoint returned %s: %s", resp.Status, snippet(data)),
		}
	}

	return DecodeReport(data)
}

func multipartBody(req Request) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", req.Name)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(req.Content); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

// snippet shortens a response body for error messages.
func snippet(data []byte) string {
	s := strings.TrimSpace(string(data))
	if len(s) > 200 {
		return s[:200] + "..."
	}
	return s
}
