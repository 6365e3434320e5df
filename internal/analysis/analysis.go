// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package analysis produces structured financial reports for uploaded
// documents.
//
// The Client sends a bounded excerpt of the document to a remote Backend
// exactly once. Any failure (no backend, transport error, non-success
// status, undecodable body, or a body of the wrong shape) is absorbed: the
// caller receives the fixed fallback report together with a *RemoteError
// describing why, which is meant for operator logs and never for the end
// user.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/pdiddy/financeflow/internal/clock"
	"github.com/pdiddy/financeflow/internal/convert"
	"github.com/pdiddy/financeflow/pkg/types"
)

// DefaultExcerptLimit is the number of characters of extracted text sent
// to the backend.
const DefaultExcerptLimit = 4000

// Reason classifies why the remote report could not be used.
type Reason string

const (
	ReasonUnconfigured Reason = "unconfigured"
	ReasonNetwork      Reason = "network"
	ReasonStatus       Reason = "status"
	ReasonDecode       Reason = "decode"
	ReasonShape        Reason = "shape"
)

// RemoteError records a failed remote analysis.
type RemoteError struct {
	Reason     Reason
	StatusCode int // set for ReasonStatus
	Err        error
}

func (e *RemoteError) Error() string {
	if e.Reason == ReasonStatus && e.StatusCode != 0 {
		return fmt.Sprintf("%s %d: %v", e.Reason, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Reason, e.Err)
}

func (e *RemoteError) Unwrap() error { return e.Err }

// Request is what a Backend receives for one document.
type Request struct {
	Name    string
	Size    int64
	Content []byte

	// Excerpt is the extracted text, already capped to the excerpt limit.
	Excerpt string
}

// Backend is a remote analyzer. Implementations return a *RemoteError to
// classify a failure; other errors are treated as network failures.
type Backend interface {
	Analyze(ctx context.Context, req Request) (types.AnalysisReport, error)
}

// TextExtractor turns a document into text for the excerpt.
type TextExtractor interface {
	ExtractText(ctx context.Context, doc types.UploadedDocument) (string, error)
}

// Result is the outcome of Client.Analyze. Report is always usable;
// Failure is nil when the report came from the backend.
type Result struct {
	Report  types.AnalysisReport
	Failure *RemoteError
}

// FellBack reports whether Report is the local fallback.
func (r Result) FellBack() bool { return r.Failure != nil }

// Client analyzes documents with a remote backend and a local fallback.
type Client struct {
	// Backend is the remote analyzer. Nil always yields the fallback.
	Backend Backend

	// Extractor provides document text. Nil sends the raw content when it
	// is valid UTF-8 and a placeholder otherwise.
	Extractor TextExtractor

	Clock clock.Clock

	// Log receives one line per fallback. Nil discards them.
	Log io.Writer

	// ExcerptLimit caps the excerpt in characters (default 4000).
	ExcerptLimit int
}

// NewClient creates a client from configuration.
func NewClient(backend Backend, extractor TextExtractor, cfg types.AnalysisConfig, log io.Writer) *Client {
	return &Client{
		Backend:      backend,
		Extractor:    extractor,
		Clock:        clock.System{},
		Log:          log,
		ExcerptLimit: cfg.ExcerptLimit,
	}
}

// Analyze returns a report for doc. It never fails.
func (c *Client) Analyze(ctx context.Context, doc types.UploadedDocument) Result {
	if c.Backend == nil {
		return c.fallback(doc, &RemoteError{Reason: ReasonUnconfigured, Err: errors.New("no analysis backend configured")})
	}

	req := Request{
		Name:    doc.Name,
		Size:    doc.Size,
		Content: doc.Content,
		Excerpt: c.excerpt(ctx, doc),
	}

	report, err := c.Backend.Analyze(ctx, req)
	if err != nil {
		return c.fallback(doc, classify(err))
	}
	if err := Validate(report); err != nil {
		return c.fallback(doc, &RemoteError{Reason: ReasonShape, Err: err})
	}

	processed := report.FileInfo.ProcessedAt
	if processed.IsZero() {
		processed = c.now()
	}
	report.FileInfo = types.FileInfo{
		Name:        doc.Name,
		Size:        doc.Size,
		ProcessedAt: processed,
		Source:      types.SourceRemote,
	}
	return Result{Report: report}
}

func (c *Client) fallback(doc types.UploadedDocument, failure *RemoteError) Result {
	if c.Log != nil {
		fmt.Fprintf(c.Log, "analysis fallback: %s: %v\n", doc.Name, failure)
	}
	return Result{Report: FallbackReport(doc, c.now()), Failure: failure}
}

// excerpt extracts the document text and caps it. Extraction problems are
// logged and replaced by a placeholder; they never stop the analysis.
func (c *Client) excerpt(ctx context.Context, doc types.UploadedDocument) string {
	var text string
	if c.Extractor != nil {
		t, err := c.Extractor.ExtractText(ctx, doc)
		if err != nil {
			if c.Log != nil {
				fmt.Fprintf(c.Log, "analysis: extracting text from %s: %v\n", doc.Name, err)
			}
			t = convert.Placeholder(doc.Name)
		}
		text = t
	} else {
		text = string(doc.Content)
		if !utf8.Valid(doc.Content) {
			text = convert.Placeholder(doc.Name)
		}
	}

	limit := c.ExcerptLimit
	if limit <= 0 {
		limit = DefaultExcerptLimit
	}
	return Truncate(text, limit)
}

func (c *Client) now() time.Time {
	if c.Clock == nil {
		return time.Now()
	}
	return c.Clock.Now()
}

// Truncate returns the first limit characters of s.
func Truncate(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	n := 0
	for i := range s {
		if n == limit {
			return s[:i]
		}
		n++
	}
	return s
}

// Validate checks that a report has the required shape: a summary and at
// least one labeled insight category.
func Validate(r types.AnalysisReport) error {
	if strings.TrimSpace(r.Summary) == "" {
		return errors.New("report has no summary")
	}
	if len(r.Insights) == 0 {
		return errors.New("report has no insights")
	}
	for i, cat := range r.Insights {
		if strings.TrimSpace(cat.Category) == "" {
			return fmt.Errorf("insight %d has no category", i)
		}
	}
	return nil
}

func classify(err error) *RemoteError {
	var re *RemoteError
	if errors.As(err, &re) {
		return re
	}
	return &RemoteError{Reason: ReasonNetwork, Err: err}
}
