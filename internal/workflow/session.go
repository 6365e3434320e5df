// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package workflow drives conversion and analysis for one selected
// document, gating each action through the usage meter.
//
// A Session runs one operation at a time. Selecting a new document cancels
// whatever is in flight for the old one; that operation returns
// ErrSuperseded, stores nothing, and records no usage.
//
// By default the quota is checked before an operation and recorded after
// it succeeds. Two sessions sharing a meter can therefore both pass the
// check and exceed the cap by one. Strict mode consumes the quota up front
// with an atomic check-and-increment instead; a consumed unit is not
// returned when the operation later fails or is superseded. A conversion
// whose extension or target is not offered is rejected before any quota is
// checked or consumed.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/pdiddy/financeflow/internal/analysis"
	"github.com/pdiddy/financeflow/internal/convert"
	"github.com/pdiddy/financeflow/pkg/types"
)

var (
	// ErrNoDocument is returned when an operation runs before Select.
	ErrNoDocument = errors.New("no document selected")

	// ErrQuotaExceeded is returned when the daily cap for the action is used up.
	ErrQuotaExceeded = errors.New("daily limit reached")

	// ErrSuperseded is returned by an operation whose document was replaced
	// while it ran.
	ErrSuperseded = errors.New("document was replaced during the operation")
)

// Converter converts a document to a target format.
type Converter interface {
	Convert(ctx context.Context, doc types.UploadedDocument, hint string) (types.ConversionResult, error)
}

// Analyzer produces a report for a document.
type Analyzer interface {
	Analyze(ctx context.Context, doc types.UploadedDocument) analysis.Result
}

// Quota gates actions by kind.
type Quota interface {
	CheckAllowed(ctx context.Context, kind types.ActionKind) (bool, error)
	RecordUsage(ctx context.Context, kind types.ActionKind) error
	TryConsume(ctx context.Context, kind types.ActionKind) (bool, error)
}

// Session holds the selected document and the latest results for it.
type Session struct {
	Converter Converter
	Analyzer  Analyzer
	Quota     Quota

	// Strict consumes quota atomically before each operation.
	Strict bool

	// Log receives one status line per completed operation. Nil discards them.
	Log io.Writer

	run sync.Mutex // serializes operations

	mu     sync.Mutex // guards the fields below
	doc    *types.UploadedDocument
	gen    uint64
	cancel context.CancelFunc
	result *types.ConversionResult
	report *types.AnalysisReport
}

// New creates a session.
func New(conv Converter, an Analyzer, quota Quota, strict bool, log io.Writer) *Session {
	return &Session{Converter: conv, Analyzer: an, Quota: quota, Strict: strict, Log: log}
}

// Select makes doc the current document. Results for the previous document
// are discarded and its in-flight operation is canceled.
func (s *Session) Select(doc types.UploadedDocument) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.gen++
	s.doc = &doc
	s.result = nil
	s.report = nil
}

// Document returns the selected document.
func (s *Session) Document() (types.UploadedDocument, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc == nil {
		return types.UploadedDocument{}, false
	}
	return *s.doc, true
}

// Result returns the last conversion result for the current document.
func (s *Session) Result() (types.ConversionResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.result == nil {
		return types.ConversionResult{}, false
	}
	return *s.result, true
}

// Report returns the last analysis report for the current document.
func (s *Session) Report() (types.AnalysisReport, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.report == nil {
		return types.AnalysisReport{}, false
	}
	return *s.report, true
}

// Convert converts the current document. An empty hint selects the
// default target for the document's extension.
func (s *Session) Convert(ctx context.Context, hint string) (types.ConversionResult, error) {
	op, err := s.begin(ctx)
	if err != nil {
		return types.ConversionResult{}, err
	}
	defer op.end()

	if _, err := convert.ResolveTarget(op.doc.Name, hint); err != nil {
		return types.ConversionResult{}, err
	}
	if err := s.admit(op.ctx, types.ActionConversion); err != nil {
		return types.ConversionResult{}, err
	}

	res, err := s.Converter.Convert(op.ctx, op.doc, hint)
	if !s.current(op.gen) {
		return types.ConversionResult{}, ErrSuperseded
	}
	if err != nil {
		return types.ConversionResult{}, err
	}

	err = s.commit(op, types.ActionConversion, func() { s.result = &res })
	if err != nil {
		return types.ConversionResult{}, err
	}
	s.logf("converted: %s -> %s\n", op.doc.Name, res.Filename)
	return res, nil
}

// Analyze analyzes the current document. A fallback report counts as a
// completed analysis.
func (s *Session) Analyze(ctx context.Context) (analysis.Result, error) {
	op, err := s.begin(ctx)
	if err != nil {
		return analysis.Result{}, err
	}
	defer op.end()

	if err := s.admit(op.ctx, types.ActionAnalysis); err != nil {
		return analysis.Result{}, err
	}

	res := s.Analyzer.Analyze(op.ctx, op.doc)
	if !s.current(op.gen) {
		return analysis.Result{}, ErrSuperseded
	}

	report := res.Report
	if err := s.commit(op, types.ActionAnalysis, func() { s.report = &report }); err != nil {
		return analysis.Result{}, err
	}
	s.logf("analyzed: %s (%s)\n", op.doc.Name, res.Report.FileInfo.Source)
	return res, nil
}

// operation is one running Convert or Analyze call.
type operation struct {
	ctx context.Context
	doc types.UploadedDocument
	gen uint64
	end func()
}

func (s *Session) begin(ctx context.Context) (*operation, error) {
	s.run.Lock()

	s.mu.Lock()
	if s.doc == nil {
		s.mu.Unlock()
		s.run.Unlock()
		return nil, ErrNoDocument
	}
	opCtx, cancel := context.WithCancel(ctx)
	op := &operation{ctx: opCtx, doc: *s.doc, gen: s.gen}
	s.cancel = cancel
	s.mu.Unlock()

	op.end = func() {
		cancel()
		s.mu.Lock()
		if s.gen == op.gen {
			s.cancel = nil
		}
		s.mu.Unlock()
		s.run.Unlock()
	}
	return op, nil
}

func (s *Session) admit(ctx context.Context, kind types.ActionKind) error {
	check := s.Quota.CheckAllowed
	if s.Strict {
		check = s.Quota.TryConsume
	}
	ok, err := check(ctx, kind)
	if err != nil {
		return fmt.Errorf("checking %s quota: %w", kind, err)
	}
	if !ok {
		return fmt.Errorf("%s: %w", kind, ErrQuotaExceeded)
	}
	return nil
}

// commit records usage and stores the outcome, unless the document was
// replaced first. It holds the state lock so Select cannot interleave.
func (s *Session) commit(op *operation, kind types.ActionKind, store func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.gen != op.gen {
		return ErrSuperseded
	}
	if !s.Strict {
		if err := s.Quota.RecordUsage(op.ctx, kind); err != nil {
			return fmt.Errorf("recording %s: %w", kind, err)
		}
	}
	store()
	return nil
}

func (s *Session) current(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen == gen
}

func (s *Session) logf(format string, args ...any) {
	if s.Log != nil {
		fmt.Fprintf(s.Log, format, args...)
	}
}
