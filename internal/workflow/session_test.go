// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package workflow

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/financeflow/internal/analysis"
	"github.com/pdiddy/financeflow/internal/clock"
	"github.com/pdiddy/financeflow/internal/convert"
	"github.com/pdiddy/financeflow/internal/usage"
	"github.com/pdiddy/financeflow/pkg/types"
)

var today = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

func newMeter() *usage.Meter {
	m := usage.NewMeter(usage.NewMemoryStore(), types.UsageConfig{})
	m.Clock = clock.NewManual(today)
	return m
}

func expenses() types.UploadedDocument {
	var b strings.Builder
	b.WriteString("Date,Category,Amount\n")
	for i := 1; i <= 5; i++ {
		fmt.Fprintf(&b, "2026-05-%02d,Travel,%d.50\n", i, i*10)
	}
	return types.NewDocument("expenses.csv", []byte(b.String()))
}

func newSession(t *testing.T, m *usage.Meter) (*Session, *bytes.Buffer) {
	t.Helper()
	var log bytes.Buffer
	an := &analysis.Client{Clock: clock.NewManual(today)}
	return New(&convert.Engine{}, an, m, false, &log), &log
}

func TestSession_ExpensesWorkflow(t *testing.T) {
	m := newMeter()
	s, log := newSession(t, m)
	ctx := context.Background()

	s.Select(expenses())

	res, err := s.Convert(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "expenses.xlsx", res.Filename)
	assert.Equal(t, types.FormatExcel, res.Format)

	stored, ok := s.Result()
	require.True(t, ok)
	assert.Equal(t, res.Filename, stored.Filename)

	ar, err := s.Analyze(ctx)
	require.NoError(t, err)
	assert.True(t, ar.FellBack())
	assert.Equal(t, types.SourceFallback, ar.Report.FileInfo.Source)
	assert.NotEmpty(t, ar.Report.Insights)

	_, err = s.Analyze(ctx)
	assert.ErrorIs(t, err, ErrQuotaExceeded)

	rec, err := m.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, types.UsageRecord{Conversions: 1, Analyses: 1, Date: "2026-06-01"}, rec)

	assert.Contains(t, log.String(), "converted: expenses.csv -> expenses.xlsx")
	assert.Contains(t, log.String(), "analyzed: expenses.csv (fallback)")
}

func TestSession_NoDocument(t *testing.T) {
	s, _ := newSession(t, newMeter())

	_, err := s.Convert(context.Background(), "")
	assert.ErrorIs(t, err, ErrNoDocument)
	_, err = s.Analyze(context.Background())
	assert.ErrorIs(t, err, ErrNoDocument)
}

func TestSession_ConversionCap(t *testing.T) {
	m := newMeter()
	s, _ := newSession(t, m)
	ctx := context.Background()
	s.Select(expenses())

	for i := 0; i < 3; i++ {
		_, err := s.Convert(ctx, "JSON")
		require.NoError(t, err, "conversion %d", i+1)
	}
	_, err := s.Convert(ctx, "JSON")
	assert.ErrorIs(t, err, ErrQuotaExceeded)

	// The next day the cap starts over.
	m.Clock.(*clock.Manual).Advance(24 * time.Hour)
	_, err = s.Convert(ctx, "JSON")
	assert.NoError(t, err)
}

func TestSession_FailedConversionRecordsNothing(t *testing.T) {
	m := newMeter()
	s, _ := newSession(t, m)
	ctx := context.Background()

	s.Select(types.NewDocument("scan.png", []byte{0x89, 'P', 'N', 'G'}))
	_, err := s.Convert(ctx, "")
	assert.ErrorIs(t, err, convert.ErrUnsupportedFormat)

	s.Select(types.NewDocument("broken.xlsx", []byte("not a zip")))
	_, err = s.Convert(ctx, "")
	assert.ErrorIs(t, err, convert.ErrParse)

	_, ok := s.Result()
	assert.False(t, ok)

	rec, err := m.Snapshot(ctx)
	require.NoError(t, err)
	assert.Zero(t, rec.Conversions)
}

func TestSession_SelectDiscardsResults(t *testing.T) {
	s, _ := newSession(t, newMeter())
	ctx := context.Background()
	s.Select(expenses())

	_, err := s.Convert(ctx, "")
	require.NoError(t, err)
	_, err = s.Analyze(ctx)
	require.NoError(t, err)

	s.Select(types.NewDocument("other.csv", []byte("a\n1\n")))
	_, ok := s.Result()
	assert.False(t, ok)
	_, ok = s.Report()
	assert.False(t, ok)

	doc, ok := s.Document()
	require.True(t, ok)
	assert.Equal(t, "other.csv", doc.Name)
}

// blockingConverter waits for cancellation after signaling that it started.
type blockingConverter struct {
	started chan struct{}
}

func (b *blockingConverter) Convert(ctx context.Context, _ types.UploadedDocument, _ string) (types.ConversionResult, error) {
	close(b.started)
	<-ctx.Done()
	return types.ConversionResult{}, ctx.Err()
}

// blockingAnalyzer waits for cancellation and then returns a report anyway.
type blockingAnalyzer struct {
	started chan struct{}
}

func (b *blockingAnalyzer) Analyze(ctx context.Context, doc types.UploadedDocument) analysis.Result {
	close(b.started)
	<-ctx.Done()
	return analysis.Result{Report: analysis.FallbackReport(doc, today)}
}

func TestSession_SupersededConversion(t *testing.T) {
	m := newMeter()
	conv := &blockingConverter{started: make(chan struct{})}
	s := New(conv, nil, m, false, nil)
	s.Select(expenses())

	errc := make(chan error, 1)
	go func() {
		_, err := s.Convert(context.Background(), "")
		errc <- err
	}()

	<-conv.started
	s.Select(types.NewDocument("next.csv", []byte("a\n1\n")))

	assert.ErrorIs(t, <-errc, ErrSuperseded)
	_, ok := s.Result()
	assert.False(t, ok)

	rec, err := m.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Zero(t, rec.Conversions)
}

func TestSession_SupersededAnalysis(t *testing.T) {
	m := newMeter()
	an := &blockingAnalyzer{started: make(chan struct{})}
	s := New(nil, an, m, false, nil)
	s.Select(expenses())

	errc := make(chan error, 1)
	go func() {
		_, err := s.Analyze(context.Background())
		errc <- err
	}()

	<-an.started
	s.Select(types.NewDocument("next.csv", []byte("a\n1\n")))

	assert.ErrorIs(t, <-errc, ErrSuperseded)
	_, ok := s.Report()
	assert.False(t, ok)

	allowed, err := m.CheckAllowed(context.Background(), types.ActionAnalysis)
	require.NoError(t, err)
	assert.True(t, allowed)
}

// countingConverter tracks how many calls overlap. Each call signals on
// entered and then waits on release.
type countingConverter struct {
	entered chan struct{}
	release chan struct{}
	active  atomic.Int32
	maxSeen atomic.Int32
}

func (c *countingConverter) Convert(_ context.Context, doc types.UploadedDocument, _ string) (types.ConversionResult, error) {
	n := c.active.Add(1)
	for {
		seen := c.maxSeen.Load()
		if n <= seen || c.maxSeen.CompareAndSwap(seen, n) {
			break
		}
	}
	c.entered <- struct{}{}
	<-c.release
	c.active.Add(-1)
	return types.ConversionResult{Filename: doc.Name}, nil
}

func TestSession_OperationsAreSerialized(t *testing.T) {
	const calls = 8
	conv := &countingConverter{entered: make(chan struct{}), release: make(chan struct{})}
	m := usage.NewMeter(usage.NewMemoryStore(), types.UsageConfig{ConversionLimit: 100})
	m.Clock = clock.NewManual(today)
	s := New(conv, nil, m, false, nil)
	s.Select(expenses())

	var wg sync.WaitGroup
	for i := 0; i < calls; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.Convert(context.Background(), "")
		}()
	}

	// Hold each call open until the next one has had every chance to enter.
	for i := 0; i < calls; i++ {
		<-conv.entered
		assert.Equal(t, int32(1), conv.active.Load())
		select {
		case <-conv.entered:
			t.Fatal("a second conversion started while one was running")
		case <-time.After(10 * time.Millisecond):
		}
		conv.release <- struct{}{}
	}
	wg.Wait()

	assert.Equal(t, int32(1), conv.maxSeen.Load())
	rec, err := m.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 8, rec.Conversions)
}

func TestSession_StrictQuotaAcrossSessions(t *testing.T) {
	m := newMeter()
	ctx := context.Background()

	var wg sync.WaitGroup
	var ok, denied atomic.Int32
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s := New(&convert.Engine{}, nil, m, true, nil)
			s.Select(expenses())
			_, err := s.Convert(ctx, "JSON")
			switch {
			case err == nil:
				ok.Add(1)
			case errors.Is(err, ErrQuotaExceeded):
				denied.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(3), ok.Load())
	assert.Equal(t, int32(7), denied.Load())

	rec, err := m.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, rec.Conversions)
}

func TestSession_StrictRecordsOnce(t *testing.T) {
	m := newMeter()
	s := New(&convert.Engine{}, nil, m, true, nil)
	s.Select(expenses())

	_, err := s.Convert(context.Background(), "JSON")
	require.NoError(t, err)

	rec, err := m.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, rec.Conversions)
}

func TestSession_StrictRejectsUnofferedTargetFirst(t *testing.T) {
	m := newMeter()
	s := New(&convert.Engine{}, nil, m, true, nil)
	ctx := context.Background()

	s.Select(expenses())
	// expenses.csv offers Excel and JSON only.
	_, err := s.Convert(ctx, "CSV")
	assert.ErrorIs(t, err, convert.ErrUnsupportedFormat)

	s.Select(types.NewDocument("scan.png", []byte{0x89, 'P', 'N', 'G'}))
	_, err = s.Convert(ctx, "")
	assert.ErrorIs(t, err, convert.ErrUnsupportedFormat)

	rec, err := m.Snapshot(ctx)
	require.NoError(t, err)
	assert.Zero(t, rec.Conversions)

	// A conversion that is admitted and then fails keeps its unit.
	s.Select(types.NewDocument("broken.xlsx", []byte("not a zip")))
	_, err = s.Convert(ctx, "")
	assert.ErrorIs(t, err, convert.ErrParse)

	rec, err = m.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, rec.Conversions)
}

// failingQuota returns an error from every call.
type failingQuota struct{}

func (failingQuota) CheckAllowed(context.Context, types.ActionKind) (bool, error) {
	return false, errors.New("disk full")
}
func (failingQuota) RecordUsage(context.Context, types.ActionKind) error { return nil }
func (failingQuota) TryConsume(context.Context, types.ActionKind) (bool, error) {
	return false, errors.New("disk full")
}

func TestSession_QuotaErrorPropagates(t *testing.T) {
	s := New(&convert.Engine{}, nil, failingQuota{}, false, nil)
	s.Select(expenses())

	_, err := s.Convert(context.Background(), "")
	assert.ErrorContains(t, err, "disk full")
	assert.NotErrorIs(t, err, ErrQuotaExceeded)
}
