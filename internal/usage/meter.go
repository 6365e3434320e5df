// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package usage meters daily conversion and analysis counts against fixed
// caps.
//
// The Meter is an advisory gate: callers ask CheckAllowed before an action
// and call RecordUsage after it succeeds. The two calls are separate, so
// concurrent callers can both pass the check and overshoot the cap by a
// little. TryConsume performs the check and the increment under one lock
// for callers that need the cap enforced strictly.
package usage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/pdiddy/financeflow/internal/clock"
	"github.com/pdiddy/financeflow/pkg/types"
)

// RecordKey is the store key holding the usage record.
const RecordKey = "financeflow_usage"

const (
	defaultConversionLimit = 3
	defaultAnalysisLimit   = 1
)

// ErrUnknownAction is returned for action kinds the meter does not track.
var ErrUnknownAction = errors.New("unknown action kind")

// Limits holds the daily cap per action kind.
type Limits struct {
	Conversions int
	Analyses    int
}

// Of returns the cap for kind.
func (l Limits) Of(kind types.ActionKind) (int, error) {
	switch kind {
	case types.ActionConversion:
		return l.Conversions, nil
	case types.ActionAnalysis:
		return l.Analyses, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownAction, kind)
}

// Meter gates actions on the persisted UsageRecord.
type Meter struct {
	Store  Store
	Clock  clock.Clock
	Limits Limits

	// Log receives operator notes such as discarded records. Nil discards them.
	Log io.Writer

	mu sync.Mutex
}

// NewMeter creates a meter with caps from cfg. Zero caps fall back to the
// defaults (3 conversions, 1 analysis).
func NewMeter(store Store, cfg types.UsageConfig) *Meter {
	limits := Limits{Conversions: cfg.ConversionLimit, Analyses: cfg.AnalysisLimit}
	if limits.Conversions <= 0 {
		limits.Conversions = defaultConversionLimit
	}
	if limits.Analyses <= 0 {
		limits.Analyses = defaultAnalysisLimit
	}
	return &Meter{Store: store, Clock: clock.System{}, Limits: limits}
}

// CheckAllowed reports whether one more action of kind fits under today's cap.
func (m *Meter) CheckAllowed(ctx context.Context, kind types.ActionKind) (bool, error) {
	limit, err := m.Limits.Of(kind)
	if err != nil {
		return false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	rec, err := m.reconcile(ctx)
	if err != nil {
		return false, err
	}
	return rec.Count(kind) < limit, nil
}

// RecordUsage counts one completed action of kind.
func (m *Meter) RecordUsage(ctx context.Context, kind types.ActionKind) error {
	if _, err := m.Limits.Of(kind); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	rec, err := m.reconcile(ctx)
	if err != nil {
		return err
	}
	increment(&rec, kind)
	return m.save(ctx, rec)
}

// TryConsume atomically checks the cap for kind and, when allowed, counts
// the action. It reports whether the action was allowed.
func (m *Meter) TryConsume(ctx context.Context, kind types.ActionKind) (bool, error) {
	limit, err := m.Limits.Of(kind)
	if err != nil {
		return false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	rec, err := m.reconcile(ctx)
	if err != nil {
		return false, err
	}
	if rec.Count(kind) >= limit {
		return false, nil
	}
	increment(&rec, kind)
	if err := m.save(ctx, rec); err != nil {
		return false, err
	}
	return true, nil
}

// Snapshot returns today's record.
func (m *Meter) Snapshot(ctx context.Context) (types.UsageRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reconcile(ctx)
}

// Remaining returns how many actions of kind are left today.
func (m *Meter) Remaining(ctx context.Context, kind types.ActionKind) (int, error) {
	limit, err := m.Limits.Of(kind)
	if err != nil {
		return 0, err
	}
	rec, err := m.Snapshot(ctx)
	if err != nil {
		return 0, err
	}
	if left := limit - rec.Count(kind); left > 0 {
		return left, nil
	}
	return 0, nil
}

// Reset clears today's counters.
func (m *Meter) Reset(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.save(ctx, types.UsageRecord{Date: m.today()})
}

// reconcile loads the record and brings it to today, resetting the counts
// of a record from another day. Callers hold m.mu.
func (m *Meter) reconcile(ctx context.Context) (types.UsageRecord, error) {
	today := m.today()

	raw, found, err := m.Store.Get(ctx, RecordKey)
	if err != nil {
		return types.UsageRecord{}, fmt.Errorf("loading usage record: %w", err)
	}
	if !found {
		return types.UsageRecord{Date: today}, nil
	}

	var rec types.UsageRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		m.logf("usage: discarding unreadable record: %v\n", err)
		return m.fresh(ctx, today)
	}
	if rec.Date != today {
		return m.fresh(ctx, today)
	}
	return rec, nil
}

func (m *Meter) fresh(ctx context.Context, today string) (types.UsageRecord, error) {
	rec := types.UsageRecord{Date: today}
	if err := m.save(ctx, rec); err != nil {
		return types.UsageRecord{}, err
	}
	return rec, nil
}

func (m *Meter) save(ctx context.Context, rec types.UsageRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshaling usage record: %w", err)
	}
	if err := m.Store.Set(ctx, RecordKey, data); err != nil {
		return fmt.Errorf("saving usage record: %w", err)
	}
	return nil
}

func (m *Meter) today() string {
	c := m.Clock
	if c == nil {
		c = clock.System{}
	}
	return c.Now().Format(types.DateLayout)
}

func (m *Meter) logf(format string, args ...any) {
	if m.Log != nil {
		fmt.Fprintf(m.Log, format, args...)
	}
}

func increment(rec *types.UsageRecord, kind types.ActionKind) {
	switch kind {
	case types.ActionConversion:
		rec.Conversions++
	case types.ActionAnalysis:
		rec.Analyses++
	}
}
