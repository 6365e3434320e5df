// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/pdiddy/financeflow/internal/analysis"
	"github.com/pdiddy/financeflow/internal/container"
	"github.com/pdiddy/financeflow/internal/convert"
	"github.com/pdiddy/financeflow/internal/usage"
	"github.com/pdiddy/financeflow/internal/workflow"
	"github.com/pdiddy/financeflow/pkg/types"
)

// app wires the components for one CLI invocation.
type app struct {
	cfg    types.Config
	engine *convert.Engine
	client *analysis.Client
	store  *usage.SQLiteStore
	meter  *usage.Meter
	log    io.Writer
}

// newApp builds the engine, analysis client, and usage meter from cfg.
// Status lines go to log.
func newApp(ctx context.Context, cfg types.Config, log io.Writer) (*app, error) {
	backend, err := newBackend(cfg.Analysis)
	if err != nil {
		return nil, err
	}

	var docs convert.DocumentConverter
	if cfg.Conversion.Markitdown {
		docs = newMarkitdown(ctx, log)
	}
	engine := convert.NewEngine(cfg.Conversion, docs)

	store, err := usage.NewSQLiteStore(cfg.Usage.DBPath)
	if err != nil {
		return nil, fmt.Errorf("usage database %s: %w", cfg.Usage.DBPath, err)
	}
	if err := store.Ping(ctx); err != nil {
		store.Close()
		return nil, fmt.Errorf("usage database %s: %w", cfg.Usage.DBPath, err)
	}
	meter := usage.NewMeter(store, cfg.Usage)
	meter.Log = log

	return &app{
		cfg:    cfg,
		engine: engine,
		client: analysis.NewClient(backend, engine, cfg.Analysis, log),
		store:  store,
		meter:  meter,
		log:    log,
	}, nil
}

// session returns a workflow session over the app's components.
func (a *app) session() *workflow.Session {
	return workflow.New(a.engine, a.client, a.meter, a.cfg.Usage.Strict, a.log)
}

func (a *app) Close() error {
	return a.store.Close()
}

// newBackend returns the configured analysis backend, or nil when none is
// configured. A nil backend makes every analysis use the fallback report.
func newBackend(cfg types.AnalysisConfig) (analysis.Backend, error) {
	kind, err := backendKind(cfg)
	if err != nil {
		return nil, err
	}
	switch kind {
	case types.BackendHTTP:
		if cfg.Endpoint == "" {
			return nil, fmt.Errorf("analysis backend http needs analysis.endpoint")
		}
		return analysis.NewHTTPBackend(cfg), nil
	case types.BackendOpenAI:
		return analysis.NewOpenAIBackend(cfg.AI, &http.Client{Timeout: cfg.Timeout}), nil
	}
	return nil, nil
}

// newMarkitdown returns the container-based document converter, or nil
// when no runtime or image is available.
func newMarkitdown(ctx context.Context, log io.Writer) convert.DocumentConverter {
	rt, err := container.DetectRuntime(ctx)
	if err != nil {
		fmt.Fprintf(log, "markitdown disabled: %v\n", err)
		return nil
	}
	m, err := convert.NewMarkitdownConverter(ctx, rt)
	if err != nil {
		fmt.Fprintf(log, "markitdown disabled: %v\n", err)
		return nil
	}
	return m
}
