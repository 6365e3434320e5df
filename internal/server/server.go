// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes conversion and analysis over HTTP. It also serves
// as a remote analysis endpoint for other financeflow clients: the
// POST /analyze-document response is the wire report the HTTP backend
// decodes.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/pdiddy/financeflow/internal/analysis"
	"github.com/pdiddy/financeflow/internal/convert"
	"github.com/pdiddy/financeflow/internal/formats"
	"github.com/pdiddy/financeflow/pkg/types"
)

const (
	defaultAddr           = ":8080"
	defaultMaxUploadBytes = 10 << 20
	shutdownTimeout       = 5 * time.Second
)

// Converter converts an uploaded document.
type Converter interface {
	Convert(ctx context.Context, doc types.UploadedDocument, hint string) (types.ConversionResult, error)
}

// Analyzer produces a report for an uploaded document.
type Analyzer interface {
	Analyze(ctx context.Context, doc types.UploadedDocument) analysis.Result
}

// Server holds the handlers' dependencies.
type Server struct {
	Converter      Converter
	Analyzer       Analyzer
	MaxUploadBytes int64

	// Log receives one line per request. Nil discards them.
	Log io.Writer
}

// New creates a server from configuration.
func New(conv Converter, an Analyzer, cfg types.ServerConfig, log io.Writer) *Server {
	return &Server{Converter: conv, Analyzer: an, MaxUploadBytes: cfg.MaxUploadBytes, Log: log}
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
		ExposedHeaders: []string{"Content-Disposition", requestIDHeader},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/formats", s.handleFormats)
	r.Post("/convert", s.handleConvert)
	r.Post("/analyze-document", s.handleAnalyze)
	return r
}

// ListenAndServe serves on addr until ctx is canceled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	if addr == "" {
		addr = defaultAddr
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logf("server listening on %s\n", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	s.logf("shutting down server\n")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}

// formatsResponse lists conversion targets per source extension.
type formatsResponse struct {
	Extension string                      `json:"extension,omitempty"`
	Targets   []formats.Format            `json:"targets,omitempty"`
	Formats   map[string][]formats.Format `json:"formats,omitempty"`
}

// GET /formats?ext=csv
func (s *Server) handleFormats(w http.ResponseWriter, r *http.Request) {
	if ext := r.URL.Query().Get("ext"); ext != "" {
		if !formats.Supported(ext) {
			writeError(w, http.StatusNotFound, fmt.Sprintf("unsupported format: %s", ext))
			return
		}
		writeJSON(w, http.StatusOK, formatsResponse{
			Extension: strings.ToLower(strings.TrimPrefix(ext, ".")),
			Targets:   formats.SupportedTargets(ext),
		})
		return
	}

	all := make(map[string][]formats.Format)
	for _, ext := range formats.Extensions() {
		all[ext] = formats.SupportedTargets(ext)
	}
	writeJSON(w, http.StatusOK, formatsResponse{Formats: all})
}

// POST /convert?target=JSON
func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.readUpload(w, r)
	if !ok {
		return
	}

	res, err := s.Converter.Convert(r.Context(), doc, r.URL.Query().Get("target"))
	if err != nil {
		writeError(w, convertStatus(err), err.Error())
		return
	}

	w.Header().Set("Content-Type", res.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", res.Filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(res.Data)
}

// POST /analyze-document
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.readUpload(w, r)
	if !ok {
		return
	}
	res := s.Analyzer.Analyze(r.Context(), doc)
	writeJSON(w, http.StatusOK, res.Report)
}

// readUpload reads the multipart "file" part. On failure it writes the
// error response and returns false.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (types.UploadedDocument, bool) {
	limit := s.MaxUploadBytes
	if limit <= 0 {
		limit = defaultMaxUploadBytes
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	f, hdr, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("upload exceeds %d bytes", limit))
			return types.UploadedDocument{}, false
		}
		writeError(w, http.StatusBadRequest, "missing file part")
		return types.UploadedDocument{}, false
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("reading upload: %v", err))
		return types.UploadedDocument{}, false
	}
	return types.NewDocument(filepath.Base(hdr.Filename), data), true
}

func convertStatus(err error) int {
	switch {
	case errors.Is(err, convert.ErrServerSideRequired):
		return http.StatusNotImplemented
	case errors.Is(err, convert.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, convert.ErrParse), errors.Is(err, convert.ErrEncode):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) logf(format string, args ...any) {
	if s.Log != nil {
		fmt.Fprintf(s.Log, format, args...)
	}
}
