// Package server provides the HTTP API for artwork artifact extraction.
//
// Endpoints:
//
//	POST /features — read the page-exposed feature global; JSON array response
//	POST /capture  — screenshot the viewport or a canvas element; image response
//
// Both answer OPTIONS preflight with 204 and permissive CORS. Request bodies
// are validated in full before any browser resource is acquired.
package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tomasbasham/art-capture/internal/allowlist"
	"github.com/tomasbasham/art-capture/internal/errcode"
	"github.com/tomasbasham/art-capture/internal/pipeline"
	"github.com/tomasbasham/art-capture/internal/postprocess"
	"github.com/tomasbasham/art-capture/internal/request"
)

// Server holds the dependencies shared across HTTP handlers.
type Server struct {
	allow  *allowlist.List
	pipe   *pipeline.Pipeline
	router chi.Router
	logger *slog.Logger
}

// New creates a Server wired to the given allow list and pipeline. A nil
// logger discards request logging.
func New(allow *allowlist.List, pipe *pipeline.Pipeline, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	s := &Server{
		allow:  allow,
		pipe:   pipe,
		router: chi.NewRouter(),
		logger: logger,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router

	r.Use(s.corsMiddleware)

	// CORS preflight
	r.Options("/features", s.optionsHandler("POST"))
	r.Options("/capture", s.optionsHandler("POST"))

	r.Post("/features", s.handleFeatures)
	r.Post("/capture", s.handleCapture)
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		next.ServeHTTP(w, r)
	})
}

func (s *Server) optionsHandler(methods string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Methods", methods)
		w.WriteHeader(http.StatusNoContent)
	}
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe starts the HTTP server on the given address. The write
// timeout is left unset because captures legitimately run for minutes.
func (s *Server) ListenAndServe(addr string) error {
	srv := &http.Server{
		Addr:        addr,
		Handler:     s,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}
	return srv.ListenAndServe()
}

func (s *Server) handleFeatures(w http.ResponseWriter, r *http.Request) {
	id := uuid.NewString()
	w.Header().Set("X-Request-Id", id)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.featureError(w, id, errcode.Wrap(errcode.MissingParameters, err))
		return
	}

	req, err := request.ParseFeature(body, s.allow)
	if err != nil {
		s.featureError(w, id, err)
		return
	}

	features, err := s.pipe.Features(r.Context(), req)
	if err != nil {
		s.featureError(w, id, err)
		return
	}

	s.logger.Info("features extracted", "id", id, "url", req.URL, "count", len(features))
	writeJSON(w, http.StatusOK, features)
}

func (s *Server) handleCapture(w http.ResponseWriter, r *http.Request) {
	id := uuid.NewString()
	w.Header().Set("X-Request-Id", id)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.captureError(w, id, errcode.Wrap(errcode.MissingParameters, err))
		return
	}

	req, err := request.ParseCapture(body, s.allow)
	if err != nil {
		s.captureError(w, id, err)
		return
	}

	raw, err := s.pipe.Capture(r.Context(), req)
	if err != nil {
		s.captureError(w, id, err)
		return
	}

	// Post-processing runs after the browser session has been released.
	result, err := postprocess.Shrink(raw)
	if err != nil {
		s.captureError(w, id, errcode.Wrap(errcode.Unknown, err))
		return
	}

	s.logger.Info("capture complete", "id", id, "url", req.URL, "mode", req.Mode,
		"bytes", len(result.Bytes), "content_type", result.ContentType)

	w.Header().Set("Content-Type", result.ContentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.Bytes)
}

// captureError reports a capture failure as a plain-text error code. The code
// string is the entire response body.
func (s *Server) captureError(w http.ResponseWriter, id string, err error) {
	code := errcode.CodeOf(err)
	s.logger.Warn("capture failed", "id", id, "code", code, "error", err)

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusInternalServerError)
	_, _ = w.Write([]byte(code))
}

// featureError reports a feature-extraction failure as a JSON error body.
func (s *Server) featureError(w http.ResponseWriter, id string, err error) {
	code := errcode.CodeOf(err)
	s.logger.Warn("feature extraction failed", "id", id, "code", code, "error", err)

	writeJSON(w, http.StatusBadRequest, map[string]errcode.Code{"error": code})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
