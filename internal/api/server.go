// Package api exposes the orchestration engine over HTTP.
//
// The API is a thin JSON layer over pkg/engine: every handler opens the
// project named in the request, delegates, and maps structured error codes
// to HTTP statuses. Long-running script sessions are not streamed over the
// request; clients poll GET /runs/{id}/events with a cursor.
package api

import (
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"

	"github.com/pystudio/pystudio/pkg/buildinfo"
	"github.com/pystudio/pystudio/pkg/engine"
	"github.com/pystudio/pystudio/pkg/observability"
)

// Server carries the handlers' shared state.
type Server struct {
	Engine *engine.Engine
	Logger *log.Logger
}

// NewServer creates an API server around an engine.
func NewServer(eng *engine.Engine, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{Engine: eng, Logger: logger}
}

// Router builds the HTTP routing table.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.observe)

	r.Get("/healthz", s.handleHealth)
	r.Post("/audit", s.handleAudit)
	r.Post("/check", s.handleCheck)
	r.Post("/install", s.handleInstall)

	r.Route("/runs", func(r chi.Router) {
		r.Post("/", s.handleRunStart)
		r.Get("/{id}", s.handleRunGet)
		r.Get("/{id}/events", s.handleRunEvents)
		r.Post("/{id}/cancel", s.handleRunCancel)
	})

	return r
}

// observe reports request traffic to the logger and the HTTP hooks.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		observability.HTTP().OnRequest(r.Context(), r.Method, r.URL.Path)

		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		elapsed := time.Since(start)
		observability.HTTP().OnResponse(r.Context(), r.Method, r.URL.Path, sw.status, elapsed)
		s.Logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", sw.status,
			"duration", elapsed)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": buildinfo.Version,
	})
}
