// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/huddle/internal/domain/snapshot"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the pipeline service.
type Dependencies interface {
	// LastRun returns the latest assembled document, nil before the first run.
	LastRun() *snapshot.Document

	// GetStats exposes run state for monitoring.
	GetStats() map[string]interface{}
}

// Server wires HTTP routes for the dashboard API.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	snapshotHandler *SnapshotHandler
	insightsHandler *InsightsHandler
	refreshHandler  *RefreshHandler

	publicDir string
}

// ServerOption applies a configuration option to the Server.
type ServerOption func(*Server)

// WithPublicDir serves the given directory at the root path, mirroring how
// the dashboard's static assets are deployed next to the snapshot.
func WithPublicDir(dir string) ServerOption {
	return func(s *Server) {
		s.publicDir = dir
	}
}

// WithRefresher enables the on-demand refresh endpoint. Without it the
// endpoint reports a configuration error.
func WithRefresher(r Refresher) ServerOption {
	return func(s *Server) {
		s.refreshHandler = NewRefreshHandler(r)
	}
}

// NewServer creates an API server with all handlers.
func NewServer(deps Dependencies, forwarder InsightsForwarder, opts ...ServerOption) *Server {
	s := &Server{
		healthHandler:   NewHealthHandler(deps),
		statsHandler:    NewStatsHandler(deps),
		snapshotHandler: NewSnapshotHandler(deps),
		insightsHandler: NewInsightsHandler(forwarder),
		refreshHandler:  NewRefreshHandler(nil),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/api/dashboard-data", MetricsMiddleware(s.snapshotHandler.HandleSnapshot, "dashboard_data"))
	mux.HandleFunc("/generate-insights", MetricsMiddleware(s.insightsHandler.HandleGenerate, "generate_insights"))
	mux.HandleFunc("/api/refresh", MetricsMiddleware(s.refreshHandler.HandleRefresh, "refresh"))

	if s.publicDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(s.publicDir)))
	}
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
