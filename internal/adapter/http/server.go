package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/quake-compass/internal/domain"
	"github.com/couchcryptid/quake-compass/internal/pipeline"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SnapshotProvider exposes the latest published dashboard.
type SnapshotProvider interface {
	sharedobs.ReadinessChecker
	Snapshot() *pipeline.Snapshot
}

// Server exposes health, readiness, metrics and dashboard HTTP endpoints.
type Server struct {
	httpServer *http.Server
	snapshots  SnapshotProvider
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics and the
// /api dashboard routes.
func NewServer(addr string, snapshots SnapshotProvider, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		snapshots: snapshots,
		logger:    logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(snapshots))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /api/dashboard", s.handleDashboard)
	mux.HandleFunc("GET /api/regions", s.handleRegions)
	mux.HandleFunc("GET /api/regions/{name}", s.handleRegion)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

// Response statuses.
const (
	statusOK       = "ok"
	statusNoData   = "no_data"
	statusError    = "error"
	statusNotReady = "not_ready"
)

type dashboardResponse struct {
	Status      string                 `json:"status"`
	Source      string                 `json:"source,omitempty"`
	GeneratedAt time.Time              `json:"generated_at,omitzero"`
	Error       string                 `json:"error,omitempty"`
	Dashboard   *domain.Dashboard      `json:"dashboard,omitempty"`
	Regions     []domain.RegionSummary `json:"regions,omitempty"`
	Region      *domain.RegionSummary  `json:"region,omitempty"`
}

func (s *Server) handleDashboard(w http.ResponseWriter, _ *http.Request) {
	snap, ok := s.usableSnapshot(w)
	if !ok {
		return
	}
	resp := envelope(snap)
	resp.Dashboard = &snap.Dashboard
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRegions(w http.ResponseWriter, _ *http.Request) {
	snap, ok := s.usableSnapshot(w)
	if !ok {
		return
	}
	resp := envelope(snap)
	resp.Regions = snap.Dashboard.Ranked()
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRegion(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.usableSnapshot(w)
	if !ok {
		return
	}
	name := r.PathValue("name")
	region, found := snap.Dashboard.Regions[name]
	if !found {
		s.writeJSON(w, http.StatusNotFound, dashboardResponse{Status: statusError, Error: "unknown region " + name})
		return
	}
	resp := envelope(snap)
	resp.Region = &region
	s.writeJSON(w, http.StatusOK, resp)
}

// usableSnapshot writes the response itself and returns false when there is
// no dashboard to serve. A degenerate batch is an explicit no-data state,
// not a server error.
func (s *Server) usableSnapshot(w http.ResponseWriter) (*pipeline.Snapshot, bool) {
	snap := s.snapshots.Snapshot()
	switch {
	case snap == nil:
		s.writeJSON(w, http.StatusServiceUnavailable, dashboardResponse{Status: statusNotReady})
		return nil, false
	case errors.Is(snap.Err, domain.ErrDegenerateInput):
		resp := envelope(snap)
		resp.Status = statusNoData
		s.writeJSON(w, http.StatusOK, resp)
		return nil, false
	case snap.Err != nil:
		s.logger.Error("serving failed snapshot", "error", snap.Err)
		resp := envelope(snap)
		resp.Status = statusError
		resp.Error = snap.Err.Error()
		s.writeJSON(w, http.StatusInternalServerError, resp)
		return nil, false
	}
	return snap, true
}

func envelope(snap *pipeline.Snapshot) dashboardResponse {
	return dashboardResponse{
		Status:      statusOK,
		Source:      snap.Source,
		GeneratedAt: snap.GeneratedAt,
	}
}

// writeJSON encodes before writing the header so an unencodable payload
// becomes a 500 instead of a truncated 200.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		s.logger.Error("encode response failed", "status", status, "error", err)
		http.Error(w, `{"status":"error","error":"encode response"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(append(body, '\n')); err != nil {
		s.logger.Debug("write response failed", "error", err)
	}
}
