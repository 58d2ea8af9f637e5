package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/omidkh/netwatch/internal/domain"
	"github.com/omidkh/netwatch/internal/engine"
	"github.com/omidkh/netwatch/internal/httpapi/middleware"
)

// SnapshotSource hands out point-in-time copies of the monitor state. The
// API never touches live engine internals.
type SnapshotSource interface {
	Snapshot() engine.Snapshot
}

type Server struct {
	Logger *zap.Logger
	Source SnapshotSource
}

func NewServer(l *zap.Logger, src SnapshotSource) *Server {
	return &Server{Logger: l, Source: src}
}

func (s *Server) Router(ratePerMin, burst int) http.Handler {
	r := chi.NewRouter()
	r.Use(cors.AllowAll().Handler)
	r.Use(middleware.RateLimit(ratePerMin, burst))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Get("/api/status", s.handleStatus)
	r.Get("/api/alerts", s.handleAlerts)

	return r
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	snap := s.Source.Snapshot()
	writeJSON(w, s.Logger, snap)
}

func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	snap := s.Source.Snapshot()
	alerts := snap.Alerts
	if alerts == nil {
		alerts = []domain.AlertEvent{}
	}
	writeJSON(w, s.Logger, alerts)
}

func writeJSON(w http.ResponseWriter, logger *zap.Logger, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("api_encode_error", zap.Error(err))
	}
}
