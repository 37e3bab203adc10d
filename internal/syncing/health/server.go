package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"notesync/internal/core/domain"
)

// Reporter exposes the live state the health endpoints report on.
type Reporter interface {
	AvailabilityState() domain.AvailabilityState
	LastProbe() time.Time
	PendingCount() int
}

// Server provides HTTP endpoints for health monitoring.
type Server struct {
	reporter Reporter
	server   *http.Server
}

// NewServer creates a new health server.
func NewServer(reporter Reporter, port int) *Server {
	mux := http.NewServeMux()
	s := &Server{
		reporter: reporter,
		server: &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: mux,
		},
	}

	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/health/detailed", s.handleDetailed)
	mux.Handle("/metrics", promhttp.Handler())

	return s
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Stop stops the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) report() Report {
	state := s.reporter.AvailabilityState()
	pending := s.reporter.PendingCount()
	return Report{
		Status:       Evaluate(state, pending),
		Availability: state,
		LastProbe:    s.reporter.LastProbe(),
		PendingNotes: pending,
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := s.report()

	w.Header().Set("Content-Type", "application/json")
	if report.Status == StatusCritical {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}

	json.NewEncoder(w).Encode(map[string]string{"status": string(report.Status)})
}

func (s *Server) handleDetailed(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.report())
}
