package diagnostics

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/fadedpez/egmcore/internal/logging"
	"github.com/fadedpez/egmcore/pkg/entities"
	historyRepo "github.com/fadedpez/egmcore/pkg/repositories/history"
	"github.com/fadedpez/egmcore/pkg/runtime"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Replayer re-narrates archived rounds
type Replayer interface {
	Replay(ctx context.Context, roundID string) ([]entities.RoundEvent, error)
}

// MeterReader returns every meter reading
type MeterReader interface {
	Snapshot(ctx context.Context) (map[string]int64, error)
}

// Sources are what the diagnostics surface reads from. It never writes.
type Sources struct {
	Replayer Replayer
	Meters   MeterReader
	Signals  func() runtime.Signals
	Phase    func() entities.RoundPhase
}

// Server is the read-only HTTP surface used by review screens
type Server struct {
	router  chi.Router
	server  *http.Server
	sources Sources
	log     *logging.Logger
}

// NewServer creates a diagnostics server listening on addr
func NewServer(addr string, sources Sources, logger *logging.Logger) *Server {
	if logger == nil {
		logger = logging.Default
	}

	router := chi.NewRouter()
	s := &Server{
		router: router,
		server: &http.Server{
			Addr:         addr,
			Handler:      router,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  120 * time.Second,
		},
		sources: sources,
		log:     logger.Named("diagnostics"),
	}

	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Get("/healthz", s.health)
	router.Get("/signals", s.signals)
	router.Get("/meters", s.meters)
	router.Get("/phase", s.phase)
	router.Get("/rounds/{roundID}/replay", s.replay)
	return s
}

// Handler returns the router, for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until Shutdown
func (s *Server) Run() error {
	s.log.Info("Diagnostics listening on %s", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) signals(w http.ResponseWriter, r *http.Request) {
	if s.sources.Signals == nil {
		s.writeError(w, http.StatusNotFound, "signals are not available")
		return
	}
	s.writeJSON(w, http.StatusOK, s.sources.Signals())
}

func (s *Server) meters(w http.ResponseWriter, r *http.Request) {
	if s.sources.Meters == nil {
		s.writeError(w, http.StatusNotFound, "meters are not available")
		return
	}
	snapshot, err := s.sources.Meters.Snapshot(r.Context())
	if err != nil {
		s.log.Error("Reading meters failed: %v", err)
		s.writeError(w, http.StatusInternalServerError, "could not read meters")
		return
	}
	s.writeJSON(w, http.StatusOK, snapshot)
}

func (s *Server) phase(w http.ResponseWriter, r *http.Request) {
	if s.sources.Phase == nil {
		s.writeError(w, http.StatusNotFound, "phase is not available")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"phase": s.sources.Phase().String()})
}

func (s *Server) replay(w http.ResponseWriter, r *http.Request) {
	if s.sources.Replayer == nil {
		s.writeError(w, http.StatusNotFound, "replay is not available")
		return
	}

	roundID := chi.URLParam(r, "roundID")
	events, err := s.sources.Replayer.Replay(r.Context(), roundID)
	switch {
	case errors.Is(err, historyRepo.ErrRoundNotFound):
		s.writeError(w, http.StatusNotFound, "round "+roundID+" not found")
	case err != nil:
		s.log.Error("Replay of round %s failed: %v", roundID, err)
		s.writeError(w, http.StatusInternalServerError, "replay failed")
	default:
		s.writeJSON(w, http.StatusOK, events)
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.log.Warn("Writing response failed: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
