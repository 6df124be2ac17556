package status

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jscyril/dmx_media_trigger/internal/platform/logger"
	"github.com/jscyril/dmx_media_trigger/internal/platform/metrics"
)

const shutdownTimeout = 5 * time.Second

// Server exposes health, status and metrics over HTTP using go-chi.
type Server struct {
	addr    string
	tracker *Tracker
	log     *slog.Logger
	metrics *metrics.Metrics
	started time.Time
}

// NewServer returns a Server for tracker. Metrics may be nil to disable
// the /metrics route.
func NewServer(addr string, tracker *Tracker, m *metrics.Metrics, log *slog.Logger) *Server {
	return &Server{addr: addr, tracker: tracker, log: log, metrics: m, started: time.Now()}
}

// Handler returns the route table
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(logger.RequestLogger(s.log))
	r.Get("/healthz", s.Health)
	r.Get("/status", s.Status)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler())
	}
	return r
}

// Health handles GET /healthz.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(s.started).Round(time.Second).String(),
	})
}

// Status handles GET /status with the tracker's current snapshot.
func (s *Server) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.tracker.Snapshot())
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// Run serves until ctx is cancelled, then drains connections
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{Addr: s.addr, Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("status server starting", "addr", s.addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.log.Info("status server stopped")
	return nil
}
