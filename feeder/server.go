package feeder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"cosmossdk.io/log"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
)

// HealthStatus represents the health of the agent
type HealthStatus string

const (
	StatusHealthy   HealthStatus = "healthy"
	StatusDegraded  HealthStatus = "degraded"
	StatusUnhealthy HealthStatus = "unhealthy"
)

// HealthCheck is the body of the readiness endpoint
type HealthCheck struct {
	Status    HealthStatus `json:"status"`
	Message   string       `json:"message,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
	Agent     Status       `json:"agent"`
}

// StatusProvider exposes the agent's progress to the server.
type StatusProvider interface {
	Status() Status
}

// Server serves health checks and Prometheus metrics for the agent.
type Server struct {
	logger     log.Logger
	agent      StatusProvider
	gatherer   prometheus.Gatherer
	maxTickAge time.Duration
	httpServer *http.Server
}

// NewServer creates the agent's HTTP server from cfg.
func NewServer(logger log.Logger, cfg ServerConfig, agent StatusProvider, gatherer prometheus.Gatherer) *Server {
	s := &Server{
		logger:     logger.With("module", "oracle-feeder-server"),
		agent:      agent,
		gatherer:   gatherer,
		maxTickAge: Duration(cfg.MaxTickAge),
	}

	router := mux.NewRouter()
	s.RegisterRoutes(router)

	c := cors.New(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		Debug:          cfg.VerboseCORS,
	})

	s.httpServer = &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handlers.RecoveryHandler()(c.Handler(router)),
		ReadTimeout:       Duration(cfg.ReadTimeout),
		WriteTimeout:      Duration(cfg.WriteTimeout),
		ReadHeaderTimeout: 5 * time.Second,
	}

	return s
}

// RegisterRoutes registers the health and metrics endpoints
func (s *Server) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	router.HandleFunc("/health/ready", s.handleHealthReady).Methods(http.MethodGet)
	router.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
}

// Serve listens until ctx is done and then shuts the server down.
func (s *Server) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting oracle feeder server", "address", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("failed to start server: %w", err)
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s.logger.Info("shutting down oracle feeder server")
	return s.httpServer.Shutdown(shutdownCtx)
}

// Check reports the agent as unhealthy when it has not handled a block for
// longer than maxTickAge, and degraded when the last block ended in an error.
func (s *Server) Check(now time.Time) HealthCheck {
	status := s.agent.Status()
	health := HealthCheck{
		Status:    StatusHealthy,
		Timestamp: now,
		Agent:     status,
	}

	switch {
	case status.LastTick.IsZero():
		health.Status = StatusUnhealthy
		health.Message = "no block handled yet"
	case now.Sub(status.LastTick) > s.maxTickAge:
		health.Status = StatusUnhealthy
		health.Message = fmt.Sprintf("last block handled %s ago", now.Sub(status.LastTick).Round(time.Second))
	case status.LastError != "":
		health.Status = StatusDegraded
		health.Message = status.LastError
	}

	return health
}

// handleHealth handles the basic liveness check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// handleHealthReady handles the readiness check endpoint
func (s *Server) handleHealthReady(w http.ResponseWriter, _ *http.Request) {
	health := s.Check(time.Now().UTC())

	statusCode := http.StatusOK
	if health.Status == StatusUnhealthy {
		statusCode = http.StatusServiceUnavailable
	}
	writeJSON(w, statusCode, health)
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.agent.Status())
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
