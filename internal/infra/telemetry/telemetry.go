package telemetry

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/pwysocki/docvault/internal/infra/config"
)

// Metrics holds the domain-level Prometheus instruments. HTTP request
// metrics are registered by the transport middleware.
type Metrics struct {
	Decisions *prometheus.CounterVec
}

// NewMetrics registers the service metrics on the default registry.
func NewMetrics() *Metrics {
	return &Metrics{
		Decisions: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "docvault",
			Name:      "authorization_decisions_total",
			Help:      "Authorization decisions by resource type, operation and outcome",
		}, []string{"resource_type", "operation", "decision"}),
	}
}

// ObserveDecision records an allow or deny outcome for an authorization check.
func (m *Metrics) ObserveDecision(resourceType, operation string, allowed bool) {
	decision := "deny"
	if allowed {
		decision = "allow"
	}
	m.Decisions.WithLabelValues(resourceType, operation, decision).Inc()
}

// Server serves the Prometheus scrape endpoint on a dedicated port.
type Server struct {
	server *http.Server
	logger *zap.Logger
}

// NewServer builds the metrics HTTP server from telemetry settings.
func NewServer(cfg config.TelemetrySettings, logger *zap.Logger) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	return &Server{
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.MetricsPort),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: logger,
	}
}

// Start begins serving the scrape endpoint. Blocks until shutdown.
func (s *Server) Start() error {
	s.logger.Info("Metrics server listening", zap.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics server: %w", err)
	}
	return nil
}

// Shutdown stops the metrics server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down metrics server")
	return s.server.Shutdown(ctx)
}
