// Package metrics exposes Prometheus instrumentation for the oracle and a
// standalone metrics HTTP server.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors of the oracle service.
type Metrics struct {
	registry *prometheus.Registry

	Operations     *prometheus.CounterVec
	FeesCollected  prometheus.Counter
	AmountsMoved   *prometheus.CounterVec
	AuditSinkDrops prometheus.Counter
}

// New creates and registers all collectors under the given namespace.
func New(namespace string) *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		Operations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Oracle operations by kind and outcome.",
		}, []string{"operation", "outcome"}),
		FeesCollected: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fees_collected_total",
			Help:      "Total fee units charged by successful fetches.",
		}),
		AmountsMoved: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "escrow_moved_total",
			Help:      "Escrow units moved by direction (deposit/withdraw).",
		}, []string{"direction"}),
		AuditSinkDrops: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audit_sink_drops_total",
			Help:      "Audit events that failed to persist to a sink.",
		}),
	}
}

// RecordOperation counts one operation with its outcome ("ok" or the
// sentinel error class).
func (m *Metrics) RecordOperation(operation, outcome string) {
	m.Operations.WithLabelValues(operation, outcome).Inc()
}

// MetricsServer serves the Prometheus registry over HTTP on its own
// listen address.
type MetricsServer struct {
	srv *http.Server
}

// NewServer creates a metrics server for the given collectors.
func NewServer(m *Metrics, listenAddr string) *MetricsServer {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))

	return &MetricsServer{
		srv: &http.Server{
			Addr:        listenAddr,
			Handler:     mux,
			ReadTimeout: 5 * time.Second,
		},
	}
}

// Run blocks serving metrics until Shutdown is called.
func (s *MetricsServer) Run() error {
	err := s.srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown gracefully stops the metrics server.
func (s *MetricsServer) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
