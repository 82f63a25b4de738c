// Package metrics exposes Prometheus metrics for the multisig service.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome label values.
const (
	OutcomeSuccess = "success"
	OutcomeSkipped = "skipped"
	OutcomeError   = "error"

	OutcomeNotEnough = "not_enough_signatures"
	OutcomeInvalid   = "invalid_signature"
)

// MultisigMetrics holds the domain counters.
type MultisigMetrics struct {
	MessagesCreated  prometheus.Counter
	Signatures       *prometheus.CounterVec
	Verifications    *prometheus.CounterVec
	ReceiptsArchived *prometheus.CounterVec
	KeysGenerated    prometheus.Counter
}

// NewMultisigMetrics creates the domain counters and registers them with reg.
// A nil reg creates unregistered counters, which is convenient in tests.
func NewMultisigMetrics(namespace string, reg prometheus.Registerer) *MultisigMetrics {
	m := &MultisigMetrics{
		MessagesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_created_total",
			Help:      "Number of multisig messages created.",
		}),
		Signatures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "signatures_total",
			Help:      "Signing attempts by outcome.",
		}, []string{"outcome"}),
		Verifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "verifications_total",
			Help:      "Verification attempts by outcome.",
		}, []string{"outcome"}),
		ReceiptsArchived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "receipts_archived_total",
			Help:      "Verification receipts written to the archive by outcome.",
		}, []string{"outcome"}),
		KeysGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "keys_generated_total",
			Help:      "Number of key pairs generated.",
		}),
	}

	if reg != nil {
		reg.MustRegister(m.MessagesCreated, m.Signatures, m.Verifications, m.ReceiptsArchived, m.KeysGenerated)
	}
	return m
}

// MetricsServer serves /metrics from a dedicated registry.
type MetricsServer struct {
	registry *prometheus.Registry
	srv      *http.Server
}

func New(namespace, listenAddr string) (*MetricsServer, error) {
	registry := prometheus.NewRegistry()
	if err := registry.Register(collectors.NewGoCollector()); err != nil {
		return nil, err
	}
	if err := registry.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{Namespace: namespace})); err != nil {
		return nil, err
	}

	mux := chi.NewRouter()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))

	return &MetricsServer{
		registry: registry,
		srv: &http.Server{
			Addr:              listenAddr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}, nil
}

// Registry is where service metrics should be registered to be served.
func (m *MetricsServer) Registry() *prometheus.Registry {
	return m.registry
}

func (m *MetricsServer) Handler() http.Handler {
	return m.srv.Handler
}

func (m *MetricsServer) ListenAndServe() error {
	return m.srv.ListenAndServe()
}

func (m *MetricsServer) Shutdown(ctx context.Context) error {
	return m.srv.Shutdown(ctx)
}
