// Package metrics provides Prometheus metrics export for the summarize
// workflow.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels for summarize requests.
const (
	OutcomeCreated = "created"
	OutcomeReused  = "reused"
	OutcomeError   = "error"
)

// SummarizeMetrics collects counters and latency for summary generation.
type SummarizeMetrics struct {
	registry *prometheus.Registry

	requests  *prometheus.CounterVec
	latency   prometheus.Histogram
	llmTokens *prometheus.CounterVec
}

// Config configures the metrics collector.
type Config struct {
	// Registry to use (if nil, creates a new one).
	Registry *prometheus.Registry

	// Buckets for the generation latency histogram (in seconds).
	LatencyBuckets []float64
}

// DefaultConfig returns the default metrics configuration.
func DefaultConfig() Config {
	return Config{
		LatencyBuckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
	}
}

// NewSummarizeMetrics creates a new metrics collector and registers its
// collectors on the registry.
func NewSummarizeMetrics(cfg Config) *SummarizeMetrics {
	if len(cfg.LatencyBuckets) == 0 {
		cfg.LatencyBuckets = DefaultConfig().LatencyBuckets
	}

	registry := cfg.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	m := &SummarizeMetrics{registry: registry}

	m.requests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "healthagent",
			Subsystem: "ai",
			Name:      "summarize_requests_total",
			Help:      "Summarize requests by outcome",
		},
		[]string{"outcome"},
	)

	m.latency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "healthagent",
			Subsystem: "ai",
			Name:      "generation_latency_seconds",
			Help:      "Wall-clock latency of generation calls in seconds",
			Buckets:   cfg.LatencyBuckets,
		},
	)

	m.llmTokens = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "healthagent",
			Subsystem: "ai",
			Name:      "llm_tokens_total",
			Help:      "LLM tokens consumed by generation calls",
		},
		[]string{"kind"}, // prompt | completion
	)

	registry.MustRegister(m.requests, m.latency, m.llmTokens)

	return m
}

// ObserveRequest records the outcome of one summarize request.
func (m *SummarizeMetrics) ObserveRequest(outcome string) {
	m.requests.WithLabelValues(outcome).Inc()
}

// ObserveGeneration records the latency and token usage of one generation
// call.
func (m *SummarizeMetrics) ObserveGeneration(seconds float64, promptTokens, completionTokens int) {
	m.latency.Observe(seconds)
	m.llmTokens.WithLabelValues("prompt").Add(float64(promptTokens))
	m.llmTokens.WithLabelValues("completion").Add(float64(completionTokens))
}

// Handler returns the HTTP handler exposing the registry in Prometheus text
// format.
func (m *SummarizeMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
