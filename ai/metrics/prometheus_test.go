package metrics

import (
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestObserveRequest(t *testing.T) {
	m := NewSummarizeMetrics(DefaultConfig())

	m.ObserveRequest(OutcomeCreated)
	m.ObserveRequest(OutcomeCreated)
	m.ObserveRequest(OutcomeReused)

	require.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues(OutcomeCreated)))
	require.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues(OutcomeReused)))
	require.Equal(t, 0.0, testutil.ToFloat64(m.requests.WithLabelValues(OutcomeError)))
}

func TestObserveGeneration(t *testing.T) {
	m := NewSummarizeMetrics(DefaultConfig())

	m.ObserveGeneration(1.2, 100, 40)
	m.ObserveGeneration(0.3, 50, 20)

	require.Equal(t, 150.0, testutil.ToFloat64(m.llmTokens.WithLabelValues("prompt")))
	require.Equal(t, 60.0, testutil.ToFloat64(m.llmTokens.WithLabelValues("completion")))
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := NewSummarizeMetrics(DefaultConfig())
	m.ObserveRequest(OutcomeCreated)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, 200, rec.Code)
	require.Contains(t, rec.Body.String(), "healthagent_ai_summarize_requests_total")
}
