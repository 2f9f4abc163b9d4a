package observability

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Record(t *testing.T) {
	m := NewMetrics("", nil)

	m.RecordDecision("APPROVED", 2*time.Millisecond)
	m.RecordDecision("APPROVED", 3*time.Millisecond)
	m.RecordDecision("REJECTED", time.Millisecond)
	m.RecordFinding("duration", "DURATION_VIOLATION")
	m.RecordSubstrateCall("APPROVED", time.Second)
	m.RecordFailure("substrate_error")
	m.RecordHTTPRequest(http.MethodPost, "/api/evaluate", http.StatusOK, 5*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.evaluationsTotal.WithLabelValues("APPROVED")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.evaluationsTotal.WithLabelValues("REJECTED")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.findingsTotal.WithLabelValues("duration", "DURATION_VIOLATION")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.substrateCalls.WithLabelValues("APPROVED")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.failuresTotal.WithLabelValues("substrate_error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("POST", "/api/evaluate", "200")))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.RecordDecision("APPROVED", time.Millisecond)
		m.RecordFinding("compliance", "COMPLIANT")
		m.RecordSubstrateCall("error", time.Millisecond)
		m.RecordFailure("internal")
		m.RecordHTTPRequest("GET", "/healthz", 200, time.Millisecond)
	})
}

func TestMetrics_SeparateRegistries(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics("custom", reg)
	assert.Same(t, reg, m.Registry())

	assert.NotPanics(t, func() {
		NewMetrics("custom", nil)
	})
}

func TestMetrics_Handler(t *testing.T) {
	m := NewMetrics("", nil)
	m.RecordDecision("MANUAL_REVIEW", time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `reservation_agent_evaluations_total{decision="MANUAL_REVIEW"} 1`)
}
