package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecordAnalysis(t *testing.T) {
	m := newMetrics()
	m.recordAnalysis(false, true, "")
	m.recordAnalysis(true, false, "")
	m.recordAnalysis(false, false, "provider_unavailable")
	m.recordAnalysis(false, false, "provider_unavailable")

	snap := m.snapshot()["analyses"].(map[string]any)
	assert.Equal(t, uint64(4), snap["total"])
	assert.Equal(t, uint64(1), snap["degraded"])
	assert.Equal(t, uint64(1), snap["credits_deducted"])
	assert.Equal(t, map[string]uint64{"provider_unavailable": 2}, snap["failures"])
}

func TestRecordStatus(t *testing.T) {
	m := newMetrics()
	for _, code := range []int{200, 204, 402, 429, 502} {
		m.recordStatus(code)
	}
	snap := m.snapshot()["requests"].(map[string]any)
	assert.Equal(t, uint64(2), snap["2xx"])
	assert.Equal(t, uint64(2), snap["4xx"])
	assert.Equal(t, uint64(1), snap["5xx"])
}

func TestMetricsMiddlewareBalancesInFlight(t *testing.T) {
	h := MetricsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	before := globalMetrics.inFlight.Load()
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, before, globalMetrics.inFlight.Load())
}
