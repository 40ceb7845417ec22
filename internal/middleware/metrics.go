package middleware

import (
	"encoding/json"
	"net/http"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

// Metrics holds process-wide counters exposed on /metrics.
type Metrics struct {
	requests   atomic.Uint64
	inFlight   atomic.Int64
	status2xx  atomic.Uint64
	status4xx  atomic.Uint64
	status5xx  atomic.Uint64
	analyses   atomic.Uint64
	degraded   atomic.Uint64
	credits    atomic.Uint64
	throttled  atomic.Uint64
	startedAt  time.Time
	failuresMu sync.Mutex
	failures   map[string]uint64
}

var globalMetrics = newMetrics()

func newMetrics() *Metrics {
	return &Metrics{startedAt: time.Now(), failures: make(map[string]uint64)}
}

// RecordAnalysis counts one finished analysis. failureKind is empty on
// success and the error kind otherwise.
func RecordAnalysis(degraded, creditDeducted bool, failureKind string) {
	globalMetrics.recordAnalysis(degraded, creditDeducted, failureKind)
}

func (m *Metrics) recordAnalysis(degraded, creditDeducted bool, failureKind string) {
	m.analyses.Add(1)
	if failureKind != "" {
		m.failuresMu.Lock()
		m.failures[failureKind]++
		m.failuresMu.Unlock()
		return
	}
	if degraded {
		m.degraded.Add(1)
	}
	if creditDeducted {
		m.credits.Add(1)
	}
}

func (m *Metrics) recordStatus(code int) {
	switch {
	case code >= 500:
		m.status5xx.Add(1)
	case code >= 400:
		m.status4xx.Add(1)
	default:
		m.status2xx.Add(1)
	}
}

func incrementRateLimited() {
	globalMetrics.throttled.Add(1)
}

func (m *Metrics) snapshot() map[string]any {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	m.failuresMu.Lock()
	failures := make(map[string]uint64, len(m.failures))
	for k, v := range m.failures {
		failures[k] = v
	}
	m.failuresMu.Unlock()

	return map[string]any{
		"requests": map[string]any{
			"total":       m.requests.Load(),
			"in_progress": m.inFlight.Load(),
			"2xx":         m.status2xx.Load(),
			"4xx":         m.status4xx.Load(),
			"5xx":         m.status5xx.Load(),
			"throttled":   m.throttled.Load(),
		},
		"analyses": map[string]any{
			"total":            m.analyses.Load(),
			"degraded":         m.degraded.Load(),
			"credits_deducted": m.credits.Load(),
			"failures":         failures,
		},
		"uptime_seconds": time.Since(m.startedAt).Seconds(),
		"memory": map[string]any{
			"alloc_bytes": mem.Alloc,
			"sys_bytes":   mem.Sys,
			"num_gc":      mem.NumGC,
		},
		"goroutines": runtime.NumGoroutine(),
	}
}

// GetMetrics returns current metrics
func GetMetrics() map[string]any {
	return globalMetrics.snapshot()
}

// MetricsMiddleware counts requests by status class.
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		globalMetrics.requests.Add(1)
		globalMetrics.inFlight.Add(1)
		defer globalMetrics.inFlight.Add(-1)

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)
		globalMetrics.recordStatus(wrapped.statusCode)
	})
}

func MetricsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(GetMetrics())
}
