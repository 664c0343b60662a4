// Package metrics holds the Prometheus instruments for the analytics API.
//
// A Metrics value is registered once at startup and shared by the dashboard
// service and HTTP layer. Tests register against their own registry.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "leadgen"

// Cache outcomes recorded by ObserveCache.
const (
	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheError = "error"
)

// Metrics is the set of analytics instruments.
type Metrics struct {
	// ViewDuration measures fetch+compute time per view.
	// Labels: view, status (ok, error)
	ViewDuration *prometheus.HistogramVec

	// CacheResults counts view cache lookups.
	// Labels: view, result (hit, miss, error)
	CacheResults *prometheus.CounterVec

	// InconsistentFunnels counts funnels whose stage counts were not
	// monotonically non-increasing.
	InconsistentFunnels prometheus.Counter
}

// New registers the instruments with reg. A nil reg uses the default
// Prometheus registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		ViewDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "analytics",
			Name:      "view_duration_seconds",
			Help:      "Time to fetch and compute a dashboard view",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"view", "status"}),
		CacheResults: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analytics",
			Name:      "cache_results_total",
			Help:      "View cache lookups by result",
		}, []string{"view", "result"}),
		InconsistentFunnels: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analytics",
			Name:      "inconsistent_funnels_total",
			Help:      "Funnels computed with a stage larger than its predecessor",
		}),
	}
}

// ObserveView records how long view took since start.
func (m *Metrics) ObserveView(view string, start time.Time, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.ViewDuration.WithLabelValues(view, status).Observe(time.Since(start).Seconds())
}

// ObserveCache counts one cache lookup for view.
func (m *Metrics) ObserveCache(view, result string) {
	if m == nil {
		return
	}
	m.CacheResults.WithLabelValues(view, result).Inc()
}

// ObserveInconsistentFunnel counts one inconsistent funnel.
func (m *Metrics) ObserveInconsistentFunnel() {
	if m == nil {
		return
	}
	m.InconsistentFunnels.Inc()
}
