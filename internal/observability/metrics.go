// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Screening metrics
	ScreenRunsTotal  *prometheus.CounterVec
	ScreenDuration   *prometheus.HistogramVec
	SymbolsEvaluated prometheus.Counter
	VerdictsTotal    *prometheus.CounterVec

	// Data source metrics
	FetchLatency prometheus.Histogram
	FetchErrors  prometheus.Counter
	CacheHits    prometheus.Counter
	CacheMisses  prometheus.Counter

	// Refresh metrics
	RefreshRunsTotal *prometheus.CounterVec
	BarsAppended     prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "stock_screener"
	}

	return &Metrics{
		ScreenRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "screen",
			Name:      "runs_total",
			Help:      "Total number of screen runs by status",
		}, []string{"status"}),
		ScreenDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "screen",
			Name:      "duration_seconds",
			Help:      "Screen run duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120},
		}, []string{"strategy"}),
		SymbolsEvaluated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "screen",
			Name:      "symbols_evaluated_total",
			Help:      "Total number of symbol evaluations",
		}),
		VerdictsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "screen",
			Name:      "verdicts_total",
			Help:      "Total number of verdicts by kind",
		}, []string{"verdict"}),

		FetchLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "fetch",
			Name:      "latency_seconds",
			Help:      "Market data fetch latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		FetchErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fetch",
			Name:      "errors_total",
			Help:      "Total number of market data fetch errors",
		}),
		CacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "hits_total",
			Help:      "Total number of bar cache hits",
		}),
		CacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "misses_total",
			Help:      "Total number of bar cache misses",
		}),

		RefreshRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "refresh",
			Name:      "runs_total",
			Help:      "Total number of bar cache refresh runs by status",
		}, []string{"status"}),
		BarsAppended: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "refresh",
			Name:      "bars_appended_total",
			Help:      "Total number of bars appended to the cache",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordScreenRun records one screen run.
func RecordScreenRun(strategy, status string, durationSeconds float64) {
	DefaultMetrics.ScreenRunsTotal.WithLabelValues(status).Inc()
	DefaultMetrics.ScreenDuration.WithLabelValues(strategy).Observe(durationSeconds)
}

// RecordVerdict records one symbol evaluation outcome.
func RecordVerdict(verdict string) {
	DefaultMetrics.SymbolsEvaluated.Inc()
	DefaultMetrics.VerdictsTotal.WithLabelValues(verdict).Inc()
}

// RecordFetch records one market data fetch.
func RecordFetch(seconds float64, err error) {
	DefaultMetrics.FetchLatency.Observe(seconds)
	if err != nil {
		DefaultMetrics.FetchErrors.Inc()
	}
}

// RecordCacheHit increments the bar cache hit counter.
func RecordCacheHit() {
	DefaultMetrics.CacheHits.Inc()
}

// RecordCacheMiss increments the bar cache miss counter.
func RecordCacheMiss() {
	DefaultMetrics.CacheMisses.Inc()
}

// RecordRefreshRun records one bar cache refresh run.
func RecordRefreshRun(status string, barsAppended int) {
	DefaultMetrics.RefreshRunsTotal.WithLabelValues(status).Inc()
	DefaultMetrics.BarsAppended.Add(float64(barsAppended))
}
