// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// View API metrics
	ViewFetchLatency *prometheus.HistogramVec
	ViewFetchErrors  *prometheus.CounterVec
	ViewRowsFetched  *prometheus.CounterVec

	// Loader metrics
	LoaderStaleDrops prometheus.Counter

	// Dashboard metrics
	DashboardRefreshes *prometheus.CounterVec
	WSClients          prometheus.Gauge
	WSMessagesSent     prometheus.Counter

	// Export metrics
	ExportsTotal *prometheus.CounterVec

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Health metrics
	LastSuccessfulRefresh prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "xelis_stats"
	}

	return &Metrics{
		ViewFetchLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "viewapi",
			Name:      "fetch_latency_seconds",
			Help:      "View fetch latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"view"}),
		ViewFetchErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "viewapi",
			Name:      "fetch_errors_total",
			Help:      "Total number of view fetch errors by kind",
		}, []string{"view", "kind"}),
		ViewRowsFetched: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "viewapi",
			Name:      "rows_fetched_total",
			Help:      "Total number of rows returned by view",
		}, []string{"view"}),

		LoaderStaleDrops: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "loader",
			Name:      "stale_responses_dropped_total",
			Help:      "Total number of superseded fetch responses discarded",
		}),

		DashboardRefreshes: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dashboard",
			Name:      "refreshes_total",
			Help:      "Total number of dashboard refreshes by board",
		}, []string{"board"}),
		WSClients: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "dashboard",
			Name:      "ws_clients",
			Help:      "Number of connected websocket clients",
		}),
		WSMessagesSent: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dashboard",
			Name:      "ws_messages_sent_total",
			Help:      "Total number of websocket snapshot messages sent",
		}),

		ExportsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "export",
			Name:      "exports_total",
			Help:      "Total number of exports by format and status",
		}, []string{"format", "status"}),

		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		LastSuccessfulRefresh: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_refresh_timestamp",
			Help:      "Unix timestamp of last successful dashboard refresh",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

var defaultOnce sync.Once

// DefaultMetrics is the process-wide instance used by the Record helpers.
// It is created by the first Init call.
var DefaultMetrics *Metrics

// Init registers the process metrics under namespace. Only the first call
// has an effect; Record helpers call Init("") if nothing did before.
func Init(namespace string) *Metrics {
	defaultOnce.Do(func() { DefaultMetrics = NewMetrics(namespace) })
	return DefaultMetrics
}

func defaults() *Metrics {
	return Init("")
}

// RecordViewFetch records view fetch latency and row count.
func RecordViewFetch(view string, seconds float64, rows int) {
	defaults().ViewFetchLatency.WithLabelValues(view).Observe(seconds)
	defaults().ViewRowsFetched.WithLabelValues(view).Add(float64(rows))
}

// RecordViewError records a failed view fetch. kind is transport, status or parse.
func RecordViewError(view, kind string) {
	defaults().ViewFetchErrors.WithLabelValues(view, kind).Inc()
}

// RecordStaleDrop increments the dropped stale response counter.
func RecordStaleDrop() {
	defaults().LoaderStaleDrops.Inc()
}

// RecordDashboardRefresh records a completed refresh of a board.
func RecordDashboardRefresh(board string, unixSeconds float64) {
	defaults().DashboardRefreshes.WithLabelValues(board).Inc()
	defaults().LastSuccessfulRefresh.Set(unixSeconds)
}

// UpdateWSClients sets the connected websocket client gauge.
func UpdateWSClients(n int) {
	defaults().WSClients.Set(float64(n))
}

// RecordWSMessage increments the websocket messages counter.
func RecordWSMessage() {
	defaults().WSMessagesSent.Inc()
}

// RecordExport records an export by format.
func RecordExport(format string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	defaults().ExportsTotal.WithLabelValues(format, status).Inc()
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	defaults().DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		defaults().DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}
