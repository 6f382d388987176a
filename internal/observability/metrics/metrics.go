package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "formationhub_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "formationhub_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	ruleDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "formationhub_rule_decisions_total",
		Help: "Outcome of booking rule checks by operation and result code",
	}, []string{"operation", "result"})

	ruleDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "formationhub_rule_duration_seconds",
		Help:    "Duration of rule-checked write operations",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	statusTransitions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "formationhub_session_status_transitions_total",
		Help: "Sessions moved to a later status by the status worker",
	})

	statusSyncRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "formationhub_session_status_sync_runs_total",
		Help: "Count of status synchronisation runs by result",
	}, []string{"result"})

	cacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "formationhub_cache_lookups_total",
		Help: "Cache lookups by result",
	}, []string{"result"})

	attendanceSubscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "formationhub_attendance_subscribers",
		Help: "Number of open live attendance feeds",
	})
)

// ObserveHTTPRequest records an HTTP request metric
func ObserveHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// ObserveRuleDecision records the outcome of a rule-checked operation.
// result is "ok" or the error code that rejected it.
func ObserveRuleDecision(operation, result string, duration time.Duration) {
	ruleDecisions.WithLabelValues(operation, result).Inc()
	ruleDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// ObserveStatusSync records one status worker run
func ObserveStatusSync(result string, transitions int64) {
	statusSyncRuns.WithLabelValues(result).Inc()
	if transitions > 0 {
		statusTransitions.Add(float64(transitions))
	}
}

// ObserveCacheLookup counts a cache hit, miss or error
func ObserveCacheLookup(result string) {
	cacheLookups.WithLabelValues(result).Inc()
}

// IncrementSubscribers increments the live feed gauge.
func IncrementSubscribers() {
	attendanceSubscribers.Inc()
}

// DecrementSubscribers decrements the live feed gauge.
func DecrementSubscribers() {
	attendanceSubscribers.Dec()
}
