package tracing

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "taskmanagement"

// AppMetrics holds the service's Prometheus collectors. Every series is
// prefixed with "taskmanagement_".
type AppMetrics struct {
	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
	httpInFlight     prometheus.Gauge
	todoItemEvents   *prometheus.CounterVec
	storeOperations  *prometheus.CounterVec
	rateLimitResults *prometheus.CounterVec
	cacheLookups     *prometheus.CounterVec
}

// NewAppMetrics registers the service collectors, plus the Go runtime and
// process collectors, on registry.
func NewAppMetrics(registry prometheus.Registerer) *AppMetrics {
	factory := promauto.With(registry)

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{Namespace: metricsNamespace}),
	)

	return &AppMetrics{
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),

		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by method, route and status code.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),

		httpInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "HTTP requests currently being served.",
		}),

		todoItemEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "todo_item_events_total",
			Help:      "Task lifecycle events such as created, updated, completed and deleted.",
		}, []string{"event"}),

		storeOperations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "store",
			Name:      "operations_total",
			Help:      "Repository operations by operation, table and result.",
		}, []string{"operation", "table", "result"}),

		rateLimitResults: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "rate_limit",
			Name:      "decisions_total",
			Help:      "Rate limiter decisions by route.",
		}, []string{"route", "decision"}),

		cacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "response_cache",
			Name:      "lookups_total",
			Help:      "Response cache lookups by route and result.",
		}, []string{"route", "result"}),
	}
}

func (m *AppMetrics) RecordRequest(ctx context.Context, method, route string, status int, duration time.Duration) {
	code := strconv.Itoa(status)
	m.httpRequests.WithLabelValues(method, route, code).Inc()
	m.httpDuration.WithLabelValues(method, route, code).Observe(duration.Seconds())
}

// TrackInFlight counts a request as in flight until the returned func runs.
func (m *AppMetrics) TrackInFlight(ctx context.Context) func() {
	m.httpInFlight.Inc()
	return m.httpInFlight.Dec
}

func (m *AppMetrics) RecordTodoItemEvent(ctx context.Context, event string) {
	m.todoItemEvents.WithLabelValues(event).Inc()
}

func (m *AppMetrics) RecordStoreOperation(ctx context.Context, operation, table string, err error) {
	m.storeOperations.WithLabelValues(operation, table, outcome(err == nil, "ok", "error")).Inc()
}

func (m *AppMetrics) RecordRateLimit(ctx context.Context, route string, allowed bool) {
	m.rateLimitResults.WithLabelValues(route, outcome(allowed, "allowed", "rejected")).Inc()
}

func (m *AppMetrics) RecordCacheLookup(ctx context.Context, route string, hit bool) {
	m.cacheLookups.WithLabelValues(route, outcome(hit, "hit", "miss")).Inc()
}

func outcome(ok bool, yes, no string) string {
	if ok {
		return yes
	}
	return no
}
