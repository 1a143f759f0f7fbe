package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tidecrest/aquafarm-backend/internal/platform/envutil"
	"github.com/tidecrest/aquafarm-backend/internal/platform/logger"
)

// Metrics owns the process Prometheus registry and the engine's operational
// metrics. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	aggregateOperations *prometheus.CounterVec
	aggregateDuration   *prometheus.HistogramVec
	aggregateConflicts  *prometheus.CounterVec
	aggregateRetries    *prometheus.CounterVec

	apiRequests *prometheus.CounterVec
	apiDuration *prometheus.HistogramVec

	capacityAlerts *prometheus.CounterVec
}

// Enabled reports whether metric collection is switched on.
func Enabled() bool {
	return envutil.Bool("METRICS_ENABLED", true)
}

// Init builds the registry and all metric families. Returns nil when metrics
// are disabled.
func Init(log *logger.Logger) *Metrics {
	if !Enabled() {
		if log != nil {
			log.Info("metrics disabled")
		}
		return nil
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{registry: registry}

	m.aggregateOperations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "aquafarm_aggregate_operations_total",
		Help: "Completed aggregate write operations by operation and outcome",
	}, []string{"operation", "status"})

	m.aggregateDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "aquafarm_aggregate_operation_duration_seconds",
		Help:    "Duration of aggregate write operations",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
	}, []string{"operation"})

	m.aggregateConflicts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "aquafarm_aggregate_conflicts_total",
		Help: "Optimistic-lock conflicts detected during aggregate writes",
	}, []string{"operation"})

	m.aggregateRetries = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "aquafarm_aggregate_retries_total",
		Help: "Transient failures that triggered a write retry",
	}, []string{"operation"})

	m.apiRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "aquafarm_api_requests_total",
		Help: "HTTP requests by method, route and status",
	}, []string{"method", "route", "status"})

	m.apiDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "aquafarm_api_request_duration_seconds",
		Help:    "HTTP request duration by route",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
	}, []string{"route"})

	m.capacityAlerts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "aquafarm_capacity_alerts_total",
		Help: "Capacity alerts published to the notification boundary",
	}, []string{"severity"})

	registry.MustRegister(
		m.aggregateOperations,
		m.aggregateDuration,
		m.aggregateConflicts,
		m.aggregateRetries,
		m.apiRequests,
		m.apiDuration,
		m.capacityAlerts,
	)

	if log != nil {
		log.Info("metrics registry initialized")
	}
	return m
}

// Handler serves the registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveAggregateOperation(operation, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.aggregateOperations.WithLabelValues(operation, status).Inc()
	m.aggregateDuration.WithLabelValues(operation).Observe(dur.Seconds())
}

func (m *Metrics) IncAggregateConflict(operation string) {
	if m == nil {
		return
	}
	m.aggregateConflicts.WithLabelValues(operation).Inc()
}

func (m *Metrics) IncAggregateRetry(operation string) {
	if m == nil {
		return
	}
	m.aggregateRetries.WithLabelValues(operation).Inc()
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.apiRequests.WithLabelValues(method, route, status).Inc()
	m.apiDuration.WithLabelValues(route).Observe(dur.Seconds())
}

func (m *Metrics) IncCapacityAlert(severity string) {
	if m == nil {
		return
	}
	m.capacityAlerts.WithLabelValues(severity).Inc()
}
