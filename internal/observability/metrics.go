package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the dashboard's Prometheus collectors.
type Metrics struct {
	Registry *prometheus.Registry

	requestCount    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	errorCount      *prometheus.CounterVec
	upstreamCalls   *prometheus.CounterVec
	refreshAttempts *prometheus.CounterVec
	cacheLookups    *prometheus.CounterVec
	activeSessions  prometheus.Gauge
}

// NewMetrics registers collectors on a private registry.
func NewMetrics(namespace string) *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		requestCount: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of dashboard HTTP requests",
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of dashboard HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		errorCount: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "errors_total",
			Help:      "Total number of dashboard HTTP errors by code",
		}, []string{"method", "route", "code"}),
		upstreamCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "requests_total",
			Help:      "Calls made to the platform API",
		}, []string{"method", "status"}),
		refreshAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "token_refresh_total",
			Help:      "Credential refresh attempts by outcome",
		}, []string{"outcome"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "query_cache",
			Name:      "lookups_total",
			Help:      "Query cache lookups by result",
		}, []string{"result"}),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "active",
			Help:      "Browser sessions held in memory",
		}),
	}

	m.Registry.MustRegister(
		m.requestCount,
		m.requestDuration,
		m.errorCount,
		m.upstreamCalls,
		m.refreshAttempts,
		m.cacheLookups,
		m.activeSessions,
	)
	return m
}

// RecordRequest counts a served request.
func (m *Metrics) RecordRequest(route, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requestCount.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordError counts an error response by domain code.
func (m *Metrics) RecordError(route, method, code string) {
	if m == nil {
		return
	}
	m.errorCount.WithLabelValues(method, route, code).Inc()
}

// RecordUpstream counts a platform API call; status 0 means no response.
func (m *Metrics) RecordUpstream(method string, status int) {
	if m == nil {
		return
	}
	m.upstreamCalls.WithLabelValues(method, strconv.Itoa(status)).Inc()
}

// RecordRefresh counts a credential refresh attempt.
func (m *Metrics) RecordRefresh(ok bool) {
	if m == nil {
		return
	}
	outcome := "failed"
	if ok {
		outcome = "succeeded"
	}
	m.refreshAttempts.WithLabelValues(outcome).Inc()
}

// RecordCacheLookup counts a query cache hit or miss.
func (m *Metrics) RecordCacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

// SetActiveSessions reports the in-memory session count.
func (m *Metrics) SetActiveSessions(n int) {
	if m == nil {
		return
	}
	m.activeSessions.Set(float64(n))
}
