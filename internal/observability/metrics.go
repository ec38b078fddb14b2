package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles the prometheus collectors used across the service.
type Metrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	errorTotal      *prometheus.CounterVec
	roleTransitions *prometheus.CounterVec
}

// NewMetrics initializes and registers all collectors on a private registry.
func NewMetrics(serviceName string) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "garage_shop",
			Name:      "http_requests_total",
			Help:      "HTTP requests by path, method and status.",
			ConstLabels: prometheus.Labels{
				"service": serviceName,
			},
		}, []string{"path", "method", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "garage_shop",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"path", "method"}),
		errorTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "garage_shop",
			Name:      "http_errors_total",
			Help:      "Request errors by domain error code.",
		}, []string{"path", "method", "code"}),
		roleTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "garage_shop",
			Name:      "role_transitions_total",
			Help:      "Role transition evaluations by outcome.",
		}, []string{"outcome"}),
	}

	m.registry.MustRegister(m.requestTotal, m.requestDuration, m.errorTotal, m.roleTransitions)
	return m
}

// Registry exposes the registry for the /metrics handler.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return prometheus.NewRegistry()
	}
	return m.registry
}

// RecordRequest observes one served request.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requestTotal.WithLabelValues(path, method, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(path, method).Observe(duration.Seconds())
}

// RecordError counts a request ending in a domain error.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	m.errorTotal.WithLabelValues(path, method, code).Inc()
}

// RecordRoleTransition counts one policy evaluation. outcome is "success"
// or the rejection reason code.
func (m *Metrics) RecordRoleTransition(outcome string) {
	if m == nil {
		return
	}
	m.roleTransitions.WithLabelValues(outcome).Inc()
}
