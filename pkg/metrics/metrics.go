// Package metrics exposes Prometheus instrumentation for the console.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the console's Prometheus collectors.
type Metrics struct {
	registry *prometheus.Registry

	RequestDuration *prometheus.HistogramVec
	RequestsTotal   *prometheus.CounterVec

	BuildsTotal      *prometheus.CounterVec
	ChecksTotal      *prometheus.CounterVec
	ActivationsTotal *prometheus.CounterVec
}

// New creates and registers the console collectors on a fresh registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "tacacs_console",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method, route, and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tacacs_console",
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route, and status.",
		}, []string{"method", "route", "status"}),
		BuildsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tacacs_console",
			Name:      "config_builds_total",
			Help:      "Configuration builds by outcome.",
		}, []string{"outcome"}),
		ChecksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tacacs_console",
			Name:      "syntax_checks_total",
			Help:      "Syntax checker runs by result (pass, fail, error).",
		}, []string{"result"}),
		ActivationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tacacs_console",
			Name:      "config_activations_total",
			Help:      "Configuration activations by outcome.",
		}, []string{"outcome"}),
	}

	registry.MustRegister(
		m.RequestDuration,
		m.RequestsTotal,
		m.BuildsTotal,
		m.ChecksTotal,
		m.ActivationsTotal,
	)

	return m
}

// Handler returns the /metrics HTTP handler for this registry.
func (m *Metrics) Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// Middleware records request counts and latency per route.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())

		m.RequestsTotal.WithLabelValues(c.Request.Method, route, status).Inc()
		m.RequestDuration.WithLabelValues(c.Request.Method, route, status).
			Observe(time.Since(start).Seconds())
	}
}

// ObserveBuild records a build outcome.
func (m *Metrics) ObserveBuild(success bool) {
	m.BuildsTotal.WithLabelValues(outcomeLabel(success)).Inc()
}

// ObserveCheck records a syntax check result: "pass", "fail", or "error".
func (m *Metrics) ObserveCheck(result string) {
	m.ChecksTotal.WithLabelValues(result).Inc()
}

// ObserveActivation records an activation outcome.
func (m *Metrics) ObserveActivation(success bool) {
	m.ActivationsTotal.WithLabelValues(outcomeLabel(success)).Inc()
}

func outcomeLabel(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}
