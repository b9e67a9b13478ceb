// Package metrics provides Prometheus instrumentation for the signup service.
package metrics

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "baselinedocs"

// HTTPMetrics instruments inbound HTTP traffic.
type HTTPMetrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// NewHTTPMetrics registers the HTTP instruments on the default registry.
func NewHTTPMetrics() *HTTPMetrics {
	m := &HTTPMetrics{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total HTTP requests by method, route, and status code.",
			},
			[]string{"method", "route", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}
	prometheus.MustRegister(m.requestsTotal, m.requestDuration)
	return m
}

// GinMiddleware records request counts and latency per route template.
func GinMiddleware(m *HTTPMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		route := c.FullPath()
		if strings.TrimSpace(route) == "" {
			route = "unknown"
		}
		method := c.Request.Method
		m.requestsTotal.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.requestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}

// SignupMetrics counts provisioning outcomes so operators can alert on
// failure spikes and track incomplete tenants awaiting reconciliation.
type SignupMetrics struct {
	provisionTotal   *prometheus.CounterVec
	stepFailureTotal *prometheus.CounterVec
}

// NewSignupMetrics registers the signup instruments on the default registry.
func NewSignupMetrics() *SignupMetrics {
	m := &SignupMetrics{
		provisionTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "provision_total",
				Help:      "Tenant provisioning attempts by outcome.",
			},
			[]string{"outcome"},
		),
		stepFailureTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "provision_step_failures_total",
				Help:      "Best-effort provisioning steps that failed after the tenant was reserved.",
			},
			[]string{"step"},
		),
	}
	prometheus.MustRegister(m.provisionTotal, m.stepFailureTotal)
	return m
}

// RecordOutcome increments the provisioning outcome counter.
func (m *SignupMetrics) RecordOutcome(outcome string) {
	if m == nil {
		return
	}
	m.provisionTotal.WithLabelValues(outcome).Inc()
}

// RecordStepFailure increments the post-reserve step failure counter.
func (m *SignupMetrics) RecordStepFailure(step string) {
	if m == nil {
		return
	}
	m.stepFailureTotal.WithLabelValues(step).Inc()
}
