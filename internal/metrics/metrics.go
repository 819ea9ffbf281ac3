// Package metrics exposes Prometheus metrics for authentication and permission decisions.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"weeklychef/internal/permission"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all collectors. A Metrics built with a nil registry is a no-op.
type Metrics struct {
	enabled  bool
	gatherer prometheus.Gatherer

	identityResolutions *prometheus.CounterVec
	decisionsTotal      *prometheus.CounterVec
	loginsTotal         *prometheus.CounterVec
	requestDuration     *prometheus.HistogramVec
}

// New registers collectors on reg. Pass nil to disable metrics.
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{enabled: reg != nil}
	if !m.enabled {
		return m
	}
	m.gatherer = reg
	f := promauto.With(reg)

	m.identityResolutions = f.NewCounterVec(prometheus.CounterOpts{
		Name: "weeklychef_identity_resolutions_total",
		Help: "Bearer credential resolutions by outcome",
	}, []string{"outcome"})

	m.decisionsTotal = f.NewCounterVec(prometheus.CounterOpts{
		Name: "weeklychef_permission_decisions_total",
		Help: "Permission decisions by family, verb and reason",
	}, []string{"family", "verb", "allowed", "reason"})

	m.loginsTotal = f.NewCounterVec(prometheus.CounterOpts{
		Name: "weeklychef_logins_total",
		Help: "Login attempts by outcome",
	}, []string{"outcome"})

	m.requestDuration = f.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "weeklychef_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	return m
}

func (m *Metrics) Enabled() bool { return m != nil && m.enabled }

func (m *Metrics) ObserveIdentity(outcome string) {
	if !m.Enabled() {
		return
	}
	m.identityResolutions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveDecision(d permission.Decision) {
	if !m.Enabled() {
		return
	}
	m.decisionsTotal.WithLabelValues(string(d.Family), string(d.Verb), strconv.FormatBool(d.Allowed), string(d.Reason)).Inc()
}

func (m *Metrics) ObserveLogin(outcome string) {
	if !m.Enabled() {
		return
	}
	m.loginsTotal.WithLabelValues(outcome).Inc()
}

// Middleware records request durations labelled by route template.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !m.Enabled() {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.requestDuration.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if !m.Enabled() {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
