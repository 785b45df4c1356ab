package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "listing_server"

// Metrics holds the collectors exported on /metrics.
type Metrics struct {
	registry         *prometheus.Registry
	requestDuration  *prometheus.HistogramVec
	callbackOutcomes *prometheus.CounterVec
	directAuth       prometheus.Counter
	tokenRefreshes   *prometheus.CounterVec
}

// NewMetrics registers the collectors on a private registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests by route and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		callbackOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "oauth_callback_total",
			Help:      "OAuth callbacks by outcome code.",
		}, []string{"outcome"}),
		directAuth: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "oauth_direct_auth_total",
			Help:      "Callbacks completed without a verifiable state token.",
		}),
		tokenRefreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "token_refresh_total",
			Help:      "Provider access token refreshes by result.",
		}, []string{"result"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requestDuration,
		m.callbackOutcomes,
		m.directAuth,
		m.tokenRefreshes,
	)
	return m
}

func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	m.requestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(elapsed.Seconds())
}

func (m *Metrics) CallbackOutcome(outcome string) {
	m.callbackOutcomes.WithLabelValues(outcome).Inc()
}

func (m *Metrics) DirectAuth() {
	m.directAuth.Inc()
}

func (m *Metrics) TokenRefresh(result string) {
	m.tokenRefreshes.WithLabelValues(result).Inc()
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
