// Package metrics collects Prometheus metrics for the router: request counts
// and latency by route, in-flight requests, faults and live sessions.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Config defines how metrics are named and registered.
type Config struct {
	Namespace string
	Subsystem string

	// Registry receives the collectors. A private registry is created when
	// nil.
	Registry *prometheus.Registry

	// Buckets are the latency histogram buckets in seconds,
	// prometheus.DefBuckets when empty.
	Buckets []float64

	// ProcessCollectors adds the Go runtime and process collectors.
	ProcessCollectors bool
}

// Collector holds the router metrics.
type Collector struct {
	registry  *prometheus.Registry
	namespace string
	subsystem string

	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	bytes    *prometheus.CounterVec
	inFlight prometheus.Gauge
	faults   *prometheus.CounterVec
}

// NewCollector creates and registers the router metrics.
func NewCollector(cfg Config) *Collector {
	registry := cfg.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	buckets := cfg.Buckets
	if len(buckets) == 0 {
		buckets = prometheus.DefBuckets
	}

	c := &Collector{
		registry:  registry,
		namespace: cfg.Namespace,
		subsystem: cfg.Subsystem,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "http_requests_total",
			Help:      "Requests handled, by method, route and status.",
		}, []string{"method", "route", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "http_request_duration_seconds",
			Help:      "Time from request arrival to the terminal write.",
			Buckets:   buckets,
		}, []string{"method", "route"}),
		bytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "http_response_bytes_total",
			Help:      "Response body bytes written, by method and route.",
		}, []string{"method", "route"}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "http_requests_in_flight",
			Help:      "Requests currently being handled.",
		}),
		faults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "http_faults_total",
			Help:      "Requests answered by the fault handler, by kind.",
		}, []string{"kind"}),
	}

	registry.MustRegister(c.requests, c.latency, c.bytes, c.inFlight, c.faults)
	if cfg.ProcessCollectors {
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	return c
}

// Registry returns the registry holding the collectors.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Begin marks a request as in flight. The returned function records the
// finished request and must be called exactly once.
func (c *Collector) Begin() func(method, route string, status int, bytes int64) {
	start := time.Now()
	c.inFlight.Inc()
	return func(method, route string, status int, bytes int64) {
		c.inFlight.Dec()
		c.Observe(method, route, status, bytes, time.Since(start))
	}
}

// Observe records one finished request.
func (c *Collector) Observe(method, route string, status int, bytes int64, duration time.Duration) {
	c.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.latency.WithLabelValues(method, route).Observe(duration.Seconds())
	if bytes > 0 {
		c.bytes.WithLabelValues(method, route).Add(float64(bytes))
	}
}

// Fault counts a request answered by the fault handler. kind is "panic" or
// "error".
func (c *Collector) Fault(kind string) {
	c.faults.WithLabelValues(kind).Inc()
}

// TrackSessions exports the value returned by count as the live session
// gauge.
func (c *Collector) TrackSessions(count func() int) {
	c.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: c.namespace,
		Subsystem: c.subsystem,
		Name:      "sessions_active",
		Help:      "Sessions held in memory.",
	}, func() float64 { return float64(count()) }))
}

// Handler returns an HTTP handler exposing the registry in the Prometheus
// text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}
