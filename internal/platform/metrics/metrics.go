package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector owns its registry so tests and multiple servers in one process
// do not collide on the global one.
type Collector struct {
	registry *prometheus.Registry

	requests        *prometheus.CounterVec
	duration        *prometheus.HistogramVec
	decisions       *prometheus.CounterVec
	roleLookups     *prometheus.CounterVec
	sessionStreams  prometheus.Gauge
	warningsCreated prometheus.Counter
}

func New() *Collector {
	reg := prometheus.NewRegistry()
	c := &Collector{
		registry: reg,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "absensi_http_requests_total",
			Help: "HTTP requests by method, route pattern and status.",
		}, []string{"method", "route", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "absensi_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "absensi_guard_decisions_total",
			Help: "Route guard outcomes by decision kind and view tree.",
		}, []string{"decision", "tree"}),
		roleLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "absensi_role_lookups_total",
			Help: "Role lookups by outcome.",
		}, []string{"outcome"}),
		sessionStreams: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "absensi_session_streams",
			Help: "Open session event streams.",
		}),
		warningsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "absensi_attendance_warnings_created_total",
			Help: "Attendance warnings issued by the scheduled sweep.",
		}),
	}
	reg.MustRegister(
		c.requests, c.duration, c.decisions, c.roleLookups, c.sessionStreams, c.warningsCreated,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

func (c *Collector) Record(method, route string, status int, elapsed time.Duration) {
	if c == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	c.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.duration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func (c *Collector) Decision(kind, tree string) {
	if c == nil {
		return
	}
	c.decisions.WithLabelValues(kind, tree).Inc()
}

func (c *Collector) RoleLookup(err error) {
	if c == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	c.roleLookups.WithLabelValues(outcome).Inc()
}

func (c *Collector) StreamOpened() {
	if c != nil {
		c.sessionStreams.Inc()
	}
}

func (c *Collector) StreamClosed() {
	if c != nil {
		c.sessionStreams.Dec()
	}
}

func (c *Collector) WarningsCreated(n int) {
	if c != nil && n > 0 {
		c.warningsCreated.Add(float64(n))
	}
}

func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
