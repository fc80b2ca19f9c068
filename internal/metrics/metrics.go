// Package metrics collects and exposes Prometheus metrics for the API and
// the real-time channel.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is what the HTTP middleware and the hub report into.
type Recorder interface {
	RecordRequest(method, route string, status int, duration time.Duration)
	SessionOpened()
	SessionClosed()
	EventPublished(event string)
	EventDelivered(event string)
	EventDropped(reason string)
}

type Collector struct {
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	sessions        prometheus.Gauge
	published       *prometheus.CounterVec
	delivered       *prometheus.CounterVec
	dropped         *prometheus.CounterVec
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "teamboard_http_requests_total",
			Help: "HTTP requests by method, route and status code",
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "teamboard_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "teamboard_realtime_sessions",
			Help: "Open real-time sessions",
		}),
		published: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "teamboard_events_published_total",
			Help: "Events accepted for fan-out",
		}, []string{"event"}),
		delivered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "teamboard_events_delivered_total",
			Help: "Events queued to a session",
		}, []string{"event"}),
		dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "teamboard_events_dropped_total",
			Help: "Events dropped before reaching a session",
		}, []string{"reason"}),
	}

	reg.MustRegister(
		c.requests,
		c.requestDuration,
		c.sessions,
		c.published,
		c.delivered,
		c.dropped,
	)

	return c
}

func (c *Collector) RecordRequest(method, route string, status int, duration time.Duration) {
	c.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.requestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func (c *Collector) SessionOpened() {
	c.sessions.Inc()
}

func (c *Collector) SessionClosed() {
	c.sessions.Dec()
}

func (c *Collector) EventPublished(event string) {
	c.published.WithLabelValues(event).Inc()
}

func (c *Collector) EventDelivered(event string) {
	c.delivered.WithLabelValues(event).Inc()
}

func (c *Collector) EventDropped(reason string) {
	c.dropped.WithLabelValues(reason).Inc()
}

// Nop discards everything.
type Nop struct{}

func (Nop) RecordRequest(string, string, int, time.Duration) {}
func (Nop) SessionOpened()                                   {}
func (Nop) SessionClosed()                                   {}
func (Nop) EventPublished(string)                            {}
func (Nop) EventDelivered(string)                            {}
func (Nop) EventDropped(string)                              {}

// Handler serves the Prometheus scrape endpoint.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
