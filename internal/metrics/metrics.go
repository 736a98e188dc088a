// Package metrics exports Prometheus metrics of the answer pipeline.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/modernice/hakim"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "hakim"

// Metrics holds the collectors of a hakim process in its own registry.
type Metrics struct {
	registry      *prometheus.Registry
	requests      *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
}

// New returns Metrics registered in a fresh registry. The Go runtime and
// process collectors are registered as well.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Number of answered chat requests by HTTP status code.",
		}, []string{"code"}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of the pipeline stages.",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"stage", "outcome"}),
	}

	m.registry.MustRegister(
		m.requests,
		m.stageDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Request counts an answered request.
func (m *Metrics) Request(code int) {
	m.requests.WithLabelValues(strconv.Itoa(code)).Inc()
}

// Observer returns a [hakim.Observer] that records stage durations.
func (m *Metrics) Observer() hakim.Observer {
	return func(stage hakim.Stage, elapsed time.Duration, err error) {
		outcome := "success"
		if err != nil {
			outcome = "error"
		}
		m.stageDuration.WithLabelValues(string(stage), outcome).Observe(elapsed.Seconds())
	}
}

// Handler returns the HTTP handler of the exposition endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
