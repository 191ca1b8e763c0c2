// Package metrics counts search outcomes for the picker and the dev server.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "chsearch"

// Outcome labels for RequestsTotal.
const (
	OutcomeAccepted = "accepted"
	OutcomeStale    = "stale"
	OutcomeFailed   = "failed"
)

// Recorder owns a private registry so tests and the dev server never collide
// with the global default registry. A nil *Recorder records nothing.
type Recorder struct {
	registry        *prometheus.Registry
	requests        *prometheus.CounterVec
	duration        prometheus.Histogram
	indicatorStarts prometheus.Counter
}

// NewRecorder builds a recorder with all collectors registered.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "requests_total",
				Help:      "Search requests by outcome.",
			},
			[]string{"outcome"},
		),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Time from request start to response handling.",
			Buckets:   []float64{.025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}),
		indicatorStarts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "indicator_starts_total",
			Help:      "Times the loading indicator became visible.",
		}),
	}
	r.registry.MustRegister(r.requests, r.duration, r.indicatorStarts)
	for _, outcome := range []string{OutcomeAccepted, OutcomeStale, OutcomeFailed} {
		r.requests.WithLabelValues(outcome)
	}
	return r
}

// Request counts one completed request and observes its latency.
func (r *Recorder) Request(outcome string, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.requests.WithLabelValues(outcome).Inc()
	if elapsed > 0 {
		r.duration.Observe(elapsed.Seconds())
	}
}

// IndicatorStarted counts one visible loading indicator.
func (r *Recorder) IndicatorStarted() {
	if r == nil {
		return
	}
	r.indicatorStarts.Inc()
}

// Registry exposes the underlying registry, for example to add collectors.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
