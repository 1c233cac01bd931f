// Package transport – Prometheus instrumentation
//
// Upstream traffic gets its own collectors, separate from the HTTP-surface
// metrics in the middleware package. The outcome label is bounded to the
// classification taxonomy (ok, timeout, network_error, http_error,
// app_error, unconfigured, error), so cardinality stays fixed.
package transport

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// upstreamReqs counts Tally calls by classified outcome.
	upstreamReqs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tally_upstream_requests_total",
			Help: "Total number of requests issued to the Tally server.",
		},
		[]string{"outcome"},
	)

	// upstreamLat records upstream latency. Buckets reach 60s because large
	// exports routinely take tens of seconds.
	upstreamLat = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tally_upstream_duration_seconds",
			Help:    "Duration of Tally upstream requests in seconds.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30, 45, 60},
		},
	)

	// queueDepth gauges calls waiting behind the in-flight request.
	queueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "tally_queue_depth",
			Help: "Number of requests waiting in the single-lane Tally queue.",
		},
	)
)

func init() {
	prometheus.MustRegister(upstreamReqs, upstreamLat, queueDepth)
}

// observe records one settled upstream call.
func observe(outcome string, elapsed time.Duration) {
	upstreamReqs.WithLabelValues(outcome).Inc()
	if elapsed > 0 {
		upstreamLat.Observe(elapsed.Seconds())
	}
}
