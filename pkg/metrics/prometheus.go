package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	fetchesTotal *prometheus.CounterVec
	errorsTotal  *prometheus.CounterVec
	stale        *prometheus.GaugeVec
	subscribers  *prometheus.GaugeVec
	fetchLatency *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		fetchesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dashpull_resource_fetches_total",
				Help: "Total resource fetches by key and outcome",
			},
			[]string{"key", "outcome"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dashpull_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		stale: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "dashpull_resource_stale",
				Help: "1 when the resource is serving a stale value",
			},
			[]string{"key"},
		),
		subscribers: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "dashpull_resource_subscribers",
				Help: "Current subscriber count per resource key",
			},
			[]string{"key"},
		),
		fetchLatency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dashpull_fetch_duration_seconds",
				Help:    "Duration of resource fetches in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"key"},
		),
	}
}

// RecordFetch records one completed fetch cycle.
func (r *Recorder) RecordFetch(key, outcome string) {
	r.fetchesTotal.WithLabelValues(key, outcome).Inc()
}

// RecordFetchLatency records fetch duration in seconds.
func (r *Recorder) RecordFetchLatency(key string, seconds float64) {
	r.fetchLatency.WithLabelValues(key).Observe(seconds)
}

// RecordStale records whether the key is currently serving stale data.
func (r *Recorder) RecordStale(key string, stale bool) {
	v := 0.0
	if stale {
		v = 1.0
	}
	r.stale.WithLabelValues(key).Set(v)
}

// RecordSubscribers records the subscriber count for a key.
func (r *Recorder) RecordSubscribers(key string, n int) {
	r.subscribers.WithLabelValues(key).Set(float64(n))
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}
