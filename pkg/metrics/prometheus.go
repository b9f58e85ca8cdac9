package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var provenances = []string{"real", "hybrid", "mock"}

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	providerFetches *prometheus.CounterVec
	providerLatency *prometheus.HistogramVec
	cacheLookups    *prometheus.CounterVec
	stressScore     prometheus.Gauge
	stressComponent *prometheus.GaugeVec
	provenance      *prometheus.GaugeVec
	rateLimited     prometheus.Counter
	errorsTotal     *prometheus.CounterVec
	latency         *prometheus.HistogramVec
}

// New registers the recorder on the default registry. Call once per process.
func New() *Recorder {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry registers the recorder on reg.
func NewWithRegistry(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		providerFetches: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "plumbwatch_provider_fetches_total",
				Help: "Upstream provider calls by result",
			},
			[]string{"provider", "result"},
		),
		providerLatency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "plumbwatch_provider_fetch_seconds",
				Help:    "Upstream provider call latency",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"provider"},
		),
		cacheLookups: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "plumbwatch_cache_lookups_total",
				Help: "Provider cache lookups by outcome",
			},
			[]string{"cache", "outcome"},
		),
		stressScore: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "plumbwatch_stress_score",
				Help: "Latest composite stress score (0-100)",
			},
		),
		stressComponent: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "plumbwatch_stress_component",
				Help: "Latest stress sub-score by component",
			},
			[]string{"component"},
		),
		provenance: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "plumbwatch_snapshot_provenance",
				Help: "1 for the provenance of the latest snapshot, 0 otherwise",
			},
			[]string{"provenance"},
		),
		rateLimited: f.NewCounter(
			prometheus.CounterOpts{
				Name: "plumbwatch_rate_limited_total",
				Help: "Requests rejected by the rate limiter",
			},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "plumbwatch_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "plumbwatch_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordProviderFetch records one upstream call.
func (r *Recorder) RecordProviderFetch(provider, result string, seconds float64) {
	r.providerFetches.WithLabelValues(provider, result).Inc()
	r.providerLatency.WithLabelValues(provider).Observe(seconds)
}

// RecordCacheLookup records a cache hit or miss.
func (r *Recorder) RecordCacheLookup(cache string, hit bool) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	r.cacheLookups.WithLabelValues(cache, outcome).Inc()
}

// RecordStress publishes the latest score and its components.
func (r *Recorder) RecordStress(score int, components map[string]float64) {
	r.stressScore.Set(float64(score))
	for name, v := range components {
		r.stressComponent.WithLabelValues(name).Set(v)
	}
}

// RecordProvenance flags the provenance of the latest snapshot.
func (r *Recorder) RecordProvenance(provenance string) {
	for _, p := range provenances {
		v := 0.0
		if p == provenance {
			v = 1
		}
		r.provenance.WithLabelValues(p).Set(v)
	}
}

// RecordRateLimited counts a rejected request.
func (r *Recorder) RecordRateLimited() {
	r.rateLimited.Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
