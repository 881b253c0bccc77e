package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the service counters exposed on /metrics. A nil *Metrics
// is valid and records nothing, so tests can run without a registry.
type Metrics struct {
	CacheHitsTotal   prometheus.Counter
	CacheMissesTotal prometheus.Counter

	ProviderRequestsTotal   *prometheus.CounterVec
	ProviderRequestDuration *prometheus.HistogramVec

	RequestsTotal *prometheus.CounterVec
}

// New creates the metrics set, registered on the default registry.
func New() *Metrics {
	return &Metrics{
		CacheHitsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fx_cache_hits_total",
			Help: "Rate lookups served from the TTL cache",
		}),
		CacheMissesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fx_cache_misses_total",
			Help: "Rate lookups that required an upstream fetch",
		}),
		ProviderRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fx_provider_requests_total",
				Help: "Upstream provider fetches by outcome",
			},
			[]string{"provider", "outcome"},
		),
		ProviderRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fx_provider_request_duration_seconds",
				Help:    "Upstream provider fetch latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"provider"},
		),
		RequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fx_requests_total",
				Help: "Service operations by result",
			},
			[]string{"operation", "result"},
		),
	}
}

// CacheHit records a lookup served without an upstream fetch.
func (metrics *Metrics) CacheHit() {
	if metrics == nil {
		return
	}
	metrics.CacheHitsTotal.Inc()
}

// CacheMiss records a lookup that triggered an upstream fetch.
func (metrics *Metrics) CacheMiss() {
	if metrics == nil {
		return
	}
	metrics.CacheMissesTotal.Inc()
}

// ObserveProviderRequest records one upstream fetch and its latency.
func (metrics *Metrics) ObserveProviderRequest(provider, outcome string, elapsed time.Duration) {
	if metrics == nil {
		return
	}
	metrics.ProviderRequestsTotal.WithLabelValues(provider, outcome).Inc()
	metrics.ProviderRequestDuration.WithLabelValues(provider).Observe(elapsed.Seconds())
}

// ObserveRequest records one service operation and its result.
func (metrics *Metrics) ObserveRequest(operation, result string) {
	if metrics == nil {
		return
	}
	metrics.RequestsTotal.WithLabelValues(operation, result).Inc()
}
