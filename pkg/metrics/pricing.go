package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PricingMetrics records price recalculation outcomes.
type PricingMetrics struct {
	cacheHits   *prometheus.CounterVec
	cacheMisses *prometheus.CounterVec
	failures    *prometheus.CounterVec
	latency     *prometheus.HistogramVec
}

// NewPricingMetrics registers the pricing metrics on the provided registerer.
func NewPricingMetrics(reg prometheus.Registerer) *PricingMetrics {
	if reg == nil {
		return &PricingMetrics{}
	}
	cacheHits := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pricing_cache_hits_total",
		Help: "Price lookups served from cache.",
	}, []string{"kind"})
	cacheMisses := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pricing_cache_misses_total",
		Help: "Price lookups that reached the catalog.",
	}, []string{"kind"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pricing_failures_total",
		Help: "Failed price recalculations by error code.",
	}, []string{"kind", "code"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pricing_lookup_duration_seconds",
		Help:    "Duration of uncached price lookups.",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})
	reg.MustRegister(cacheHits, cacheMisses, failures, latency)
	return &PricingMetrics{
		cacheHits:   cacheHits,
		cacheMisses: cacheMisses,
		failures:    failures,
		latency:     latency,
	}
}

func (p *PricingMetrics) IncCacheHit(kind string) {
	if p == nil || p.cacheHits == nil {
		return
	}
	p.cacheHits.WithLabelValues(normalizeLabel(kind)).Inc()
}

func (p *PricingMetrics) IncCacheMiss(kind string) {
	if p == nil || p.cacheMisses == nil {
		return
	}
	p.cacheMisses.WithLabelValues(normalizeLabel(kind)).Inc()
}

func (p *PricingMetrics) IncFailure(kind, code string) {
	if p == nil || p.failures == nil {
		return
	}
	p.failures.WithLabelValues(normalizeLabel(kind), normalizeLabel(code)).Inc()
}

func (p *PricingMetrics) ObserveLookup(kind string, duration time.Duration) {
	if p == nil || p.latency == nil {
		return
	}
	p.latency.WithLabelValues(normalizeLabel(kind)).Observe(duration.Seconds())
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
