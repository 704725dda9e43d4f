package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestPricingMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewPricingMetrics(reg)
	m.IncCacheHit("door")
	m.IncCacheHit("door")
	m.IncCacheMiss("door")
	m.IncFailure("door", "RECALCULATION_TIMEOUT")
	m.ObserveLookup("door", 250*time.Millisecond)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "pricing_cache_hits_total", "kind", "door"); err != nil {
		t.Fatalf("fetch hits: %v", err)
	} else if got != 2 {
		t.Fatalf("expected hits=2, got %f", got)
	}
	if got, err := fetchCounterValue(mfs, "pricing_failures_total", "code", "RECALCULATION_TIMEOUT"); err != nil {
		t.Fatalf("fetch failures: %v", err)
	} else if got != 1 {
		t.Fatalf("expected failures=1, got %f", got)
	}
	if got, err := fetchHistogramSum(mfs, "pricing_lookup_duration_seconds", "kind", "door"); err != nil {
		t.Fatalf("fetch latency: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected latency sum > 0, got %f", got)
	}
}

func TestStatusMetricsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewStatusMetrics(reg)
	m.IncTransition("invoice", "manual", "ORDERED")
	m.IncTransition("order", "propagation", "ORDERED")
	m.IncRejection("invoice", "BLOCKED_STATUS")
	m.IncDedupHit()

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, err := fetchCounterValue(mfs, "document_status_transitions_total", "origin", "propagation"); err != nil {
		t.Fatalf("fetch transitions: %v", err)
	} else if got != 1 {
		t.Fatalf("expected propagation transitions=1, got %f", got)
	}
	if got, err := fetchCounterValue(mfs, "document_status_rejections_total", "code", "BLOCKED_STATUS"); err != nil {
		t.Fatalf("fetch rejections: %v", err)
	} else if got != 1 {
		t.Fatalf("expected rejections=1, got %f", got)
	}
	mf := findMetricFamily(mfs, "order_dedup_hits_total")
	if mf == nil || mf.GetMetric()[0].GetCounter().GetValue() != 1 {
		t.Fatalf("expected one dedup hit")
	}
}

func TestJobMetricsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewJobMetrics(reg)
	m.IncSuccess("cart-ttl")
	m.IncFailure("")
	m.ObserveDuration("cart-ttl", 20*time.Millisecond)
	m.AddEvicted(3)
	m.AddEvicted(0)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, err := fetchCounterValue(mfs, "janitor_job_success_total", "job", "cart-ttl"); err != nil || got != 1 {
		t.Fatalf("expected one success, got %f (%v)", got, err)
	}
	if got, err := fetchCounterValue(mfs, "janitor_job_failure_total", "job", "unknown"); err != nil || got != 1 {
		t.Fatalf("expected unnamed failure under unknown, got %f (%v)", got, err)
	}
	mf := findMetricFamily(mfs, "cart_sessions_evicted_total")
	if mf == nil || mf.GetMetric()[0].GetCounter().GetValue() != 3 {
		t.Fatalf("expected three evictions")
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var p *PricingMetrics
	p.IncCacheHit("door")
	p.ObserveLookup("door", time.Second)
	var s *StatusMetrics
	s.IncTransition("order", "manual", "COMPLETED")
	s.IncDedupHit()
	NewPricingMetrics(nil).IncFailure("door", "x")
	var j *JobMetrics
	j.IncSuccess("cart-ttl")
	j.AddEvicted(2)
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("histogram %q missing label %s=%s", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}
