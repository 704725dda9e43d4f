package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// JobMetrics records outcomes of the maintenance jobs.
type JobMetrics struct {
	duration *prometheus.HistogramVec
	success  *prometheus.CounterVec
	failure  *prometheus.CounterVec
	evicted  prometheus.Counter
}

func NewJobMetrics(reg prometheus.Registerer) *JobMetrics {
	if reg == nil {
		return &JobMetrics{}
	}
	m := &JobMetrics{
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "janitor_job_duration_seconds",
			Help:    "Duration of janitor job runs in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"job"}),
		success: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "janitor_job_success_total",
			Help: "Successful janitor job runs.",
		}, []string{"job"}),
		failure: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "janitor_job_failure_total",
			Help: "Failed janitor job runs.",
		}, []string{"job"}),
		evicted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cart_sessions_evicted_total",
			Help: "Idle cart sessions dropped from memory.",
		}),
	}
	reg.MustRegister(m.duration, m.success, m.failure, m.evicted)
	return m
}

func (m *JobMetrics) ObserveDuration(job string, duration time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(job)).Observe(duration.Seconds())
}

func (m *JobMetrics) IncSuccess(job string) {
	if m == nil || m.success == nil {
		return
	}
	m.success.WithLabelValues(normalizeLabel(job)).Inc()
}

func (m *JobMetrics) IncFailure(job string) {
	if m == nil || m.failure == nil {
		return
	}
	m.failure.WithLabelValues(normalizeLabel(job)).Inc()
}

func (m *JobMetrics) AddEvicted(n int) {
	if m == nil || m.evicted == nil || n <= 0 {
		return
	}
	m.evicted.Add(float64(n))
}
