package metrics

import "github.com/prometheus/client_golang/prometheus"

// StatusMetrics counts document status writes and rejections.
type StatusMetrics struct {
	transitions *prometheus.CounterVec
	rejections  *prometheus.CounterVec
	dedupHits   prometheus.Counter
}

// NewStatusMetrics registers the document lifecycle metrics.
func NewStatusMetrics(reg prometheus.Registerer) *StatusMetrics {
	if reg == nil {
		return &StatusMetrics{}
	}
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "document_status_transitions_total",
		Help: "Applied document status writes.",
	}, []string{"kind", "origin", "to"})
	rejections := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "document_status_rejections_total",
		Help: "Rejected status change requests by error code.",
	}, []string{"kind", "code"})
	dedupHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "order_dedup_hits_total",
		Help: "Order creations collapsed onto an existing order.",
	})
	reg.MustRegister(transitions, rejections, dedupHits)
	return &StatusMetrics{
		transitions: transitions,
		rejections:  rejections,
		dedupHits:   dedupHits,
	}
}

func (s *StatusMetrics) IncTransition(kind, origin, to string) {
	if s == nil || s.transitions == nil {
		return
	}
	s.transitions.WithLabelValues(normalizeLabel(kind), normalizeLabel(origin), normalizeLabel(to)).Inc()
}

func (s *StatusMetrics) IncRejection(kind, code string) {
	if s == nil || s.rejections == nil {
		return
	}
	s.rejections.WithLabelValues(normalizeLabel(kind), normalizeLabel(code)).Inc()
}

func (s *StatusMetrics) IncDedupHit() {
	if s == nil || s.dedupHits == nil {
		return
	}
	s.dedupHits.Inc()
}
