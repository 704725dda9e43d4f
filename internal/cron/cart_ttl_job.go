package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/domeo/domeo-backend/pkg/logger"
	"github.com/domeo/domeo-backend/pkg/metrics"
	"github.com/google/uuid"
)

// CartEvictor drops carts that have been idle since a cutoff.
type CartEvictor interface {
	EvictIdle(cutoff time.Time) []uuid.UUID
}

// CartTTLJobParams configure the idle cart eviction job.
type CartTTLJobParams struct {
	Logger  *logger.Logger
	Carts   CartEvictor
	TTL     time.Duration
	Metrics *metrics.JobMetrics
}

type cartTTLJob struct {
	logg    *logger.Logger
	carts   CartEvictor
	ttl     time.Duration
	metrics *metrics.JobMetrics
	now     func() time.Time
}

// NewCartTTLJob returns a job that releases abandoned cart sessions.
func NewCartTTLJob(params CartTTLJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Carts == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if params.TTL <= 0 {
		return nil, fmt.Errorf("cart ttl must be positive")
	}
	return &cartTTLJob{
		logg:    params.Logger,
		carts:   params.Carts,
		ttl:     params.TTL,
		metrics: params.Metrics,
		now:     time.Now,
	}, nil
}

func (j *cartTTLJob) Name() string { return "cart-ttl" }

func (j *cartTTLJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.ttl)
	evicted := j.carts.EvictIdle(cutoff)
	j.metrics.AddEvicted(len(evicted))
	if len(evicted) == 0 {
		return nil
	}
	ids := make([]string, 0, len(evicted))
	for _, id := range evicted {
		ids = append(ids, id.String())
	}
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"evicted_count": len(evicted),
		"cart_ids":      ids,
		"cutoff":        cutoff.Format(time.RFC3339),
	}), "idle carts evicted")
	return nil
}
