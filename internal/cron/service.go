package cron

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/domeo/domeo-backend/pkg/logger"
	"github.com/domeo/domeo-backend/pkg/metrics"
)

const defaultInterval = time.Minute

// ServiceParams configure the janitor. JobTimeout bounds a single job run and
// defaults to the interval.
type ServiceParams struct {
	Logger     *logger.Logger
	Registry   *Registry
	Lock       Lock
	Metrics    *metrics.JobMetrics
	Interval   time.Duration
	JobTimeout time.Duration
}

// Service ticks through the registry, one cycle at a time.
type Service struct {
	logg       *logger.Logger
	registry   *Registry
	lock       Lock
	metrics    *metrics.JobMetrics
	interval   time.Duration
	jobTimeout time.Duration
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	s := &Service{
		logg:       params.Logger,
		registry:   params.Registry,
		lock:       params.Lock,
		metrics:    params.Metrics,
		interval:   params.Interval,
		jobTimeout: params.JobTimeout,
	}
	if s.registry == nil {
		s.registry = NewRegistry()
	}
	if s.lock == nil {
		s.lock = NewLocalLock()
	}
	if s.interval <= 0 {
		s.interval = defaultInterval
	}
	if s.jobTimeout <= 0 {
		s.jobTimeout = s.interval
	}
	return s, nil
}

// Run blocks until ctx is done, starting a cycle on every tick.
func (s *Service) Run(ctx context.Context) error {
	ctx = s.logg.WithFields(ctx, map[string]any{
		"jobs":     s.registry.Names(),
		"interval": s.interval.String(),
	})
	s.logg.Info(ctx, "janitor started")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "janitor stopped")
			return ctx.Err()
		case <-ticker.C:
			if _, err := s.RunOnce(ctx); err != nil {
				s.logg.Error(ctx, "janitor cycle failed", err)
			}
		}
	}
}

// RunOnce runs every job if the lock is free. It reports false when another
// cycle holds the lock. Job failures are logged and counted, not returned.
func (s *Service) RunOnce(ctx context.Context) (bool, error) {
	acquired, err := s.lock.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire janitor lock: %w", err)
	}
	if !acquired {
		s.logg.Debug(ctx, "janitor cycle already running")
		return false, nil
	}
	defer func() {
		if err := s.lock.Release(ctx); err != nil {
			s.logg.Error(ctx, "release janitor lock", err)
		}
	}()

	for _, job := range s.registry.Jobs() {
		if ctx.Err() != nil {
			return true, ctx.Err()
		}
		s.runJob(ctx, job)
	}
	return true, nil
}

func (s *Service) runJob(ctx context.Context, job Job) {
	name := job.Name()
	jobCtx, cancel := context.WithTimeout(s.logg.WithField(ctx, "job", name), s.jobTimeout)
	defer cancel()

	start := time.Now()
	err := safeRun(jobCtx, job)
	elapsed := time.Since(start)

	s.metrics.ObserveDuration(name, elapsed)
	jobCtx = s.logg.WithField(jobCtx, "duration_ms", elapsed.Milliseconds())
	if err != nil {
		s.metrics.IncFailure(name)
		s.logg.Error(jobCtx, "job failed", err)
		return
	}
	s.metrics.IncSuccess(name)
	s.logg.Debug(jobCtx, "job done")
}

// safeRun turns a job panic into an error so one bad job cannot stop the
// janitor.
func safeRun(ctx context.Context, job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v\n%s", r, debug.Stack())
		}
	}()
	return job.Run(ctx)
}
