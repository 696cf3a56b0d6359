package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/shopconsole-backend/pkg/logger"
	"github.com/angelmondragon/shopconsole-backend/pkg/metrics"
)

const defaultInterval = 5 * time.Minute

// ServiceParams configure the cron service.
type ServiceParams struct {
	Logger   *logger.Logger
	Registry *Registry
	Lock     Lock
	Metrics  *metrics.CronJobMetrics
	Interval time.Duration
}

// Service runs every registered job once per interval while holding the lock.
type Service struct {
	logg     *logger.Logger
	registry *Registry
	lock     Lock
	metrics  *metrics.CronJobMetrics
	interval time.Duration
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Lock == nil {
		return nil, fmt.Errorf("lock required")
	}
	registry := params.Registry
	if registry == nil {
		registry = NewRegistry()
	}
	interval := params.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Service{
		logg:     params.Logger,
		registry: registry,
		lock:     params.Lock,
		metrics:  params.Metrics,
		interval: interval,
	}, nil
}

// Run executes a cycle immediately and then on every tick until ctx is done.
func (s *Service) Run(ctx context.Context) error {
	if err := s.RunOnce(ctx); err != nil {
		s.logg.Error(ctx, "cron.cycle_failed", err)
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "cron.stopped")
			return ctx.Err()
		case <-ticker.C:
			if err := s.RunOnce(ctx); err != nil {
				s.logg.Error(ctx, "cron.cycle_failed", err)
			}
		}
	}
}

// RunOnce runs one cycle. A failing job does not stop the ones after it; only
// lock errors are returned.
func (s *Service) RunOnce(ctx context.Context) error {
	locked, err := s.lock.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("lock acquire: %w", err)
	}
	if !locked {
		s.logg.Info(ctx, "cron.cycle_skipped")
		return nil
	}
	defer func() {
		if relErr := s.lock.Release(ctx); relErr != nil {
			s.logg.Error(ctx, "cron.lock_release_failed", relErr)
		}
	}()

	for _, job := range s.registry.Jobs() {
		s.runJob(ctx, job)
	}
	return nil
}

func (s *Service) runJob(ctx context.Context, job Job) {
	jobCtx := s.logg.WithField(ctx, "job", job.Name())
	start := time.Now()
	err := job.Run(jobCtx)
	duration := time.Since(start)
	s.metrics.ObserveDuration(job.Name(), duration)

	jobCtx = s.logg.WithField(jobCtx, "duration_ms", duration.Milliseconds())
	if err != nil {
		s.metrics.IncFailure(job.Name())
		s.logg.Error(jobCtx, "cron.job_failed", err)
		return
	}
	s.metrics.IncSuccess(job.Name())
	s.logg.Info(jobCtx, "cron.job_completed")
}
