package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-co-op/gocron"
	"go.uber.org/zap"

	"github.com/mrusso19/covid-data-aggregation/internal/covid"
	"github.com/mrusso19/covid-data-aggregation/internal/logging"
)

// Scheduler periodically re-ingests the latest feed so that requests for
// the current day are usually cache hits.
type Scheduler struct {
	scheduler *gocron.Scheduler
	service   *covid.Service
	interval  time.Duration
}

// New creates a new Scheduler.
func New(interval time.Duration, service *covid.Service) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		service:   service,
		interval:  interval,
	}
}

// Start schedules the refresh job and starts the underlying scheduler.
// A zero interval disables scheduling.
func (s *Scheduler) Start() error {
	if s.interval <= 0 {
		logging.Info("scheduler disabled, no refresh interval configured")
		return nil
	}

	_, err := s.scheduler.Every(s.interval).Do(s.refreshLatest)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

// refreshLatest ingests today's data. The pipeline itself never retries, so
// transient upstream failures are retried here, at the caller.
func (s *Scheduler) refreshLatest() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	err := backoff.Retry(
		func() error {
			_, err := s.service.EnsureAvailable(ctx, time.Now().UTC())
			if err != nil {
				if errors.Is(err, covid.ErrSourceDataUnavailable) {
					// Nothing published for today; retrying will not change that.
					return backoff.Permanent(err)
				}
				return err
			}
			return nil
		},
		backoff.WithContext(
			backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 5),
			ctx,
		),
	)
	if err != nil {
		logging.Warn("latest feed refresh failed", zap.Error(err))
		return
	}
	logging.Info("latest feed refreshed")
}
