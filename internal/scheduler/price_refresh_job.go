// Package scheduler wires background jobs onto a cron runner.
package scheduler

import (
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/dkaratzas/portfoliodb/internal/services"
)

// PriceRefreshJob refreshes the latest close for every held stock on a
// cron schedule. This is the only recurring job in the system.
type PriceRefreshJob struct {
	sync *services.PriceSyncService
	log  zerolog.Logger
}

// NewPriceRefreshJob creates a new price refresh job
func NewPriceRefreshJob(sync *services.PriceSyncService, log zerolog.Logger) *PriceRefreshJob {
	return &PriceRefreshJob{
		sync: sync,
		log:  log.With().Str("job", "price_refresh").Logger(),
	}
}

// Run executes one refresh pass. Satisfies cron.Job.
func (j *PriceRefreshJob) Run() {
	updated, err := j.sync.RefreshHeld()
	if err != nil {
		j.log.Error().Err(err).Msg("Price refresh failed")
		return
	}
	j.log.Info().Int("updated", updated).Msg("Price refresh completed")
}

// Scheduler owns the cron runner.
type Scheduler struct {
	cron *cron.Cron
	log  zerolog.Logger
}

// New creates a scheduler with the price refresh job registered on the
// given cron spec (standard 5-field syntax).
func New(spec string, job *PriceRefreshJob, log zerolog.Logger) (*Scheduler, error) {
	c := cron.New()
	if _, err := c.AddJob(spec, job); err != nil {
		return nil, err
	}
	return &Scheduler{
		cron: c,
		log:  log.With().Str("component", "scheduler").Logger(),
	}, nil
}

// Start begins running scheduled jobs in their own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Msg("Scheduler started")
}

// Stop stops the scheduler, waiting for a running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info().Msg("Scheduler stopped")
}
