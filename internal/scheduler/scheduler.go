// Package scheduler starts runs on a cron spec.
package scheduler

import (
	"context"
	"errors"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
)

// Starter is the part of the run controller the scheduler drives.
type Starter interface {
	Start(ctx context.Context) error
	IsRunning() bool
}

type Scheduler struct {
	cron    *cron.Cron
	starter Starter
	spec    string
	logger  arbor.ILogger
}

// New validates spec ("@every 6h", "0 9 * * 1-5", ...) up front.
func New(spec string, starter Starter, logger arbor.ILogger) (*Scheduler, error) {
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	return &Scheduler{
		cron:    cron.New(),
		starter: starter,
		spec:    spec,
		logger:  logger,
	}, nil
}

// Start registers the tick and starts the cron loop.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.spec, func() { s.Tick(ctx) }); err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}
	s.cron.Start()
	s.logger.Info().Str("spec", s.spec).Msg("⏰ scheduler started")
	return nil
}

// Tick starts a run unless one is active.
func (s *Scheduler) Tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if s.starter.IsRunning() {
		s.logger.Info().Msg("run still active, skipping tick")
		return
	}
	if err := s.starter.Start(ctx); err != nil {
		ev := s.logger.Error()
		if errors.Is(err, context.Canceled) {
			ev = s.logger.Debug()
		}
		ev.Err(err).Msg("scheduled run did not start")
	}
}

// Stop stops the cron loop and waits for a tick in progress.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info().Msg("scheduler stopped")
}
