// Package jobs hosts the background maintenance tasks of the
// reservations service.
package jobs

import (
	"context"
	"time"

	"cospace/internal/scheduler/service"
	"cospace/pkg/config"

	"github.com/robfig/cron/v3"
)

const sweepTimeout = 30 * time.Second

// ExpirySweeper periodically moves stale pending bookings to expired.
// Pending is a transitional state; anything stuck there past the TTL
// lost its submitter and must release its interval.
type ExpirySweeper struct {
	scheduler service.SchedulerService
	cfg       *config.Config
	cron      *cron.Cron
}

func NewExpirySweeper(scheduler service.SchedulerService, cfg *config.Config) *ExpirySweeper {
	return &ExpirySweeper{
		scheduler: scheduler,
		cfg:       cfg,
		cron:      cron.New(),
	}
}

func (s *ExpirySweeper) Start() error {
	if _, err := s.cron.AddFunc(s.cfg.ExpirySweepSpec, s.run); err != nil {
		return err
	}
	s.cron.Start()
	s.cfg.Log.Info("Expiry sweeper started",
		"spec", s.cfg.ExpirySweepSpec,
		"pending_ttl", s.cfg.PendingTTL,
	)
	return nil
}

// Stop halts the schedule and waits for an in-flight sweep to finish.
func (s *ExpirySweeper) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.cfg.Log.Info("Expiry sweeper stopped")
}

func (s *ExpirySweeper) run() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	expired, err := s.scheduler.ExpireStalePending(ctx)
	if err != nil {
		s.cfg.Log.Error("Expiry sweep failed", "error", err)
		return
	}
	if expired > 0 {
		s.cfg.Log.Info("Expiry sweep completed", "expired", expired)
	}
}
