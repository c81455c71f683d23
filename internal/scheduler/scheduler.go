// Package scheduler runs the periodic evaluation cycle for every configured
// farmer.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/agrisafe/crop-risk-advisory/internal/engine"
)

// Scheduler periodically evaluates every configured farmer.
type Scheduler struct {
	scheduler *gocron.Scheduler
	engine    *engine.Engine
	farmerIDs []string
	interval  time.Duration
	logger    *slog.Logger
}

// New creates a Scheduler that evaluates the given farmers at the interval.
func New(farmerIDs []string, interval time.Duration, eng *engine.Engine, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		engine:    eng,
		farmerIDs: farmerIDs,
		interval:  interval,
		logger:    logger,
	}
}

// Start schedules the periodic job and starts the underlying scheduler. The
// first run fires immediately so readiness does not wait a full interval.
func (s *Scheduler) Start() error {
	if len(s.farmerIDs) == 0 {
		s.logger.Warn("no farmers configured, evaluation scheduler idle")
		return nil
	}

	_, err := s.scheduler.Every(s.interval).StartImmediately().Do(func() {
		s.logger.Info("evaluation job starting", "farmers", len(s.farmerIDs))

		var wg sync.WaitGroup
		for _, farmerID := range s.farmerIDs {
			wg.Add(1)
			go func() {
				defer wg.Done()

				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()

				if err := s.engine.RunCycle(ctx, farmerID); err != nil {
					s.logger.Error("evaluation cycle failed", "farmer_id", farmerID, "error", err)
				}
			}()
		}
		wg.Wait()
		s.logger.Info("evaluation job complete")
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}
