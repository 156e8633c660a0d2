package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
)

// jobTimeout bounds a single warm-up run.
const jobTimeout = 2 * time.Minute

// Warmer refreshes cached history ahead of requests.
type Warmer interface {
	Warm(ctx context.Context) error
}

// Scheduler periodically warms the history cache for the configured location.
type Scheduler struct {
	scheduler *gocron.Scheduler
	warmer    Warmer
	interval  time.Duration
	logger    *slog.Logger
}

// New creates a new Scheduler.
func New(warmer Warmer, interval time.Duration, logger *slog.Logger) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler: s,
		warmer:    warmer,
		interval:  interval,
		logger:    logger,
	}
}

// Start schedules the warm-up job, runs it once immediately and starts the
// underlying scheduler.
func (s *Scheduler) Start() error {
	interval := s.interval
	if interval < time.Minute {
		interval = time.Minute
	}

	_, err := s.scheduler.Every(interval).Do(s.run)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	start := time.Now()
	if err := s.warmer.Warm(ctx); err != nil {
		s.logger.Error("scheduler: history warm-up failed", "error", err)
		return
	}
	s.logger.Info("scheduler: history warm-up completed", "duration", time.Since(start))
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
