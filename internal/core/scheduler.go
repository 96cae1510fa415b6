package core

// scheduler.go runs import kinds on a fixed interval.
//
// Each cycle runs the configured kinds one after another. A failing kind is
// logged and does not stop the others or the scheduler; its report has already
// been persisted by the pipeline.

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Runner executes one import run. Satisfied by *Pipeline.
type Runner interface {
	Run(ctx context.Context, kind *ImportKind) (*RunReport, error)
}

// Scheduler drives a Runner over a list of kinds.
type Scheduler struct {
	runner   Runner
	kinds    []*ImportKind
	interval time.Duration
	logger   *slog.Logger
}

// NewScheduler creates a scheduler. interval is only used by Start.
func NewScheduler(runner Runner, kinds []*ImportKind, interval time.Duration, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{runner: runner, kinds: kinds, interval: interval, logger: logger}
}

// RunOnce runs every kind once, in order, and returns the joined fatal errors.
// Cancelling ctx stops before the next kind.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	start := time.Now()
	var errs []error

	for _, kind := range s.kinds {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		report, err := s.runner.Run(ctx, kind)
		if err != nil {
			s.logger.Error("import run failed", "kind", kind.Code, "error", err)
			errs = append(errs, err)
			continue
		}
		s.logger.Info("import run completed",
			"kind", kind.Code,
			"status", string(report.Status),
			"messages", len(report.Messages),
		)
	}

	s.logger.Info("import cycle completed",
		"kinds", len(s.kinds),
		"failed", len(errs),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return errors.Join(errs...)
}

// Start runs a cycle immediately, then every interval until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("import scheduler started", "interval", s.interval.String(), "kinds", len(s.kinds))

	_ = s.RunOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("import scheduler stopped")
			return
		case <-ticker.C:
			_ = s.RunOnce(ctx)
		}
	}
}
