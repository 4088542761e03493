// Package scheduler runs periodic background jobs.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"invoiceflow/internal/logger"
	"invoiceflow/internal/metrics"
)

// OverdueMarker flags past-due invoices.
type OverdueMarker interface {
	MarkOverdue(now time.Time) (int64, error)
}

// Scheduler owns the cron runner and the jobs registered on it.
type Scheduler struct {
	cron   *cron.Cron
	marker OverdueMarker
	now    func() time.Time
}

// New creates a Scheduler. Jobs never overlap with their own previous run.
func New(marker OverdueMarker) *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithChain(
			cron.Recover(cron.DefaultLogger),
			cron.SkipIfStillRunning(cron.DefaultLogger),
		)),
		marker: marker,
		now:    time.Now,
	}
}

// ScheduleOverdueSweep registers the overdue sweep. An empty spec disables it.
func (s *Scheduler) ScheduleOverdueSweep(spec string) error {
	if spec == "" {
		logger.Get().Infow("overdue sweep disabled")
		return nil
	}
	if _, err := s.cron.AddFunc(spec, func() { _, _ = s.SweepOverdue() }); err != nil {
		return fmt.Errorf("invalid overdue sweep schedule %q: %w", spec, err)
	}
	logger.Get().Infow("overdue sweep scheduled", "schedule", spec)
	return nil
}

// SweepOverdue runs one overdue pass immediately.
func (s *Scheduler) SweepOverdue() (int64, error) {
	n, err := s.marker.MarkOverdue(s.now())
	if err != nil {
		logger.Get().Errorw("overdue sweep failed", "error", err)
		return 0, err
	}
	metrics.RecordOverdueMarked(n)
	if n > 0 {
		logger.Get().Infow("invoices marked overdue", "count", n)
	}
	return n, nil
}

// Start runs the scheduler in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the scheduler and returns a context that is done once running
// jobs have finished.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}
