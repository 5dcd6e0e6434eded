package core

// scheduler.go runs the periodic reconcile job.
//
// Local state is updated optimistically after remote writes and may drift
// from the store when a write fails or when another console changes the
// catalog. The reconcile job reloads the full catalog on an interval so the
// drift is bounded even without a change feed.

import (
	"context"
	"time"
)

// DefaultReconcileInterval is used when the configured interval is zero.
const DefaultReconcileInterval = 5 * time.Minute

// StartReconcileScheduler refreshes the catalog immediately, then every
// interval, until ctx is cancelled. Failed refreshes are logged and retried
// on the next tick.
func (s *Service) StartReconcileScheduler(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultReconcileInterval
	}
	s.logger.Info("reconcile scheduler started", "interval", interval.String())

	s.runReconcileJob(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("reconcile scheduler stopped")
			return
		case <-ticker.C:
			s.runReconcileJob(ctx)
		}
	}
}

// runReconcileJob performs one refresh cycle.
func (s *Service) runReconcileJob(ctx context.Context) {
	start := time.Now()
	if err := s.Refresh(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}
		s.logger.Error("reconcile failed", "error", err)
		return
	}
	s.logger.Info("reconcile completed",
		"records", s.set.Len(),
		"selected", s.selection.Len(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
}
