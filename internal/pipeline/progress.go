package pipeline

import (
	"context"

	"go.uber.org/zap"
)

// advance bumps the job's processed_count after a batch settles. Progress is
// a polling indicator, not an accounting record: failure is logged and never
// propagated, and the final summary does not depend on it.
func (s *Scheduler) advance(ctx context.Context, jobID string, delta int) {
	if delta <= 0 {
		return
	}
	if err := s.store.AdvanceJobProgress(ctx, jobID, delta); err != nil {
		zap.L().Warn("pipeline: failed to advance progress",
			zap.String("job_id", jobID),
			zap.Int("delta", delta),
			zap.Error(err),
		)
	}
}
