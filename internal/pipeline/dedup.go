package pipeline

import (
	"context"

	"go.uber.org/zap"
)

// exists reports whether a community was already enriched under this
// location scope. Fail-open: a store error logs a warning and returns false,
// so a transient lookup failure cannot stall the pipeline. The worst case is
// a duplicate enrichment, which is cheaper than a wedged job.
func (s *Scheduler) exists(ctx context.Context, name, location string) bool {
	found, err := s.store.CommunityExists(ctx, name, location)
	if err != nil {
		zap.L().Warn("pipeline: dedup check failed, treating as new",
			zap.String("name", name),
			zap.String("location", location),
			zap.Error(err),
		)
		return false
	}
	return found
}
