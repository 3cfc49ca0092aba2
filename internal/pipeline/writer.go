package pipeline

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/community-enrich/internal/model"
)

// write persists one enrichment row. Every looked-up entity gets a row, even
// when no field was populated. The error is returned so the scheduler marks
// the entity failed, but it never propagates past the entity boundary.
func (s *Scheduler) write(ctx context.Context, name, location string, result model.EnrichmentResult) error {
	community, err := s.store.InsertCommunity(ctx, name, location, result)
	if err != nil {
		zap.L().Error("pipeline: failed to persist enrichment",
			zap.String("name", name),
			zap.String("location", location),
			zap.Error(err),
		)
		return err
	}

	zap.L().Debug("pipeline: enrichment persisted",
		zap.String("community_id", community.ID),
		zap.String("name", name),
		zap.Bool("empty_result", result.Empty()),
	)
	return nil
}
