package pipeline

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/community-enrich/internal/store"
)

// ErrValidation marks a rejected submission. No job record exists when a
// Submit call returns an error wrapping it.
var ErrValidation = eris.New("pipeline: invalid request")

// SubmitRequest is one enrichment job submission.
type SubmitRequest struct {
	Entities []string `json:"entities"`
	Location string   `json:"location"`
	Owner    string   `json:"owner,omitempty"`
}

// Receipt acknowledges an accepted job before any entity is processed.
type Receipt struct {
	JobID      string `json:"job_id"`
	TotalCount int    `json:"total"`
}

// Intake validates submissions, creates the job record, and hands the job to
// the scheduler on a detached goroutine.
type Intake struct {
	store     store.Store
	scheduler *Scheduler
}

// NewIntake creates an Intake in front of the given scheduler.
func NewIntake(st store.Store, scheduler *Scheduler) *Intake {
	return &Intake{store: st, scheduler: scheduler}
}

// Submit accepts a job and returns once it is recorded. Processing happens in
// the background; there is no cancellation after dispatch, and the receipt's
// TotalCount equals the submitted entity count, duplicates included.
func (i *Intake) Submit(ctx context.Context, req SubmitRequest) (*Receipt, error) {
	if len(req.Entities) == 0 {
		return nil, eris.Wrap(ErrValidation, "entities must not be empty")
	}
	if strings.TrimSpace(req.Location) == "" {
		return nil, eris.Wrap(ErrValidation, "location must not be blank")
	}

	job, err := i.store.CreateJob(ctx, req.Owner, req.Entities, req.Location)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: create job")
	}

	zap.L().Info("pipeline: job accepted",
		zap.String("job_id", job.ID),
		zap.String("location", job.Location),
		zap.Int("total", job.TotalCount),
	)

	i.scheduler.runDetached(job)

	return &Receipt{JobID: job.ID, TotalCount: job.TotalCount}, nil
}
