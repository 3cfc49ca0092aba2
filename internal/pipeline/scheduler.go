// Package pipeline orchestrates enrichment jobs: intake, batched concurrent
// lookups, persistence, progress tracking, and completion notification.
package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/community-enrich/internal/model"
	"github.com/sells-group/community-enrich/internal/notify"
	"github.com/sells-group/community-enrich/internal/store"
)

// Scheduler drives one job through fixed-size batches. Entities within a
// batch run concurrently; batch i+1 never starts before batch i settles; a
// fixed delay separates batches. The job reaches exactly one terminal status
// and the owner is notified exactly once on either path.
type Scheduler struct {
	store     store.Store
	enricher  *Enricher
	notifier  notify.Notifier
	batchSize int
	delay     time.Duration
}

// NewScheduler creates a Scheduler. batchSize < 1 is coerced to 1 so a
// misconfigured job still makes progress.
func NewScheduler(st store.Store, enricher *Enricher, notifier notify.Notifier, batchSize int, delay time.Duration) *Scheduler {
	if batchSize < 1 {
		batchSize = 1
	}
	return &Scheduler{
		store:     st,
		enricher:  enricher,
		notifier:  notifier,
		batchSize: batchSize,
		delay:     delay,
	}
}

// Run processes every entity of the job and finalizes it. Per-entity failures
// are absorbed into the summary; only a scheduler-level fault (context
// cancellation between batches, or a panic caught by the caller's recover
// boundary) marks the job failed.
func (s *Scheduler) Run(ctx context.Context, job *model.Job) *model.JobSummary {
	log := zap.L().With(zap.String("job_id", job.ID), zap.Int("total", job.TotalCount))
	log.Info("pipeline: job started",
		zap.Int("batch_size", s.batchSize),
		zap.Duration("batch_delay", s.delay),
	)

	summary := &model.JobSummary{JobID: job.ID, Total: len(job.Entities)}

	var mu sync.Mutex
	record := func(name string, outcome model.Outcome) {
		mu.Lock()
		defer mu.Unlock()
		switch outcome {
		case model.OutcomeProcessed:
			summary.Processed++
		case model.OutcomeSkipped:
			summary.Skipped++
			summary.SkippedNames = append(summary.SkippedNames, name)
		case model.OutcomeFailed:
			summary.Failed++
			summary.FailedNames = append(summary.FailedNames, name)
		}
	}

	batches := partition(job.Entities, s.batchSize)
	for i, batch := range batches {
		g, gCtx := errgroup.WithContext(ctx)
		for _, name := range batch {
			g.Go(func() (err error) {
				defer func() {
					if r := recover(); r != nil {
						err = eris.Errorf("pipeline: entity %q panicked: %v", name, r)
					}
				}()
				record(name, s.processEntity(gCtx, job, name))
				return nil // individual outcomes never abort the batch
			})
		}
		if err := g.Wait(); err != nil {
			log.Error("pipeline: abandoning remaining batches", zap.Error(err))
			s.finalize(ctx, job, summary, model.JobStatusFailed)
			return summary
		}

		s.advance(ctx, job.ID, len(batch))

		if i < len(batches)-1 && s.delay > 0 {
			select {
			case <-time.After(s.delay):
			case <-ctx.Done():
				log.Warn("pipeline: job interrupted between batches", zap.Error(ctx.Err()))
				s.finalize(ctx, job, summary, model.JobStatusFailed)
				return summary
			}
		}
	}

	s.finalize(ctx, job, summary, model.JobStatusCompleted)
	return summary
}

// processEntity runs dedup, enrichment, and persistence for one name,
// funneling every failure mode into an Outcome.
func (s *Scheduler) processEntity(ctx context.Context, job *model.Job, name string) model.Outcome {
	if s.exists(ctx, name, job.Location) {
		zap.L().Info("pipeline: entity already enriched, skipping",
			zap.String("job_id", job.ID),
			zap.String("name", name),
		)
		return model.OutcomeSkipped
	}

	result, err := s.enricher.Enrich(ctx, name, job.Location)
	if err != nil {
		zap.L().Error("pipeline: enrichment failed",
			zap.String("job_id", job.ID),
			zap.String("name", name),
			zap.Error(err),
		)
		return model.OutcomeFailed
	}

	if err := s.write(ctx, name, job.Location, *result); err != nil {
		return model.OutcomeFailed
	}
	return model.OutcomeProcessed
}

// finalize sets the terminal status and sends the completion notification.
// Both are best-effort; the summary is returned to the caller regardless.
func (s *Scheduler) finalize(ctx context.Context, job *model.Job, summary *model.JobSummary, status model.JobStatus) {
	if err := s.store.UpdateJobStatus(ctx, job.ID, status); err != nil {
		zap.L().Warn("pipeline: failed to update job status",
			zap.String("job_id", job.ID),
			zap.String("status", string(status)),
			zap.Error(err),
		)
	}

	subject, body := summarize(job, summary, status)
	if err := s.notifier.Send(ctx, job.Owner, subject, body); err != nil {
		zap.L().Warn("pipeline: completion notification failed",
			zap.String("job_id", job.ID),
			zap.String("recipient", job.Owner),
			zap.Error(err),
		)
	}

	zap.L().Info("pipeline: job finished",
		zap.String("job_id", job.ID),
		zap.String("status", string(status)),
		zap.Int("processed", summary.Processed),
		zap.Int("skipped", summary.Skipped),
		zap.Int("failed", summary.Failed),
	)
}

// partition splits entities into consecutive batches of at most size,
// preserving input order.
func partition(entities []string, size int) [][]string {
	var batches [][]string
	for start := 0; start < len(entities); start += size {
		end := min(start+size, len(entities))
		batches = append(batches, entities[start:end])
	}
	return batches
}

// runDetached executes the scheduler on a fresh goroutine with a recover
// boundary. A panic marks the job failed and still notifies the owner.
func (s *Scheduler) runDetached(job *model.Job) {
	go func() {
		ctx := context.Background()
		defer func() {
			if r := recover(); r != nil {
				zap.L().Error("pipeline: scheduler panicked",
					zap.String("job_id", job.ID),
					zap.Any("panic", r),
				)
				summary := &model.JobSummary{JobID: job.ID, Total: len(job.Entities)}
				summary.Failed = summary.Total
				s.finalize(ctx, job, summary, model.JobStatusFailed)
			}
		}()
		s.Run(ctx, job)
	}()
}
