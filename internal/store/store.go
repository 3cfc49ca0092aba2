package store

import (
	"context"

	"github.com/sells-group/community-enrich/internal/model"
)

// JobFilter specifies criteria for listing jobs.
type JobFilter struct {
	Status model.JobStatus `json:"status,omitempty"`
	Limit  int             `json:"limit,omitempty"`
	Offset int             `json:"offset,omitempty"`
}

// CommunityFilter specifies criteria for listing enriched communities.
type CommunityFilter struct {
	Location string `json:"location,omitempty"`
	Limit    int    `json:"limit,omitempty"`
	Offset   int    `json:"offset,omitempty"`
}

// Store defines the persistence interface for the enrichment pipeline.
type Store interface {
	// Jobs
	CreateJob(ctx context.Context, owner string, entities []string, location string) (*model.Job, error)
	GetJob(ctx context.Context, jobID string) (*model.Job, error)
	ListJobs(ctx context.Context, filter JobFilter) ([]model.Job, error)
	UpdateJobStatus(ctx context.Context, jobID string, status model.JobStatus) error
	// AdvanceJobProgress increments processed_count by delta. Best-effort:
	// callers log and continue on error.
	AdvanceJobProgress(ctx context.Context, jobID string, delta int) error

	// Communities
	InsertCommunity(ctx context.Context, name, location string, result model.EnrichmentResult) (*model.Community, error)
	CommunityExists(ctx context.Context, name, location string) (bool, error)
	GetCommunity(ctx context.Context, name, location string) (*model.Community, error)
	ListCommunities(ctx context.Context, filter CommunityFilter) ([]model.Community, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
