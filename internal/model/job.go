package model

import "time"

// JobStatus represents the current state of an enrichment job.
type JobStatus string

const (
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// Job is the aggregate record tracking one pipeline run. ProcessedCount is a
// progress indicator only; the terminal status is set once by the scheduler.
type Job struct {
	ID             string    `json:"id"`
	Owner          string    `json:"owner"`
	Entities       []string  `json:"entities"`
	Location       string    `json:"location"`
	Status         JobStatus `json:"status"`
	TotalCount     int       `json:"total_count"`
	ProcessedCount int       `json:"processed_count"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Outcome classifies a single entity's result within a batch.
type Outcome string

const (
	OutcomeProcessed Outcome = "processed"
	OutcomeSkipped   Outcome = "skipped"
	OutcomeFailed    Outcome = "failed"
)

// JobSummary aggregates per-entity outcomes for the completion notification.
type JobSummary struct {
	JobID        string   `json:"job_id"`
	Total        int      `json:"total"`
	Processed    int      `json:"processed"`
	Skipped      int      `json:"skipped"`
	Failed       int      `json:"failed"`
	SkippedNames []string `json:"skipped_names,omitempty"`
	FailedNames  []string `json:"failed_names,omitempty"`
}
