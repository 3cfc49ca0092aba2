package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/community-enrich/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func TestSQLiteCreateAndGetJob(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	entities := []string{"OAKWOOD ESTATES", "SUNSET RIDGE", "OAKWOOD ESTATES"}
	job, err := s.CreateJob(ctx, "ops@example.com", entities, "Dallas, TX")
	require.NoError(t, err)
	assert.NotEmpty(t, job.ID)
	assert.Equal(t, model.JobStatusProcessing, job.Status)
	assert.Equal(t, 3, job.TotalCount)
	assert.Equal(t, 0, job.ProcessedCount)

	got, err := s.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, job.ID, got.ID)
	assert.Equal(t, "ops@example.com", got.Owner)
	// Input order and duplicates survive the round trip.
	assert.Equal(t, entities, got.Entities)
	assert.Equal(t, "Dallas, TX", got.Location)
}

func TestSQLiteGetJobNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetJob(context.Background(), "no-such-job")
	assert.Error(t, err)
}

func TestSQLiteUpdateJobStatus(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	job, err := s.CreateJob(ctx, "owner", []string{"A"}, "Austin, TX")
	require.NoError(t, err)

	require.NoError(t, s.UpdateJobStatus(ctx, job.ID, model.JobStatusCompleted))
	got, err := s.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusCompleted, got.Status)

	assert.Error(t, s.UpdateJobStatus(ctx, "missing", model.JobStatusFailed))
}

func TestSQLiteAdvanceJobProgress(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	job, err := s.CreateJob(ctx, "owner", []string{"A", "B", "C", "D", "E", "F", "G"}, "Austin, TX")
	require.NoError(t, err)

	// Increments accumulate across calls, as with concurrent batch settles.
	require.NoError(t, s.AdvanceJobProgress(ctx, job.ID, 5))
	require.NoError(t, s.AdvanceJobProgress(ctx, job.ID, 2))

	got, err := s.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, got.ProcessedCount)
}

func TestSQLiteInsertAndGetCommunity(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	result := model.EnrichmentResult{
		Street:            "100 Main St",
		City:              "Plano",
		State:             "TX",
		Zip:               "75024",
		ContactName:       "Jane Doe",
		ContactEmail:      "jane@hoa.example.com",
		ContactPhone:      "214-555-0100",
		ManagementCompany: "Lone Star HOA Management",
	}
	c, err := s.InsertCommunity(ctx, "OAKWOOD ESTATES", "Dallas, TX", result)
	require.NoError(t, err)
	assert.NotEmpty(t, c.ID)

	got, err := s.GetCommunity(ctx, "OAKWOOD ESTATES", "Dallas, TX")
	require.NoError(t, err)
	assert.Equal(t, "OAKWOOD ESTATES", got.Name)
	assert.Equal(t, result, got.Result)
}

func TestSQLiteInsertEmptyResultRoundTrips(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// "Looked up, nothing found" still produces a row.
	_, err := s.InsertCommunity(ctx, "GHOST TOWN COMMONS", "Amarillo, TX", model.EnrichmentResult{})
	require.NoError(t, err)

	got, err := s.GetCommunity(ctx, "GHOST TOWN COMMONS", "Amarillo, TX")
	require.NoError(t, err)
	assert.True(t, got.Result.Empty())
}

func TestSQLiteCommunityExists(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	exists, err := s.CommunityExists(ctx, "OAKWOOD ESTATES", "Dallas, TX")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = s.InsertCommunity(ctx, "OAKWOOD ESTATES", "Dallas, TX", model.EnrichmentResult{City: "Dallas"})
	require.NoError(t, err)

	exists, err = s.CommunityExists(ctx, "OAKWOOD ESTATES", "Dallas, TX")
	require.NoError(t, err)
	assert.True(t, exists)

	// Same name in a different context scope is a different identity.
	exists, err = s.CommunityExists(ctx, "OAKWOOD ESTATES", "Houston, TX")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestSQLiteListJobsFiltered(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	j1, err := s.CreateJob(ctx, "owner", []string{"A"}, "Dallas, TX")
	require.NoError(t, err)
	_, err = s.CreateJob(ctx, "owner", []string{"B"}, "Dallas, TX")
	require.NoError(t, err)
	require.NoError(t, s.UpdateJobStatus(ctx, j1.ID, model.JobStatusCompleted))

	all, err := s.ListJobs(ctx, JobFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	completed, err := s.ListJobs(ctx, JobFilter{Status: model.JobStatusCompleted})
	require.NoError(t, err)
	require.Len(t, completed, 1)
	assert.Equal(t, j1.ID, completed[0].ID)
}

func TestSQLiteListCommunities(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.InsertCommunity(ctx, "A", "Dallas, TX", model.EnrichmentResult{})
	require.NoError(t, err)
	_, err = s.InsertCommunity(ctx, "B", "Houston, TX", model.EnrichmentResult{})
	require.NoError(t, err)

	dallas, err := s.ListCommunities(ctx, CommunityFilter{Location: "Dallas, TX"})
	require.NoError(t, err)
	require.Len(t, dallas, 1)
	assert.Equal(t, "A", dallas[0].Name)

	all, err := s.ListCommunities(ctx, CommunityFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	limited, err := s.ListCommunities(ctx, CommunityFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}
