package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/community-enrich/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS jobs (
	id              TEXT PRIMARY KEY,
	owner           TEXT NOT NULL,
	entities        TEXT NOT NULL,
	location        TEXT NOT NULL,
	status          TEXT NOT NULL DEFAULT 'processing',
	total_count     INTEGER NOT NULL,
	processed_count INTEGER NOT NULL DEFAULT 0,
	created_at      DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at      DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS communities (
	id                 TEXT PRIMARY KEY,
	name               TEXT NOT NULL,
	location           TEXT NOT NULL,
	street             TEXT,
	city               TEXT,
	state              TEXT,
	zip                TEXT,
	contact_name       TEXT,
	contact_email      TEXT,
	contact_phone      TEXT,
	management_company TEXT,
	created_at         DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status);
CREATE INDEX IF NOT EXISTS idx_communities_name_location ON communities(name, location);
CREATE INDEX IF NOT EXISTS idx_communities_location ON communities(location);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateJob(ctx context.Context, owner string, entities []string, location string) (*model.Job, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	entitiesJSON, err := json.Marshal(entities)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal entities")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO jobs (id, owner, entities, location, status, total_count, processed_count, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, owner, string(entitiesJSON), location, string(model.JobStatusProcessing), len(entities), 0, now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert job")
	}

	return &model.Job{
		ID:         id,
		Owner:      owner,
		Entities:   entities,
		Location:   location,
		Status:     model.JobStatusProcessing,
		TotalCount: len(entities),
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

func (s *SQLiteStore) GetJob(ctx context.Context, jobID string) (*model.Job, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, owner, entities, location, status, total_count, processed_count, created_at, updated_at FROM jobs WHERE id = ?`,
		jobID,
	)
	j, err := scanJob(row)
	if err == sql.ErrNoRows {
		return nil, eris.Errorf("sqlite: job not found: %s", jobID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get job %s", jobID)
	}
	return j, nil
}

func (s *SQLiteStore) ListJobs(ctx context.Context, filter JobFilter) ([]model.Job, error) {
	query := `SELECT id, owner, entities, location, status, total_count, processed_count, created_at, updated_at FROM jobs WHERE 1=1`
	var args []any

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list jobs")
	}
	defer rows.Close()

	var jobs []model.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan job")
		}
		jobs = append(jobs, *j)
	}
	return jobs, eris.Wrap(rows.Err(), "sqlite: list jobs iterate")
}

func (s *SQLiteStore) UpdateJobStatus(ctx context.Context, jobID string, status model.JobStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), time.Now().UTC(), jobID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update job status %s", jobID)
	}
	return checkRowsAffected(res, "job", jobID)
}

func (s *SQLiteStore) AdvanceJobProgress(ctx context.Context, jobID string, delta int) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET processed_count = processed_count + ?, updated_at = ? WHERE id = ?`,
		delta, time.Now().UTC(), jobID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: advance job progress %s", jobID)
	}
	return checkRowsAffected(res, "job", jobID)
}

func (s *SQLiteStore) InsertCommunity(ctx context.Context, name, location string, result model.EnrichmentResult) (*model.Community, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO communities (id, name, location, street, city, state, zip, contact_name, contact_email, contact_phone, management_company, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, name, location,
		nullable(result.Street), nullable(result.City), nullable(result.State), nullable(result.Zip),
		nullable(result.ContactName), nullable(result.ContactEmail), nullable(result.ContactPhone),
		nullable(result.ManagementCompany), now,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: insert community %s", name)
	}

	return &model.Community{
		ID:        id,
		Name:      name,
		Location:  location,
		Result:    result,
		CreatedAt: now,
	}, nil
}

func (s *SQLiteStore) CommunityExists(ctx context.Context, name, location string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM communities WHERE name = ? AND location = ? LIMIT 1`,
		name, location,
	).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, eris.Wrapf(err, "sqlite: community exists %s", name)
	}
	return true, nil
}

func (s *SQLiteStore) GetCommunity(ctx context.Context, name, location string) (*model.Community, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, location, street, city, state, zip, contact_name, contact_email, contact_phone, management_company, created_at FROM communities WHERE name = ? AND location = ? ORDER BY created_at DESC LIMIT 1`,
		name, location,
	)
	c, err := scanCommunity(row)
	if err == sql.ErrNoRows {
		return nil, eris.Errorf("sqlite: community not found: %s", name)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get community %s", name)
	}
	return c, nil
}

func (s *SQLiteStore) ListCommunities(ctx context.Context, filter CommunityFilter) ([]model.Community, error) {
	query := `SELECT id, name, location, street, city, state, zip, contact_name, contact_email, contact_phone, management_company, created_at FROM communities WHERE 1=1`
	var args []any

	if filter.Location != "" {
		query += ` AND location = ?`
		args = append(args, filter.Location)
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list communities")
	}
	defer rows.Close()

	var out []model.Community
	for rows.Next() {
		c, err := scanCommunity(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan community")
		}
		out = append(out, *c)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list communities iterate")
}

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}
