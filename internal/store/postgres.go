package store

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/community-enrich/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses; pgxmock satisfies it.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// preparedStatements lists queries to prepare on each new connection for the
// hot per-entity operations.
var preparedStatements = map[string]string{
	"insert_community": `INSERT INTO communities (id, name, location, street, city, state, zip, contact_name, contact_email, contact_phone, management_company, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
	"community_exists": `SELECT 1 FROM communities WHERE name = $1 AND location = $2 LIMIT 1`,
	"advance_progress": `UPDATE jobs SET processed_count = processed_count + $1, updated_at = $2 WHERE id = $3`,
	"update_status":    `UPDATE jobs SET status = $1, updated_at = $2 WHERE id = $3`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 2
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS jobs (
	id              TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	owner           TEXT NOT NULL,
	entities        JSONB NOT NULL,
	location        TEXT NOT NULL,
	status          TEXT NOT NULL DEFAULT 'processing',
	total_count     INTEGER NOT NULL,
	processed_count INTEGER NOT NULL DEFAULT 0,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS communities (
	id                 TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
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
	created_at         TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status);
CREATE INDEX IF NOT EXISTS idx_communities_name_location ON communities(name, location);
CREATE INDEX IF NOT EXISTS idx_communities_location ON communities(location);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.pool.Ping(ctx), "postgres: ping")
}

func (s *PostgresStore) CreateJob(ctx context.Context, owner string, entities []string, location string) (*model.Job, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	entitiesJSON, err := json.Marshal(entities)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal entities")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO jobs (id, owner, entities, location, status, total_count, processed_count, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		id, owner, string(entitiesJSON), location, string(model.JobStatusProcessing), len(entities), 0, now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert job")
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

func (s *PostgresStore) GetJob(ctx context.Context, jobID string) (*model.Job, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, owner, entities, location, status, total_count, processed_count, created_at, updated_at FROM jobs WHERE id = $1`,
		jobID,
	)
	j, err := scanJob(row)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get job %s", jobID)
	}
	return j, nil
}

func (s *PostgresStore) ListJobs(ctx context.Context, filter JobFilter) ([]model.Job, error) {
	query := `SELECT id, owner, entities, location, status, total_count, processed_count, created_at, updated_at FROM jobs WHERE 1=1`
	var args []any

	if filter.Status != "" {
		args = append(args, string(filter.Status))
		query += ` AND status = $1`
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit)
	query += ` LIMIT $` + strconv.Itoa(len(args))

	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += ` OFFSET $` + strconv.Itoa(len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list jobs")
	}
	defer rows.Close()

	var jobs []model.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan job")
		}
		jobs = append(jobs, *j)
	}
	return jobs, eris.Wrap(rows.Err(), "postgres: list jobs iterate")
}

func (s *PostgresStore) UpdateJobStatus(ctx context.Context, jobID string, status model.JobStatus) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE jobs SET status = $1, updated_at = $2 WHERE id = $3`,
		string(status), time.Now().UTC(), jobID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update job status %s", jobID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("postgres: job not found: %s", jobID)
	}
	return nil
}

func (s *PostgresStore) AdvanceJobProgress(ctx context.Context, jobID string, delta int) error {
	// Server-side increment; concurrent batch completions never lose updates.
	tag, err := s.pool.Exec(ctx,
		`UPDATE jobs SET processed_count = processed_count + $1, updated_at = $2 WHERE id = $3`,
		delta, time.Now().UTC(), jobID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: advance job progress %s", jobID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("postgres: job not found: %s", jobID)
	}
	return nil
}

func (s *PostgresStore) InsertCommunity(ctx context.Context, name, location string, result model.EnrichmentResult) (*model.Community, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO communities (id, name, location, street, city, state, zip, contact_name, contact_email, contact_phone, management_company, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		id, name, location,
		nullable(result.Street), nullable(result.City), nullable(result.State), nullable(result.Zip),
		nullable(result.ContactName), nullable(result.ContactEmail), nullable(result.ContactPhone),
		nullable(result.ManagementCompany), now,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: insert community %s", name)
	}

	return &model.Community{
		ID:        id,
		Name:      name,
		Location:  location,
		Result:    result,
		CreatedAt: now,
	}, nil
}

func (s *PostgresStore) CommunityExists(ctx context.Context, name, location string) (bool, error) {
	var one int
	err := s.pool.QueryRow(ctx,
		`SELECT 1 FROM communities WHERE name = $1 AND location = $2 LIMIT 1`,
		name, location,
	).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, eris.Wrapf(err, "postgres: community exists %s", name)
	}
	return true, nil
}

func (s *PostgresStore) GetCommunity(ctx context.Context, name, location string) (*model.Community, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, name, location, street, city, state, zip, contact_name, contact_email, contact_phone, management_company, created_at FROM communities WHERE name = $1 AND location = $2 ORDER BY created_at DESC LIMIT 1`,
		name, location,
	)
	c, err := scanCommunity(row)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get community %s", name)
	}
	return c, nil
}

func (s *PostgresStore) ListCommunities(ctx context.Context, filter CommunityFilter) ([]model.Community, error) {
	query := `SELECT id, name, location, street, city, state, zip, contact_name, contact_email, contact_phone, management_company, created_at FROM communities WHERE 1=1`
	var args []any

	if filter.Location != "" {
		args = append(args, filter.Location)
		query += ` AND location = $1`
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit)
	query += ` LIMIT $` + strconv.Itoa(len(args))

	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += ` OFFSET $` + strconv.Itoa(len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list communities")
	}
	defer rows.Close()

	var out []model.Community
	for rows.Next() {
		c, err := scanCommunity(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan community")
		}
		out = append(out, *c)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list communities iterate")
}

// scanner abstracts pgx.Row and pgx.Rows for shared scan helpers.
type scanner interface {
	Scan(dest ...any) error
}

func scanJob(row scanner) (*model.Job, error) {
	var j model.Job
	var entitiesJSON string
	var status string
	if err := row.Scan(&j.ID, &j.Owner, &entitiesJSON, &j.Location, &status, &j.TotalCount, &j.ProcessedCount, &j.CreatedAt, &j.UpdatedAt); err != nil {
		return nil, err
	}
	j.Status = model.JobStatus(status)
	if err := json.Unmarshal([]byte(entitiesJSON), &j.Entities); err != nil {
		return nil, eris.Wrap(err, "unmarshal entities")
	}
	return &j, nil
}

func scanCommunity(row scanner) (*model.Community, error) {
	var c model.Community
	var street, city, state, zip, contactName, contactEmail, contactPhone, mgmt *string
	if err := row.Scan(&c.ID, &c.Name, &c.Location, &street, &city, &state, &zip, &contactName, &contactEmail, &contactPhone, &mgmt, &c.CreatedAt); err != nil {
		return nil, err
	}
	c.Result = model.EnrichmentResult{
		Street:            deref(street),
		City:              deref(city),
		State:             deref(state),
		Zip:               deref(zip),
		ContactName:       deref(contactName),
		ContactEmail:      deref(contactEmail),
		ContactPhone:      deref(contactPhone),
		ManagementCompany: deref(mgmt),
	}
	return &c, nil
}

// nullable maps an empty string to NULL so "nothing found" round-trips as
// null columns rather than empty strings.
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

