package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/xpanddigital/cratehq-enrich/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

const artistColumns = `id, name, spotify_id, youtube_handle, instagram_handle, website_url,
	linktree_url, facebook_url, bio_text, monthly_listeners, recent_streams, track_count,
	email, email_confidence, email_source, all_emails_found, is_contactable, enriched_at,
	estimated_offer_usd, offer_low_usd, offer_high_usd, qualification_status,
	qualification_reason, qualification_manual_override, qualified_at, created_at, updated_at`

const batchColumns = `id, name, total_artists, status, completed, failed, skipped,
	email_found_count, created_by, created_at, updated_at`

const jobColumns = `id, batch_id, artist_id, status, attempts, max_attempts, priority,
	error_message, started_at, completed_at, created_at`

// preparedStatements lists queries to prepare on each new connection for
// the hottest store operations.
var preparedStatements = map[string]string{
	"get_artist":    `SELECT ` + artistColumns + ` FROM artists WHERE id = $1`,
	"get_batch":     `SELECT ` + batchColumns + ` FROM batches WHERE id = $1`,
	"complete_job":  `UPDATE queue_jobs SET status = 'completed', completed_at = now() WHERE id = $1 AND status = 'processing'`,
	"release_job":   `UPDATE queue_jobs SET status = 'pending', started_at = NULL WHERE id = $1 AND status = 'processing'`,
	"job_stats":     `SELECT status, count(*) FROM queue_jobs WHERE batch_id = $1 GROUP BY status`,
	"insert_enrich": `INSERT INTO enrichment_logs (id, artist_id, batch_id, result, created_at) VALUES ($1, $2, $3, $4, $5)`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
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
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresWithPool wraps an existing pool, for tests.
func NewPostgresWithPool(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS artists (
	id                           TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	name                         TEXT NOT NULL,
	spotify_id                   TEXT NOT NULL DEFAULT '',
	youtube_handle               TEXT NOT NULL DEFAULT '',
	instagram_handle             TEXT NOT NULL DEFAULT '',
	website_url                  TEXT NOT NULL DEFAULT '',
	linktree_url                 TEXT NOT NULL DEFAULT '',
	facebook_url                 TEXT NOT NULL DEFAULT '',
	bio_text                     TEXT NOT NULL DEFAULT '',
	monthly_listeners            BIGINT NOT NULL DEFAULT 0,
	recent_streams               BIGINT NOT NULL DEFAULT 0,
	track_count                  INTEGER NOT NULL DEFAULT 0,
	email                        TEXT NOT NULL DEFAULT '',
	email_confidence             DOUBLE PRECISION NOT NULL DEFAULT 0,
	email_source                 TEXT NOT NULL DEFAULT '',
	all_emails_found             JSONB,
	is_contactable               BOOLEAN NOT NULL DEFAULT false,
	enriched_at                  TIMESTAMPTZ,
	estimated_offer_usd          DOUBLE PRECISION NOT NULL DEFAULT 0,
	offer_low_usd                DOUBLE PRECISION NOT NULL DEFAULT 0,
	offer_high_usd               DOUBLE PRECISION NOT NULL DEFAULT 0,
	qualification_status         TEXT NOT NULL DEFAULT 'pending',
	qualification_reason         TEXT NOT NULL DEFAULT '',
	qualification_manual_override BOOLEAN NOT NULL DEFAULT false,
	qualified_at                 TIMESTAMPTZ,
	created_at                   TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at                   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS batches (
	id                TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	name              TEXT NOT NULL,
	total_artists     INTEGER NOT NULL DEFAULT 0,
	status            TEXT NOT NULL DEFAULT 'queued',
	completed         INTEGER NOT NULL DEFAULT 0,
	failed            INTEGER NOT NULL DEFAULT 0,
	skipped           INTEGER NOT NULL DEFAULT 0,
	email_found_count INTEGER NOT NULL DEFAULT 0,
	created_by        TEXT NOT NULL DEFAULT '',
	created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS queue_jobs (
	id            TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	batch_id      TEXT NOT NULL REFERENCES batches(id),
	artist_id     TEXT NOT NULL REFERENCES artists(id),
	status        TEXT NOT NULL DEFAULT 'pending',
	attempts      INTEGER NOT NULL DEFAULT 0,
	max_attempts  INTEGER NOT NULL DEFAULT 3,
	priority      INTEGER NOT NULL DEFAULT 0,
	error_message TEXT NOT NULL DEFAULT '',
	started_at    TIMESTAMPTZ,
	completed_at  TIMESTAMPTZ,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS enrichment_logs (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	artist_id  TEXT NOT NULL REFERENCES artists(id),
	batch_id   TEXT NOT NULL DEFAULT '',
	result     JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_artists_qualification ON artists(qualification_status);
CREATE INDEX IF NOT EXISTS idx_artists_contactable ON artists(is_contactable);
CREATE INDEX IF NOT EXISTS idx_batches_status ON batches(status);
CREATE INDEX IF NOT EXISTS idx_queue_jobs_batch_status ON queue_jobs(batch_id, status);
CREATE INDEX IF NOT EXISTS idx_queue_jobs_claim ON queue_jobs(batch_id, status, priority DESC, created_at ASC);
CREATE INDEX IF NOT EXISTS idx_enrichment_logs_artist ON enrichment_logs(artist_id);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

// Artists

func (s *PostgresStore) CreateArtist(ctx context.Context, a *model.Artist) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now
	if a.QualificationStatus == "" {
		a.QualificationStatus = model.QualificationPending
	}

	emailsJSON, err := json.Marshal(a.AllEmailsFound)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal emails")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO artists (`+artistColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16,
		         $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27)`,
		a.ID, a.Name, a.SpotifyID, a.YouTubeHandle, a.InstagramHandle, a.WebsiteURL,
		a.LinktreeURL, a.FacebookURL, a.BioText, a.MonthlyListeners, a.RecentStreams,
		a.TrackCount, a.Email, a.EmailConfidence, a.EmailSource, emailsJSON,
		a.IsContactable, a.EnrichedAt, a.EstimatedOfferUSD, a.OfferLowUSD, a.OfferHighUSD,
		string(a.QualificationStatus), a.QualificationReason, a.QualificationManualOverride,
		a.QualifiedAt, a.CreatedAt, a.UpdatedAt,
	)
	return eris.Wrapf(err, "postgres: insert artist %s", a.ID)
}

func (s *PostgresStore) GetArtist(ctx context.Context, id string) (*model.Artist, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+artistColumns+` FROM artists WHERE id = $1`, id)
	a, err := scanArtist(row)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get artist %s", id)
	}
	return a, nil
}

func (s *PostgresStore) UpdateArtist(ctx context.Context, a *model.Artist) error {
	emailsJSON, err := json.Marshal(a.AllEmailsFound)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal emails")
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE artists SET
			name = $2, spotify_id = $3, youtube_handle = $4, instagram_handle = $5,
			website_url = $6, linktree_url = $7, facebook_url = $8, bio_text = $9,
			monthly_listeners = $10, recent_streams = $11, track_count = $12,
			email = $13, email_confidence = $14, email_source = $15, all_emails_found = $16,
			is_contactable = $17, enriched_at = $18, estimated_offer_usd = $19,
			offer_low_usd = $20, offer_high_usd = $21, qualification_status = $22,
			qualification_reason = $23, qualification_manual_override = $24,
			qualified_at = $25, updated_at = now()
		 WHERE id = $1`,
		a.ID, a.Name, a.SpotifyID, a.YouTubeHandle, a.InstagramHandle, a.WebsiteURL,
		a.LinktreeURL, a.FacebookURL, a.BioText, a.MonthlyListeners, a.RecentStreams,
		a.TrackCount, a.Email, a.EmailConfidence, a.EmailSource, emailsJSON,
		a.IsContactable, a.EnrichedAt, a.EstimatedOfferUSD, a.OfferLowUSD, a.OfferHighUSD,
		string(a.QualificationStatus), a.QualificationReason, a.QualificationManualOverride,
		a.QualifiedAt,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update artist %s", a.ID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("artist not found: %s", a.ID)
	}
	return nil
}

func (s *PostgresStore) ListArtists(ctx context.Context, filter ArtistFilter) ([]model.Artist, error) {
	query := `SELECT ` + artistColumns + ` FROM artists WHERE true`
	args := []any{}
	argIdx := 1

	if filter.QualificationStatus != "" {
		query += fmt.Sprintf(` AND qualification_status = $%d`, argIdx)
		args = append(args, string(filter.QualificationStatus))
		argIdx++
	}
	if filter.Contactable != nil {
		query += fmt.Sprintf(` AND is_contactable = $%d`, argIdx)
		args = append(args, *filter.Contactable)
		argIdx++
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list artists")
	}
	defer rows.Close()

	var artists []model.Artist
	for rows.Next() {
		a, err := scanArtist(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan artist")
		}
		artists = append(artists, *a)
	}
	return artists, eris.Wrap(rows.Err(), "postgres: list artists iterate")
}

// Batches

func (s *PostgresStore) CreateBatch(ctx context.Context, name, createdBy string, artistIDs []string, priority int) (*model.Batch, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: begin create batch")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	b := &model.Batch{
		ID:           uuid.New().String(),
		Name:         name,
		TotalArtists: len(artistIDs),
		Status:       model.BatchStatusQueued,
		CreatedBy:    createdBy,
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO batches (`+batchColumns+`)
		 VALUES ($1, $2, $3, $4, 0, 0, 0, 0, $5, $6, $7)`,
		b.ID, b.Name, b.TotalArtists, string(b.Status), b.CreatedBy, b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert batch")
	}

	for _, artistID := range artistIDs {
		_, err := tx.Exec(ctx,
			`INSERT INTO queue_jobs (id, batch_id, artist_id, status, attempts, max_attempts, priority, created_at)
			 VALUES ($1, $2, $3, 'pending', 0, $4, $5, now())`,
			uuid.New().String(), b.ID, artistID, model.DefaultMaxAttempts, priority,
		)
		if err != nil {
			return nil, eris.Wrapf(err, "postgres: enqueue job for artist %s", artistID)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, eris.Wrap(err, "postgres: commit create batch")
	}
	return b, nil
}

func (s *PostgresStore) GetBatch(ctx context.Context, id string) (*model.Batch, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+batchColumns+` FROM batches WHERE id = $1`, id)
	b, err := scanBatch(row)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get batch %s", id)
	}
	return b, nil
}

func (s *PostgresStore) ListBatches(ctx context.Context, filter BatchFilter) ([]model.Batch, error) {
	query := `SELECT ` + batchColumns + ` FROM batches WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, argIdx)
		args = append(args, string(filter.Status))
		argIdx++
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list batches")
	}
	defer rows.Close()

	var batches []model.Batch
	for rows.Next() {
		b, err := scanBatch(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan batch")
		}
		batches = append(batches, *b)
	}
	return batches, eris.Wrap(rows.Err(), "postgres: list batches iterate")
}

func (s *PostgresStore) FindOrPromoteBatch(ctx context.Context) (*model.Batch, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+batchColumns+` FROM batches WHERE status = 'processing' ORDER BY created_at ASC LIMIT 1`)
	b, err := scanBatch(row)
	if err == nil {
		return b, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrap(err, "postgres: find processing batch")
	}

	// Promote the oldest queued batch. SKIP LOCKED keeps two overlapping
	// invocations from both promoting.
	row = s.pool.QueryRow(ctx,
		`UPDATE batches SET status = 'processing', updated_at = now()
		 WHERE id = (
			SELECT id FROM batches WHERE status = 'queued'
			ORDER BY created_at ASC LIMIT 1
			FOR UPDATE SKIP LOCKED
		 )
		 RETURNING `+batchColumns)
	b, err = scanBatch(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: promote queued batch")
	}
	return b, nil
}

func (s *PostgresStore) TransitionBatch(ctx context.Context, id string, from []model.BatchStatus, to model.BatchStatus) (bool, error) {
	fromStrs := make([]string, len(from))
	for i, st := range from {
		fromStrs[i] = string(st)
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE batches SET status = $1, updated_at = now() WHERE id = $2 AND status = ANY($3)`,
		string(to), id, fromStrs,
	)
	if err != nil {
		return false, eris.Wrapf(err, "postgres: transition batch %s to %s", id, to)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PostgresStore) IncrementBatchCounters(ctx context.Context, id string, delta BatchDelta) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE batches SET
			completed = completed + $1,
			failed = failed + $2,
			skipped = skipped + $3,
			email_found_count = email_found_count + $4,
			updated_at = now()
		 WHERE id = $5`,
		delta.Completed, delta.Failed, delta.Skipped, delta.EmailFound, id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: increment counters %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("batch not found: %s", id)
	}
	return nil
}

func (s *PostgresStore) CompleteBatchIfDone(ctx context.Context, id string) (bool, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE batches SET status = 'completed', updated_at = now()
		 WHERE id = $1 AND status = 'processing'
		   AND NOT EXISTS (
			SELECT 1 FROM queue_jobs
			WHERE batch_id = $1 AND status IN ('pending', 'processing')
		 )`,
		id,
	)
	if err != nil {
		return false, eris.Wrapf(err, "postgres: complete batch %s", id)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PostgresStore) JobStats(ctx context.Context, batchID string) (model.JobStats, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT status, count(*) FROM queue_jobs WHERE batch_id = $1 GROUP BY status`,
		batchID,
	)
	if err != nil {
		return model.JobStats{}, eris.Wrapf(err, "postgres: job stats %s", batchID)
	}
	defer rows.Close()

	var stats model.JobStats
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return model.JobStats{}, eris.Wrap(err, "postgres: scan job stats")
		}
		applyStat(&stats, status, count)
	}
	return stats, eris.Wrap(rows.Err(), "postgres: job stats iterate")
}

// Queue jobs

func (s *PostgresStore) ClaimJobs(ctx context.Context, batchID string, limit int) ([]model.QueueJob, error) {
	if limit <= 0 {
		return nil, nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: begin claim")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// The lock and the flip to processing commit together, so overlapping
	// invocations can never both own a job.
	rows, err := tx.Query(ctx,
		`UPDATE queue_jobs SET status = 'processing', started_at = now()
		 WHERE id IN (
			SELECT id FROM queue_jobs
			WHERE batch_id = $1 AND status = 'pending'
			ORDER BY priority DESC, created_at ASC
			LIMIT $2
			FOR UPDATE SKIP LOCKED
		 )
		 RETURNING `+jobColumns,
		batchID, limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: claim jobs")
	}

	var jobs []model.QueueJob
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			rows.Close()
			return nil, eris.Wrap(err, "postgres: scan claimed job")
		}
		jobs = append(jobs, *j)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: claim iterate")
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, eris.Wrap(err, "postgres: commit claim")
	}
	return jobs, nil
}

func (s *PostgresStore) ReleaseJob(ctx context.Context, jobID string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE queue_jobs SET status = 'pending', started_at = NULL WHERE id = $1 AND status = 'processing'`,
		jobID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: release job %s", jobID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("job not processing: %s", jobID)
	}
	return nil
}

func (s *PostgresStore) CompleteJob(ctx context.Context, jobID string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE queue_jobs SET status = 'completed', completed_at = now() WHERE id = $1 AND status = 'processing'`,
		jobID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: complete job %s", jobID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("job not processing: %s", jobID)
	}
	return nil
}

func (s *PostgresStore) FailJob(ctx context.Context, jobID, errMsg string) (bool, error) {
	var status string
	err := s.pool.QueryRow(ctx,
		`UPDATE queue_jobs SET
			attempts = attempts + 1,
			status = CASE WHEN attempts + 1 >= max_attempts THEN 'failed' ELSE 'pending' END,
			error_message = $2,
			started_at = NULL,
			completed_at = CASE WHEN attempts + 1 >= max_attempts THEN now() ELSE NULL END
		 WHERE id = $1 AND status = 'processing'
		 RETURNING status`,
		jobID, errMsg,
	).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, eris.Errorf("job not processing: %s", jobID)
		}
		return false, eris.Wrapf(err, "postgres: fail job %s", jobID)
	}
	return status == string(model.JobStatusFailed), nil
}

func (s *PostgresStore) SkipJob(ctx context.Context, jobID, reason string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE queue_jobs SET status = 'skipped', error_message = $2, completed_at = now()
		 WHERE id = $1 AND status IN ('pending', 'processing')`,
		jobID, reason,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: skip job %s", jobID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("job not skippable: %s", jobID)
	}
	return nil
}

func (s *PostgresStore) SkipNonTerminalJobs(ctx context.Context, batchID, reason string) (int, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE queue_jobs SET status = 'skipped', error_message = $2, completed_at = now()
		 WHERE batch_id = $1 AND status IN ('pending', 'processing')`,
		batchID, reason,
	)
	if err != nil {
		return 0, eris.Wrapf(err, "postgres: skip jobs for batch %s", batchID)
	}
	return int(tag.RowsAffected()), nil
}

func (s *PostgresStore) RequeueFailedJobs(ctx context.Context, batchID string) (int, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE queue_jobs SET status = 'pending', attempts = 0, error_message = '',
			started_at = NULL, completed_at = NULL
		 WHERE batch_id = $1 AND status = 'failed'`,
		batchID,
	)
	if err != nil {
		return 0, eris.Wrapf(err, "postgres: requeue failed jobs %s", batchID)
	}
	return int(tag.RowsAffected()), nil
}

// Enrichment log

func (s *PostgresStore) InsertEnrichmentLog(ctx context.Context, artistID, batchID string, res *model.EnrichmentResult) error {
	resJSON, err := json.Marshal(res)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal enrichment result")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO enrichment_logs (id, artist_id, batch_id, result, created_at) VALUES ($1, $2, $3, $4, $5)`,
		uuid.New().String(), artistID, batchID, resJSON, time.Now().UTC(),
	)
	return eris.Wrapf(err, "postgres: insert enrichment log for %s", artistID)
}

// helpers

type scannable interface {
	Scan(dest ...any) error
}

func scanArtist(row scannable) (*model.Artist, error) {
	var a model.Artist
	var emailsJSON []byte

	err := row.Scan(
		&a.ID, &a.Name, &a.SpotifyID, &a.YouTubeHandle, &a.InstagramHandle, &a.WebsiteURL,
		&a.LinktreeURL, &a.FacebookURL, &a.BioText, &a.MonthlyListeners, &a.RecentStreams,
		&a.TrackCount, &a.Email, &a.EmailConfidence, &a.EmailSource, &emailsJSON,
		&a.IsContactable, &a.EnrichedAt, &a.EstimatedOfferUSD, &a.OfferLowUSD, &a.OfferHighUSD,
		&a.QualificationStatus, &a.QualificationReason, &a.QualificationManualOverride,
		&a.QualifiedAt, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(emailsJSON) > 0 {
		if err := json.Unmarshal(emailsJSON, &a.AllEmailsFound); err != nil {
			return nil, eris.Wrap(err, "unmarshal all_emails_found")
		}
	}
	return &a, nil
}

func scanBatch(row scannable) (*model.Batch, error) {
	var b model.Batch
	err := row.Scan(
		&b.ID, &b.Name, &b.TotalArtists, &b.Status, &b.Completed, &b.Failed, &b.Skipped,
		&b.EmailFoundCount, &b.CreatedBy, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func scanJob(row scannable) (*model.QueueJob, error) {
	var j model.QueueJob
	err := row.Scan(
		&j.ID, &j.BatchID, &j.ArtistID, &j.Status, &j.Attempts, &j.MaxAttempts, &j.Priority,
		&j.ErrorMessage, &j.StartedAt, &j.CompletedAt, &j.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &j, nil
}

func applyStat(stats *model.JobStats, status string, count int) {
	switch model.JobStatus(status) {
	case model.JobStatusPending:
		stats.Pending = count
	case model.JobStatusProcessing:
		stats.Processing = count
	case model.JobStatusCompleted:
		stats.Completed = count
	case model.JobStatusFailed:
		stats.Failed = count
	case model.JobStatusSkipped:
		stats.Skipped = count
	}
}
