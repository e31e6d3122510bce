package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/xpanddigital/cratehq-enrich/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite. SQLite has a single
// writer, so the claim path relies on transaction serialization rather than
// row locks.
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
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS artists (
	id                            TEXT PRIMARY KEY,
	name                          TEXT NOT NULL,
	spotify_id                    TEXT NOT NULL DEFAULT '',
	youtube_handle                TEXT NOT NULL DEFAULT '',
	instagram_handle              TEXT NOT NULL DEFAULT '',
	website_url                   TEXT NOT NULL DEFAULT '',
	linktree_url                  TEXT NOT NULL DEFAULT '',
	facebook_url                  TEXT NOT NULL DEFAULT '',
	bio_text                      TEXT NOT NULL DEFAULT '',
	monthly_listeners             INTEGER NOT NULL DEFAULT 0,
	recent_streams                INTEGER NOT NULL DEFAULT 0,
	track_count                   INTEGER NOT NULL DEFAULT 0,
	email                         TEXT NOT NULL DEFAULT '',
	email_confidence              REAL NOT NULL DEFAULT 0,
	email_source                  TEXT NOT NULL DEFAULT '',
	all_emails_found              TEXT,
	is_contactable                INTEGER NOT NULL DEFAULT 0,
	enriched_at                   DATETIME,
	estimated_offer_usd           REAL NOT NULL DEFAULT 0,
	offer_low_usd                 REAL NOT NULL DEFAULT 0,
	offer_high_usd                REAL NOT NULL DEFAULT 0,
	qualification_status          TEXT NOT NULL DEFAULT 'pending',
	qualification_reason          TEXT NOT NULL DEFAULT '',
	qualification_manual_override INTEGER NOT NULL DEFAULT 0,
	qualified_at                  DATETIME,
	created_at                    DATETIME NOT NULL,
	updated_at                    DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS batches (
	id                TEXT PRIMARY KEY,
	name              TEXT NOT NULL,
	total_artists     INTEGER NOT NULL DEFAULT 0,
	status            TEXT NOT NULL DEFAULT 'queued',
	completed         INTEGER NOT NULL DEFAULT 0,
	failed            INTEGER NOT NULL DEFAULT 0,
	skipped           INTEGER NOT NULL DEFAULT 0,
	email_found_count INTEGER NOT NULL DEFAULT 0,
	created_by        TEXT NOT NULL DEFAULT '',
	created_at        DATETIME NOT NULL,
	updated_at        DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS queue_jobs (
	id            TEXT PRIMARY KEY,
	batch_id      TEXT NOT NULL REFERENCES batches(id),
	artist_id     TEXT NOT NULL REFERENCES artists(id),
	status        TEXT NOT NULL DEFAULT 'pending',
	attempts      INTEGER NOT NULL DEFAULT 0,
	max_attempts  INTEGER NOT NULL DEFAULT 3,
	priority      INTEGER NOT NULL DEFAULT 0,
	error_message TEXT NOT NULL DEFAULT '',
	started_at    DATETIME,
	completed_at  DATETIME,
	created_at    DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS enrichment_logs (
	id         TEXT PRIMARY KEY,
	artist_id  TEXT NOT NULL REFERENCES artists(id),
	batch_id   TEXT NOT NULL DEFAULT '',
	result     TEXT NOT NULL,
	created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_artists_qualification ON artists(qualification_status);
CREATE INDEX IF NOT EXISTS idx_batches_status ON batches(status);
CREATE INDEX IF NOT EXISTS idx_queue_jobs_batch_status ON queue_jobs(batch_id, status);
CREATE INDEX IF NOT EXISTS idx_enrichment_logs_artist ON enrichment_logs(artist_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.db.PingContext(ctx), "sqlite: ping")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Artists

func (s *SQLiteStore) CreateArtist(ctx context.Context, a *model.Artist) error {
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
		return eris.Wrap(err, "sqlite: marshal emails")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO artists (`+artistColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Name, a.SpotifyID, a.YouTubeHandle, a.InstagramHandle, a.WebsiteURL,
		a.LinktreeURL, a.FacebookURL, a.BioText, a.MonthlyListeners, a.RecentStreams,
		a.TrackCount, a.Email, a.EmailConfidence, a.EmailSource, string(emailsJSON),
		a.IsContactable, a.EnrichedAt, a.EstimatedOfferUSD, a.OfferLowUSD, a.OfferHighUSD,
		string(a.QualificationStatus), a.QualificationReason, a.QualificationManualOverride,
		a.QualifiedAt, a.CreatedAt, a.UpdatedAt,
	)
	return eris.Wrapf(err, "sqlite: insert artist %s", a.ID)
}

func (s *SQLiteStore) GetArtist(ctx context.Context, id string) (*model.Artist, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+artistColumns+` FROM artists WHERE id = ?`, id)
	a, err := scanArtist(row)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get artist %s", id)
	}
	return a, nil
}

func (s *SQLiteStore) UpdateArtist(ctx context.Context, a *model.Artist) error {
	emailsJSON, err := json.Marshal(a.AllEmailsFound)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal emails")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE artists SET
			name = ?, spotify_id = ?, youtube_handle = ?, instagram_handle = ?,
			website_url = ?, linktree_url = ?, facebook_url = ?, bio_text = ?,
			monthly_listeners = ?, recent_streams = ?, track_count = ?,
			email = ?, email_confidence = ?, email_source = ?, all_emails_found = ?,
			is_contactable = ?, enriched_at = ?, estimated_offer_usd = ?,
			offer_low_usd = ?, offer_high_usd = ?, qualification_status = ?,
			qualification_reason = ?, qualification_manual_override = ?,
			qualified_at = ?, updated_at = ?
		 WHERE id = ?`,
		a.Name, a.SpotifyID, a.YouTubeHandle, a.InstagramHandle, a.WebsiteURL,
		a.LinktreeURL, a.FacebookURL, a.BioText, a.MonthlyListeners, a.RecentStreams,
		a.TrackCount, a.Email, a.EmailConfidence, a.EmailSource, string(emailsJSON),
		a.IsContactable, a.EnrichedAt, a.EstimatedOfferUSD, a.OfferLowUSD, a.OfferHighUSD,
		string(a.QualificationStatus), a.QualificationReason, a.QualificationManualOverride,
		a.QualifiedAt, time.Now().UTC(), a.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update artist %s", a.ID)
	}
	return checkRowsAffected(res, "artist", a.ID)
}

func (s *SQLiteStore) ListArtists(ctx context.Context, filter ArtistFilter) ([]model.Artist, error) {
	query := `SELECT ` + artistColumns + ` FROM artists WHERE 1=1`
	args := []any{}

	if filter.QualificationStatus != "" {
		query += ` AND qualification_status = ?`
		args = append(args, string(filter.QualificationStatus))
	}
	if filter.Contactable != nil {
		query += ` AND is_contactable = ?`
		args = append(args, *filter.Contactable)
	}
	query += ` ORDER BY created_at DESC LIMIT ?`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list artists")
	}
	defer rows.Close()

	var artists []model.Artist
	for rows.Next() {
		a, err := scanArtist(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan artist")
		}
		artists = append(artists, *a)
	}
	return artists, eris.Wrap(rows.Err(), "sqlite: list artists iterate")
}

// Batches

func (s *SQLiteStore) CreateBatch(ctx context.Context, name, createdBy string, artistIDs []string, priority int) (*model.Batch, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: begin create batch")
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	b := &model.Batch{
		ID:           uuid.New().String(),
		Name:         name,
		TotalArtists: len(artistIDs),
		Status:       model.BatchStatusQueued,
		CreatedBy:    createdBy,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO batches (`+batchColumns+`)
		 VALUES (?, ?, ?, ?, 0, 0, 0, 0, ?, ?, ?)`,
		b.ID, b.Name, b.TotalArtists, string(b.Status), b.CreatedBy, b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert batch")
	}

	for _, artistID := range artistIDs {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO queue_jobs (id, batch_id, artist_id, status, attempts, max_attempts, priority, created_at)
			 VALUES (?, ?, ?, 'pending', 0, ?, ?, ?)`,
			uuid.New().String(), b.ID, artistID, model.DefaultMaxAttempts, priority, time.Now().UTC(),
		)
		if err != nil {
			return nil, eris.Wrapf(err, "sqlite: enqueue job for artist %s", artistID)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, eris.Wrap(err, "sqlite: commit create batch")
	}
	return b, nil
}

func (s *SQLiteStore) GetBatch(ctx context.Context, id string) (*model.Batch, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+batchColumns+` FROM batches WHERE id = ?`, id)
	b, err := scanBatch(row)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get batch %s", id)
	}
	return b, nil
}

func (s *SQLiteStore) ListBatches(ctx context.Context, filter BatchFilter) ([]model.Batch, error) {
	query := `SELECT ` + batchColumns + ` FROM batches WHERE 1=1`
	args := []any{}

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY created_at DESC LIMIT ?`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list batches")
	}
	defer rows.Close()

	var batches []model.Batch
	for rows.Next() {
		b, err := scanBatch(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan batch")
		}
		batches = append(batches, *b)
	}
	return batches, eris.Wrap(rows.Err(), "sqlite: list batches iterate")
}

func (s *SQLiteStore) FindOrPromoteBatch(ctx context.Context) (*model.Batch, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: begin promote")
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx,
		`SELECT `+batchColumns+` FROM batches WHERE status = 'processing' ORDER BY created_at ASC LIMIT 1`)
	b, err := scanBatch(row)
	if err == nil {
		return b, eris.Wrap(tx.Commit(), "sqlite: commit promote")
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrap(err, "sqlite: find processing batch")
	}

	row = tx.QueryRowContext(ctx,
		`SELECT `+batchColumns+` FROM batches WHERE status = 'queued' ORDER BY created_at ASC LIMIT 1`)
	b, err = scanBatch(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrap(tx.Commit(), "sqlite: commit promote")
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: find queued batch")
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE batches SET status = 'processing', updated_at = ? WHERE id = ?`,
		time.Now().UTC(), b.ID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: promote batch %s", b.ID)
	}
	b.Status = model.BatchStatusProcessing

	if err := tx.Commit(); err != nil {
		return nil, eris.Wrap(err, "sqlite: commit promote")
	}
	return b, nil
}

func (s *SQLiteStore) TransitionBatch(ctx context.Context, id string, from []model.BatchStatus, to model.BatchStatus) (bool, error) {
	placeholders := ""
	args := []any{string(to), time.Now().UTC(), id}
	for i, st := range from {
		if i > 0 {
			placeholders += ", "
		}
		placeholders += "?"
		args = append(args, string(st))
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE batches SET status = ?, updated_at = ? WHERE id = ? AND status IN (`+placeholders+`)`,
		args...,
	)
	if err != nil {
		return false, eris.Wrapf(err, "sqlite: transition batch %s to %s", id, to)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, eris.Wrap(err, "sqlite: rows affected")
	}
	return n > 0, nil
}

func (s *SQLiteStore) IncrementBatchCounters(ctx context.Context, id string, delta BatchDelta) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE batches SET
			completed = completed + ?,
			failed = failed + ?,
			skipped = skipped + ?,
			email_found_count = email_found_count + ?,
			updated_at = ?
		 WHERE id = ?`,
		delta.Completed, delta.Failed, delta.Skipped, delta.EmailFound, time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: increment counters %s", id)
	}
	return checkRowsAffected(res, "batch", id)
}

func (s *SQLiteStore) CompleteBatchIfDone(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE batches SET status = 'completed', updated_at = ?
		 WHERE id = ? AND status = 'processing'
		   AND NOT EXISTS (
			SELECT 1 FROM queue_jobs
			WHERE batch_id = ? AND status IN ('pending', 'processing')
		 )`,
		time.Now().UTC(), id, id,
	)
	if err != nil {
		return false, eris.Wrapf(err, "sqlite: complete batch %s", id)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, eris.Wrap(err, "sqlite: rows affected")
	}
	return n > 0, nil
}

func (s *SQLiteStore) JobStats(ctx context.Context, batchID string) (model.JobStats, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT status, count(*) FROM queue_jobs WHERE batch_id = ? GROUP BY status`,
		batchID,
	)
	if err != nil {
		return model.JobStats{}, eris.Wrapf(err, "sqlite: job stats %s", batchID)
	}
	defer rows.Close()

	var stats model.JobStats
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return model.JobStats{}, eris.Wrap(err, "sqlite: scan job stats")
		}
		applyStat(&stats, status, count)
	}
	return stats, eris.Wrap(rows.Err(), "sqlite: job stats iterate")
}

// Queue jobs

func (s *SQLiteStore) ClaimJobs(ctx context.Context, batchID string, limit int) ([]model.QueueJob, error) {
	if limit <= 0 {
		return nil, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: begin claim")
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx,
		`SELECT `+jobColumns+` FROM queue_jobs
		 WHERE batch_id = ? AND status = 'pending'
		 ORDER BY priority DESC, created_at ASC
		 LIMIT ?`,
		batchID, limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: select claimable jobs")
	}

	var jobs []model.QueueJob
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			rows.Close()
			return nil, eris.Wrap(err, "sqlite: scan claimable job")
		}
		jobs = append(jobs, *j)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: claim iterate")
	}

	now := time.Now().UTC()
	for i := range jobs {
		_, err := tx.ExecContext(ctx,
			`UPDATE queue_jobs SET status = 'processing', started_at = ? WHERE id = ?`,
			now, jobs[i].ID,
		)
		if err != nil {
			return nil, eris.Wrapf(err, "sqlite: claim job %s", jobs[i].ID)
		}
		jobs[i].Status = model.JobStatusProcessing
		jobs[i].StartedAt = &now
	}

	if err := tx.Commit(); err != nil {
		return nil, eris.Wrap(err, "sqlite: commit claim")
	}
	return jobs, nil
}

func (s *SQLiteStore) ReleaseJob(ctx context.Context, jobID string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE queue_jobs SET status = 'pending', started_at = NULL WHERE id = ? AND status = 'processing'`,
		jobID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: release job %s", jobID)
	}
	return checkRowsAffected(res, "processing job", jobID)
}

func (s *SQLiteStore) CompleteJob(ctx context.Context, jobID string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE queue_jobs SET status = 'completed', completed_at = ? WHERE id = ? AND status = 'processing'`,
		time.Now().UTC(), jobID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: complete job %s", jobID)
	}
	return checkRowsAffected(res, "processing job", jobID)
}

func (s *SQLiteStore) FailJob(ctx context.Context, jobID, errMsg string) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, eris.Wrap(err, "sqlite: begin fail job")
	}
	defer tx.Rollback()

	var attempts, maxAttempts int
	err = tx.QueryRowContext(ctx,
		`SELECT attempts, max_attempts FROM queue_jobs WHERE id = ? AND status = 'processing'`,
		jobID,
	).Scan(&attempts, &maxAttempts)
	if errors.Is(err, sql.ErrNoRows) {
		return false, eris.Errorf("job not processing: %s", jobID)
	}
	if err != nil {
		return false, eris.Wrapf(err, "sqlite: read job %s", jobID)
	}

	attempts++
	terminal := attempts >= maxAttempts
	status := model.JobStatusPending
	var completedAt *time.Time
	if terminal {
		status = model.JobStatusFailed
		now := time.Now().UTC()
		completedAt = &now
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE queue_jobs SET attempts = ?, status = ?, error_message = ?, started_at = NULL, completed_at = ?
		 WHERE id = ?`,
		attempts, string(status), errMsg, completedAt, jobID,
	)
	if err != nil {
		return false, eris.Wrapf(err, "sqlite: fail job %s", jobID)
	}

	if err := tx.Commit(); err != nil {
		return false, eris.Wrap(err, "sqlite: commit fail job")
	}
	return terminal, nil
}

func (s *SQLiteStore) SkipJob(ctx context.Context, jobID, reason string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE queue_jobs SET status = 'skipped', error_message = ?, completed_at = ?
		 WHERE id = ? AND status IN ('pending', 'processing')`,
		reason, time.Now().UTC(), jobID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: skip job %s", jobID)
	}
	return checkRowsAffected(res, "skippable job", jobID)
}

func (s *SQLiteStore) SkipNonTerminalJobs(ctx context.Context, batchID, reason string) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE queue_jobs SET status = 'skipped', error_message = ?, completed_at = ?
		 WHERE batch_id = ? AND status IN ('pending', 'processing')`,
		reason, time.Now().UTC(), batchID,
	)
	if err != nil {
		return 0, eris.Wrapf(err, "sqlite: skip jobs for batch %s", batchID)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: rows affected")
	}
	return int(n), nil
}

func (s *SQLiteStore) RequeueFailedJobs(ctx context.Context, batchID string) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE queue_jobs SET status = 'pending', attempts = 0, error_message = '',
			started_at = NULL, completed_at = NULL
		 WHERE batch_id = ? AND status = 'failed'`,
		batchID,
	)
	if err != nil {
		return 0, eris.Wrapf(err, "sqlite: requeue failed jobs %s", batchID)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: rows affected")
	}
	return int(n), nil
}

// Enrichment log

func (s *SQLiteStore) InsertEnrichmentLog(ctx context.Context, artistID, batchID string, res *model.EnrichmentResult) error {
	resJSON, err := json.Marshal(res)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal enrichment result")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO enrichment_logs (id, artist_id, batch_id, result, created_at) VALUES (?, ?, ?, ?, ?)`,
		uuid.New().String(), artistID, batchID, string(resJSON), time.Now().UTC(),
	)
	return eris.Wrapf(err, "sqlite: insert enrichment log for %s", artistID)
}

func checkRowsAffected(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.New(fmt.Sprintf("%s not found: %s", kind, id))
	}
	return nil
}
