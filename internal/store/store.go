// Package store persists artists, batches, queue jobs, and enrichment logs.
// Postgres is the production backend; SQLite serves local runs and tests.
package store

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/xpanddigital/cratehq-enrich/internal/model"
)

// Pool is the subset of pgxpool.Pool the Postgres store uses. pgxmock
// implements it for tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// ArtistFilter specifies criteria for listing artists.
type ArtistFilter struct {
	QualificationStatus model.QualificationStatus `json:"qualification_status,omitempty"`
	Contactable         *bool                     `json:"contactable,omitempty"`
	Limit               int                       `json:"limit,omitempty"`
	Offset              int                       `json:"offset,omitempty"`
}

// BatchFilter specifies criteria for listing batches.
type BatchFilter struct {
	Status model.BatchStatus `json:"status,omitempty"`
	Limit  int               `json:"limit,omitempty"`
	Offset int               `json:"offset,omitempty"`
}

// BatchDelta is an atomic counter update for a batch. Counters are only
// ever incremented in place; read-modify-write would lose updates under
// overlapping worker invocations.
type BatchDelta struct {
	Completed  int
	Failed     int
	Skipped    int
	EmailFound int
}

// Store is the persistence interface for the qualification and discovery
// engine.
type Store interface {
	// Artists
	CreateArtist(ctx context.Context, a *model.Artist) error
	GetArtist(ctx context.Context, id string) (*model.Artist, error)
	UpdateArtist(ctx context.Context, a *model.Artist) error
	ListArtists(ctx context.Context, filter ArtistFilter) ([]model.Artist, error)

	// Batches
	CreateBatch(ctx context.Context, name, createdBy string, artistIDs []string, priority int) (*model.Batch, error)
	GetBatch(ctx context.Context, id string) (*model.Batch, error)
	ListBatches(ctx context.Context, filter BatchFilter) ([]model.Batch, error)
	// FindOrPromoteBatch returns the processing batch, else promotes the
	// oldest queued batch to processing. Nil when no work exists.
	FindOrPromoteBatch(ctx context.Context) (*model.Batch, error)
	// TransitionBatch moves a batch from any of the given states to the
	// target state, reporting whether the transition happened.
	TransitionBatch(ctx context.Context, id string, from []model.BatchStatus, to model.BatchStatus) (bool, error)
	IncrementBatchCounters(ctx context.Context, id string, delta BatchDelta) error
	// CompleteBatchIfDone marks a processing batch completed when no
	// pending or processing jobs remain.
	CompleteBatchIfDone(ctx context.Context, id string) (bool, error)
	JobStats(ctx context.Context, batchID string) (model.JobStats, error)

	// Queue jobs
	// ClaimJobs atomically flips up to limit pending jobs to processing,
	// ordered by priority desc then creation time asc. The claim is
	// exclusive: overlapping invocations never receive the same job.
	ClaimJobs(ctx context.Context, batchID string, limit int) ([]model.QueueJob, error)
	// ReleaseJob returns a processing job to pending without counting an
	// attempt, for wall-clock safety releases.
	ReleaseJob(ctx context.Context, jobID string) error
	CompleteJob(ctx context.Context, jobID string) error
	// FailJob increments attempts and either returns the job to pending or,
	// when attempts reach max_attempts, marks it failed. Reports whether
	// the job went terminal.
	FailJob(ctx context.Context, jobID, errMsg string) (terminal bool, err error)
	SkipJob(ctx context.Context, jobID, reason string) error
	// SkipNonTerminalJobs skips every pending/processing job in a batch,
	// for cancellation.
	SkipNonTerminalJobs(ctx context.Context, batchID, reason string) (int, error)
	// RequeueFailedJobs resets failed jobs to pending with attempts zero.
	RequeueFailedJobs(ctx context.Context, batchID string) (int, error)

	// Enrichment log
	InsertEnrichmentLog(ctx context.Context, artistID, batchID string, res *model.EnrichmentResult) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
