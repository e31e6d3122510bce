package store

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xpanddigital/cratehq-enrich/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	return NewPostgresWithPool(mock), mock
}

func batchRow(id string, status model.BatchStatus) *pgxmock.Rows {
	now := time.Now().UTC()
	return pgxmock.NewRows([]string{
		"id", "name", "total_artists", "status", "completed", "failed", "skipped",
		"email_found_count", "created_by", "created_at", "updated_at",
	}).AddRow(id, "august drop", 10, string(status), 0, 0, 0, 0, "ops", now, now)
}

func TestPostgres_GetArtist_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT .+ FROM artists WHERE id = \$1`).
		WithArgs("nonexistent").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetArtist(context.Background(), "nonexistent")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "get artist")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_FindOrPromoteBatch_ReturnsProcessing(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`FROM batches WHERE status = 'processing'`).
		WillReturnRows(batchRow("ba-1", model.BatchStatusProcessing))

	b, err := s.FindOrPromoteBatch(context.Background())
	require.NoError(t, err)
	require.NotNil(t, b)
	assert.Equal(t, "ba-1", b.ID)
	assert.Equal(t, model.BatchStatusProcessing, b.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_FindOrPromoteBatch_PromotesQueued(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`FROM batches WHERE status = 'processing'`).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectQuery(`UPDATE batches SET status = 'processing'`).
		WillReturnRows(batchRow("ba-2", model.BatchStatusProcessing))

	b, err := s.FindOrPromoteBatch(context.Background())
	require.NoError(t, err)
	require.NotNil(t, b)
	assert.Equal(t, "ba-2", b.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_FindOrPromoteBatch_NoWork(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`FROM batches WHERE status = 'processing'`).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectQuery(`UPDATE batches SET status = 'processing'`).
		WillReturnError(pgx.ErrNoRows)

	b, err := s.FindOrPromoteBatch(context.Background())
	require.NoError(t, err)
	assert.Nil(t, b)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_TransitionBatch(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE batches SET status = \$1`).
		WithArgs("paused", "ba-1", []string{"processing", "queued"}).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	ok, err := s.TransitionBatch(context.Background(), "ba-1",
		[]model.BatchStatus{model.BatchStatusProcessing, model.BatchStatusQueued},
		model.BatchStatusPaused)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_TransitionBatch_WrongState(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE batches SET status = \$1`).
		WithArgs("processing", "ba-1", []string{"paused"}).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	ok, err := s.TransitionBatch(context.Background(), "ba-1",
		[]model.BatchStatus{model.BatchStatusPaused}, model.BatchStatusProcessing)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_IncrementBatchCounters(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`completed = completed \+ \$1`).
		WithArgs(1, 0, 0, 1, "ba-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := s.IncrementBatchCounters(context.Background(), "ba-1", BatchDelta{Completed: 1, EmailFound: 1})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_CompleteBatchIfDone(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE batches SET status = 'completed'`).
		WithArgs("ba-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	done, err := s.CompleteBatchIfDone(context.Background(), "ba-1")
	require.NoError(t, err)
	assert.True(t, done)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_CompleteBatchIfDone_JobsRemain(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE batches SET status = 'completed'`).
		WithArgs("ba-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	done, err := s.CompleteBatchIfDone(context.Background(), "ba-1")
	require.NoError(t, err)
	assert.False(t, done)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_ClaimJobs(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	now := time.Now().UTC()
	rows := pgxmock.NewRows([]string{
		"id", "batch_id", "artist_id", "status", "attempts", "max_attempts", "priority",
		"error_message", "started_at", "completed_at", "created_at",
	}).
		AddRow("jb-1", "ba-1", "ar-1", "processing", 0, 3, 5, "", &now, nil, now).
		AddRow("jb-2", "ba-1", "ar-2", "processing", 0, 3, 0, "", &now, nil, now)

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE SKIP LOCKED`).
		WithArgs("ba-1", 2).
		WillReturnRows(rows)
	mock.ExpectCommit()

	jobs, err := s.ClaimJobs(context.Background(), "ba-1", 2)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, model.JobStatusProcessing, jobs[0].Status)
	assert.Equal(t, "ar-1", jobs[0].ArtistID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_ClaimJobs_ZeroLimit(t *testing.T) {
	s, _ := newMockPostgresStore(t)

	jobs, err := s.ClaimJobs(context.Background(), "ba-1", 0)
	require.NoError(t, err)
	assert.Nil(t, jobs)
}

func TestPostgres_FailJob_ReturnsToPending(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`attempts = attempts \+ 1`).
		WithArgs("jb-1", "fetch timed out").
		WillReturnRows(pgxmock.NewRows([]string{"status"}).AddRow("pending"))

	terminal, err := s.FailJob(context.Background(), "jb-1", "fetch timed out")
	require.NoError(t, err)
	assert.False(t, terminal)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_FailJob_Terminal(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`attempts = attempts \+ 1`).
		WithArgs("jb-1", "actor run ended FAILED").
		WillReturnRows(pgxmock.NewRows([]string{"status"}).AddRow("failed"))

	terminal, err := s.FailJob(context.Background(), "jb-1", "actor run ended FAILED")
	require.NoError(t, err)
	assert.True(t, terminal)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_FailJob_NotProcessing(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`attempts = attempts \+ 1`).
		WithArgs("jb-1", "boom").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.FailJob(context.Background(), "jb-1", "boom")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not processing")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_ReleaseJob_NotProcessing(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`SET status = 'pending', started_at = NULL`).
		WithArgs("jb-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := s.ReleaseJob(context.Background(), "jb-1")
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_JobStats(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT status, count\(\*\) FROM queue_jobs`).
		WithArgs("ba-1").
		WillReturnRows(pgxmock.NewRows([]string{"status", "count"}).
			AddRow("pending", 3).
			AddRow("completed", 5).
			AddRow("failed", 1))

	stats, err := s.JobStats(context.Background(), "ba-1")
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Pending)
	assert.Equal(t, 5, stats.Completed)
	assert.Equal(t, 1, stats.Failed)
	assert.True(t, stats.Remaining())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_CreateBatch(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO batches`).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`INSERT INTO queue_jobs`).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`INSERT INTO queue_jobs`).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	b, err := s.CreateBatch(context.Background(), "august drop", "ops", []string{"ar-1", "ar-2"}, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, b.TotalArtists)
	assert.Equal(t, model.BatchStatusQueued, b.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}
