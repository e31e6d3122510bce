package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xpanddigital/cratehq-enrich/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func seedArtists(t *testing.T, st *SQLiteStore, n int) []string {
	t.Helper()
	ctx := context.Background()
	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		a := &model.Artist{Name: "artist", YouTubeHandle: "@artist"}
		require.NoError(t, st.CreateArtist(ctx, a))
		ids = append(ids, a.ID)
	}
	return ids
}

func TestSQLite_ArtistRoundTrip(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	a := &model.Artist{
		Name:             "Sarah Lane",
		SpotifyID:        "sp-123",
		YouTubeHandle:    "@sarahlane",
		MonthlyListeners: 42000,
		TrackCount:       18,
	}
	require.NoError(t, st.CreateArtist(ctx, a))
	require.NotEmpty(t, a.ID)

	got, err := st.GetArtist(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "Sarah Lane", got.Name)
	assert.Equal(t, int64(42000), got.MonthlyListeners)
	assert.Equal(t, model.QualificationPending, got.QualificationStatus)

	got.Email = "mgmt@sarahlane.com"
	got.EmailConfidence = 0.95
	got.IsContactable = true
	got.AllEmailsFound = []model.EmailCandidate{
		{Email: "mgmt@sarahlane.com", Source: "youtube_about", Confidence: 0.95},
	}
	require.NoError(t, st.UpdateArtist(ctx, got))

	again, err := st.GetArtist(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, again.IsContactable)
	require.Len(t, again.AllEmailsFound, 1)
	assert.Equal(t, "mgmt@sarahlane.com", again.AllEmailsFound[0].Email)
}

func TestSQLite_UpdateArtist_NotFound(t *testing.T) {
	st := newTestSQLiteStore(t)

	err := st.UpdateArtist(context.Background(), &model.Artist{ID: "nonexistent", Name: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestSQLite_ListArtists_Filter(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	qualified := &model.Artist{Name: "q", QualificationStatus: model.QualificationQualified}
	rejected := &model.Artist{Name: "r", QualificationStatus: model.QualificationNotQualified}
	require.NoError(t, st.CreateArtist(ctx, qualified))
	require.NoError(t, st.CreateArtist(ctx, rejected))

	got, err := st.ListArtists(ctx, ArtistFilter{QualificationStatus: model.QualificationQualified})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "q", got[0].Name)
}

func TestSQLite_BatchLifecycle(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	ids := seedArtists(t, st, 3)

	b, err := st.CreateBatch(ctx, "august drop", "ops", ids, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, b.TotalArtists)
	assert.Equal(t, model.BatchStatusQueued, b.Status)

	stats, err := st.JobStats(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Pending)

	// Promotion flips the oldest queued batch to processing.
	promoted, err := st.FindOrPromoteBatch(ctx)
	require.NoError(t, err)
	require.NotNil(t, promoted)
	assert.Equal(t, b.ID, promoted.ID)
	assert.Equal(t, model.BatchStatusProcessing, promoted.Status)

	// A second call finds the same batch rather than promoting another.
	again, err := st.FindOrPromoteBatch(ctx)
	require.NoError(t, err)
	require.NotNil(t, again)
	assert.Equal(t, b.ID, again.ID)
}

func TestSQLite_FindOrPromoteBatch_NoWork(t *testing.T) {
	st := newTestSQLiteStore(t)

	b, err := st.FindOrPromoteBatch(context.Background())
	require.NoError(t, err)
	assert.Nil(t, b)
}

func TestSQLite_ClaimJobs_ExclusiveAndOrdered(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	ids := seedArtists(t, st, 5)

	b, err := st.CreateBatch(ctx, "batch", "ops", ids, 0)
	require.NoError(t, err)

	first, err := st.ClaimJobs(ctx, b.ID, 3)
	require.NoError(t, err)
	require.Len(t, first, 3)
	for _, j := range first {
		assert.Equal(t, model.JobStatusProcessing, j.Status)
		require.NotNil(t, j.StartedAt)
	}

	// The remaining claim never overlaps the first.
	second, err := st.ClaimJobs(ctx, b.ID, 10)
	require.NoError(t, err)
	require.Len(t, second, 2)
	claimed := map[string]bool{}
	for _, j := range append(first, second...) {
		assert.False(t, claimed[j.ID])
		claimed[j.ID] = true
	}

	third, err := st.ClaimJobs(ctx, b.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, third)
}

func TestSQLite_ClaimJobs_PriorityOrder(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	low := seedArtists(t, st, 1)
	high := seedArtists(t, st, 1)
	_, err := st.CreateBatch(ctx, "low", "ops", low, 0)
	require.NoError(t, err)

	// Jobs in one batch: claim order is priority desc.
	b, err := st.CreateBatch(ctx, "mixed", "ops", append(low, high...), 0)
	require.NoError(t, err)
	_, err = st.db.ExecContext(ctx,
		`UPDATE queue_jobs SET priority = 9 WHERE batch_id = ? AND artist_id = ?`,
		b.ID, high[0])
	require.NoError(t, err)

	jobs, err := st.ClaimJobs(ctx, b.ID, 1)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, high[0], jobs[0].ArtistID)
}

func TestSQLite_FailJob_RetryThenTerminal(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	ids := seedArtists(t, st, 1)

	b, err := st.CreateBatch(ctx, "batch", "ops", ids, 0)
	require.NoError(t, err)

	// Attempts 1 and 2 return the job to pending.
	for attempt := 1; attempt < model.DefaultMaxAttempts; attempt++ {
		jobs, err := st.ClaimJobs(ctx, b.ID, 1)
		require.NoError(t, err)
		require.Len(t, jobs, 1)

		terminal, err := st.FailJob(ctx, jobs[0].ID, "fetch timed out")
		require.NoError(t, err)
		assert.False(t, terminal, "attempt %d", attempt)
	}

	// The final attempt goes terminal.
	jobs, err := st.ClaimJobs(ctx, b.ID, 1)
	require.NoError(t, err)
	require.Len(t, jobs, 1)

	terminal, err := st.FailJob(ctx, jobs[0].ID, "fetch timed out")
	require.NoError(t, err)
	assert.True(t, terminal)

	stats, err := st.JobStats(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Failed)
	assert.False(t, stats.Remaining())
}

func TestSQLite_ReleaseJob_NoAttemptCharged(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	ids := seedArtists(t, st, 1)

	b, err := st.CreateBatch(ctx, "batch", "ops", ids, 0)
	require.NoError(t, err)

	jobs, err := st.ClaimJobs(ctx, b.ID, 1)
	require.NoError(t, err)
	require.Len(t, jobs, 1)

	require.NoError(t, st.ReleaseJob(ctx, jobs[0].ID))

	reclaimed, err := st.ClaimJobs(ctx, b.ID, 1)
	require.NoError(t, err)
	require.Len(t, reclaimed, 1)
	assert.Equal(t, jobs[0].ID, reclaimed[0].ID)
	assert.Equal(t, 0, reclaimed[0].Attempts)
}

func TestSQLite_BatchCompletion(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	ids := seedArtists(t, st, 2)

	b, err := st.CreateBatch(ctx, "batch", "ops", ids, 0)
	require.NoError(t, err)
	_, err = st.FindOrPromoteBatch(ctx)
	require.NoError(t, err)

	jobs, err := st.ClaimJobs(ctx, b.ID, 2)
	require.NoError(t, err)
	require.Len(t, jobs, 2)

	require.NoError(t, st.CompleteJob(ctx, jobs[0].ID))
	require.NoError(t, st.IncrementBatchCounters(ctx, b.ID, BatchDelta{Completed: 1, EmailFound: 1}))

	done, err := st.CompleteBatchIfDone(ctx, b.ID)
	require.NoError(t, err)
	assert.False(t, done, "one job still processing")

	require.NoError(t, st.CompleteJob(ctx, jobs[1].ID))
	require.NoError(t, st.IncrementBatchCounters(ctx, b.ID, BatchDelta{Completed: 1}))

	done, err = st.CompleteBatchIfDone(ctx, b.ID)
	require.NoError(t, err)
	assert.True(t, done)

	got, err := st.GetBatch(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BatchStatusCompleted, got.Status)
	assert.Equal(t, 2, got.Completed)
	assert.Equal(t, 1, got.EmailFoundCount)
}

func TestSQLite_CancelSkipsNonTerminalJobs(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	ids := seedArtists(t, st, 3)

	b, err := st.CreateBatch(ctx, "batch", "ops", ids, 0)
	require.NoError(t, err)

	jobs, err := st.ClaimJobs(ctx, b.ID, 1)
	require.NoError(t, err)
	require.NoError(t, st.CompleteJob(ctx, jobs[0].ID))

	n, err := st.SkipNonTerminalJobs(ctx, b.ID, "batch cancelled")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	stats, err := st.JobStats(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Skipped)
	assert.Equal(t, 1, stats.Completed)
	assert.False(t, stats.Remaining())
}

func TestSQLite_RequeueFailedJobs(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	ids := seedArtists(t, st, 1)

	b, err := st.CreateBatch(ctx, "batch", "ops", ids, 0)
	require.NoError(t, err)

	for i := 0; i < model.DefaultMaxAttempts; i++ {
		jobs, err := st.ClaimJobs(ctx, b.ID, 1)
		require.NoError(t, err)
		require.Len(t, jobs, 1)
		_, err = st.FailJob(ctx, jobs[0].ID, "boom")
		require.NoError(t, err)
	}

	n, err := st.RequeueFailedJobs(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	jobs, err := st.ClaimJobs(ctx, b.ID, 1)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, 0, jobs[0].Attempts)
	assert.Empty(t, jobs[0].ErrorMessage)
}

func TestSQLite_TransitionBatch(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	ids := seedArtists(t, st, 1)

	b, err := st.CreateBatch(ctx, "batch", "ops", ids, 0)
	require.NoError(t, err)

	ok, err := st.TransitionBatch(ctx, b.ID,
		[]model.BatchStatus{model.BatchStatusQueued, model.BatchStatusProcessing},
		model.BatchStatusPaused)
	require.NoError(t, err)
	assert.True(t, ok)

	// Pausing an already-paused batch is a no-op.
	ok, err = st.TransitionBatch(ctx, b.ID,
		[]model.BatchStatus{model.BatchStatusQueued, model.BatchStatusProcessing},
		model.BatchStatusPaused)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSQLite_InsertEnrichmentLog(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	ids := seedArtists(t, st, 1)

	res := &model.EnrichmentResult{
		EmailFound:      "mgmt@sarahlane.com",
		EmailConfidence: 0.95,
		EmailSource:     "youtube_about",
		IsContactable:   true,
	}
	require.NoError(t, st.InsertEnrichmentLog(ctx, ids[0], "ba-1", res))

	var count int
	require.NoError(t, st.db.QueryRowContext(ctx,
		`SELECT count(*) FROM enrichment_logs WHERE artist_id = ?`, ids[0]).Scan(&count))
	assert.Equal(t, 1, count)
}
