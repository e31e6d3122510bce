package queue

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/xpanddigital/cratehq-enrich/internal/model"
	"github.com/xpanddigital/cratehq-enrich/internal/store"
)

// fakeStore is an in-memory Store mirroring the SQL backends' transition
// guards, for worker and controller tests.
type fakeStore struct {
	mu      sync.Mutex
	artists map[string]*model.Artist
	batches map[string]*model.Batch
	jobs    map[string]*model.QueueJob
	logs    int
	seq     int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		artists: map[string]*model.Artist{},
		batches: map[string]*model.Batch{},
		jobs:    map[string]*model.QueueJob{},
	}
}

func (f *fakeStore) CreateArtist(_ context.Context, a *model.Artist) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if a.QualificationStatus == "" {
		a.QualificationStatus = model.QualificationPending
	}
	cp := *a
	f.artists[a.ID] = &cp
	return nil
}

func (f *fakeStore) GetArtist(_ context.Context, id string) (*model.Artist, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.artists[id]
	if !ok {
		return nil, eris.Errorf("artist not found: %s", id)
	}
	cp := *a
	return &cp, nil
}

func (f *fakeStore) UpdateArtist(_ context.Context, a *model.Artist) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.artists[a.ID]; !ok {
		return eris.Errorf("artist not found: %s", a.ID)
	}
	cp := *a
	f.artists[a.ID] = &cp
	return nil
}

func (f *fakeStore) ListArtists(_ context.Context, _ store.ArtistFilter) ([]model.Artist, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Artist
	for _, a := range f.artists {
		out = append(out, *a)
	}
	return out, nil
}

func (f *fakeStore) CreateBatch(_ context.Context, name, createdBy string, artistIDs []string, priority int) (*model.Batch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b := &model.Batch{
		ID:           uuid.New().String(),
		Name:         name,
		TotalArtists: len(artistIDs),
		Status:       model.BatchStatusQueued,
		CreatedBy:    createdBy,
		CreatedAt:    time.Now().UTC(),
	}
	f.batches[b.ID] = b
	for _, artistID := range artistIDs {
		f.seq++
		jobID := uuid.New().String()
		f.jobs[jobID] = &model.QueueJob{
			ID:          jobID,
			BatchID:     b.ID,
			ArtistID:    artistID,
			Status:      model.JobStatusPending,
			MaxAttempts: model.DefaultMaxAttempts,
			Priority:    priority,
			CreatedAt:   time.Now().UTC().Add(time.Duration(f.seq) * time.Millisecond),
		}
	}
	cp := *b
	return &cp, nil
}

func (f *fakeStore) GetBatch(_ context.Context, id string) (*model.Batch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.batches[id]
	if !ok {
		return nil, eris.Errorf("batch not found: %s", id)
	}
	cp := *b
	return &cp, nil
}

func (f *fakeStore) ListBatches(_ context.Context, _ store.BatchFilter) ([]model.Batch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Batch
	for _, b := range f.batches {
		out = append(out, *b)
	}
	return out, nil
}

func (f *fakeStore) FindOrPromoteBatch(_ context.Context) (*model.Batch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var candidates []*model.Batch
	for _, b := range f.batches {
		if b.Status == model.BatchStatusProcessing {
			cp := *b
			return &cp, nil
		}
		if b.Status == model.BatchStatusQueued {
			candidates = append(candidates, b)
		}
	}
	if len(candidates) == 0 {
		return nil, nil
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].CreatedAt.Before(candidates[j].CreatedAt)
	})
	candidates[0].Status = model.BatchStatusProcessing
	cp := *candidates[0]
	return &cp, nil
}

func (f *fakeStore) TransitionBatch(_ context.Context, id string, from []model.BatchStatus, to model.BatchStatus) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.batches[id]
	if !ok {
		return false, nil
	}
	for _, st := range from {
		if b.Status == st {
			b.Status = to
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) IncrementBatchCounters(_ context.Context, id string, delta store.BatchDelta) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.batches[id]
	if !ok {
		return eris.Errorf("batch not found: %s", id)
	}
	b.Completed += delta.Completed
	b.Failed += delta.Failed
	b.Skipped += delta.Skipped
	b.EmailFoundCount += delta.EmailFound
	return nil
}

func (f *fakeStore) CompleteBatchIfDone(_ context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.batches[id]
	if !ok || b.Status != model.BatchStatusProcessing {
		return false, nil
	}
	for _, j := range f.jobs {
		if j.BatchID != id {
			continue
		}
		if j.Status == model.JobStatusPending || j.Status == model.JobStatusProcessing {
			return false, nil
		}
	}
	b.Status = model.BatchStatusCompleted
	return true, nil
}

func (f *fakeStore) JobStats(_ context.Context, batchID string) (model.JobStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var stats model.JobStats
	for _, j := range f.jobs {
		if j.BatchID != batchID {
			continue
		}
		switch j.Status {
		case model.JobStatusPending:
			stats.Pending++
		case model.JobStatusProcessing:
			stats.Processing++
		case model.JobStatusCompleted:
			stats.Completed++
		case model.JobStatusFailed:
			stats.Failed++
		case model.JobStatusSkipped:
			stats.Skipped++
		}
	}
	return stats, nil
}

func (f *fakeStore) ClaimJobs(_ context.Context, batchID string, limit int) ([]model.QueueJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var pending []*model.QueueJob
	for _, j := range f.jobs {
		if j.BatchID == batchID && j.Status == model.JobStatusPending {
			pending = append(pending, j)
		}
	}
	sort.Slice(pending, func(i, j int) bool {
		if pending[i].Priority != pending[j].Priority {
			return pending[i].Priority > pending[j].Priority
		}
		return pending[i].CreatedAt.Before(pending[j].CreatedAt)
	})
	if len(pending) > limit {
		pending = pending[:limit]
	}
	now := time.Now().UTC()
	var out []model.QueueJob
	for _, j := range pending {
		j.Status = model.JobStatusProcessing
		j.StartedAt = &now
		out = append(out, *j)
	}
	return out, nil
}

func (f *fakeStore) ReleaseJob(_ context.Context, jobID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	j, ok := f.jobs[jobID]
	if !ok || j.Status != model.JobStatusProcessing {
		return eris.Errorf("job not processing: %s", jobID)
	}
	j.Status = model.JobStatusPending
	j.StartedAt = nil
	return nil
}

func (f *fakeStore) CompleteJob(_ context.Context, jobID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	j, ok := f.jobs[jobID]
	if !ok || j.Status != model.JobStatusProcessing {
		return eris.Errorf("job not processing: %s", jobID)
	}
	j.Status = model.JobStatusCompleted
	return nil
}

func (f *fakeStore) FailJob(_ context.Context, jobID, errMsg string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	j, ok := f.jobs[jobID]
	if !ok || j.Status != model.JobStatusProcessing {
		return false, eris.Errorf("job not processing: %s", jobID)
	}
	j.Attempts++
	j.ErrorMessage = errMsg
	j.StartedAt = nil
	if j.Attempts >= j.MaxAttempts {
		j.Status = model.JobStatusFailed
		return true, nil
	}
	j.Status = model.JobStatusPending
	return false, nil
}

func (f *fakeStore) SkipJob(_ context.Context, jobID, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	j, ok := f.jobs[jobID]
	if !ok || (j.Status != model.JobStatusPending && j.Status != model.JobStatusProcessing) {
		return eris.Errorf("job not skippable: %s", jobID)
	}
	j.Status = model.JobStatusSkipped
	j.ErrorMessage = reason
	return nil
}

func (f *fakeStore) SkipNonTerminalJobs(_ context.Context, batchID, reason string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, j := range f.jobs {
		if j.BatchID != batchID {
			continue
		}
		if j.Status == model.JobStatusPending || j.Status == model.JobStatusProcessing {
			j.Status = model.JobStatusSkipped
			j.ErrorMessage = reason
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) RequeueFailedJobs(_ context.Context, batchID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, j := range f.jobs {
		if j.BatchID == batchID && j.Status == model.JobStatusFailed {
			j.Status = model.JobStatusPending
			j.Attempts = 0
			j.ErrorMessage = ""
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) InsertEnrichmentLog(_ context.Context, _, _ string, _ *model.EnrichmentResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logs++
	return nil
}

func (f *fakeStore) Migrate(context.Context) error { return nil }
func (f *fakeStore) Ping(context.Context) error    { return nil }
func (f *fakeStore) Close() error                  { return nil }

var _ store.Store = (*fakeStore)(nil)
