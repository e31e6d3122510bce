// Package queue drives batch enrichment: a time-boxed worker invocation that
// claims jobs, runs the discovery pipeline, and settles batch counters, plus
// the operator controls over batch lifecycle.
package queue

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/xpanddigital/cratehq-enrich/internal/enrich"
	"github.com/xpanddigital/cratehq-enrich/internal/model"
	"github.com/xpanddigital/cratehq-enrich/internal/store"
)

// Enricher runs the discovery pipeline for one artist.
type Enricher interface {
	Enrich(ctx context.Context, a *model.Artist) (*model.EnrichmentResult, error)
}

// Config tunes one worker invocation.
type Config struct {
	// ClaimLimit is the max number of jobs claimed per invocation.
	ClaimLimit int
	// Budget is the wall-clock allowance for the whole invocation.
	Budget time.Duration
	// SafetyBuffer is subtracted from Budget before starting each job, so
	// an in-flight enrichment never runs past the caller's deadline.
	SafetyBuffer time.Duration
	// InterArtistDelay paces consecutive enrichments.
	InterArtistDelay time.Duration
}

// DefaultConfig mirrors a 15-minute cron slot.
func DefaultConfig() Config {
	return Config{
		ClaimLimit:       10,
		Budget:           13 * time.Minute,
		SafetyBuffer:     90 * time.Second,
		InterArtistDelay: 5 * time.Second,
	}
}

// InvocationReport summarizes one RunOnce call.
type InvocationReport struct {
	BatchID        string `json:"batch_id,omitempty"`
	Claimed        int    `json:"claimed"`
	Completed      int    `json:"completed"`
	Failed         int    `json:"failed"`
	Skipped        int    `json:"skipped"`
	Released       int    `json:"released"`
	EmailsFound    int    `json:"emails_found"`
	BatchCompleted bool   `json:"batch_completed"`
}

// Processed is the number of jobs this invocation settled.
func (r *InvocationReport) Processed() int {
	return r.Completed + r.Failed + r.Skipped
}

// Worker processes one slice of the active batch per invocation. Invocations
// are safe to overlap: the claim is exclusive and counters are atomic.
type Worker struct {
	store    store.Store
	enricher Enricher
	cfg      Config

	heartbeat *HeartbeatSender
	now       func() time.Time
	sleep     func(ctx context.Context, d time.Duration)
}

// NewWorker creates a worker. heartbeat may be nil.
func NewWorker(st store.Store, enricher Enricher, cfg Config, heartbeat *HeartbeatSender) *Worker {
	if cfg.ClaimLimit <= 0 {
		cfg.ClaimLimit = DefaultConfig().ClaimLimit
	}
	if cfg.Budget <= 0 {
		cfg.Budget = DefaultConfig().Budget
	}
	return &Worker{
		store:     st,
		enricher:  enricher,
		cfg:       cfg,
		heartbeat: heartbeat,
		now:       time.Now,
		sleep:     sleepCtx,
	}
}

// RunOnce performs a single time-boxed invocation: find or promote the active
// batch, claim up to ClaimLimit jobs, process them in claim order, and mark
// the batch completed when nothing non-terminal remains.
func (w *Worker) RunOnce(ctx context.Context) (*InvocationReport, error) {
	start := w.now()
	report := &InvocationReport{}

	batch, err := w.store.FindOrPromoteBatch(ctx)
	if err != nil {
		w.sendHeartbeat(ctx, report, err)
		return nil, eris.Wrap(err, "worker: find batch")
	}
	if batch == nil {
		zap.L().Debug("no batch to process")
		w.sendHeartbeat(ctx, report, nil)
		return report, nil
	}
	report.BatchID = batch.ID

	jobs, err := w.store.ClaimJobs(ctx, batch.ID, w.cfg.ClaimLimit)
	if err != nil {
		w.sendHeartbeat(ctx, report, err)
		return nil, eris.Wrapf(err, "worker: claim jobs for batch %s", batch.ID)
	}
	report.Claimed = len(jobs)

	zap.L().Info("worker invocation started",
		zap.String("batch_id", batch.ID),
		zap.Int("claimed", len(jobs)),
	)

	for i, job := range jobs {
		if w.overBudget(start) {
			report.Released += w.releaseRemaining(ctx, jobs[i:])
			break
		}
		if i > 0 && w.cfg.InterArtistDelay > 0 {
			w.sleep(ctx, w.cfg.InterArtistDelay)
		}
		if ctx.Err() != nil {
			report.Released += w.releaseRemaining(ctx, jobs[i:])
			break
		}

		w.processJob(ctx, batch.ID, job, report)
	}

	done, err := w.store.CompleteBatchIfDone(ctx, batch.ID)
	if err != nil {
		w.sendHeartbeat(ctx, report, err)
		return nil, eris.Wrapf(err, "worker: finalize batch %s", batch.ID)
	}
	report.BatchCompleted = done

	zap.L().Info("worker invocation finished",
		zap.String("batch_id", batch.ID),
		zap.Int("completed", report.Completed),
		zap.Int("failed", report.Failed),
		zap.Int("skipped", report.Skipped),
		zap.Int("released", report.Released),
		zap.Bool("batch_completed", done),
	)

	w.sendHeartbeat(ctx, report, nil)
	return report, nil
}

// processJob settles one claimed job. Persistence or pipeline errors fail the
// job and charge an attempt; they never abort the invocation.
func (w *Worker) processJob(ctx context.Context, batchID string, job model.QueueJob, report *InvocationReport) {
	artist, err := w.store.GetArtist(ctx, job.ArtistID)
	if err != nil {
		w.failJob(ctx, batchID, job.ID, eris.Wrap(err, "load artist"), report)
		return
	}

	if artist.QualificationStatus == model.QualificationNotQualified {
		if err := w.store.SkipJob(ctx, job.ID, "artist not qualified"); err != nil {
			zap.L().Error("skip job", zap.String("job_id", job.ID), zap.Error(err))
			return
		}
		if err := w.store.IncrementBatchCounters(ctx, batchID, store.BatchDelta{Skipped: 1}); err != nil {
			zap.L().Error("increment skipped counter", zap.String("batch_id", batchID), zap.Error(err))
		}
		report.Skipped++
		return
	}

	res, err := w.enricher.Enrich(ctx, artist)
	if err != nil {
		w.failJob(ctx, batchID, job.ID, err, report)
		return
	}

	enrich.ApplyResult(artist, res)
	if err := w.store.UpdateArtist(ctx, artist); err != nil {
		w.failJob(ctx, batchID, job.ID, eris.Wrap(err, "persist artist"), report)
		return
	}
	if err := w.store.InsertEnrichmentLog(ctx, artist.ID, batchID, res); err != nil {
		// The artist update already landed; log only.
		zap.L().Error("insert enrichment log", zap.String("artist_id", artist.ID), zap.Error(err))
	}
	if err := w.store.CompleteJob(ctx, job.ID); err != nil {
		zap.L().Error("complete job", zap.String("job_id", job.ID), zap.Error(err))
		return
	}

	delta := store.BatchDelta{Completed: 1}
	if res.IsContactable {
		delta.EmailFound = 1
		report.EmailsFound++
	}
	if err := w.store.IncrementBatchCounters(ctx, batchID, delta); err != nil {
		zap.L().Error("increment completed counter", zap.String("batch_id", batchID), zap.Error(err))
	}
	report.Completed++
}

// failJob charges an attempt. The batch failed counter moves only when the
// job goes terminal, so a retried job is never double-counted.
func (w *Worker) failJob(ctx context.Context, batchID, jobID string, cause error, report *InvocationReport) {
	terminal, err := w.store.FailJob(ctx, jobID, cause.Error())
	if err != nil {
		zap.L().Error("fail job", zap.String("job_id", jobID), zap.Error(err))
		return
	}
	zap.L().Warn("job failed",
		zap.String("job_id", jobID),
		zap.Bool("terminal", terminal),
		zap.Error(cause),
	)
	if !terminal {
		return
	}
	if err := w.store.IncrementBatchCounters(ctx, batchID, store.BatchDelta{Failed: 1}); err != nil {
		zap.L().Error("increment failed counter", zap.String("batch_id", batchID), zap.Error(err))
	}
	report.Failed++
}

func (w *Worker) overBudget(start time.Time) bool {
	if w.cfg.Budget <= 0 {
		return false
	}
	return w.now().Sub(start) >= w.cfg.Budget-w.cfg.SafetyBuffer
}

// releaseRemaining returns unprocessed claimed jobs to pending without
// charging attempts.
func (w *Worker) releaseRemaining(ctx context.Context, jobs []model.QueueJob) int {
	released := 0
	for _, job := range jobs {
		if err := w.store.ReleaseJob(ctx, job.ID); err != nil {
			zap.L().Error("release job", zap.String("job_id", job.ID), zap.Error(err))
			continue
		}
		released++
	}
	if released > 0 {
		zap.L().Info("released unprocessed jobs on budget exhaustion", zap.Int("released", released))
	}
	return released
}

func (w *Worker) sendHeartbeat(ctx context.Context, report *InvocationReport, cause error) {
	if w.heartbeat == nil {
		return
	}
	hb := Heartbeat{
		Status:      "ok",
		Processed:   report.Processed(),
		EmailsFound: report.EmailsFound,
	}
	if cause != nil {
		hb.Status = "error"
		hb.ErrorDetail = cause.Error()
	}
	if err := w.heartbeat.Send(ctx, hb); err != nil {
		zap.L().Warn("heartbeat send failed", zap.Error(err))
	}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
