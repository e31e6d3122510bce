package queue

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/xpanddigital/cratehq-enrich/internal/model"
	"github.com/xpanddigital/cratehq-enrich/internal/store"
)

// Controller exposes the operator batch controls. Every transition is a
// guarded store update, so a stale control request is a no-op error rather
// than a state corruption.
type Controller struct {
	store store.Store
}

func NewController(st store.Store) *Controller {
	return &Controller{store: st}
}

// Pause halts a queued or processing batch. In-flight jobs finish; no new
// claims happen while paused because FindOrPromoteBatch ignores paused
// batches.
func (c *Controller) Pause(ctx context.Context, batchID string) error {
	ok, err := c.store.TransitionBatch(ctx, batchID,
		[]model.BatchStatus{model.BatchStatusQueued, model.BatchStatusProcessing},
		model.BatchStatusPaused)
	if err != nil {
		return err
	}
	if !ok {
		return eris.Errorf("queue: batch %s is not pausable", batchID)
	}
	zap.L().Info("batch paused", zap.String("batch_id", batchID))
	return nil
}

// Resume returns a paused batch to processing.
func (c *Controller) Resume(ctx context.Context, batchID string) error {
	ok, err := c.store.TransitionBatch(ctx, batchID,
		[]model.BatchStatus{model.BatchStatusPaused},
		model.BatchStatusProcessing)
	if err != nil {
		return err
	}
	if !ok {
		return eris.Errorf("queue: batch %s is not paused", batchID)
	}
	zap.L().Info("batch resumed", zap.String("batch_id", batchID))
	return nil
}

// Cancel skips every non-terminal job and marks the batch cancelled. A job
// already mid-enrichment still writes its result; that race is benign
// because counters are atomic increments.
func (c *Controller) Cancel(ctx context.Context, batchID string) error {
	skipped, err := c.store.SkipNonTerminalJobs(ctx, batchID, "batch cancelled")
	if err != nil {
		return err
	}
	if skipped > 0 {
		if err := c.store.IncrementBatchCounters(ctx, batchID, store.BatchDelta{Skipped: skipped}); err != nil {
			return err
		}
	}

	ok, err := c.store.TransitionBatch(ctx, batchID,
		[]model.BatchStatus{model.BatchStatusQueued, model.BatchStatusProcessing, model.BatchStatusPaused},
		model.BatchStatusCancelled)
	if err != nil {
		return err
	}
	if !ok {
		return eris.Errorf("queue: batch %s is not cancellable", batchID)
	}
	zap.L().Info("batch cancelled", zap.String("batch_id", batchID), zap.Int("jobs_skipped", skipped))
	return nil
}

// RetryFailed requeues every failed job with a fresh attempt budget and, when
// anything was requeued, reopens a completed or cancelled batch.
func (c *Controller) RetryFailed(ctx context.Context, batchID string) (int, error) {
	requeued, err := c.store.RequeueFailedJobs(ctx, batchID)
	if err != nil {
		return 0, err
	}
	if requeued == 0 {
		return 0, nil
	}

	if _, err := c.store.TransitionBatch(ctx, batchID,
		[]model.BatchStatus{model.BatchStatusCompleted, model.BatchStatusCancelled},
		model.BatchStatusProcessing); err != nil {
		return requeued, err
	}
	zap.L().Info("failed jobs requeued", zap.String("batch_id", batchID), zap.Int("requeued", requeued))
	return requeued, nil
}
