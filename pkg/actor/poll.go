package actor

import (
	"context"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
)

const (
	defaultPollInterval = 3 * time.Second
	defaultPollTimeout  = 5 * time.Minute
)

// PollOption configures polling behavior.
type PollOption func(*pollConfig)

type pollConfig struct {
	interval time.Duration
	timeout  time.Duration
}

func defaultPollConfig() pollConfig {
	return pollConfig{
		interval: defaultPollInterval,
		timeout:  defaultPollTimeout,
	}
}

// WithPollInterval overrides the fixed poll interval.
func WithPollInterval(d time.Duration) PollOption {
	return func(c *pollConfig) {
		c.interval = d
	}
}

// WithPollTimeout overrides the default wall-clock timeout (applied only if
// the parent context has no deadline).
func WithPollTimeout(d time.Duration) PollOption {
	return func(c *pollConfig) {
		c.timeout = d
	}
}

// WaitForRun polls GetRun at a fixed interval until the run reaches a
// terminal state or the context expires. A run ending FAILED, ABORTED, or
// TIMED-OUT is an error; the Run is returned alongside it for diagnostics.
func WaitForRun(ctx context.Context, client Client, runID string, opts ...PollOption) (*Run, error) {
	cfg := defaultPollConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.timeout)
		defer cancel()
	}

	for {
		run, err := client.GetRun(ctx, runID)
		if err != nil {
			return nil, eris.Wrap(err, fmt.Sprintf("actor: poll run %s", runID))
		}

		if run.Terminal() {
			if run.Status != StatusSucceeded {
				return run, eris.Errorf("actor: run %s ended %s: %s", runID, run.Status, run.StatusMessage)
			}
			return run, nil
		}

		select {
		case <-ctx.Done():
			return nil, eris.Wrap(ctx.Err(), fmt.Sprintf("actor: poll run %s timed out", runID))
		case <-time.After(cfg.interval):
		}
	}
}

// RunAndCollect starts an actor run, waits for it to succeed, and returns
// the items of its default dataset.
func RunAndCollect(ctx context.Context, client Client, actorID string, input any, opts ...PollOption) ([]map[string]any, error) {
	run, err := client.StartRun(ctx, actorID, input)
	if err != nil {
		return nil, err
	}

	done, err := WaitForRun(ctx, client, run.ID, opts...)
	if err != nil {
		return nil, err
	}

	if done.DefaultDatasetID == "" {
		return nil, eris.Errorf("actor: run %s succeeded without a dataset", run.ID)
	}

	return client.DatasetItems(ctx, done.DefaultDatasetID)
}
