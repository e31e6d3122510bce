package queue

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"

	"github.com/xpanddigital/cratehq-enrich/internal/resilience"
)

// Heartbeat is the payload posted to the monitoring webhook after each
// worker invocation.
type Heartbeat struct {
	Status      string `json:"status"`
	Processed   int    `json:"processed"`
	EmailsFound int    `json:"emails_found"`
	ErrorDetail string `json:"error_detail,omitempty"`
}

// HeartbeatSender posts invocation heartbeats to a webhook. Delivery is
// best-effort: the worker logs failures and moves on.
type HeartbeatSender struct {
	url    string
	client *http.Client
	retry  resilience.RetryConfig
}

// NewHeartbeatSender creates a sender for the given webhook URL.
func NewHeartbeatSender(url string) *HeartbeatSender {
	return &HeartbeatSender{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
		retry: resilience.RetryConfig{
			MaxAttempts:    2,
			InitialBackoff: 500 * time.Millisecond,
		},
	}
}

// Send posts the heartbeat, retrying transient failures once.
func (h *HeartbeatSender) Send(ctx context.Context, hb Heartbeat) error {
	body, err := json.Marshal(hb)
	if err != nil {
		return eris.Wrap(err, "heartbeat: marshal")
	}

	return resilience.Do(ctx, h.retry, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.url, bytes.NewReader(body))
		if err != nil {
			return eris.Wrap(err, "heartbeat: build request")
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := h.client.Do(req)
		if err != nil {
			return resilience.NewTransientError(err, 0)
		}
		defer resp.Body.Close()
		io.Copy(io.Discard, resp.Body) //nolint:errcheck

		if resp.StatusCode >= 400 {
			err := fmt.Errorf("heartbeat: webhook returned status %d", resp.StatusCode)
			if resilience.IsTransientHTTPStatus(resp.StatusCode) {
				return resilience.NewTransientError(err, resp.StatusCode)
			}
			return err
		}
		return nil
	})
}
