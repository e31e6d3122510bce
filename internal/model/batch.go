package model

import "time"

// BatchStatus represents the lifecycle state of a batch. Transitions are
// monotonic except paused<->processing.
type BatchStatus string

const (
	BatchStatusQueued     BatchStatus = "queued"
	BatchStatusProcessing BatchStatus = "processing"
	BatchStatusPaused     BatchStatus = "paused"
	BatchStatusCompleted  BatchStatus = "completed"
	BatchStatusCancelled  BatchStatus = "cancelled"
)

// Batch is a named unit of enrichment work over a set of artists.
// Invariant: Completed+Failed+Skipped <= TotalArtists.
type Batch struct {
	ID              string      `json:"id"`
	Name            string      `json:"name"`
	TotalArtists    int         `json:"total_artists"`
	Status          BatchStatus `json:"status"`
	Completed       int         `json:"completed"`
	Failed          int         `json:"failed"`
	Skipped         int         `json:"skipped"`
	EmailFoundCount int         `json:"email_found_count"`
	CreatedBy       string      `json:"created_by,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// JobStatus represents the lifecycle state of one queue job.
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusSkipped    JobStatus = "skipped"
)

// DefaultMaxAttempts is the per-job retry budget for transient failures.
const DefaultMaxAttempts = 3

// QueueJob is one artist inside one batch. A job in processing is owned by
// exactly one worker invocation; terminal states are completed, failed, and
// skipped.
type QueueJob struct {
	ID           string     `json:"id"`
	BatchID      string     `json:"batch_id"`
	ArtistID     string     `json:"artist_id"`
	Status       JobStatus  `json:"status"`
	Attempts     int        `json:"attempts"`
	MaxAttempts  int        `json:"max_attempts"`
	Priority     int        `json:"priority"`
	ErrorMessage string     `json:"error_message,omitempty"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// JobStats summarizes job statuses for a batch, for the operator UI.
type JobStats struct {
	Pending    int `json:"pending"`
	Processing int `json:"processing"`
	Completed  int `json:"completed"`
	Failed     int `json:"failed"`
	Skipped    int `json:"skipped"`
}

// Remaining reports whether any non-terminal jobs are left.
func (s JobStats) Remaining() bool {
	return s.Pending > 0 || s.Processing > 0
}
