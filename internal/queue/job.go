package queue

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Job states
const (
	StateWaiting   = "waiting"
	StateActive    = "active"
	StateCompleted = "completed"
	StateFailed    = "failed"
)

// Job is a unit of deferred work. It is owned by the broker; workers change
// its state only through Complete/Retry/MoveToFailed.
type Job struct {
	ID           string          `json:"id"`
	Queue        string          `json:"queue"`
	Type         string          `json:"type"`
	Payload      json.RawMessage `json:"payload"`
	State        string          `json:"state"`
	AttemptsMade int             `json:"attempts_made"`
	MaxAttempts  int             `json:"max_attempts"`
	BackoffBase  time.Duration   `json:"backoff_base"`
	CreatedAt    time.Time       `json:"created_at"`
	ProcessedAt  time.Time       `json:"processed_at,omitzero"`
	FinishedAt   time.Time       `json:"finished_at,omitzero"`
	LastError    string          `json:"last_error,omitempty"`

	// raw is the serialized form the broker dequeued, kept so the
	// in-flight record can be cleared on completion. Not on the wire.
	raw []byte
}

// NewJob builds a waiting job with the queue's default options applied
func NewJob(queueName, jobType string, payload json.RawMessage, opts Options) *Job {
	return &Job{
		ID:          uuid.New().String(),
		Queue:       queueName,
		Type:        jobType,
		Payload:     payload,
		State:       StateWaiting,
		MaxAttempts: opts.MaxAttempts,
		BackoffBase: opts.BackoffBase,
		CreatedAt:   time.Now().UTC(),
	}
}

// AttemptsExhausted reports whether the job has used up its retry budget
func (j *Job) AttemptsExhausted() bool {
	return j.AttemptsMade >= j.MaxAttempts
}

// NextRetryDelay returns the exponential backoff delay to apply before the
// next attempt: base * 2^(n-2) where n is the attempt number about to run.
// The first attempt carries no delay.
func (j *Job) NextRetryDelay() time.Duration {
	next := j.AttemptsMade + 1
	if next < 2 {
		return 0
	}
	return j.BackoffBase << (next - 2)
}
