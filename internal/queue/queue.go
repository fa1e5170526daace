package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"
)

// Queue names. Each carries its own default job options, mirroring the
// queues the request handlers enqueue into.
const (
	QueueReviewNotifications = "review-notifications"
	QueueEmailProcessing     = "email-processing"
	QueueRatingCalculation   = "rating-calculation"
	QueueVideoThumbnail      = "video-thumbnail"
)

// RateLimit caps how many jobs a consumer may start per rolling window
type RateLimit struct {
	Max    int
	Window time.Duration
}

// Options are the per-queue defaults applied to every job added to the queue
type Options struct {
	MaxAttempts   int
	BackoffBase   time.Duration
	KeepCompleted int // completed-job history retained for observability
	KeepFailed    int // failed-job history retained for observability
	Concurrency   int
	RateLimit     RateLimit
}

// Definitions is the queue catalogue. Thumbnail extraction is capped at two
// simultaneous jobs because frame extraction is CPU and memory heavy.
var Definitions = map[string]Options{
	QueueReviewNotifications: {
		MaxAttempts:   3,
		BackoffBase:   2000 * time.Millisecond,
		KeepCompleted: 50,
		KeepFailed:    100,
		Concurrency:   5,
		RateLimit:     RateLimit{Max: 10, Window: time.Second},
	},
	QueueEmailProcessing: {
		MaxAttempts:   5,
		BackoffBase:   1000 * time.Millisecond,
		KeepCompleted: 20,
		KeepFailed:    50,
		Concurrency:   3,
		RateLimit:     RateLimit{Max: 20, Window: time.Second},
	},
	QueueRatingCalculation: {
		MaxAttempts:   3,
		BackoffBase:   2000 * time.Millisecond,
		KeepCompleted: 50,
		KeepFailed:    100,
		Concurrency:   5,
		RateLimit:     RateLimit{Max: 20, Window: time.Second},
	},
	QueueVideoThumbnail: {
		MaxAttempts:   3,
		BackoffBase:   2000 * time.Millisecond,
		KeepCompleted: 50,
		KeepFailed:    100,
		Concurrency:   2,
		RateLimit:     RateLimit{Max: 5, Window: time.Second},
	},
}

// OptionsFor returns the catalogue options for a queue, or conservative
// defaults for queues not in the catalogue.
func OptionsFor(queueName string) Options {
	if opts, ok := Definitions[queueName]; ok {
		return opts
	}
	return Options{
		MaxAttempts:   3,
		BackoffBase:   2000 * time.Millisecond,
		KeepCompleted: 50,
		KeepFailed:    100,
		Concurrency:   1,
		RateLimit:     RateLimit{Max: 10, Window: time.Second},
	}
}

// Broker is the durable queue backend. Dequeue returns (nil, nil) when the
// queue is empty.
type Broker interface {
	Enqueue(ctx context.Context, job *Job) error
	Dequeue(ctx context.Context, queue string) (*Job, error)
	Complete(ctx context.Context, job *Job) error
	Retry(ctx context.Context, job *Job, delay time.Duration) error
	MoveToFailed(ctx context.Context, job *Job) error
	QueueLength(ctx context.Context, queue string) (int64, error)
	Ping(ctx context.Context) error
	Close() error
}

// Queue is the enqueue-side client used by request handlers. Adding a job
// succeeds or fails independently of consumer availability.
type Queue struct {
	broker Broker
	logger *slog.Logger
}

// New creates an enqueue client on top of a broker
func New(broker Broker, logger *slog.Logger) *Queue {
	return &Queue{broker: broker, logger: logger}
}

// Enqueue serializes payload, applies the queue's default options and adds
// the job. Returns the new job's ID.
func (q *Queue) Enqueue(ctx context.Context, queueName, jobType string, payload any) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal payload for %s: %w", jobType, err)
	}

	job := NewJob(queueName, jobType, data, OptionsFor(queueName))

	if err := q.broker.Enqueue(ctx, job); err != nil {
		return "", fmt.Errorf("failed to enqueue %s job: %w", jobType, err)
	}

	q.logger.Debug("Job enqueued",
		slog.String("queue", queueName),
		slog.String("job_type", jobType),
		slog.String("job_id", job.ID),
	)

	return job.ID, nil
}

// Health reports broker reachability
func (q *Queue) Health(ctx context.Context) error {
	return q.broker.Ping(ctx)
}
