package handler

import "context"

// Enqueuer adds background jobs. Handlers only depend on this slice of the
// queue client so tests can swap in fakes.
type Enqueuer interface {
	Enqueue(ctx context.Context, queueName, jobType string, payload any) (string, error)
	Health(ctx context.Context) error
}
