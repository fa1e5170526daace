package queue

import (
	"context"
	"sync"
	"time"
)

type delayedJob struct {
	job     *Job
	readyAt time.Time
}

// MemoryBroker is an in-process Broker used in tests and local development.
// It applies the same state transitions and bounded histories as the Redis
// broker.
type MemoryBroker struct {
	mu      sync.Mutex
	waiting map[string][]*Job
	active  map[string]map[string]*Job
	delayed map[string][]delayedJob
	done    map[string][]*Job
	failed  map[string][]*Job
	closed  bool
}

// NewMemoryBroker creates an empty in-memory broker
func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{
		waiting: make(map[string][]*Job),
		active:  make(map[string]map[string]*Job),
		delayed: make(map[string][]delayedJob),
		done:    make(map[string][]*Job),
		failed:  make(map[string][]*Job),
	}
}

// Enqueue appends the job to its queue's waiting list
func (b *MemoryBroker) Enqueue(ctx context.Context, job *Job) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrBrokerClosed
	}

	b.waiting[job.Queue] = append(b.waiting[job.Queue], job)
	return nil
}

// Dequeue promotes due delayed jobs, then pops the next waiting job
func (b *MemoryBroker) Dequeue(ctx context.Context, queue string) (*Job, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrBrokerClosed
	}

	now := time.Now()
	remaining := b.delayed[queue][:0]
	for _, d := range b.delayed[queue] {
		if !d.readyAt.After(now) {
			b.waiting[queue] = append(b.waiting[queue], d.job)
		} else {
			remaining = append(remaining, d)
		}
	}
	b.delayed[queue] = remaining

	jobs := b.waiting[queue]
	if len(jobs) == 0 {
		return nil, nil
	}

	job := jobs[0]
	b.waiting[queue] = jobs[1:]

	job.State = StateActive
	job.AttemptsMade++
	job.ProcessedAt = now.UTC()

	if b.active[queue] == nil {
		b.active[queue] = make(map[string]*Job)
	}
	b.active[queue][job.ID] = job

	return job, nil
}

// Complete records the job in the bounded completed history
func (b *MemoryBroker) Complete(ctx context.Context, job *Job) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	job.State = StateCompleted
	job.FinishedAt = time.Now().UTC()

	delete(b.active[job.Queue], job.ID)
	keep := OptionsFor(job.Queue).KeepCompleted
	b.done[job.Queue] = prependTrimmed(b.done[job.Queue], job, keep)
	return nil
}

// Retry schedules the job for another attempt after delay
func (b *MemoryBroker) Retry(ctx context.Context, job *Job, delay time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	job.State = StateWaiting
	delete(b.active[job.Queue], job.ID)
	b.delayed[job.Queue] = append(b.delayed[job.Queue], delayedJob{
		job:     job,
		readyAt: time.Now().Add(delay),
	})
	return nil
}

// MoveToFailed records the job in the bounded failed history
func (b *MemoryBroker) MoveToFailed(ctx context.Context, job *Job) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	job.State = StateFailed
	job.FinishedAt = time.Now().UTC()

	delete(b.active[job.Queue], job.ID)
	keep := OptionsFor(job.Queue).KeepFailed
	b.failed[job.Queue] = prependTrimmed(b.failed[job.Queue], job, keep)
	return nil
}

// QueueLength counts waiting plus delayed jobs
func (b *MemoryBroker) QueueLength(ctx context.Context, queue string) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return int64(len(b.waiting[queue]) + len(b.delayed[queue])), nil
}

// Ping reports broker availability
func (b *MemoryBroker) Ping(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrBrokerClosed
	}
	return nil
}

// Close rejects all further operations, simulating an unreachable broker
func (b *MemoryBroker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

// Completed returns a snapshot of the completed history for a queue
func (b *MemoryBroker) Completed(queue string) []*Job {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]*Job(nil), b.done[queue]...)
}

// Failed returns a snapshot of the failed history for a queue
func (b *MemoryBroker) Failed(queue string) []*Job {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]*Job(nil), b.failed[queue]...)
}

// Active returns how many jobs are currently in flight on a queue
func (b *MemoryBroker) Active(queue string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.active[queue])
}

// Delayed returns how many jobs are waiting on a retry delay
func (b *MemoryBroker) Delayed(queue string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.delayed[queue])
}

func prependTrimmed(history []*Job, job *Job, keep int) []*Job {
	history = append([]*Job{job}, history...)
	if keep > 0 && len(history) > keep {
		history = history[:keep]
	}
	return history
}
