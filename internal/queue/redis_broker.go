package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/gomodule/redigo/redis"

	sharedredis "github.com/shoplio/review-backend/shared/redis"
)

// DefaultNamespace prefixes every queue key in Redis
const DefaultNamespace = "reviewq"

// RedisBroker is the durable Job Store. Waiting jobs live in a list, jobs
// being processed in an active list, jobs awaiting a retry in a sorted set
// scored by ready-at time, and bounded completed/failed histories in capped
// lists. The active record outlives a worker crash, so a lost job stays
// visible instead of vanishing.
type RedisBroker struct {
	client    *sharedredis.Client
	namespace string
	logger    *slog.Logger
}

// NewRedisBroker creates a broker on an existing Redis client. The client's
// lifecycle stays with the caller.
func NewRedisBroker(client *sharedredis.Client, logger *slog.Logger) *RedisBroker {
	return &RedisBroker{
		client:    client,
		namespace: DefaultNamespace,
		logger:    logger,
	}
}

func (b *RedisBroker) key(queue, suffix string) string {
	return fmt.Sprintf("%s:%s:%s", b.namespace, queue, suffix)
}

// Enqueue appends a job to the queue's waiting list
func (b *RedisBroker) Enqueue(ctx context.Context, job *Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to serialize job: %w", err)
	}

	conn := b.client.Get()
	defer conn.Close()

	if _, err := conn.Do("RPUSH", b.key(job.Queue, "waiting"), data); err != nil {
		return fmt.Errorf("failed to enqueue job on %s: %w", job.Queue, err)
	}
	return nil
}

// Dequeue promotes due delayed jobs, then moves the next waiting job onto
// the active list and marks it active. Returns (nil, nil) when the queue is
// empty.
func (b *RedisBroker) Dequeue(ctx context.Context, queue string) (*Job, error) {
	conn := b.client.Get()
	defer conn.Close()

	if err := b.promoteDue(conn, queue); err != nil {
		b.logger.Warn("Failed to promote delayed jobs",
			slog.String("queue", queue),
			slog.Any("error", err),
		)
	}

	data, err := redis.Bytes(conn.Do("LMOVE", b.key(queue, "waiting"), b.key(queue, "active"), "LEFT", "RIGHT"))
	if err != nil {
		if err == redis.ErrNil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to dequeue from %s: %w", queue, err)
	}

	var job Job
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("failed to deserialize job from %s: %w", queue, err)
	}

	job.State = StateActive
	job.AttemptsMade++
	job.ProcessedAt = time.Now().UTC()
	job.raw = data

	return &job, nil
}

// promoteDue moves delayed jobs whose ready-at time has passed back onto the
// waiting list, preserving score order.
func (b *RedisBroker) promoteDue(conn redis.Conn, queue string) error {
	delayedKey := b.key(queue, "delayed")
	now := time.Now().UnixMilli()

	members, err := redis.ByteSlices(conn.Do("ZRANGEBYSCORE", delayedKey, "-inf", now))
	if err != nil {
		return err
	}

	for _, member := range members {
		removed, err := redis.Int(conn.Do("ZREM", delayedKey, member))
		if err != nil {
			return err
		}
		// Another consumer promoted it first
		if removed == 0 {
			continue
		}
		if _, err := conn.Do("RPUSH", b.key(queue, "waiting"), member); err != nil {
			return err
		}
	}
	return nil
}

// Complete clears the in-flight record and adds the job to the bounded
// completed history
func (b *RedisBroker) Complete(ctx context.Context, job *Job) error {
	job.State = StateCompleted
	job.FinishedAt = time.Now().UTC()

	conn := b.client.Get()
	defer conn.Close()

	if err := b.pushTrimmed(conn, job, "completed", OptionsFor(job.Queue).KeepCompleted); err != nil {
		return err
	}
	return b.clearActive(conn, job)
}

// Retry schedules the job for another attempt after delay
func (b *RedisBroker) Retry(ctx context.Context, job *Job, delay time.Duration) error {
	job.State = StateWaiting

	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to serialize job: %w", err)
	}

	conn := b.client.Get()
	defer conn.Close()

	readyAt := time.Now().Add(delay).UnixMilli()
	if _, err := conn.Do("ZADD", b.key(job.Queue, "delayed"), readyAt, data); err != nil {
		return fmt.Errorf("failed to schedule retry on %s: %w", job.Queue, err)
	}
	return b.clearActive(conn, job)
}

// MoveToFailed clears the in-flight record and adds the job to the bounded
// failed history. Terminal: the job is not requeued.
func (b *RedisBroker) MoveToFailed(ctx context.Context, job *Job) error {
	job.State = StateFailed
	job.FinishedAt = time.Now().UTC()

	conn := b.client.Get()
	defer conn.Close()

	if err := b.pushTrimmed(conn, job, "failed", OptionsFor(job.Queue).KeepFailed); err != nil {
		return err
	}
	return b.clearActive(conn, job)
}

func (b *RedisBroker) pushTrimmed(conn redis.Conn, job *Job, suffix string, keep int) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to serialize job: %w", err)
	}

	key := b.key(job.Queue, suffix)
	if _, err := conn.Do("LPUSH", key, data); err != nil {
		return fmt.Errorf("failed to record %s job: %w", suffix, err)
	}
	if keep > 0 {
		if _, err := conn.Do("LTRIM", key, 0, keep-1); err != nil {
			return fmt.Errorf("failed to trim %s history: %w", suffix, err)
		}
	}
	return nil
}

// clearActive removes the record Dequeue wrote to the active list. Jobs not
// produced by Dequeue carry no record and nothing is removed.
func (b *RedisBroker) clearActive(conn redis.Conn, job *Job) error {
	if job.raw == nil {
		return nil
	}
	if _, err := conn.Do("LREM", b.key(job.Queue, "active"), 1, job.raw); err != nil {
		return fmt.Errorf("failed to clear active record on %s: %w", job.Queue, err)
	}
	return nil
}

// QueueLength counts waiting plus delayed jobs
func (b *RedisBroker) QueueLength(ctx context.Context, queue string) (int64, error) {
	conn := b.client.Get()
	defer conn.Close()

	waiting, err := redis.Int64(conn.Do("LLEN", b.key(queue, "waiting")))
	if err != nil {
		return 0, fmt.Errorf("failed to get queue length for %s: %w", queue, err)
	}

	delayed, err := redis.Int64(conn.Do("ZCARD", b.key(queue, "delayed")))
	if err != nil {
		return 0, fmt.Errorf("failed to get delayed count for %s: %w", queue, err)
	}

	return waiting + delayed, nil
}

// Ping verifies broker connectivity
func (b *RedisBroker) Ping(ctx context.Context) error {
	return b.client.Ping(ctx)
}

// Close is a no-op; the Redis client is owned by the process entry point
func (b *RedisBroker) Close() error {
	return nil
}
