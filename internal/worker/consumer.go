package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/shoplio/review-backend/internal/queue"
)

// ProcessorFunc executes one job. A returned error marks only that job
// failed; the consumer translates it into retry or terminal failure.
type ProcessorFunc func(ctx context.Context, job *queue.Job) error

// Consumer pulls jobs from a single queue, respecting the queue's
// concurrency limit and rate limit. A new job is pulled only when the
// consumer is below both.
type Consumer struct {
	queueName    string
	broker       queue.Broker
	processor    ProcessorFunc
	opts         queue.Options
	limiter      *rate.Limiter
	logger       *slog.Logger
	pollInterval time.Duration

	sem      chan struct{}
	stopCh   chan struct{}
	stopOnce sync.Once
	inflight sync.WaitGroup
	loopDone chan struct{}
}

func newConsumer(queueName string, broker queue.Broker, processor ProcessorFunc, logger *slog.Logger, pollInterval time.Duration) *Consumer {
	opts := queue.OptionsFor(queueName)

	limit := rate.Every(opts.RateLimit.Window / time.Duration(opts.RateLimit.Max))

	return &Consumer{
		queueName:    queueName,
		broker:       broker,
		processor:    processor,
		opts:         opts,
		limiter:      rate.NewLimiter(limit, opts.RateLimit.Max),
		logger:       logger.With(slog.String("queue", queueName)),
		pollInterval: pollInterval,
		sem:          make(chan struct{}, opts.Concurrency),
		stopCh:       make(chan struct{}),
		loopDone:     make(chan struct{}),
	}
}

// start runs the pull loop until close is called
func (c *Consumer) start(ctx context.Context) {
	c.logger.Info("Consumer started",
		slog.Int("concurrency", c.opts.Concurrency),
		slog.Int("rate_max", c.opts.RateLimit.Max),
		slog.Duration("rate_window", c.opts.RateLimit.Window),
	)

	go c.loop(ctx)
}

func (c *Consumer) loop(ctx context.Context) {
	defer close(c.loopDone)

	// ctx carries the shutdown signal and only stops the pull loop. Jobs
	// already dequeued run to completion on a detached context so drain
	// means finishing work, not cancelling it.
	jobCtx := context.WithoutCancel(ctx)

	for {
		// Acquire a concurrency slot before pulling
		select {
		case <-c.stopCh:
			return
		case c.sem <- struct{}{}:
		}

		if err := c.limiter.Wait(ctx); err != nil {
			<-c.sem
			return
		}

		job, err := c.broker.Dequeue(ctx, c.queueName)
		if err != nil {
			<-c.sem
			c.logger.Error("Failed to dequeue job",
				slog.Any("error", err),
			)
			c.sleep()
			continue
		}

		if job == nil {
			<-c.sem
			c.sleep()
			continue
		}

		c.inflight.Add(1)
		go func() {
			defer c.inflight.Done()
			defer func() { <-c.sem }()
			c.process(jobCtx, job)
		}()
	}
}

func (c *Consumer) sleep() {
	select {
	case <-c.stopCh:
	case <-time.After(c.pollInterval):
	}
}

// process executes one job and reports the outcome back to the broker
func (c *Consumer) process(ctx context.Context, job *queue.Job) {
	start := time.Now()

	c.logger.Info("Processing job",
		slog.String("job_id", job.ID),
		slog.String("job_type", job.Type),
		slog.Int("attempt", job.AttemptsMade),
	)

	err := c.execute(ctx, job)

	if err == nil {
		if compErr := c.broker.Complete(ctx, job); compErr != nil {
			c.logger.Error("Failed to record job completion",
				slog.String("job_id", job.ID),
				slog.Any("error", compErr),
			)
		}
		c.logger.Info("Job completed",
			slog.String("job_id", job.ID),
			slog.String("job_type", job.Type),
			slog.Duration("duration", time.Since(start)),
		)
		return
	}

	job.LastError = err.Error()

	// Permanent failures and exhausted attempts are terminal; everything
	// else goes back through the queue's backoff policy.
	if queue.IsPermanent(err) || job.AttemptsExhausted() {
		if failErr := c.broker.MoveToFailed(ctx, job); failErr != nil {
			c.logger.Error("Failed to record job failure",
				slog.String("job_id", job.ID),
				slog.Any("error", failErr),
			)
		}
		c.logger.Error("Job failed permanently",
			slog.String("job_id", job.ID),
			slog.String("job_type", job.Type),
			slog.Int("attempts", job.AttemptsMade),
			slog.Int("max_attempts", job.MaxAttempts),
			slog.Any("error", err),
		)
		return
	}

	delay := job.NextRetryDelay()
	if retryErr := c.broker.Retry(ctx, job, delay); retryErr != nil {
		c.logger.Error("Failed to schedule retry",
			slog.String("job_id", job.ID),
			slog.Any("error", retryErr),
		)
		return
	}

	c.logger.Warn("Job failed, retry scheduled",
		slog.String("job_id", job.ID),
		slog.String("job_type", job.Type),
		slog.Int("attempt", job.AttemptsMade),
		slog.Duration("retry_in", delay),
		slog.Any("error", err),
	)
}

// execute runs the processor with panic recovery so one bad job cannot
// take down the consumer
func (c *Consumer) execute(ctx context.Context, job *queue.Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("processor panic: %v", r)
		}
	}()
	return c.processor(ctx, job)
}

// close stops pulling new jobs and waits for in-flight jobs to finish
func (c *Consumer) close() {
	c.stopOnce.Do(func() {
		close(c.stopCh)
	})
	<-c.loopDone
	c.inflight.Wait()

	c.logger.Info("Consumer closed")
}
