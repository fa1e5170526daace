package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shoplio/review-backend/internal/queue"
)

const defaultPollInterval = 500 * time.Millisecond

// Config holds supervisor configuration
type Config struct {
	Broker       queue.Broker
	Logger       *slog.Logger
	PollInterval time.Duration
}

// Supervisor owns one consumer per registered queue and their lifecycle:
// created, ready (broker reachable), running, closing (graceful drain),
// closed.
type Supervisor struct {
	broker       queue.Broker
	logger       *slog.Logger
	pollInterval time.Duration
	consumers    []*Consumer
	started      bool
}

// NewSupervisor creates a supervisor with no consumers registered
func NewSupervisor(cfg *Config) *Supervisor {
	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}

	return &Supervisor{
		broker:       cfg.Broker,
		logger:       cfg.Logger,
		pollInterval: pollInterval,
	}
}

// Register adds a consumer for a queue. Must be called before Start.
func (s *Supervisor) Register(queueName string, processor ProcessorFunc) {
	s.consumers = append(s.consumers,
		newConsumer(queueName, s.broker, processor, s.logger, s.pollInterval))
}

// Start blocks until the broker connection is confirmed, then starts every
// registered consumer.
func (s *Supervisor) Start(ctx context.Context) error {
	if len(s.consumers) == 0 {
		return fmt.Errorf("no queues registered")
	}

	if err := s.waitUntilReady(ctx); err != nil {
		return err
	}

	for _, c := range s.consumers {
		c.start(ctx)
	}
	s.started = true

	s.logger.Info("All workers are ready and processing jobs",
		slog.Int("queues", len(s.consumers)),
	)
	return nil
}

// waitUntilReady pings the broker until it answers or ctx expires
func (s *Supervisor) waitUntilReady(ctx context.Context) error {
	for {
		err := s.broker.Ping(ctx)
		if err == nil {
			return nil
		}

		s.logger.Warn("Broker not ready, waiting",
			slog.Any("error", err),
		)

		select {
		case <-ctx.Done():
			return fmt.Errorf("broker never became ready: %w", err)
		case <-time.After(time.Second):
		}
	}
}

// Close shuts down every consumer concurrently and waits for all of them.
// In-flight jobs are allowed to finish; no new jobs are pulled.
func (s *Supervisor) Close() {
	if !s.started {
		return
	}

	s.logger.Info("Shutting down workers, draining in-flight jobs")

	var wg sync.WaitGroup
	for _, c := range s.consumers {
		wg.Add(1)
		go func(c *Consumer) {
			defer wg.Done()
			c.close()
		}(c)
	}
	wg.Wait()

	s.logger.Info("All workers closed")
}
