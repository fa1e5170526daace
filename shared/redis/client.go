package redis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gomodule/redigo/redis"
)

// Config holds Redis connection configuration
type Config struct {
	Host           string
	Port           int
	Password       string
	DB             int
	MaxIdle        int
	MaxActive      int
	IdleTimeout    time.Duration
	ConnectTimeout time.Duration
	RetryAttempts  int
	RetryInterval  time.Duration
}

// Client wraps a redigo connection pool
type Client struct {
	pool   *redis.Pool
	config *Config
	logger *slog.Logger
}

// NewClient creates a Redis client and verifies connectivity with retry
func NewClient(config *Config, logger *slog.Logger) (*Client, error) {
	addr := fmt.Sprintf("%s:%d", config.Host, config.Port)

	dialOpts := []redis.DialOption{
		redis.DialDatabase(config.DB),
		redis.DialConnectTimeout(config.ConnectTimeout),
	}
	if config.Password != "" {
		dialOpts = append(dialOpts, redis.DialPassword(config.Password))
	}

	pool := &redis.Pool{
		MaxIdle:     config.MaxIdle,
		MaxActive:   config.MaxActive,
		IdleTimeout: config.IdleTimeout,
		Wait:        true,
		Dial: func() (redis.Conn, error) {
			return redis.Dial("tcp", addr, dialOpts...)
		},
		TestOnBorrow: func(c redis.Conn, t time.Time) error {
			if time.Since(t) < time.Minute {
				return nil
			}
			_, err := c.Do("PING")
			return err
		},
	}

	client := &Client{pool: pool, config: config, logger: logger}

	attempts := config.RetryAttempts
	if attempts <= 0 {
		attempts = 1
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		logger.Info("Connecting to Redis",
			slog.String("addr", addr),
			slog.Int("db", config.DB),
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", attempts),
		)

		err = client.Ping(context.Background())
		if err == nil {
			logger.Info("Successfully connected to Redis")
			return client, nil
		}

		logger.Error("Failed to connect to Redis",
			slog.Any("error", err),
			slog.Int("attempt", attempt),
		)

		if attempt < attempts {
			time.Sleep(config.RetryInterval)
		}
	}

	pool.Close()
	return nil, fmt.Errorf("failed to connect to Redis after %d attempts: %w", attempts, err)
}

// Get returns a connection from the pool. The caller must close it.
func (c *Client) Get() redis.Conn {
	return c.pool.Get()
}

// Ping verifies the connection to Redis
func (c *Client) Ping(ctx context.Context) error {
	conn, err := c.pool.GetContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to get connection: %w", err)
	}
	defer conn.Close()

	if _, err := conn.Do("PING"); err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}
	return nil
}

// Close closes the connection pool
func (c *Client) Close() error {
	c.logger.Info("Closing Redis connection pool")

	if err := c.pool.Close(); err != nil {
		c.logger.Error("Failed to close Redis connection pool",
			slog.Any("error", err),
		)
		return err
	}
	return nil
}

// Stats returns pool statistics for logging
func (c *Client) Stats() string {
	stats := c.pool.Stats()
	return fmt.Sprintf("ActiveCount: %d, IdleCount: %d, WaitCount: %d",
		stats.ActiveCount, stats.IdleCount, stats.WaitCount)
}
