package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/shoplio/review-backend/internal/config"
	"github.com/shoplio/review-backend/internal/queue"
	"github.com/shoplio/review-backend/internal/rating"
	"github.com/shoplio/review-backend/shared/logger"
	"github.com/shoplio/review-backend/shared/postgresql"
	sharedredis "github.com/shoplio/review-backend/shared/redis"
)

// One-shot backfill: enqueues a rating recompute for every product that has
// published reviews.
func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "calculate-ratings: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	configPath := flag.String("config", "configs/worker-service/config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if err := cfg.ValidateBatch(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log, err := logger.New(&logger.Config{
		Level:        cfg.Logging.Level,
		Format:       cfg.Logging.Format,
		Output:       cfg.Logging.Output,
		EnableSource: cfg.Logging.EnableSource,
	})
	if err != nil {
		return err
	}

	pg, err := postgresql.NewClient(&postgresql.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		Database:        cfg.Database.Database,
		SSLMode:         cfg.Database.SSLMode,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, log.Logger)
	if err != nil {
		return fmt.Errorf("failed to connect to postgresql: %w", err)
	}
	defer pg.Close()

	redisClient, err := sharedredis.NewClient(&sharedredis.Config{
		Host:           cfg.Redis.Host,
		Port:           cfg.Redis.Port,
		Password:       cfg.Redis.Password,
		DB:             cfg.Redis.DB,
		MaxIdle:        cfg.Redis.MaxIdle,
		MaxActive:      cfg.Redis.MaxActive,
		IdleTimeout:    cfg.Redis.IdleTimeout,
		ConnectTimeout: cfg.Redis.ConnectTimeout,
		RetryAttempts:  cfg.Redis.RetryAttempts,
		RetryInterval:  cfg.Redis.RetryInterval,
	}, log.Logger)
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	defer redisClient.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	broker := queue.NewRedisBroker(redisClient, log.Logger)
	jobQueue := queue.New(broker, log.Logger)
	backfiller := rating.NewBackfiller(rating.NewSQLStore(pg.GetDB()), jobQueue, log.Logger)

	count, err := backfiller.Run(ctx)
	if err != nil {
		return err
	}

	log.Info("Backfill finished", slog.Int("jobs_enqueued", count))
	return nil
}
