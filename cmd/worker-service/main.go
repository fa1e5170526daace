package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/shoplio/review-backend/internal/config"
	"github.com/shoplio/review-backend/internal/notifier"
	"github.com/shoplio/review-backend/internal/queue"
	"github.com/shoplio/review-backend/internal/rating"
	"github.com/shoplio/review-backend/internal/thumbnail"
	"github.com/shoplio/review-backend/internal/worker"
	"github.com/shoplio/review-backend/shared/logger"
	"github.com/shoplio/review-backend/shared/objectstore"
	"github.com/shoplio/review-backend/shared/postgresql"
	sharedredis "github.com/shoplio/review-backend/shared/redis"
)

const defaultShutdownTimeout = 30 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "worker-service: %v\n", err)
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
	if err := cfg.ValidateWorker(); err != nil {
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

	log.Info("Starting worker service",
		slog.String("app", cfg.App.Name),
		slog.String("environment", cfg.App.Environment),
	)

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

	store, err := objectstore.NewClient(ctx, &objectstore.Config{
		Endpoint:     cfg.ObjectStore.Endpoint,
		Region:       cfg.ObjectStore.Region,
		AccessKey:    cfg.ObjectStore.AccessKey,
		SecretKey:    cfg.ObjectStore.SecretKey,
		Bucket:       cfg.ObjectStore.Bucket,
		CustomDomain: cfg.ObjectStore.CustomDomain,
		UsePathStyle: cfg.ObjectStore.UsePathStyle,
	}, log.Logger)
	if err != nil {
		return fmt.Errorf("failed to create object store client: %w", err)
	}

	sender, err := notifier.NewSMTPSender(&notifier.SMTPConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		User:     cfg.SMTP.User,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
	})
	if err != nil {
		return fmt.Errorf("failed to create mail client: %w", err)
	}

	db := pg.GetDB()
	notifierService := notifier.NewService(sender, cfg.SMTP.AdminEmail, log.Logger)
	aggregator := rating.NewAggregator(rating.NewSQLStore(db), log.Logger)
	extractor := thumbnail.NewExtractor(&thumbnail.Config{
		Downloader: thumbnail.NewHTTPDownloader(cfg.Worker.DownloadTimeout),
		Frames:     &thumbnail.FFmpegExtractor{Binary: cfg.Worker.FFmpegBinary},
		Uploader:   thumbnail.NewObjectStoreUploader(store),
		Reviews:    thumbnail.NewSQLReviewStore(db),
		Logger:     log.Logger,
		TempDir:    cfg.Worker.TempDir,
	})

	broker := queue.NewRedisBroker(redisClient, log.Logger)
	supervisor := worker.NewSupervisor(&worker.Config{
		Broker:       broker,
		Logger:       log.Logger,
		PollInterval: cfg.Worker.PollInterval,
	})

	supervisor.Register(queue.QueueReviewNotifications, notifierService.ProcessReviewNotification)
	supervisor.Register(queue.QueueEmailProcessing, notifierService.ProcessEmail)
	supervisor.Register(queue.QueueRatingCalculation, aggregator.Process)
	supervisor.Register(queue.QueueVideoThumbnail, extractor.Process)

	if err := supervisor.Start(ctx); err != nil {
		return fmt.Errorf("failed to start workers: %w", err)
	}

	<-ctx.Done()
	log.Info("Shutdown signal received, draining workers")

	shutdownTimeout := cfg.Worker.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = defaultShutdownTimeout
	}

	done := make(chan struct{})
	go func() {
		supervisor.Close()
		close(done)
	}()

	select {
	case <-done:
		log.Info("Worker service stopped")
	case <-time.After(shutdownTimeout):
		log.Warn("Shutdown timed out, exiting with jobs in flight")
	}
	return nil
}
