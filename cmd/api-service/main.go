package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/shoplio/review-backend/internal/api/handler"
	"github.com/shoplio/review-backend/internal/api/router"
	"github.com/shoplio/review-backend/internal/api/storage"
	"github.com/shoplio/review-backend/internal/config"
	"github.com/shoplio/review-backend/internal/queue"
	"github.com/shoplio/review-backend/shared/logger"
	"github.com/shoplio/review-backend/shared/postgresql"
	sharedredis "github.com/shoplio/review-backend/shared/redis"
)

const defaultShutdownTimeout = 30 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "api-service: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	configPath := flag.String("config", "configs/api-service/config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if err := cfg.ValidateAPI(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log, err := initLogger(cfg)
	if err != nil {
		return err
	}

	log.Info("Starting API service",
		slog.String("app", cfg.App.Name),
		slog.String("environment", cfg.App.Environment),
	)

	pg, err := initPostgreSQL(cfg, log.Logger)
	if err != nil {
		return err
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

	broker := queue.NewRedisBroker(redisClient, log.Logger)
	jobQueue := queue.New(broker, log.Logger)

	db := pg.GetDB()
	customerStorage := storage.NewCustomerStorage(db)
	productStorage := storage.NewProductStorage(db)
	reviewStorage := storage.NewReviewStorage(db)

	engine := router.New(&router.Config{
		Logger:    log.Logger,
		GinMode:   cfg.Server.GinMode,
		Customers: handler.NewCustomerHandler(customerStorage, log.Logger),
		Products:  handler.NewProductHandler(productStorage, reviewStorage, log.Logger),
		Reviews: handler.NewReviewHandler(&handler.ReviewHandlerConfig{
			Reviews:   reviewStorage,
			Products:  productStorage,
			Customers: customerStorage,
			Queue:     jobQueue,
			Logger:    log.Logger,
		}),
		Health: handler.NewHealthHandler(pg, broker, log.Logger),
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		log.Info("Shutdown signal received")
	}

	shutdownTimeout := cfg.Server.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = defaultShutdownTimeout
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("API service stopped")
	return nil
}

func initLogger(cfg *config.Config) (*logger.Logger, error) {
	return logger.New(&logger.Config{
		Level:        cfg.Logging.Level,
		Format:       cfg.Logging.Format,
		Output:       cfg.Logging.Output,
		EnableSource: cfg.Logging.EnableSource,
	})
}

func initPostgreSQL(cfg *config.Config, log *slog.Logger) (*postgresql.Client, error) {
	client, err := postgresql.NewClient(&postgresql.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		Database:        cfg.Database.Database,
		SSLMode:         cfg.Database.SSLMode,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgresql: %w", err)
	}
	return client, nil
}
