// Package main runs the reservation expiry sweeper as a standalone worker.
// Deployments that scale the API server horizontally run one sweeper
// instance instead of the in-process ticker. Each pass reloads the ledger
// from the store, so reservations created by the API servers since the
// previous pass are swept too.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"serio/internal/domain/series"
	"serio/internal/infrastructure/storage/postgres"
	"serio/pkg/logger"
)

func main() {
	log, err := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Development: getEnv("APP_ENV", "development") == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	log.Info("starting serio sweeper")

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(mustEnv("DATABASE_URL")))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	store := postgres.NewSeriesStore(pool)

	if os.Getenv("SWEEP_ONCE") == "true" {
		if err := sweep(ctx, store, log); err != nil {
			log.Fatalw("sweep failed", "error", err)
		}
		log.Info("sweep completed")
		return
	}

	interval := getEnvDuration("SWEEP_INTERVAL", series.DefaultSweepInterval)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	log.Infow("sweeper running", "interval", interval)
	for {
		if err := sweep(ctx, store, log); err != nil {
			log.Errorw("sweep failed", "error", err)
		}
		select {
		case <-quit:
			log.Info("sweeper stopped")
			return
		case <-ticker.C:
		}
	}
}

// sweep loads the current durable state and expires every lapsed hold.
func sweep(ctx context.Context, store series.Store, log *logger.Logger) error {
	svc, err := series.NewService(ctx, store, log, series.ServiceOptions{})
	if err != nil {
		return fmt.Errorf("load series state: %w", err)
	}
	expired, err := svc.ExpireSweep(ctx, time.Now())
	if err != nil {
		return err
	}
	if len(expired) > 0 {
		log.Infow("reservations expired", "count", len(expired))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func mustEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		fmt.Printf("required environment variable %s not set\n", key)
		os.Exit(1)
	}
	return value
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
