// Package main provides a CLI tool for creating the schema and seeding
// the series and the first admin operator.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"serio/internal/domain/auth"
	"serio/internal/domain/series"
	"serio/internal/infrastructure/storage/postgres"
	"serio/pkg/logger"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS series_config (
		prefix        TEXT NOT NULL,
		fiscal_period TEXT NOT NULL,
		pad_width     INT NOT NULL DEFAULT 5,
		last_issued   BIGINT NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS series_skips (
		number     BIGINT PRIMARY KEY,
		reason     TEXT NOT NULL,
		skipped_by TEXT NOT NULL,
		skipped_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS series_reserves (
		number       BIGINT PRIMARY KEY,
		reserved_for TEXT NOT NULL,
		notes        TEXT NOT NULL DEFAULT '',
		reserved_by  TEXT NOT NULL,
		reserved_at  TIMESTAMPTZ NOT NULL,
		expires_at   TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS series_history (
		id        UUID PRIMARY KEY,
		action    TEXT NOT NULL,
		number    BIGINT NOT NULL,
		actor     TEXT NOT NULL,
		timestamp TIMESTAMPTZ NOT NULL,
		detail    TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS idx_series_history_timestamp ON series_history (timestamp)`,
	`CREATE TABLE IF NOT EXISTS archive_documents (
		id                 UUID PRIMARY KEY,
		document_type      TEXT NOT NULL,
		document_id        TEXT NOT NULL,
		number             TEXT NOT NULL,
		payload            JSONB,
		payload_compressed BYTEA,
		compression_algo   TEXT NOT NULL,
		archived_by        TEXT NOT NULL,
		archived_at        TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS operators (
		id            UUID PRIMARY KEY,
		email         TEXT NOT NULL UNIQUE,
		name          TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		roles         TEXT[] NOT NULL DEFAULT '{}',
		is_admin      BOOLEAN NOT NULL DEFAULT FALSE,
		active        BOOLEAN NOT NULL DEFAULT TRUE,
		created_at    TIMESTAMPTZ NOT NULL
	)`,
}

func main() {
	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(dbURL))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	log.Info("connected to database")

	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			log.Fatalw("failed to create schema", "error", err)
		}
	}
	log.Info("schema ready")

	if err := seedSeries(ctx, pool, log); err != nil {
		log.Fatalw("failed to seed series", "error", err)
	}

	if err := seedAdmin(ctx, pool, log); err != nil {
		log.Fatalw("failed to seed admin operator", "error", err)
	}

	log.Info("seeding completed successfully")
}

func seedSeries(ctx context.Context, pool *postgres.Pool, log *logger.Logger) error {
	store := postgres.NewSeriesStore(pool)

	_, err := store.Load(ctx)
	if err == nil {
		log.Info("series already initialized")
		return nil
	}
	if !errors.Is(err, postgres.ErrNoSeries) {
		return err
	}

	cfg := series.DefaultConfig(
		getEnv("SERIES_PREFIX", "INV"),
		getEnv("SERIES_PERIOD", fmt.Sprintf("%d", time.Now().Year())),
	)
	if err := store.Init(ctx, cfg); err != nil {
		return err
	}

	log.Infow("series initialized", "prefix", cfg.Prefix, "period", cfg.FiscalPeriod)
	return nil
}

func seedAdmin(ctx context.Context, pool *postgres.Pool, log *logger.Logger) error {
	repo := postgres.NewOperatorRepo(pool)

	email := getEnv("ADMIN_EMAIL", "admin@serio.local")
	if _, err := repo.GetByEmail(ctx, email); err == nil {
		log.Infow("admin operator already exists", "email", email)
		return nil
	}

	password := getEnv("ADMIN_PASSWORD", "Admin123!")
	service := auth.NewService(repo, nil)
	op, err := service.CreateOperator(ctx, email, "Administrator", password, []string{auth.RoleAdmin}, true)
	if err != nil {
		return err
	}

	log.Infow("admin operator created", "email", op.Email, "id", op.ID)
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
