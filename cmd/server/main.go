// Package main is the entry point for the serio API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"serio/internal/core/security"
	"serio/internal/domain/auth"
	"serio/internal/domain/invoicing"
	"serio/internal/domain/series"
	v1 "serio/internal/infrastructure/http/v1"
	"serio/internal/infrastructure/http/v1/handlers"
	"serio/internal/infrastructure/storage/memory"
	"serio/internal/infrastructure/storage/postgres"
	"serio/pkg/logger"
)

func main() {
	// Initialize logger
	log, err := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Development: getEnv("APP_ENV", "development") == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	log.Info("starting serio server")

	seriesCfg := series.DefaultConfig(
		getEnv("SERIES_PREFIX", "INV"),
		getEnv("SERIES_PERIOD", fmt.Sprintf("%d", time.Now().Year())),
	)

	// --- Storage ---
	var (
		store   series.Store
		pinger  handlers.Pinger
		archive *postgres.ArchiveService
		opRepo  auth.Repository
	)

	storeKind := getEnv("STORE", "postgres")
	switch storeKind {
	case "memory":
		log.Info("using in-memory store")
		store = memory.New(seriesCfg)
		opRepo = memory.NewOperatorRepo()

	case "postgres":
		dsn := mustEnv("DATABASE_URL")
		pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(dsn))
		if err != nil {
			log.Fatalw("failed to connect to database", "error", err)
		}
		log.Info("database connection established")

		seriesStore := postgres.NewSeriesStore(pool)
		if _, err := seriesStore.Load(ctx); errors.Is(err, postgres.ErrNoSeries) {
			log.Infow("initializing series", "prefix", seriesCfg.Prefix, "period", seriesCfg.FiscalPeriod)
			if err := seriesStore.Init(ctx, seriesCfg); err != nil {
				log.Fatalw("failed to initialize series", "error", err)
			}
		} else if err != nil {
			log.Fatalw("failed to load series state", "error", err)
		}

		txManager := postgres.NewTxManager(pool)
		archive, err = postgres.NewArchiveService(txManager)
		if err != nil {
			log.Fatalw("failed to create archive service", "error", err)
		}

		store = seriesStore
		pinger = pool
		opRepo = postgres.NewOperatorRepo(pool)

	default:
		log.Fatalw("unknown STORE value", "store", os.Getenv("STORE"))
	}

	// --- Allocation service ---
	holdMonths := getEnvInt("RESERVATION_HOLD_MONTHS", series.DefaultHoldMonths)
	allocService, err := series.NewService(ctx, store, log, series.ServiceOptions{HoldMonths: holdMonths})
	if err != nil {
		log.Fatalw("failed to build allocation service", "error", err)
	}

	// --- Expiry sweeper ---
	sweepInterval := getEnvDuration("SWEEP_INTERVAL", series.DefaultSweepInterval)
	sweeper := series.NewSweeper(allocService, sweepInterval, log)
	sweeper.Start(ctx)
	defer sweeper.Stop()

	// --- JWT and auth ---
	jwtSecret := getEnv("JWT_SECRET", "your-secret-key-change-in-production")
	jwtService := auth.NewJWTService(auth.DefaultJWTConfig(jwtSecret))
	authService := auth.NewService(opRepo, jwtService)

	// The in-memory store starts empty; bootstrap a dev admin so the
	// dashboard has someone to log in as.
	if storeKind == "memory" {
		email := getEnv("ADMIN_EMAIL", "admin@serio.local")
		password := getEnv("ADMIN_PASSWORD", "Admin123!")
		if _, err := authService.CreateOperator(ctx, email, "Administrator", password, []string{auth.RoleAdmin}, true); err != nil {
			log.Fatalw("failed to bootstrap admin operator", "error", err)
		}
		log.Infow("dev admin operator created", "email", email)
	}

	// --- Action policy ---
	policy := security.MustDefaultPolicy()
	if rule := os.Getenv("ACTION_POLICY"); rule != "" {
		policy, err = security.NewActionPolicy(rule)
		if err != nil {
			log.Fatalw("invalid ACTION_POLICY", "error", err)
		}
	}

	// --- Invoicing workflow ---
	var archiver invoicing.Archiver
	if archive != nil {
		archiver = archive
	}
	rates := invoicing.DefaultRates()
	workflow := invoicing.NewWorkflow(allocService, archiver, rates, log)

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Logger:       log,
		JWTValidator: jwtService,
		AuthService:  authService,
		Series:       allocService,
		Workflow:     workflow,
		Archive:      archive,
		Policy:       policy,
		HealthPinger: pinger,
	})

	// --- HTTP Server ---
	port := getEnv("APP_PORT", "8080")
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	sweeper.Stop()
	if err := allocService.Close(shutdownCtx); err != nil {
		log.Warnw("failed to close store", "error", err)
	}

	log.Info("server stopped")
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

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
