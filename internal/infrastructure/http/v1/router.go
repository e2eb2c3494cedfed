// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"serio/internal/core/security"
	"serio/internal/domain/auth"
	"serio/internal/domain/invoicing"
	"serio/internal/domain/series"
	"serio/internal/infrastructure/http/v1/handlers"
	"serio/internal/infrastructure/http/v1/middleware"
	"serio/internal/infrastructure/storage/postgres"
	"serio/pkg/logger"
)

// RouterConfig holds router dependencies.
type RouterConfig struct {
	// Logger for request logging
	Logger *logger.Logger

	// JWTValidator for token validation
	JWTValidator middleware.JWTValidator

	// AuthService for the login endpoint
	AuthService *auth.Service

	// Series is the numbering series allocation service
	Series *series.Service

	// Workflow creates and numbers invoices
	Workflow *invoicing.Workflow

	// Archive serves finalized document snapshots; nil disables the
	// archive endpoints (in-memory mode)
	Archive *postgres.ArchiveService

	// Policy gates series mutations per operator
	Policy *security.ActionPolicy

	// HealthPinger checks the backing store; nil means in-memory
	HealthPinger handlers.Pinger
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Health endpoints (no auth required)
	healthHandler := handlers.NewHealthHandler(cfg.HealthPinger)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
	}

	baseHandler := handlers.NewBaseHandler()

	// API v1
	api := router.Group("/api/v1")
	{
		// Public auth endpoints
		if cfg.AuthService != nil {
			authHandler := handlers.NewAuthHandler(baseHandler, cfg.AuthService)
			api.POST("/auth/login", authHandler.Login)
		}

		// Protected endpoints
		protected := api.Group("")
		protected.Use(middleware.Auth(cfg.JWTValidator))

		registerSeriesRoutes(protected, baseHandler, cfg)
		registerInvoiceRoutes(protected, baseHandler, cfg)
		registerArchiveRoutes(protected, baseHandler, cfg)
	}

	return router
}

// registerSeriesRoutes registers numbering series endpoints.
func registerSeriesRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	handler := handlers.NewSeriesHandler(base, cfg.Series)

	sg := rg.Group("/series")
	{
		sg.GET("", handler.Get)
		sg.GET("/next", handler.Next)
		sg.GET("/history", handler.History)
		sg.POST("/skips", middleware.RequireAction(cfg.Policy, security.ActionSkip), handler.Skip)
		sg.POST("/reservations", middleware.RequireAction(cfg.Policy, security.ActionReserve), handler.Reserve)
		sg.DELETE("/reservations/:number", middleware.RequireAction(cfg.Policy, security.ActionRelease), handler.Release)
	}
}

// registerInvoiceRoutes registers invoice endpoints.
func registerInvoiceRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	if cfg.Workflow == nil {
		return
	}

	handler := handlers.NewInvoiceHandler(base, cfg.Workflow)
	rg.POST("/invoices", middleware.RequireAction(cfg.Policy, security.ActionIssue), handler.Create)
}

// registerArchiveRoutes registers archive endpoints.
func registerArchiveRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	if cfg.Archive == nil {
		return
	}

	handler := handlers.NewArchiveHandler(base, cfg.Archive)
	rg.GET("/archive/:id", handler.Get)
}
