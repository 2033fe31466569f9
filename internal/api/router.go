package api

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jafarshop/wmsbridge/internal/api/handlers"
	"github.com/jafarshop/wmsbridge/internal/api/middleware"
	"github.com/jafarshop/wmsbridge/internal/config"
	"github.com/jafarshop/wmsbridge/internal/repository"
)

// NewRouter creates and configures the Gin router
func NewRouter(cfg *config.Config, repos *repository.Repositories, drainer handlers.Drainer, hooks handlers.Hooks, logger *zap.Logger) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Middleware
	router.Use(gin.Recovery())
	router.Use(loggingMiddleware(logger))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// API v1 routes
	v1 := router.Group("/v1")
	{
		// Webhook ingress (HMAC-authenticated per request, no API key)
		v1.POST("/webhooks/wms", handlers.HandleWMSWebhook(cfg.WMS.WebhookSecret, repos, drainer, logger))

		// Storefront order events, API-key authenticated like the admin
		// surface. This is the single place the hooks are wired to an
		// event source.
		events := v1.Group("/events")
		events.Use(middleware.AdminAuthMiddleware(cfg.Admin.APIKeyHash, logger))
		{
			events.POST("/orders", handlers.HandleOrderEvent(repos, hooks, logger))
		}

		// Admin routes
		adminRoutes := v1.Group("/admin")
		adminRoutes.Use(middleware.AdminAuthMiddleware(cfg.Admin.APIKeyHash, logger))
		{
			adminRoutes.GET("/orders/:id/sync", handlers.HandleOrderSyncStatus(repos, logger))
			adminRoutes.POST("/orders/:id/export", handlers.HandleForceExport(repos, logger))
			adminRoutes.GET("/queue", handlers.HandleListQueue(repos, logger))
			adminRoutes.POST("/queue/:id/retry", handlers.HandleRetryQueueItem(repos, logger))
			adminRoutes.GET("/exports/failed", handlers.HandleListFailedExports(repos, logger))
		}
	}

	return router
}

// loggingMiddleware logs HTTP requests. Each request gets a correlation id,
// echoed in the X-Request-Id response header, so a log line can be matched to
// the caller's retry reports.
func loggingMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		method := c.Request.Method

		requestID := c.GetHeader("X-Request-Id")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Writer.Header().Set("X-Request-Id", requestID)

		c.Next()

		status := c.Writer.Status()
		logger.Info("HTTP request",
			zap.String("request_id", requestID),
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", status),
		)
	}
}
