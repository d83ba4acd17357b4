package http

import (
	"github.com/gin-gonic/gin"

	"github.com/barcodelens/backend/config"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(RecoveryMiddleware())
	router.Use(LoggerMiddleware())
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	// Health check endpoint
	router.GET("/health", handler.HealthCheck)

	// Streaming detection protocol
	router.GET("/ws/scan", handler.ScanSocket)

	// REST surface
	api := router.Group("/api")
	api.Use(RateLimitMiddleware(cfg.RateLimit.PerIP))
	{
		api.POST("/scan-frame", handler.ScanFrame)
		api.GET("/categories", handler.Categories)
		api.GET("/products/category", handler.ProductsByCategory)
		api.GET("/search", handler.Search)
		api.GET("/stats", handler.Stats)
		api.GET("/history", handler.History)
	}

	return router
}
