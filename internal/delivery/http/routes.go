package http

import (
	"github.com/gin-gonic/gin"

	"github.com/priceless/backend/config"
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
	router.Use(RateLimitMiddleware(float64(cfg.RateLimit.PerIP), cfg.RateLimit.Burst))

	// Health check endpoint
	router.GET("/health", handler.HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		comparisons := v1.Group("/comparisons")
		{
			comparisons.GET("", handler.ListComparisons)
			comparisons.GET("/:canonicalName", handler.GetComparison)
		}

		v1.GET("/match", handler.MatchProducts)
		v1.GET("/markets/stats", handler.MarketStats)
		v1.GET("/offers/cheapest", handler.CheapestOffers)
	}

	return router
}
