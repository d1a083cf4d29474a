package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/NunoFAntunes/realtor-buddy/internal/config"
	"github.com/NunoFAntunes/realtor-buddy/internal/logger"
)

// NewRouter wires middleware and routes.
func NewRouter(cfg *config.Config, search *SearchHandler, health *HealthHandler, log *zap.Logger) *gin.Engine {
	log = logger.OrNop(log)

	router := gin.New()
	router.Use(gin.Recovery(), RequestID(), AccessLog(log), Metrics(), CORS(cfg.Server))

	api := router.Group("/api")
	{
		api.POST("/search", RateLimit(cfg.RateLimit), search.Search)
		api.GET("/search/examples", search.Examples)
		api.GET("/health", health.Check)
		api.GET("/health/database", health.Database)
		api.GET("/health/llm", health.Generator)
	}
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return router
}
