package api

import (
	"github.com/gin-gonic/gin"

	"github.com/stitts-dev/line-sim/services/simulation-service/internal/api/handlers"
	"github.com/stitts-dev/line-sim/services/simulation-service/internal/middleware"
	"github.com/stitts-dev/line-sim/services/simulation-service/internal/websocket"
	"github.com/stitts-dev/line-sim/shared/pkg/config"
)

// NewRouter wires the simulation service routes. hub may be nil, in which
// case the progress stream is not mounted.
func NewRouter(
	cfg *config.Config,
	simulationHandler *handlers.SimulationHandler,
	healthHandler *handlers.HealthHandler,
	hub *websocket.Hub,
) *gin.Engine {
	router := gin.New()
	router.Use(middleware.RequestLogger(), gin.Recovery(), middleware.CORS(cfg.CorsOrigins))

	apiV1 := router.Group("/api/v1", middleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst))
	{
		apiV1.POST("/simulate", simulationHandler.RunSimulation)
		apiV1.POST("/simulate/slate", simulationHandler.RunSlate)
		apiV1.GET("/simulate/cache-status", simulationHandler.GetCacheStatus)
		apiV1.DELETE("/simulate/cache", simulationHandler.FlushCache)
		apiV1.GET("/simulate/:id/results", simulationHandler.GetSimulationResults)

		apiV1.POST("/stats/sanitize", simulationHandler.SanitizeStats)
		apiV1.GET("/weights/default", simulationHandler.GetDefaultWeights)
	}

	if hub != nil {
		router.GET("/ws/simulation-progress/:user_id", hub.HandleWebSocket)
	}

	router.GET("/health", healthHandler.GetHealth)
	router.GET("/ready", healthHandler.GetReady)

	return router
}
