package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/stitts-dev/line-sim/shared/types"
)

const serviceName = "simulation-service"

// HealthHandler handles health check endpoints for the simulation service
type HealthHandler struct {
	redis     *redis.Client
	logger    *logrus.Logger
	startTime time.Time
}

// NewHealthHandler creates a new health handler. redis may be nil when the
// service runs without a cache.
func NewHealthHandler(redis *redis.Client, logger *logrus.Logger) *HealthHandler {
	return &HealthHandler{
		redis:     redis,
		logger:    logger,
		startTime: time.Now(),
	}
}

// GetHealth reports liveness. A failing cache degrades the service but
// simulations still run.
func (h *HealthHandler) GetHealth(c *gin.Context) {
	response := types.HealthStatus{
		Status:    "ok",
		Service:   serviceName,
		Timestamp: time.Now(),
		Checks: map[string]string{
			"uptime": time.Since(h.startTime).Round(time.Second).String(),
		},
	}

	switch {
	case h.redis == nil:
		response.Checks["redis"] = "not_configured"
	case h.redis.Ping(c.Request.Context()).Err() != nil:
		response.Status = "degraded"
		response.Checks["redis"] = "failed"
	default:
		response.Checks["redis"] = "ok"
	}

	c.JSON(http.StatusOK, response)
}

// GetReady reports readiness. The cache must answer when one is configured.
func (h *HealthHandler) GetReady(c *gin.Context) {
	response := types.HealthStatus{
		Status:    "ready",
		Service:   serviceName,
		Timestamp: time.Now(),
		Checks:    make(map[string]string),
	}

	if h.redis == nil {
		response.Checks["redis"] = "not_configured"
	} else if err := h.redis.Ping(c.Request.Context()).Err(); err != nil {
		h.logger.WithError(err).Warn("Readiness check failed: redis unavailable")
		response.Status = "not_ready"
		response.Checks["redis"] = "failed: " + err.Error()
	} else {
		response.Checks["redis"] = "ok"
	}

	statusCode := http.StatusOK
	if response.Status != "ready" {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, response)
}
