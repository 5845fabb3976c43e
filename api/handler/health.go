package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/placerank/models"
)

// Version is reported by the health endpoint.
const Version = "0.1.0"

// BrowserStatser reports the state of the shared browser.
type BrowserStatser interface {
	Stats() models.BrowserStats
}

// Health returns a handler for GET /api/v1/health.
//
// The browser is launched lazily, so "not launched" is healthy. Status is
// degraded once the handle has been released for shutdown.
func Health(strategies []string, bs BrowserStatser, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats := bs.Stats()

		status := "healthy"
		if stats.Refs == 0 {
			status = "degraded"
		}

		c.JSON(http.StatusOK, models.HealthResponse{
			Status:     status,
			Uptime:     time.Since(startTime).Round(time.Second).String(),
			Strategies: strategies,
			Browser:    stats,
			Version:    Version,
		})
	}
}
