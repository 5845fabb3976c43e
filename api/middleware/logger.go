package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/placerank/logger"
)

// Logger logs one line per request through zerolog instead of gin's text
// logger.
func Logger() gin.HandlerFunc {
	log := logger.For("http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		ev := log.Info()
		if c.Writer.Status() >= 500 {
			ev = log.Warn()
		}
		ev.Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Str("client", c.ClientIP()).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	}
}
