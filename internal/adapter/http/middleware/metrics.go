package middleware

import (
	"time"

	"taskmanagement/pkg/tracing"

	"github.com/gin-gonic/gin"
)

func MetricsMiddleware(metrics *tracing.AppMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		defer metrics.TrackInFlight(c.Request.Context())()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		metrics.RecordRequest(
			c.Request.Context(),
			c.Request.Method,
			path,
			c.Writer.Status(),
			time.Since(start),
		)
	}
}
