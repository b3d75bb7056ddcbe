package middleware

import (
	"taskmanagement/pkg/config"
	"taskmanagement/pkg/tracing"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// HealthPath is served over plain HTTP even when HTTPS is enforced.
const HealthPath = "/health"

// SetupGinMiddlewareWithConfig installs the global middleware chain. The
// response cache is mounted on the task routes, after authentication.
func SetupGinMiddlewareWithConfig(router *gin.Engine, metrics *tracing.AppMetrics, logger *config.LokiLogger, cfg *config.AppConfig) {
	if cfg.EnforceHTTPS {
		router.Use(RequireHTTPS(logger, HealthPath))
	}

	router.Use(otelgin.Middleware(cfg.ServiceName))

	router.Use(CurrentMiddleware())
	router.Use(LoggingMiddleware(logger))

	if cfg.RateLimitEnabled {
		rateLimiter := NewRateLimiter(logger.Logger.Logger, metrics, cfg.RateLimitConfigs)
		router.Use(rateLimiter.RateLimitMiddleware())
	}

	if metrics != nil {
		router.Use(MetricsMiddleware(metrics))
	}
}
