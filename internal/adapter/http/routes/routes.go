package routes

import (
	"net/http"
	"time"

	"taskmanagement/internal/adapter/database"
	"taskmanagement/internal/adapter/http/handler"
	"taskmanagement/internal/adapter/http/middleware"
	"taskmanagement/internal/core/port"
	"taskmanagement/pkg/auth"
	"taskmanagement/pkg/config"
	"taskmanagement/pkg/tracing"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type HandlersConfig struct {
	TaskHandler *handler.TaskHandler

	DB        *database.DB
	Telemetry port.Telemetry

	// ResponseCache is nil when response caching is disabled.
	ResponseCache *middleware.ResponseCache

	// JWT protects the task routes when set.
	JWT *auth.JWT
}

func SetupRouterWithConfig(handlers HandlersConfig, metrics *tracing.AppMetrics, logger *config.LokiLogger, cfg *config.AppConfig) *gin.Engine {
	if gin.Mode() == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	middleware.SetupGinMiddlewareWithConfig(router, metrics, logger, cfg)

	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	setupRoutes(router, handlers)

	return router
}

func setupRoutes(router *gin.Engine, handlers HandlersConfig) {
	if handlers.TaskHandler == nil {
		return
	}

	router.GET(middleware.HealthPath, handlers.TaskHandler.Health)

	tasks := router.Group("/task")
	tasks.Use(middleware.UnitOfWorkMiddleware(handlers.DB, handlers.Telemetry))

	if handlers.JWT != nil {
		tasks.Use(auth.GinJwtMiddleware(handlers.JWT))
	}

	if handlers.ResponseCache != nil {
		tasks.Use(handlers.ResponseCache.CacheMiddleware())
	}

	{
		tasks.GET("", handlers.TaskHandler.GetAll)
		tasks.GET("/completedTasks", handlers.TaskHandler.GetCompleted)
		tasks.GET("/:id", handlers.TaskHandler.GetByID)
		tasks.POST("", handlers.TaskHandler.Create)
		tasks.POST("/completeTasks", handlers.TaskHandler.CompleteTasks)
		tasks.PUT("/:id", handlers.TaskHandler.Update)
		tasks.PUT("/:id/complete", handlers.TaskHandler.Complete)
		tasks.DELETE("/:id", handlers.TaskHandler.Delete)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions,
		},
		AllowHeaders: []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders: []string{
			middleware.RequestIDHeader, "X-Cache", "X-Cache-Age",
			"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset",
		},
		MaxAge: 12 * time.Hour,
	})
}

// SetupRouterForTests skips the telemetry and rate limit middleware.
func SetupRouterForTests(handlers HandlersConfig) *gin.Engine {
	gin.SetMode(gin.TestMode)

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.CurrentMiddleware())
	router.Use(corsMiddleware())

	setupRoutes(router, handlers)

	return router
}
