package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"taskmanagement/internal/adapter/http/routes"
	"taskmanagement/pkg/config"
	"taskmanagement/pkg/tracing"
)

const shutdownTimeout = 10 * time.Second

// StartServer serves the API until ctx is cancelled, then drains in-flight
// requests and releases the container.
func StartServer(ctx context.Context, cfg *config.AppConfig, metrics *tracing.AppMetrics, logger *config.LokiLogger) error {
	container, err := NewContainer(ctx, cfg, logger, metrics)
	if err != nil {
		return err
	}

	defer container.Close()

	router := routes.SetupRouterWithConfig(routes.HandlersConfig{
		TaskHandler:   container.TaskHandler,
		DB:            container.DB,
		Telemetry:     container.Telemetry,
		ResponseCache: container.ResponseCache,
		JWT:           container.JWT,
	}, metrics, logger, cfg)

	slog.Info("Server starting",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"database_driver", cfg.Database.Driver,
		"cache_enabled", cfg.CacheEnabled,
		"rate_limit_enabled", cfg.RateLimitEnabled,
		"https_enforced", cfg.EnforceHTTPS,
		"auth_enabled", cfg.AuthEnabled)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	serverErr := make(chan error, 1)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		slog.Error("Server failed to start", "error", err)
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}
