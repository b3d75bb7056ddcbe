package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"taskmanagement/internal/adapter/cache/memory"
	"taskmanagement/internal/adapter/cache/redis"
	"taskmanagement/internal/adapter/database"
	"taskmanagement/internal/adapter/database/postgres"
	"taskmanagement/internal/adapter/database/repository"
	"taskmanagement/internal/adapter/database/sqlite"
	"taskmanagement/internal/adapter/http/handler"
	"taskmanagement/internal/adapter/http/middleware"
	"taskmanagement/internal/core/port"
	"taskmanagement/internal/core/telemetry"
	"taskmanagement/pkg/auth"
	"taskmanagement/pkg/config"
	"taskmanagement/pkg/tracing"
)

type Container struct {
	DB        *database.DB
	Telemetry port.Telemetry

	Cache         port.CacheRepository
	ResponseCache *middleware.ResponseCache

	JWT *auth.JWT

	TaskHandler *handler.TaskHandler
}

// NewContainer opens the configured storage and cache backends and builds
// the handlers on top of them.
func NewContainer(ctx context.Context, cfg *config.AppConfig, logger *config.LokiLogger, metrics *tracing.AppMetrics) (*Container, error) {
	db, err := openDatabase(ctx, cfg)
	if err != nil {
		return nil, err
	}

	container := &Container{
		DB:        db,
		Telemetry: telemetry.NewOTELProbe(slog.Default(), metrics),
	}

	if cfg.SeedData {
		added, err := repository.SeedTodoItems(ctx, repository.NewUnitOfWork(db, container.Telemetry), time.Now())
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("seed tasks: %w", err)
		}

		slog.Info("Seed data applied", "tasks_added", added)
	}

	var invalidator handler.CacheInvalidator

	if cfg.CacheEnabled {
		cache, err := openCache(ctx, cfg)
		if err != nil {
			db.Close()
			return nil, err
		}

		container.Cache = cache
		container.ResponseCache = middleware.NewResponseCache(cache, logger.Logger.Logger, metrics, cacheConfigs(cfg))
		invalidator = container.ResponseCache
	}

	if cfg.AuthEnabled {
		container.JWT = auth.NewJWT(cfg.JWTSecret)
	}

	container.TaskHandler = handler.NewTaskHandler(db, container.Telemetry, invalidator, logger)

	return container, nil
}

func (c *Container) Close() error {
	var errs []error

	if c.Cache != nil {
		errs = append(errs, c.Cache.Close())
	}

	errs = append(errs, c.DB.Close())

	return errors.Join(errs...)
}

func openDatabase(ctx context.Context, cfg *config.AppConfig) (*database.DB, error) {
	switch cfg.Database.Driver {
	case "postgres":
		return postgres.NewDB(ctx, postgres.Config{
			URL:        cfg.Database.URL,
			DBName:     cfg.ServiceName,
			LogQueries: cfg.Database.LogQueries,
		})
	default:
		return sqlite.NewDB(sqlite.Config{
			Path:       cfg.Database.Path,
			DBName:     cfg.ServiceName,
			LogQueries: cfg.Database.LogQueries,
		})
	}
}

func openCache(ctx context.Context, cfg *config.AppConfig) (port.CacheRepository, error) {
	switch cfg.CacheBackend {
	case "redis":
		return redis.NewRedisRepository(ctx, redis.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	default:
		return memory.NewMemoryRepository(cfg.CacheTTL), nil
	}
}

// cacheConfigs applies CacheTTL to routes that do not set their own TTL.
func cacheConfigs(cfg *config.AppConfig) map[string]config.CacheConfig {
	configs := make(map[string]config.CacheConfig, len(cfg.CacheConfigs))

	for route, routeConfig := range cfg.CacheConfigs {
		if routeConfig.TTL <= 0 {
			routeConfig.TTL = cfg.CacheTTL
		}

		configs[route] = routeConfig
	}

	return configs
}
