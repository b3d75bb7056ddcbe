package middleware

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"taskmanagement/internal/core/port"
	"taskmanagement/pkg/auth"
	"taskmanagement/pkg/config"
	"taskmanagement/pkg/tracing"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const (
	CachePrefix = "cache:"

	// TaskCachePrefix covers every cached /task response.
	TaskCachePrefix = CachePrefix + "/task"
)

type cachedResponse struct {
	Status      int       `json:"status"`
	ContentType string    `json:"content_type"`
	Body        []byte    `json:"body"`
	StoredAt    time.Time `json:"stored_at"`
}

// ResponseCache stores successful GET responses in a port.CacheRepository,
// per route pattern.
type ResponseCache struct {
	store   port.CacheRepository
	config  map[string]config.CacheConfig
	logger  *zap.Logger
	metrics *tracing.AppMetrics
}

func NewResponseCache(store port.CacheRepository, logger *zap.Logger, metrics *tracing.AppMetrics, configs map[string]config.CacheConfig) *ResponseCache {
	routes := make(map[string]config.CacheConfig, len(configs))
	for route, cfg := range configs {
		routes[route] = cfg
	}

	return &ResponseCache{
		store:   store,
		config:  routes,
		logger:  logger,
		metrics: metrics,
	}
}

type responseWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *responseWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *responseWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

func (rc *ResponseCache) configFor(route string) (config.CacheConfig, bool) {
	cfg, ok := rc.config[route]
	return cfg, ok && cfg.Enabled && cfg.TTL > 0
}

func (rc *ResponseCache) CacheMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		route := c.FullPath()
		cfg, ok := rc.configFor(route)

		if !ok {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		key := rc.generateKey(c)

		if cached, found := rc.lookup(ctx, key); found {
			_, span := tracing.CreateChildSpan(ctx, "cache.response.hit", []attribute.KeyValue{
				attribute.String("cache.key", key),
				attribute.String("http.route", route),
			})
			span.End()

			if rc.metrics != nil {
				rc.metrics.RecordCacheLookup(ctx, route, true)
			}

			c.Header("X-Cache", "HIT")
			c.Header("X-Cache-Age", strconv.Itoa(int(time.Since(cached.StoredAt).Seconds())))
			c.Data(cached.Status, cached.ContentType, cached.Body)
			c.Abort()
			return
		}

		_, span := tracing.CreateChildSpan(ctx, "cache.response.miss", []attribute.KeyValue{
			attribute.String("cache.key", key),
			attribute.String("http.route", route),
		})
		span.End()

		if rc.metrics != nil {
			rc.metrics.RecordCacheLookup(ctx, route, false)
		}

		writer := &responseWriter{ResponseWriter: c.Writer, body: &bytes.Buffer{}}
		c.Writer = writer
		c.Header("X-Cache", "MISS")

		c.Next()

		if c.Writer.Status() != http.StatusOK {
			return
		}

		rc.save(ctx, key, cachedResponse{
			Status:      c.Writer.Status(),
			ContentType: c.Writer.Header().Get("Content-Type"),
			Body:        writer.body.Bytes(),
			StoredAt:    time.Now(),
		}, cfg.TTL)
	}
}

func (rc *ResponseCache) lookup(ctx context.Context, key string) (cachedResponse, bool) {
	var cached cachedResponse

	raw, err := rc.store.Get(ctx, key)

	if err != nil {
		if !errors.Is(err, port.ErrCacheMiss) {
			rc.logger.Warn("Cache lookup failed", zap.String("key", key), zap.Error(err))
		}
		return cached, false
	}

	if err := json.Unmarshal(raw, &cached); err != nil {
		rc.logger.Warn("Discarding unreadable cache entry", zap.String("key", key), zap.Error(err))
		return cached, false
	}

	return cached, true
}

func (rc *ResponseCache) save(ctx context.Context, key string, entry cachedResponse, ttl time.Duration) {
	_, span := tracing.CreateChildSpan(ctx, "cache.response.store", []attribute.KeyValue{
		attribute.String("cache.key", key),
		attribute.Int("cache.size", len(entry.Body)),
	})
	defer span.End()

	raw, err := json.Marshal(entry)
	if err != nil {
		tracing.AddSpanError(span, err)
		return
	}

	if err := rc.store.Set(ctx, key, raw, ttl); err != nil {
		tracing.AddSpanError(span, err)
		rc.logger.Warn("Cache store failed", zap.String("key", key), zap.Error(err))
	}
}

func (rc *ResponseCache) generateKey(c *gin.Context) string {
	variant := c.Request.URL.RawQuery + "|" + c.GetString(auth.ClientIDKey)
	return fmt.Sprintf("%s%s:%x", CachePrefix, c.Request.URL.Path, md5.Sum([]byte(variant)))
}

// Invalidate drops every cached task response.
func (rc *ResponseCache) Invalidate(ctx context.Context) error {
	return rc.store.DeleteByPrefix(ctx, TaskCachePrefix)
}
