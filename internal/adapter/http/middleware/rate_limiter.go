package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"taskmanagement/pkg/auth"
	"taskmanagement/pkg/config"
	"taskmanagement/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// DefaultRateLimit applies to routes without their own entry.
var DefaultRateLimit = config.RateLimitConfig{
	Requests: 60,
	Window:   time.Minute,
}

// RateLimiter counts requests per client in fixed windows, keyed by
// "METHOD /route/pattern".
type RateLimiter struct {
	cache   *cache.Cache
	config  map[string]config.RateLimitConfig
	logger  *zap.Logger
	metrics *tracing.AppMetrics
	mutex   sync.Mutex
}

type rateLimitEntry struct {
	Count     int
	ResetTime time.Time
}

func NewRateLimiter(logger *zap.Logger, metrics *tracing.AppMetrics, configs map[string]config.RateLimitConfig) *RateLimiter {
	routes := make(map[string]config.RateLimitConfig, len(configs))
	for route, cfg := range configs {
		routes[route] = cfg
	}

	return &RateLimiter{
		cache:   cache.New(5*time.Minute, 10*time.Minute),
		config:  routes,
		logger:  logger,
		metrics: metrics,
	}
}

func (rl *RateLimiter) RateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		methodPath := c.Request.Method + " " + path
		limit := rl.limitFor(methodPath)
		key := fmt.Sprintf("rate_limit:%s:%s", methodPath, clientKey(c))

		allowed, remaining, resetTime := rl.checkRateLimit(key, limit)

		c.Header("X-RateLimit-Limit", strconv.Itoa(limit.Requests))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(resetTime.Unix(), 10))

		if !allowed {
			if rl.metrics != nil {
				rl.metrics.RecordRateLimit(c.Request.Context(), path, false)
			}

			rl.logger.Warn("Rate limit exceeded",
				zap.String("key", key),
				zap.String("path", path),
				zap.Int("limit", limit.Requests),
				zap.Duration("window", limit.Window))

			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "Rate limit exceeded",
				"message":     fmt.Sprintf("Too many requests. Limit: %d per %v", limit.Requests, limit.Window),
				"retry_after": int(time.Until(resetTime).Seconds()),
			})
			return
		}

		if rl.metrics != nil {
			rl.metrics.RecordRateLimit(c.Request.Context(), path, true)
		}

		c.Next()
	}
}

func (rl *RateLimiter) limitFor(methodPath string) config.RateLimitConfig {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	if limit, ok := rl.config[methodPath]; ok && limit.Requests > 0 {
		return limit
	}

	return DefaultRateLimit
}

func (rl *RateLimiter) checkRateLimit(key string, limit config.RateLimitConfig) (bool, int, time.Time) {
	now := time.Now()

	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	if item, found := rl.cache.Get(key); found {
		entry := item.(rateLimitEntry)

		if now.Before(entry.ResetTime) {
			if entry.Count >= limit.Requests {
				return false, 0, entry.ResetTime
			}

			entry.Count++
			rl.cache.Set(key, entry, time.Until(entry.ResetTime))

			return true, limit.Requests - entry.Count, entry.ResetTime
		}
	}

	resetTime := now.Add(limit.Window)
	rl.cache.Set(key, rateLimitEntry{Count: 1, ResetTime: resetTime}, limit.Window)

	return true, limit.Requests - 1, resetTime
}

// clientKey prefers the authenticated client over the remote address.
func clientKey(c *gin.Context) string {
	if clientID := c.GetString(auth.ClientIDKey); clientID != "" {
		return "client_" + clientID
	}

	return "ip_" + c.ClientIP()
}
