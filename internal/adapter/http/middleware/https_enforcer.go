package middleware

import (
	"net"
	"net/http"

	"taskmanagement/pkg/config"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequireHTTPS answers plain HTTP task traffic with a permanent redirect to
// the same URL over HTTPS. Loopback hosts and the listed paths are served
// as-is so local runs and liveness checks keep working.
func RequireHTTPS(logger *config.LokiLogger, exemptPaths ...string) gin.HandlerFunc {
	exempt := make(map[string]bool, len(exemptPaths))
	for _, path := range exemptPaths {
		exempt[path] = true
	}

	return func(c *gin.Context) {
		if isSecureRequest(c.Request) || exempt[c.Request.URL.Path] || isLoopbackHost(c.Request.Host) {
			c.Next()
			return
		}

		target := "https://" + c.Request.Host + c.Request.URL.RequestURI()

		logger.InfoWithTrace(c.Request.Context(), "Redirecting plain HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("target", target))

		c.Redirect(http.StatusMovedPermanently, target)
		c.Abort()
	}
}

func isSecureRequest(r *http.Request) bool {
	return r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https"
}

func isLoopbackHost(hostport string) bool {
	host, _, err := net.SplitHostPort(hostport)
	if err != nil {
		host = hostport
	}

	if host == "localhost" {
		return true
	}

	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
