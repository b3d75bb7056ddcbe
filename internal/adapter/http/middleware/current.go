package middleware

import (
	ct "taskmanagement/pkg/context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	RequestIDHeader = "X-Request-ID"
	currentKey      = "current"
)

// CurrentMiddleware attaches a Current to the request, reusing the caller's
// X-Request-ID or generating one.
func CurrentMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		current := ct.NewCurrent()

		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}

		current.Set(ct.RequestIDKey, requestID)
		current.Set(ct.UserAgentKey, c.Request.UserAgent())
		current.Set(ct.ClientIPKey, c.ClientIP())
		current.Set(ct.MethodKey, c.Request.Method)
		current.Set(ct.PathKey, c.Request.URL.Path)

		c.Header(RequestIDHeader, requestID)

		c.Request = c.Request.WithContext(ct.WithCurrent(c.Request.Context(), current))
		c.Set(currentKey, current)

		c.Next()
	}
}

func GetCurrent(c *gin.Context) *ct.Current {
	if current, ok := c.Get(currentKey); ok {
		if curr, ok := current.(*ct.Current); ok {
			return curr
		}
	}

	return ct.GetCurrent(c.Request.Context())
}
