package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// ClientIDKey is the gin context key holding the authenticated subject.
const ClientIDKey = "x-client-id"

var ErrInvalidToken = errors.New("invalid access token")

type JWT struct {
	Secret string
	TTL    time.Duration
}

func NewJWT(secret string) *JWT {
	return &JWT{Secret: secret, TTL: 3 * time.Hour}
}

func (j *JWT) CreateToken(clientID string) (string, error) {
	ttl := j.TTL
	if ttl <= 0 {
		ttl = 3 * time.Hour
	}

	now := time.Now()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   clientID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	})

	return token.SignedString([]byte(j.Secret))
}

// VerifyToken parses tokenString and returns its subject.
func (j *JWT) VerifyToken(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		return []byte(j.Secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	if err != nil {
		slog.Debug("Error verifying token", "error", err)
		return "", fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	if !token.Valid || claims.Subject == "" {
		return "", ErrInvalidToken
	}

	return claims.Subject, nil
}

// GinJwtMiddleware rejects requests without a valid bearer token and stores
// the token subject under ClientIDKey.
func GinJwtMiddleware(j *JWT) gin.HandlerFunc {
	return func(c *gin.Context) {
		bearer := c.GetHeader("Authorization")

		if bearer == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"errors": []string{"Unauthorized request"},
			})
			return
		}

		if !strings.HasPrefix(bearer, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"errors": []string{"Invalid authorization format"},
			})
			return
		}

		clientID, err := j.VerifyToken(strings.TrimPrefix(bearer, "Bearer "))

		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"errors": []string{"Unauthorized request", err.Error()},
			})
			return
		}

		c.Set(ClientIDKey, clientID)
		c.Next()
	}
}
