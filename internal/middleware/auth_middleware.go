package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/exp/slog"

	authtoken "github.com/inzamam-virk/lottery-app/pkg/jwt"
)

const (
	// Context keys set by JWTAuthMiddleware.
	ContextUserID   = "userID"
	ContextUserRole = "userRole"

	RoleDealer = "dealer"
	RoleAdmin  = "admin"

	TriggerKeyHeader = "X-Trigger-Key"
)

// JWTAuthMiddleware verifies an HS256 bearer token and stores its subject and role in the context.
func JWTAuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			slog.Error("JWTAuthMiddleware: JWT secret is not configured")
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "Authentication is not configured"})
			return
		}

		const bearerSchema = "Bearer "
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is required"})
			return
		}
		if !strings.HasPrefix(authHeader, bearerSchema) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header must start with Bearer "})
			return
		}

		claims, err := authtoken.Validate(secret, authHeader[len(bearerSchema):])
		if err != nil {
			slog.Warn("JWTAuthMiddleware: token validation failed", "error", err)
			if errors.Is(err, jwt.ErrTokenExpired) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token has expired"})
			} else {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			}
			return
		}

		c.Set(ContextUserID, claims.Subject)
		c.Set(ContextUserRole, claims.Role)
		c.Next()
	}
}

// RequireRole rejects callers whose token role is not one of roles.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(ContextUserRole)
		for _, r := range roles {
			if role == r {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
	}
}

// TriggerKeyMiddleware gates the periodic job endpoints behind a shared key
// checked against its bcrypt hash.
func TriggerKeyMiddleware(keyHash string) gin.HandlerFunc {
	hash := []byte(keyHash)

	return func(c *gin.Context) {
		if len(hash) == 0 {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "Trigger key is not configured"})
			return
		}
		key := c.GetHeader(TriggerKeyHeader)
		if key == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": TriggerKeyHeader + " header is required"})
			return
		}
		if err := bcrypt.CompareHashAndPassword(hash, []byte(key)); err != nil {
			slog.Warn("TriggerKeyMiddleware: invalid trigger key", "path", c.FullPath())
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid trigger key"})
			return
		}
		c.Next()
	}
}
