package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Urdemonlord/atlasproject/internal/auth"
	"github.com/Urdemonlord/atlasproject/internal/models"
)

const (
	// ContextKeyUserID holds the key for user ID in Gin context.
	ContextKeyUserID = "userID"
	// ContextKeyRole holds the key for the user's role in Gin context.
	ContextKeyRole = "role"
)

// BearerToken extracts the token of an "Authorization: Bearer" header.
func BearerToken(header string) (string, error) {
	if header == "" {
		return "", fmt.Errorf("Authorization header required")
	}
	parts := strings.Split(header, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return "", fmt.Errorf("Authorization header format must be Bearer {token}")
	}
	return parts[1], nil
}

// AuthMiddleware creates a Gin middleware for JWT authentication.
func AuthMiddleware(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, err := BearerToken(c.GetHeader("Authorization"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}

		claims, err := auth.ValidateJWT(tokenString, jwtSecret)
		if err != nil {
			errMsg := fmt.Sprintf("Invalid or expired token: %v", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errMsg})
			return
		}

		c.Set(ContextKeyUserID, claims.UserID)
		c.Set(ContextKeyRole, claims.Role)

		c.Next()
	}
}

// OptionalAuthMiddleware identifies the caller when a valid token is sent
// and lets anonymous requests through.
func OptionalAuthMiddleware(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenString, err := BearerToken(c.GetHeader("Authorization")); err == nil {
			if claims, err := auth.ValidateJWT(tokenString, jwtSecret); err == nil {
				c.Set(ContextKeyUserID, claims.UserID)
				c.Set(ContextKeyRole, claims.Role)
			}
		}
		c.Next()
	}
}

// RoleMiddleware only lets the given roles through. Admins always pass.
// Assumes AuthMiddleware runs first.
func RoleMiddleware(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := ActorFromContext(c)
		if actor.IsAdmin() {
			c.Next()
			return
		}
		for _, r := range roles {
			if actor.Role == r {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": fmt.Sprintf("role %q may not access this resource", actor.Role)})
	}
}

// ActorFromContext returns the caller set by AuthMiddleware, or the zero
// Actor when the request is anonymous.
func ActorFromContext(c *gin.Context) models.Actor {
	userID := c.GetString(ContextKeyUserID)
	role, _ := c.Get(ContextKeyRole)
	r, _ := role.(models.Role)
	return models.Actor{UserID: userID, Role: r}
}
