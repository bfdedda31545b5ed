package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"investment-platform/internal/models"
)

// AuthMiddleware validates JWT tokens and protects routes
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abort(c, http.StatusUnauthorized, "authorization header required")
			return
		}

		// Extract token from "Bearer <token>" format
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			abort(c, http.StatusUnauthorized, "invalid authorization header format, expected: Bearer <token>")
			return
		}

		claims, err := ValidateToken(parts[1])
		if err != nil {
			zap.L().Debug("Token validation failed", zap.Error(err))
			abort(c, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("user_email", claims.Email)
		c.Set("user_role", claims.Role)

		c.Next()
	}
}

// ActiveChecker reports the stored role of a user and whether they may still use the API
type ActiveChecker interface {
	ActiveRole(ctx context.Context, userID uint) (models.Role, bool, error)
}

// RequireActive rejects tokens belonging to deactivated users and replaces
// the role claim with the stored role, so demotions apply to live tokens
func RequireActive(checker ActiveChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := GetUserID(c)
		if !ok {
			abort(c, http.StatusUnauthorized, "unauthorized")
			return
		}

		role, active, err := checker.ActiveRole(c.Request.Context(), userID)
		if err != nil {
			zap.L().Error("Failed to check user status", zap.Uint("user_id", userID), zap.Error(err))
			abort(c, http.StatusInternalServerError, "internal server error")
			return
		}
		if !active {
			abort(c, http.StatusForbidden, "account is deactivated")
			return
		}

		c.Set("user_role", role)
		c.Next()
	}
}

// RequireRole allows the request through only for the given roles
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := GetRole(c)
		if !ok {
			abort(c, http.StatusUnauthorized, "unauthorized")
			return
		}

		for _, r := range roles {
			if role == r {
				c.Next()
				return
			}
		}

		abort(c, http.StatusForbidden, "insufficient permissions")
	}
}

// GetUserID retrieves the user ID from the context
func GetUserID(c *gin.Context) (uint, bool) {
	userID, exists := c.Get("user_id")
	if !exists {
		return 0, false
	}

	id, ok := userID.(uint)
	return id, ok
}

// GetRole retrieves the role claim from the context
func GetRole(c *gin.Context) (models.Role, bool) {
	role, exists := c.Get("user_role")
	if !exists {
		return "", false
	}

	r, ok := role.(models.Role)
	return r, ok
}

// IsAdmin reports whether the caller holds an admin or superadmin role
func IsAdmin(c *gin.Context) bool {
	role, ok := GetRole(c)
	return ok && (role == models.RoleAdmin || role == models.RoleSuperadmin)
}

func abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"message": message,
	})
}
