package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/stitchline/stitchline-backend/internal/app/model"
	"github.com/stitchline/stitchline-backend/internal/errors"
	"github.com/stitchline/stitchline-backend/pkg/redis"
	"github.com/stitchline/stitchline-backend/pkg/util"
)

// Context keys for user information
const (
	UserIDKey    = "user_id"
	UserEmailKey = "user_email"
	UserRoleKey  = "user_role"
)

type AuthMiddleware struct {
	jwtSecret string
}

func NewAuthMiddleware(jwtSecret string) *AuthMiddleware {
	return &AuthMiddleware{
		jwtSecret: jwtSecret,
	}
}

// Authenticate validates the bearer token and rejects the request without one.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		log := GetLoggerFromContext(c)

		token, ok := extractBearerToken(c)
		if !ok {
			log.Warn("Missing or malformed authorization header", map[string]interface{}{
				"path": c.Request.URL.Path,
			})
			errors.Unauthorized(c, "Authentication required")
			c.Abort()
			return
		}

		claims, err := util.ValidateToken(token, m.jwtSecret)
		if err != nil {
			log.Warn("Token validation failed", map[string]interface{}{
				"path":  c.Request.URL.Path,
				"error": err.Error(),
			})
			if err == util.ErrExpiredToken {
				errors.RespondWithError(c, http.StatusUnauthorized, errors.AuthTokenExpired, "Your session has expired")
			} else {
				errors.RespondWithError(c, http.StatusUnauthorized, errors.AuthTokenInvalid, "Invalid authentication token")
			}
			c.Abort()
			return
		}

		if revoked, err := redis.IsTokenBlacklisted(c.Request.Context(), token); err == nil && revoked {
			log.Warn("Revoked token presented", map[string]interface{}{
				"user_id": claims.UserID,
				"path":    c.Request.URL.Path,
			})
			errors.RespondWithError(c, http.StatusUnauthorized, errors.AuthTokenRevoked, "This session has been signed out")
			c.Abort()
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Set(UserEmailKey, claims.Email)
		c.Set(UserRoleKey, model.UserRole(claims.Role))

		c.Next()
	}
}

// OptionalAuthenticate resolves the bearer token when present but lets the
// request through as a guest when it is missing or invalid. Guest order
// intake runs behind this.
func (m *AuthMiddleware) OptionalAuthenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		log := GetLoggerFromContext(c)

		token, ok := extractBearerToken(c)
		if !ok {
			c.Next()
			return
		}

		claims, err := util.ValidateToken(token, m.jwtSecret)
		if err != nil {
			log.Debug("Token validation failed, continuing as guest", map[string]interface{}{
				"path":  c.Request.URL.Path,
				"error": err.Error(),
			})
			c.Next()
			return
		}

		if revoked, err := redis.IsTokenBlacklisted(c.Request.Context(), token); err == nil && revoked {
			c.Next()
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Set(UserEmailKey, claims.Email)
		c.Set(UserRoleKey, model.UserRole(claims.Role))

		c.Next()
	}
}

// RequireRole checks if the authenticated user has one of the given roles.
func (m *AuthMiddleware) RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		log := GetLoggerFromContext(c)

		userRole, exists := c.Get(UserRoleKey)
		if !exists {
			errors.Forbidden(c, "Role information not found")
			c.Abort()
			return
		}

		role := userRole.(model.UserRole)
		for _, r := range roles {
			if role == model.UserRole(r) {
				c.Next()
				return
			}
		}

		userID, _ := GetUserID(c)
		log.Warn("Insufficient permissions", map[string]interface{}{
			"user_id":        userID,
			"user_role":      role,
			"required_roles": roles,
			"path":           c.Request.URL.Path,
		})
		errors.Forbidden(c, "You do not have access to this resource")
		c.Abort()
	}
}

func extractBearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", false
	}
	return parts[1], true
}

// GetUserID extracts the authenticated user ID from context.
func GetUserID(c *gin.Context) (uint, bool) {
	userID, exists := c.Get(UserIDKey)
	if !exists {
		return 0, false
	}
	return userID.(uint), true
}

// GetUserRole extracts the authenticated user role from context.
func GetUserRole(c *gin.Context) (model.UserRole, bool) {
	role, exists := c.Get(UserRoleKey)
	if !exists {
		return "", false
	}
	return role.(model.UserRole), true
}
