// Package auth provides authentication for the console API.
package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/yourorg/tacacs-console/pkg/db/models"
)

// contextKey is a custom type for context keys
type contextKey string

const (
	ContextKeyClaims contextKey = "claims"
	ContextKeyUserID contextKey = "user_id"
	ContextKeyEmail  contextKey = "email"
)

// Middleware provides authentication middleware
type Middleware struct {
	jwtManager *JWTManager
	db         *gorm.DB
	logger     *zap.Logger
}

// NewMiddleware creates a new authentication middleware
func NewMiddleware(jwtManager *JWTManager, db *gorm.DB, logger *zap.Logger) *Middleware {
	return &Middleware{
		jwtManager: jwtManager,
		db:         db,
		logger:     logger,
	}
}

// Authenticate returns a Gin middleware for JWT authentication
func (m *Middleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := m.extractToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "missing authorization token",
			})
			return
		}

		claims, err := m.jwtManager.ValidateToken(token)
		if err != nil {
			m.logger.Debug("token validation failed",
				zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "invalid token",
			})
			return
		}

		// Verify the account still exists and is active
		var user models.ConsoleUser
		if err := m.db.Where("id = ? AND is_active = ?", claims.UserID, true).First(&user).Error; err != nil {
			m.logger.Debug("console user not found or inactive",
				zap.String("user_id", claims.UserID),
				zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "account not found or disabled",
			})
			return
		}

		c.Set(string(ContextKeyClaims), claims)
		c.Set(string(ContextKeyUserID), claims.UserID)
		c.Set(string(ContextKeyEmail), claims.Email)

		c.Next()
	}
}

// RequireScopes returns middleware that requires specific scopes
func (m *Middleware) RequireScopes(requiredScopes ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, exists := c.Get(string(ContextKeyClaims))
		if !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "authentication required",
			})
			return
		}

		authClaims := claims.(*Claims)
		if authClaims.Superuser {
			c.Next()
			return
		}

		for _, required := range requiredScopes {
			found := false
			for _, scope := range authClaims.Scopes {
				if scope == required || scope == "*" {
					found = true
					break
				}
			}
			if !found {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
					"error":          "insufficient permissions",
					"required_scope": required,
				})
				return
			}
		}

		c.Next()
	}
}

// RequireSuperuser returns middleware that restricts a route to
// superuser accounts.
func (m *Middleware) RequireSuperuser() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaimsFromGin(c)
		if claims == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "authentication required",
			})
			return
		}
		if !claims.Superuser {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "superuser required",
			})
			return
		}
		c.Next()
	}
}

// extractToken extracts the token from the request
func (m *Middleware) extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.ToLower(parts[0]) == "bearer" {
			return parts[1]
		}
	}

	return c.Query("token")
}

// GetClaimsFromGin extracts claims from Gin context
func GetClaimsFromGin(c *gin.Context) *Claims {
	if claims, exists := c.Get(string(ContextKeyClaims)); exists {
		return claims.(*Claims)
	}
	return nil
}

// GetUserIDFromGin extracts the user ID from Gin context
func GetUserIDFromGin(c *gin.Context) string {
	if userID, exists := c.Get(string(ContextKeyUserID)); exists {
		return userID.(string)
	}
	return ""
}

// GetEmailFromGin extracts the user email from Gin context
func GetEmailFromGin(c *gin.Context) string {
	if email, exists := c.Get(string(ContextKeyEmail)); exists {
		return email.(string)
	}
	return ""
}
