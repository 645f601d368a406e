// Package api provides the HTTP API for the TACACS+ console.
package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/yourorg/tacacs-console/pkg/apperr"
	"github.com/yourorg/tacacs-console/pkg/audit"
	"github.com/yourorg/tacacs-console/pkg/auth"
	"github.com/yourorg/tacacs-console/pkg/configstore"
	"github.com/yourorg/tacacs-console/pkg/inventory"
	"github.com/yourorg/tacacs-console/pkg/metrics"
)

// Handlers contains all API handlers
type Handlers struct {
	logger      *zap.Logger
	db          *gorm.DB
	authService *auth.Service
	inventory   *inventory.Manager
	store       *configstore.Manager
	coordinator *configstore.Coordinator
	auditLogger *audit.Logger
	metrics     *metrics.Metrics
}

// NewHandlers creates new API handlers
func NewHandlers(
	logger *zap.Logger,
	db *gorm.DB,
	authService *auth.Service,
	inventoryManager *inventory.Manager,
	store *configstore.Manager,
	coordinator *configstore.Coordinator,
	auditLogger *audit.Logger,
	m *metrics.Metrics,
) *Handlers {
	return &Handlers{
		logger:      logger,
		db:          db,
		authService: authService,
		inventory:   inventoryManager,
		store:       store,
		coordinator: coordinator,
		auditLogger: auditLogger,
		metrics:     m,
	}
}

// respondError maps an error onto an HTTP status and JSON body.
func (h *Handlers) respondError(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	if status >= 500 {
		h.logger.Error("request failed",
			zap.String("path", c.Request.URL.Path),
			zap.Error(err))
	}

	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		body := gin.H{
			"error": appErr.Message,
			"code":  string(appErr.Code),
		}
		if len(appErr.Details) > 0 {
			body["details"] = appErr.Details
		}
		c.JSON(status, body)
		return
	}

	c.JSON(status, gin.H{"error": err.Error()})
}

// getIntParam reads an integer query parameter with a default.
func getIntParam(c *gin.Context, name string, def int) int {
	raw := c.Query(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return def
	}
	return v
}

// pagination reads the skip/limit query parameters.
func pagination(c *gin.Context) (skip, limit int) {
	return getIntParam(c, "skip", 0), getIntParam(c, "limit", 50)
}

// Health check handlers

// HealthCheck returns the health status
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
	})
}

// Readiness returns the readiness status, including DB connectivity.
func (h *Handlers) Readiness(c *gin.Context) {
	sqlDB, err := h.db.DB()
	if err == nil {
		err = sqlDB.Ping()
	}
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"ready": false,
			"error": "database unreachable",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ready": true,
	})
}

// Auth handlers

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login authenticates a console user and returns a token
func (h *Handlers) Login(c *gin.Context) {
	ctx := c.Request.Context()

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, user, err := h.authService.Login(ctx, req.Email, req.Password)
	if err != nil {
		if h.auditLogger != nil {
			h.auditLogger.LogAuth(ctx, "", req.Email, audit.ActionLogin, false, c.ClientIP())
		}
		h.respondError(c, err)
		return
	}

	if h.auditLogger != nil {
		h.auditLogger.LogAuth(ctx, user.ID, user.Email, audit.ActionLogin, true, c.ClientIP())
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token": token,
		"token_type":   "bearer",
		"user":         user,
	})
}

// CurrentUser returns the authenticated account
func (h *Handlers) CurrentUser(c *gin.Context) {
	claims := auth.GetClaimsFromGin(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id":   claims.UserID,
		"email":     claims.Email,
		"scopes":    claims.Scopes,
		"superuser": claims.Superuser,
	})
}

// ChangePasswordRequest represents a password change request
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required"`
}

// ChangePassword changes the authenticated account's password
func (h *Handlers) ChangePassword(c *gin.Context) {
	ctx := c.Request.Context()
	userID := auth.GetUserIDFromGin(c)

	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.authService.ChangePassword(ctx, userID, req.CurrentPassword, req.NewPassword); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "password changed"})
}
