package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourorg/tacacs-console/pkg/audit"
	"github.com/yourorg/tacacs-console/pkg/auth"
	"github.com/yourorg/tacacs-console/pkg/checker"
)

// PreviewConfig renders the current snapshot without persisting it
func (h *Handlers) PreviewConfig(c *gin.Context) {
	content, err := h.store.Preview(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.String(http.StatusOK, content)
}

// BuildConfigRequest represents a request to build a configuration
type BuildConfigRequest struct {
	Filename    string `json:"filename" binding:"required"`
	Description string `json:"description"`
}

// BuildConfig renders the current snapshot and stores it as a new artifact
func (h *Handlers) BuildConfig(c *gin.Context) {
	ctx := c.Request.Context()

	var req BuildConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	artifact, err := h.store.Build(ctx, req.Filename, req.Description)
	if err != nil {
		if h.metrics != nil {
			h.metrics.ObserveBuild(false)
		}
		h.respondError(c, err)
		return
	}

	if h.metrics != nil {
		h.metrics.ObserveBuild(true)
	}
	if h.auditLogger != nil {
		h.auditLogger.LogConfigEvent(ctx, artifact.ID, artifact.Filename,
			audit.ActionBuild, auth.GetUserIDFromGin(c), true, nil)
	}

	c.JSON(http.StatusCreated, artifact)
}

// ListConfigs lists stored configuration artifacts
func (h *Handlers) ListConfigs(c *gin.Context) {
	skip, limit := pagination(c)

	artifacts, total, err := h.store.List(c.Request.Context(), skip, limit)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"configs": artifacts,
		"total":   total,
		"skip":    skip,
		"limit":   limit,
	})
}

// GetConfig gets an artifact by ID
func (h *Handlers) GetConfig(c *gin.Context) {
	artifact, err := h.store.Get(c.Request.Context(), c.Param("config_id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, artifact)
}

// GetConfigContent returns the stored configuration text
func (h *Handlers) GetConfigContent(c *gin.Context) {
	content, err := h.store.GetContent(c.Request.Context(), c.Param("config_id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.String(http.StatusOK, content)
}

// UpdateConfigRequest represents a description update
type UpdateConfigRequest struct {
	Description string `json:"description"`
}

// UpdateConfigDescription updates an artifact's description
func (h *Handlers) UpdateConfigDescription(c *gin.Context) {
	var req UpdateConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	artifact, err := h.store.UpdateDescription(c.Request.Context(), c.Param("config_id"), req.Description)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, artifact)
}

// DeleteConfig deletes an inactive artifact
func (h *Handlers) DeleteConfig(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("config_id")

	if err := h.store.Delete(ctx, id); err != nil {
		h.respondError(c, err)
		return
	}

	if h.auditLogger != nil {
		h.auditLogger.LogConfigEvent(ctx, id, "", audit.ActionDelete, auth.GetUserIDFromGin(c), true, nil)
	}
	c.JSON(http.StatusOK, gin.H{"message": "configuration deleted"})
}

// GetActiveConfig returns the active artifact, if any
func (h *Handlers) GetActiveConfig(c *gin.Context) {
	artifact, err := h.store.GetActive(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	if artifact == nil {
		c.JSON(http.StatusOK, gin.H{"active": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"active": artifact})
}

// CheckConfig runs the external syntax checker against an artifact
func (h *Handlers) CheckConfig(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("config_id")

	result, err := h.store.Check(ctx, id)
	if err != nil {
		if h.metrics != nil {
			h.metrics.ObserveCheck("error")
		}
		h.respondError(c, err)
		return
	}

	if h.metrics != nil {
		h.metrics.ObserveCheck(string(result.Status))
	}
	if h.auditLogger != nil {
		h.auditLogger.LogConfigEvent(ctx, id, "", audit.ActionCheck, auth.GetUserIDFromGin(c),
			result.Status == checker.StatusPass, map[string]interface{}{
				"status": string(result.Status),
				"line":   result.Line,
			})
	}

	c.JSON(http.StatusOK, result)
}

// ActivateConfig makes an artifact the active configuration
func (h *Handlers) ActivateConfig(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("config_id")

	artifact, err := h.coordinator.Activate(ctx, id)
	if err != nil {
		if h.metrics != nil {
			h.metrics.ObserveActivation(false)
		}
		if h.auditLogger != nil {
			h.auditLogger.LogConfigEvent(ctx, id, "", audit.ActionActivate, auth.GetUserIDFromGin(c), false, nil)
		}
		h.respondError(c, err)
		return
	}

	if h.metrics != nil {
		h.metrics.ObserveActivation(true)
	}
	if h.auditLogger != nil {
		h.auditLogger.LogConfigEvent(ctx, artifact.ID, artifact.Filename,
			audit.ActionActivate, auth.GetUserIDFromGin(c), true, nil)
	}

	c.JSON(http.StatusOK, artifact)
}
