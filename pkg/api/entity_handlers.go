package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourorg/tacacs-console/pkg/audit"
	"github.com/yourorg/tacacs-console/pkg/auth"
	"github.com/yourorg/tacacs-console/pkg/inventory"
)

func (h *Handlers) auditEntity(c *gin.Context, resourceType, resourceID string, action audit.EventAction, success bool) {
	if h.auditLogger == nil {
		return
	}
	h.auditLogger.LogEntityEvent(c.Request.Context(), resourceType, resourceID, action, auth.GetUserIDFromGin(c), success)
}

// Host handlers

// ListHosts lists hosts
func (h *Handlers) ListHosts(c *gin.Context) {
	skip, limit := pagination(c)

	hosts, total, err := h.inventory.ListHosts(c.Request.Context(), skip, limit)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"hosts": hosts,
		"total": total,
		"skip":  skip,
		"limit": limit,
	})
}

// GetHost gets a host by ID
func (h *Handlers) GetHost(c *gin.Context) {
	host, err := h.inventory.GetHost(c.Request.Context(), c.Param("host_id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, host)
}

// CreateHost creates a new host
func (h *Handlers) CreateHost(c *gin.Context) {
	var req inventory.CreateHostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	host, err := h.inventory.CreateHost(c.Request.Context(), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.auditEntity(c, "host", host.ID, audit.ActionCreate, true)
	c.JSON(http.StatusCreated, host)
}

// UpdateHost updates a host
func (h *Handlers) UpdateHost(c *gin.Context) {
	var req inventory.UpdateHostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	host, err := h.inventory.UpdateHost(c.Request.Context(), c.Param("host_id"), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.auditEntity(c, "host", host.ID, audit.ActionUpdate, true)
	c.JSON(http.StatusOK, host)
}

// DeleteHost deletes a host
func (h *Handlers) DeleteHost(c *gin.Context) {
	id := c.Param("host_id")
	if err := h.inventory.DeleteHost(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}

	h.auditEntity(c, "host", id, audit.ActionDelete, true)
	c.JSON(http.StatusOK, gin.H{"message": "host deleted"})
}

// Group handlers

// ListGroups lists groups
func (h *Handlers) ListGroups(c *gin.Context) {
	skip, limit := pagination(c)

	groups, total, err := h.inventory.ListGroups(c.Request.Context(), skip, limit)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"groups": groups,
		"total":  total,
		"skip":   skip,
		"limit":  limit,
	})
}

// GetGroup gets a group by ID
func (h *Handlers) GetGroup(c *gin.Context) {
	group, err := h.inventory.GetGroup(c.Request.Context(), c.Param("group_id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, group)
}

// CreateGroup creates a new group
func (h *Handlers) CreateGroup(c *gin.Context) {
	var req inventory.CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	group, err := h.inventory.CreateGroup(c.Request.Context(), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.auditEntity(c, "group", group.ID, audit.ActionCreate, true)
	c.JSON(http.StatusCreated, group)
}

// UpdateGroup updates a group
func (h *Handlers) UpdateGroup(c *gin.Context) {
	var req inventory.UpdateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	group, err := h.inventory.UpdateGroup(c.Request.Context(), c.Param("group_id"), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.auditEntity(c, "group", group.ID, audit.ActionUpdate, true)
	c.JSON(http.StatusOK, group)
}

// DeleteGroup deletes a group
func (h *Handlers) DeleteGroup(c *gin.Context) {
	id := c.Param("group_id")
	if err := h.inventory.DeleteGroup(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}

	h.auditEntity(c, "group", id, audit.ActionDelete, true)
	c.JSON(http.StatusOK, gin.H{"message": "group deleted"})
}

// TACACS+ user handlers

// ListUsers lists TACACS+ users
func (h *Handlers) ListUsers(c *gin.Context) {
	skip, limit := pagination(c)

	users, total, err := h.inventory.ListUsers(c.Request.Context(), skip, limit)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"users": users,
		"total": total,
		"skip":  skip,
		"limit": limit,
	})
}

// GetUser gets a TACACS+ user by ID
func (h *Handlers) GetUser(c *gin.Context) {
	user, err := h.inventory.GetUser(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// CreateUser creates a new TACACS+ user
func (h *Handlers) CreateUser(c *gin.Context) {
	var req inventory.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.inventory.CreateUser(c.Request.Context(), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.auditEntity(c, "user", user.ID, audit.ActionCreate, true)
	c.JSON(http.StatusCreated, user)
}

// UpdateUser updates a TACACS+ user
func (h *Handlers) UpdateUser(c *gin.Context) {
	var req inventory.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.inventory.UpdateUser(c.Request.Context(), c.Param("user_id"), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.auditEntity(c, "user", user.ID, audit.ActionUpdate, true)
	c.JSON(http.StatusOK, user)
}

// DeleteUser deletes a TACACS+ user
func (h *Handlers) DeleteUser(c *gin.Context) {
	id := c.Param("user_id")
	if err := h.inventory.DeleteUser(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}

	h.auditEntity(c, "user", id, audit.ActionDelete, true)
	c.JSON(http.StatusOK, gin.H{"message": "user deleted"})
}

// Service handlers

// ListServices lists services
func (h *Handlers) ListServices(c *gin.Context) {
	skip, limit := pagination(c)

	services, total, err := h.inventory.ListServices(c.Request.Context(), skip, limit)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"services": services,
		"total":    total,
		"skip":     skip,
		"limit":    limit,
	})
}

// GetService gets a service by ID
func (h *Handlers) GetService(c *gin.Context) {
	service, err := h.inventory.GetService(c.Request.Context(), c.Param("service_id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, service)
}

// CreateService creates a new service
func (h *Handlers) CreateService(c *gin.Context) {
	var req inventory.CreateServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	service, err := h.inventory.CreateService(c.Request.Context(), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.auditEntity(c, "service", service.ID, audit.ActionCreate, true)
	c.JSON(http.StatusCreated, service)
}

// UpdateService updates a service
func (h *Handlers) UpdateService(c *gin.Context) {
	var req inventory.UpdateServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	service, err := h.inventory.UpdateService(c.Request.Context(), c.Param("service_id"), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.auditEntity(c, "service", service.ID, audit.ActionUpdate, true)
	c.JSON(http.StatusOK, service)
}

// DeleteService deletes a service
func (h *Handlers) DeleteService(c *gin.Context) {
	id := c.Param("service_id")
	if err := h.inventory.DeleteService(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}

	h.auditEntity(c, "service", id, audit.ActionDelete, true)
	c.JSON(http.StatusOK, gin.H{"message": "service deleted"})
}

// Profile handlers

// ListProfiles lists profiles
func (h *Handlers) ListProfiles(c *gin.Context) {
	skip, limit := pagination(c)

	profiles, total, err := h.inventory.ListProfiles(c.Request.Context(), skip, limit)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"profiles": profiles,
		"total":    total,
		"skip":     skip,
		"limit":    limit,
	})
}

// GetProfile gets a profile by ID
func (h *Handlers) GetProfile(c *gin.Context) {
	profile, err := h.inventory.GetProfile(c.Request.Context(), c.Param("profile_id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// CreateProfile creates a new profile
func (h *Handlers) CreateProfile(c *gin.Context) {
	var req inventory.CreateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	profile, err := h.inventory.CreateProfile(c.Request.Context(), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.auditEntity(c, "profile", profile.ID, audit.ActionCreate, true)
	c.JSON(http.StatusCreated, profile)
}

// UpdateProfile updates a profile
func (h *Handlers) UpdateProfile(c *gin.Context) {
	var req inventory.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	profile, err := h.inventory.UpdateProfile(c.Request.Context(), c.Param("profile_id"), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.auditEntity(c, "profile", profile.ID, audit.ActionUpdate, true)
	c.JSON(http.StatusOK, profile)
}

// DeleteProfile deletes a profile
func (h *Handlers) DeleteProfile(c *gin.Context) {
	id := c.Param("profile_id")
	if err := h.inventory.DeleteProfile(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}

	h.auditEntity(c, "profile", id, audit.ActionDelete, true)
	c.JSON(http.StatusOK, gin.H{"message": "profile deleted"})
}

// Ruleset handlers

// ListRulesets lists rules
func (h *Handlers) ListRulesets(c *gin.Context) {
	skip, limit := pagination(c)

	rulesets, total, err := h.inventory.ListRulesets(c.Request.Context(), skip, limit)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"rulesets": rulesets,
		"total":    total,
		"skip":     skip,
		"limit":    limit,
	})
}

// GetRuleset gets a rule by ID
func (h *Handlers) GetRuleset(c *gin.Context) {
	ruleset, err := h.inventory.GetRuleset(c.Request.Context(), c.Param("ruleset_id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ruleset)
}

// CreateRuleset creates a new rule
func (h *Handlers) CreateRuleset(c *gin.Context) {
	var req inventory.CreateRulesetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ruleset, err := h.inventory.CreateRuleset(c.Request.Context(), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.auditEntity(c, "ruleset", ruleset.ID, audit.ActionCreate, true)
	c.JSON(http.StatusCreated, ruleset)
}

// UpdateRuleset updates a rule
func (h *Handlers) UpdateRuleset(c *gin.Context) {
	var req inventory.UpdateRulesetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ruleset, err := h.inventory.UpdateRuleset(c.Request.Context(), c.Param("ruleset_id"), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.auditEntity(c, "ruleset", ruleset.ID, audit.ActionUpdate, true)
	c.JSON(http.StatusOK, ruleset)
}

// DeleteRuleset deletes a rule
func (h *Handlers) DeleteRuleset(c *gin.Context) {
	id := c.Param("ruleset_id")
	if err := h.inventory.DeleteRuleset(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}

	h.auditEntity(c, "ruleset", id, audit.ActionDelete, true)
	c.JSON(http.StatusOK, gin.H{"message": "rule deleted"})
}

// Settings handlers

// GetSettings returns the daemon settings
func (h *Handlers) GetSettings(c *gin.Context) {
	setting, err := h.inventory.GetSettings(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, setting)
}

// UpdateSettings updates the daemon settings
func (h *Handlers) UpdateSettings(c *gin.Context) {
	var req inventory.UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	setting, err := h.inventory.UpdateSettings(c.Request.Context(), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	if h.auditLogger != nil {
		h.auditLogger.LogSettingsEvent(c.Request.Context(), "ng_setting", auth.GetUserIDFromGin(c), true)
	}
	c.JSON(http.StatusOK, setting)
}

// ListMavis lists MAVIS variables
func (h *Handlers) ListMavis(c *gin.Context) {
	entries, err := h.inventory.ListMavis(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"mavis": entries})
}

// UpsertMavis creates or updates a MAVIS variable
func (h *Handlers) UpsertMavis(c *gin.Context) {
	var req inventory.MavisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entry, err := h.inventory.UpsertMavis(c.Request.Context(), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	if h.auditLogger != nil {
		h.auditLogger.LogSettingsEvent(c.Request.Context(), "mavis", auth.GetUserIDFromGin(c), true)
	}
	c.JSON(http.StatusOK, entry)
}

// DeleteMavis deletes a MAVIS variable
func (h *Handlers) DeleteMavis(c *gin.Context) {
	if err := h.inventory.DeleteMavis(c.Request.Context(), c.Param("mavis_id")); err != nil {
		h.respondError(c, err)
		return
	}

	if h.auditLogger != nil {
		h.auditLogger.LogSettingsEvent(c.Request.Context(), "mavis", auth.GetUserIDFromGin(c), true)
	}
	c.JSON(http.StatusOK, gin.H{"message": "mavis variable deleted"})
}

// ListOptions lists configuration option snippets
func (h *Handlers) ListOptions(c *gin.Context) {
	options, err := h.inventory.ListOptions(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"options": options})
}

// CreateOption creates a configuration option snippet
func (h *Handlers) CreateOption(c *gin.Context) {
	var req inventory.OptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	option, err := h.inventory.CreateOption(c.Request.Context(), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	if h.auditLogger != nil {
		h.auditLogger.LogSettingsEvent(c.Request.Context(), "configuration_option", auth.GetUserIDFromGin(c), true)
	}
	c.JSON(http.StatusCreated, option)
}

// UpdateOption updates a configuration option snippet
func (h *Handlers) UpdateOption(c *gin.Context) {
	var req inventory.OptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	option, err := h.inventory.UpdateOption(c.Request.Context(), c.Param("option_id"), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	if h.auditLogger != nil {
		h.auditLogger.LogSettingsEvent(c.Request.Context(), "configuration_option", auth.GetUserIDFromGin(c), true)
	}
	c.JSON(http.StatusOK, option)
}

// DeleteOption deletes a configuration option snippet
func (h *Handlers) DeleteOption(c *gin.Context) {
	if err := h.inventory.DeleteOption(c.Request.Context(), c.Param("option_id")); err != nil {
		h.respondError(c, err)
		return
	}

	if h.auditLogger != nil {
		h.auditLogger.LogSettingsEvent(c.Request.Context(), "configuration_option", auth.GetUserIDFromGin(c), true)
	}
	c.JSON(http.StatusOK, gin.H{"message": "configuration option deleted"})
}
