package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yourorg/tacacs-console/pkg/apperr"
	"github.com/yourorg/tacacs-console/pkg/db/models"
)

// CreateGroupRequest represents a request to create a group
type CreateGroupRequest struct {
	GroupName   string `json:"group_name" binding:"required"`
	Description string `json:"description"`
}

// UpdateGroupRequest represents a request to update a group
type UpdateGroupRequest struct {
	GroupName   *string `json:"group_name"`
	Description *string `json:"description"`
}

// CreateGroup creates a new group
func (m *Manager) CreateGroup(ctx context.Context, req *CreateGroupRequest) (*models.Group, error) {
	taken, err := m.nameTaken(&models.Group{}, "group_name", req.GroupName, "")
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, apperr.Newf(apperr.CodeConflict, "group %q already exists", req.GroupName)
	}

	group := &models.Group{
		ID:          uuid.New().String(),
		GroupName:   req.GroupName,
		Description: req.Description,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}

	if err := m.db.Create(group).Error; err != nil {
		return nil, apperr.Wrap(err, apperr.CodeInternal, "failed to create group")
	}

	m.logger.Info("group created",
		zap.String("group_id", group.ID),
		zap.String("group_name", group.GroupName))

	return group, nil
}

// GetGroup retrieves a group by ID
func (m *Manager) GetGroup(ctx context.Context, id string) (*models.Group, error) {
	var group models.Group
	if err := m.first(&group, "group", id); err != nil {
		return nil, err
	}
	return &group, nil
}

// ListGroups returns one page of groups and the total count.
func (m *Manager) ListGroups(ctx context.Context, skip, limit int) ([]models.Group, int64, error) {
	var total int64
	if err := m.db.Model(&models.Group{}).Count(&total).Error; err != nil {
		return nil, 0, apperr.Wrap(err, apperr.CodeInternal, "failed to count groups")
	}

	var groups []models.Group
	if err := paginate(m.db.Order("group_name ASC"), skip, limit).Find(&groups).Error; err != nil {
		return nil, 0, apperr.Wrap(err, apperr.CodeInternal, "failed to list groups")
	}
	return groups, total, nil
}

// UpdateGroup updates a group
func (m *Manager) UpdateGroup(ctx context.Context, id string, req *UpdateGroupRequest) (*models.Group, error) {
	group, err := m.GetGroup(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{"updated_at": time.Now()}
	if req.GroupName != nil && *req.GroupName != group.GroupName {
		taken, err := m.nameTaken(&models.Group{}, "group_name", *req.GroupName, id)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, apperr.Newf(apperr.CodeConflict, "group %q already exists", *req.GroupName)
		}
		updates["group_name"] = *req.GroupName
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}

	if err := m.db.Model(group).Updates(updates).Error; err != nil {
		return nil, apperr.Wrap(err, apperr.CodeInternal, "failed to update group")
	}

	return m.GetGroup(ctx, id)
}

// DeleteGroup deletes a group. Users that still name the group will
// surface as dangling references at the next render.
func (m *Manager) DeleteGroup(ctx context.Context, id string) error {
	group, err := m.GetGroup(ctx, id)
	if err != nil {
		return err
	}

	if err := m.db.Delete(group).Error; err != nil {
		return apperr.Wrap(err, apperr.CodeInternal, "failed to delete group")
	}

	m.logger.Info("group deleted",
		zap.String("group_id", id),
		zap.String("group_name", group.GroupName))

	return nil
}
