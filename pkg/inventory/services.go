package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yourorg/tacacs-console/pkg/apperr"
	"github.com/yourorg/tacacs-console/pkg/db/models"
)

// CreateServiceRequest represents a request to create a service
type CreateServiceRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

// UpdateServiceRequest represents a request to update a service
type UpdateServiceRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

// CreateService creates a new service
func (m *Manager) CreateService(ctx context.Context, req *CreateServiceRequest) (*models.Service, error) {
	taken, err := m.nameTaken(&models.Service{}, "name", req.Name, "")
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, apperr.Newf(apperr.CodeConflict, "service %q already exists", req.Name)
	}

	service := &models.Service{
		ID:          uuid.New().String(),
		Name:        req.Name,
		Description: req.Description,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}

	if err := m.db.Create(service).Error; err != nil {
		return nil, apperr.Wrap(err, apperr.CodeInternal, "failed to create service")
	}

	m.logger.Info("service created",
		zap.String("service_id", service.ID),
		zap.String("name", service.Name))

	return service, nil
}

// GetService retrieves a service by ID
func (m *Manager) GetService(ctx context.Context, id string) (*models.Service, error) {
	var service models.Service
	if err := m.first(&service, "service", id); err != nil {
		return nil, err
	}
	return &service, nil
}

// ListServices returns one page of services and the total count.
func (m *Manager) ListServices(ctx context.Context, skip, limit int) ([]models.Service, int64, error) {
	var total int64
	if err := m.db.Model(&models.Service{}).Count(&total).Error; err != nil {
		return nil, 0, apperr.Wrap(err, apperr.CodeInternal, "failed to count services")
	}

	var services []models.Service
	if err := paginate(m.db.Order("name ASC"), skip, limit).Find(&services).Error; err != nil {
		return nil, 0, apperr.Wrap(err, apperr.CodeInternal, "failed to list services")
	}
	return services, total, nil
}

// UpdateService updates a service
func (m *Manager) UpdateService(ctx context.Context, id string, req *UpdateServiceRequest) (*models.Service, error) {
	service, err := m.GetService(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{"updated_at": time.Now()}
	if req.Name != nil && *req.Name != service.Name {
		taken, err := m.nameTaken(&models.Service{}, "name", *req.Name, id)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, apperr.Newf(apperr.CodeConflict, "service %q already exists", *req.Name)
		}
		updates["name"] = *req.Name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}

	if err := m.db.Model(service).Updates(updates).Error; err != nil {
		return nil, apperr.Wrap(err, apperr.CodeInternal, "failed to update service")
	}

	return m.GetService(ctx, id)
}

// DeleteService deletes a service
func (m *Manager) DeleteService(ctx context.Context, id string) error {
	service, err := m.GetService(ctx, id)
	if err != nil {
		return err
	}

	if err := m.db.Delete(service).Error; err != nil {
		return apperr.Wrap(err, apperr.CodeInternal, "failed to delete service")
	}

	m.logger.Info("service deleted",
		zap.String("service_id", id),
		zap.String("name", service.Name))

	return nil
}
