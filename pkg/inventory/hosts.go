package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yourorg/tacacs-console/pkg/apperr"
	"github.com/yourorg/tacacs-console/pkg/db/models"
)

// CreateHostRequest represents a request to create a host
type CreateHostRequest struct {
	Name             string `json:"name" binding:"required"`
	IPv4Address      string `json:"ipv4_address"`
	IPv6Address      string `json:"ipv6_address"`
	SecretKey        string `json:"secret_key" binding:"required"`
	WelcomeBanner    string `json:"welcome_banner"`
	RejectBanner     string `json:"reject_banner"`
	MOTDBanner       string `json:"motd_banner"`
	FailedAuthBanner string `json:"failed_authentication_banner"`
	Parent           string `json:"parent"`
	Description      string `json:"description"`
}

// UpdateHostRequest represents a request to update a host. Nil fields
// are left unchanged.
type UpdateHostRequest struct {
	Name             *string `json:"name"`
	IPv4Address      *string `json:"ipv4_address"`
	IPv6Address      *string `json:"ipv6_address"`
	SecretKey        *string `json:"secret_key"`
	WelcomeBanner    *string `json:"welcome_banner"`
	RejectBanner     *string `json:"reject_banner"`
	MOTDBanner       *string `json:"motd_banner"`
	FailedAuthBanner *string `json:"failed_authentication_banner"`
	Parent           *string `json:"parent"`
	Description      *string `json:"description"`
}

// CreateHost creates a new host
func (m *Manager) CreateHost(ctx context.Context, req *CreateHostRequest) (*models.Host, error) {
	taken, err := m.nameTaken(&models.Host{}, "name", req.Name, "")
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, apperr.Newf(apperr.CodeConflict, "host %q already exists", req.Name)
	}

	if req.Parent != "" {
		if err := m.hostExists(req.Parent); err != nil {
			return nil, err
		}
	}

	host := &models.Host{
		ID:               uuid.New().String(),
		Name:             req.Name,
		IPv4Address:      req.IPv4Address,
		IPv6Address:      req.IPv6Address,
		SecretKey:        req.SecretKey,
		WelcomeBanner:    req.WelcomeBanner,
		RejectBanner:     req.RejectBanner,
		MOTDBanner:       req.MOTDBanner,
		FailedAuthBanner: req.FailedAuthBanner,
		Parent:           req.Parent,
		Description:      req.Description,
		CreatedAt:        time.Now(),
		UpdatedAt:        time.Now(),
	}

	if err := m.db.Create(host).Error; err != nil {
		return nil, apperr.Wrap(err, apperr.CodeInternal, "failed to create host")
	}

	m.logger.Info("host created",
		zap.String("host_id", host.ID),
		zap.String("name", host.Name))

	return host, nil
}

// GetHost retrieves a host by ID
func (m *Manager) GetHost(ctx context.Context, id string) (*models.Host, error) {
	var host models.Host
	if err := m.first(&host, "host", id); err != nil {
		return nil, err
	}
	return &host, nil
}

// ListHosts returns one page of hosts and the total count.
func (m *Manager) ListHosts(ctx context.Context, skip, limit int) ([]models.Host, int64, error) {
	var total int64
	if err := m.db.Model(&models.Host{}).Count(&total).Error; err != nil {
		return nil, 0, apperr.Wrap(err, apperr.CodeInternal, "failed to count hosts")
	}

	var hosts []models.Host
	if err := paginate(m.db.Order("name ASC"), skip, limit).Find(&hosts).Error; err != nil {
		return nil, 0, apperr.Wrap(err, apperr.CodeInternal, "failed to list hosts")
	}
	return hosts, total, nil
}

// UpdateHost updates a host
func (m *Manager) UpdateHost(ctx context.Context, id string, req *UpdateHostRequest) (*models.Host, error) {
	host, err := m.GetHost(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{"updated_at": time.Now()}
	if req.Name != nil && *req.Name != host.Name {
		taken, err := m.nameTaken(&models.Host{}, "name", *req.Name, id)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, apperr.Newf(apperr.CodeConflict, "host %q already exists", *req.Name)
		}
		updates["name"] = *req.Name
	}
	if req.IPv4Address != nil {
		updates["ipv4_address"] = *req.IPv4Address
	}
	if req.IPv6Address != nil {
		updates["ipv6_address"] = *req.IPv6Address
	}
	if req.SecretKey != nil {
		updates["secret_key"] = *req.SecretKey
	}
	if req.WelcomeBanner != nil {
		updates["welcome_banner"] = *req.WelcomeBanner
	}
	if req.RejectBanner != nil {
		updates["reject_banner"] = *req.RejectBanner
	}
	if req.MOTDBanner != nil {
		updates["motd_banner"] = *req.MOTDBanner
	}
	if req.FailedAuthBanner != nil {
		updates["failed_auth_banner"] = *req.FailedAuthBanner
	}
	if req.Parent != nil {
		if *req.Parent != "" {
			if err := m.hostExists(*req.Parent); err != nil {
				return nil, err
			}
		}
		updates["parent"] = *req.Parent
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}

	if err := m.db.Model(host).Updates(updates).Error; err != nil {
		return nil, apperr.Wrap(err, apperr.CodeInternal, "failed to update host")
	}

	return m.GetHost(ctx, id)
}

// DeleteHost deletes a host
func (m *Manager) DeleteHost(ctx context.Context, id string) error {
	host, err := m.GetHost(ctx, id)
	if err != nil {
		return err
	}

	if err := m.db.Delete(host).Error; err != nil {
		return apperr.Wrap(err, apperr.CodeInternal, "failed to delete host")
	}

	m.logger.Info("host deleted",
		zap.String("host_id", id),
		zap.String("name", host.Name))

	return nil
}

func (m *Manager) hostExists(name string) error {
	var count int64
	if err := m.db.Model(&models.Host{}).Where("name = ?", name).Count(&count).Error; err != nil {
		return apperr.Wrap(err, apperr.CodeInternal, "failed to check parent host")
	}
	if count == 0 {
		return apperr.Reference("host", "parent", name)
	}
	return nil
}
