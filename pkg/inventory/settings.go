package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/yourorg/tacacs-console/pkg/apperr"
	"github.com/yourorg/tacacs-console/pkg/db/models"
)

// UpdateSettingsRequest updates the singleton daemon settings. Nil
// fields are left unchanged.
type UpdateSettingsRequest struct {
	IPv4Enabled       *bool   `json:"ipv4_enabled"`
	IPv4Address       *string `json:"ipv4_address"`
	IPv4Port          *int    `json:"ipv4_port"`
	IPv6Enabled       *bool   `json:"ipv6_enabled"`
	IPv6Address       *string `json:"ipv6_address"`
	IPv6Port          *int    `json:"ipv6_port"`
	InstancesMin      *int    `json:"instances_min"`
	InstancesMax      *int    `json:"instances_max"`
	Background        *string `json:"background"`
	AccessLog         *string `json:"access_logfile_destination"`
	AuthenticationLog *string `json:"authentication_logfile_destination"`
	AuthorizationLog  *string `json:"authorization_logfile_destination"`
	AccountingLog     *string `json:"accounting_logfile_destination"`
	LoginBackend      *string `json:"login_backend"`
	UserBackend       *string `json:"user_backend"`
	PAPBackend        *string `json:"pap_backend"`
}

// GetSettings returns the singleton daemon settings row.
func (m *Manager) GetSettings(ctx context.Context) (*models.NgSetting, error) {
	var setting models.NgSetting
	if err := m.db.First(&setting).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("daemon settings")
		}
		return nil, apperr.Wrap(err, apperr.CodeInternal, "failed to load daemon settings")
	}
	return &setting, nil
}

// UpdateSettings updates the singleton daemon settings row.
func (m *Manager) UpdateSettings(ctx context.Context, req *UpdateSettingsRequest) (*models.NgSetting, error) {
	setting, err := m.GetSettings(ctx)
	if err != nil {
		return nil, err
	}

	if req.InstancesMin != nil && *req.InstancesMin < 1 {
		return nil, apperr.Validation("instances_min", "must be at least 1")
	}
	if req.InstancesMax != nil {
		min := setting.InstancesMin
		if req.InstancesMin != nil {
			min = *req.InstancesMin
		}
		if *req.InstancesMax < min {
			return nil, apperr.Validation("instances_max", "must be >= instances_min")
		}
	}
	if req.Background != nil && !validEnabled(*req.Background) {
		return nil, apperr.Validation("background", "must be 'yes' or 'no'")
	}

	updates := map[string]interface{}{"updated_at": time.Now()}
	if req.IPv4Enabled != nil {
		updates["ipv4_enabled"] = *req.IPv4Enabled
	}
	if req.IPv4Address != nil {
		updates["ipv4_address"] = *req.IPv4Address
	}
	if req.IPv4Port != nil {
		updates["ipv4_port"] = *req.IPv4Port
	}
	if req.IPv6Enabled != nil {
		updates["ipv6_enabled"] = *req.IPv6Enabled
	}
	if req.IPv6Address != nil {
		updates["ipv6_address"] = *req.IPv6Address
	}
	if req.IPv6Port != nil {
		updates["ipv6_port"] = *req.IPv6Port
	}
	if req.InstancesMin != nil {
		updates["instances_min"] = *req.InstancesMin
	}
	if req.InstancesMax != nil {
		updates["instances_max"] = *req.InstancesMax
	}
	if req.Background != nil {
		updates["background"] = *req.Background
	}
	if req.AccessLog != nil {
		updates["access_log"] = *req.AccessLog
	}
	if req.AuthenticationLog != nil {
		updates["authentication_log"] = *req.AuthenticationLog
	}
	if req.AuthorizationLog != nil {
		updates["authorization_log"] = *req.AuthorizationLog
	}
	if req.AccountingLog != nil {
		updates["accounting_log"] = *req.AccountingLog
	}
	if req.LoginBackend != nil {
		updates["login_backend"] = *req.LoginBackend
	}
	if req.UserBackend != nil {
		updates["user_backend"] = *req.UserBackend
	}
	if req.PAPBackend != nil {
		updates["pap_backend"] = *req.PAPBackend
	}

	if err := m.db.Model(setting).Updates(updates).Error; err != nil {
		return nil, apperr.Wrap(err, apperr.CodeInternal, "failed to update daemon settings")
	}

	m.logger.Info("daemon settings updated", zap.Int("fields", len(updates)-1))

	return m.GetSettings(ctx)
}

// MavisRequest creates or updates a MAVIS environment variable.
type MavisRequest struct {
	MavisKey   string `json:"mavis_key" binding:"required"`
	MavisValue string `json:"mavis_value" binding:"required"`
}

// ListMavis returns all MAVIS variables sorted by key.
func (m *Manager) ListMavis(ctx context.Context) ([]models.Mavis, error) {
	var entries []models.Mavis
	if err := m.db.Order("mavis_key ASC").Find(&entries).Error; err != nil {
		return nil, apperr.Wrap(err, apperr.CodeInternal, "failed to list mavis variables")
	}
	return entries, nil
}

// UpsertMavis creates a MAVIS variable or updates its value in place.
func (m *Manager) UpsertMavis(ctx context.Context, req *MavisRequest) (*models.Mavis, error) {
	var entry models.Mavis
	err := m.db.Where("mavis_key = ?", req.MavisKey).First(&entry).Error
	switch {
	case err == nil:
		if err := m.db.Model(&entry).Updates(map[string]interface{}{
			"mavis_value": req.MavisValue,
			"updated_at":  time.Now(),
		}).Error; err != nil {
			return nil, apperr.Wrap(err, apperr.CodeInternal, "failed to update mavis variable")
		}
		entry.MavisValue = req.MavisValue
		return &entry, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		entry = models.Mavis{
			ID:         uuid.New().String(),
			MavisKey:   req.MavisKey,
			MavisValue: req.MavisValue,
			CreatedAt:  time.Now(),
			UpdatedAt:  time.Now(),
		}
		if err := m.db.Create(&entry).Error; err != nil {
			return nil, apperr.Wrap(err, apperr.CodeInternal, "failed to create mavis variable")
		}
		m.logger.Info("mavis variable created", zap.String("mavis_key", entry.MavisKey))
		return &entry, nil
	default:
		return nil, apperr.Wrap(err, apperr.CodeInternal, "failed to load mavis variable")
	}
}

// DeleteMavis deletes a MAVIS variable by ID.
func (m *Manager) DeleteMavis(ctx context.Context, id string) error {
	var entry models.Mavis
	if err := m.first(&entry, "mavis variable", id); err != nil {
		return err
	}
	if err := m.db.Delete(&entry).Error; err != nil {
		return apperr.Wrap(err, apperr.CodeInternal, "failed to delete mavis variable")
	}
	m.logger.Info("mavis variable deleted", zap.String("mavis_key", entry.MavisKey))
	return nil
}

// OptionRequest creates or updates a configuration option snippet.
type OptionRequest struct {
	Name         string `json:"name" binding:"required"`
	ConfigOption string `json:"config_option" binding:"required"`
	Description  string `json:"description"`
}

// ListOptions returns all configuration option snippets sorted by name.
func (m *Manager) ListOptions(ctx context.Context) ([]models.ConfigurationOption, error) {
	var options []models.ConfigurationOption
	if err := m.db.Order("name ASC").Find(&options).Error; err != nil {
		return nil, apperr.Wrap(err, apperr.CodeInternal, "failed to list configuration options")
	}
	return options, nil
}

// CreateOption creates a configuration option snippet.
func (m *Manager) CreateOption(ctx context.Context, req *OptionRequest) (*models.ConfigurationOption, error) {
	taken, err := m.nameTaken(&models.ConfigurationOption{}, "name", req.Name, "")
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, apperr.Newf(apperr.CodeConflict, "configuration option %q already exists", req.Name)
	}

	option := &models.ConfigurationOption{
		ID:           uuid.New().String(),
		Name:         req.Name,
		ConfigOption: req.ConfigOption,
		Description:  req.Description,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	if err := m.db.Create(option).Error; err != nil {
		return nil, apperr.Wrap(err, apperr.CodeInternal, "failed to create configuration option")
	}

	m.logger.Info("configuration option created", zap.String("name", option.Name))
	return option, nil
}

// UpdateOption updates a configuration option snippet.
func (m *Manager) UpdateOption(ctx context.Context, id string, req *OptionRequest) (*models.ConfigurationOption, error) {
	var option models.ConfigurationOption
	if err := m.first(&option, "configuration option", id); err != nil {
		return nil, err
	}

	if req.Name != option.Name {
		taken, err := m.nameTaken(&models.ConfigurationOption{}, "name", req.Name, id)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, apperr.Newf(apperr.CodeConflict, "configuration option %q already exists", req.Name)
		}
	}

	if err := m.db.Model(&option).Updates(map[string]interface{}{
		"name":          req.Name,
		"config_option": req.ConfigOption,
		"description":   req.Description,
		"updated_at":    time.Now(),
	}).Error; err != nil {
		return nil, apperr.Wrap(err, apperr.CodeInternal, "failed to update configuration option")
	}

	var updated models.ConfigurationOption
	if err := m.first(&updated, "configuration option", id); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteOption deletes a configuration option snippet.
func (m *Manager) DeleteOption(ctx context.Context, id string) error {
	var option models.ConfigurationOption
	if err := m.first(&option, "configuration option", id); err != nil {
		return err
	}
	if err := m.db.Delete(&option).Error; err != nil {
		return apperr.Wrap(err, apperr.CodeInternal, "failed to delete configuration option")
	}
	m.logger.Info("configuration option deleted", zap.String("name", option.Name))
	return nil
}
