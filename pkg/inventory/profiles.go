package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/yourorg/tacacs-console/pkg/apperr"
	"github.com/yourorg/tacacs-console/pkg/db/models"
)

// ScriptSetInput is one set/assignment attribute of a script clause.
type ScriptSetInput struct {
	Key         string `json:"key" binding:"required"`
	Value       string `json:"value" binding:"required"`
	Description string `json:"description"`
}

// ScriptInput is one conditional clause of a profile or rule script.
type ScriptInput struct {
	Condition   string           `json:"condition" binding:"required"`
	Key         string           `json:"key" binding:"required"`
	Value       string           `json:"value" binding:"required"`
	Action      string           `json:"action" binding:"required"`
	Description string           `json:"description"`
	Sets        []ScriptSetInput `json:"sets"`
}

// CreateProfileRequest represents a request to create a profile
type CreateProfileRequest struct {
	Name        string        `json:"name" binding:"required"`
	Action      string        `json:"action" binding:"required"`
	Description string        `json:"description"`
	Scripts     []ScriptInput `json:"scripts"`
}

// UpdateProfileRequest represents a request to update a profile. A
// non-nil Scripts slice replaces the profile's script clauses wholesale.
type UpdateProfileRequest struct {
	Name        *string        `json:"name"`
	Action      *string        `json:"action"`
	Description *string        `json:"description"`
	Scripts     *[]ScriptInput `json:"scripts"`
}

// CreateProfile creates a new profile with its script clauses
func (m *Manager) CreateProfile(ctx context.Context, req *CreateProfileRequest) (*models.Profile, error) {
	taken, err := m.nameTaken(&models.Profile{}, "name", req.Name, "")
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, apperr.Newf(apperr.CodeConflict, "profile %q already exists", req.Name)
	}

	profile := &models.Profile{
		ID:          uuid.New().String(),
		Name:        req.Name,
		Action:      req.Action,
		Description: req.Description,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}

	err = m.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(profile).Error; err != nil {
			return apperr.Wrap(err, apperr.CodeInternal, "failed to create profile")
		}
		return createProfileScripts(tx, profile.ID, req.Scripts)
	})
	if err != nil {
		return nil, err
	}

	m.logger.Info("profile created",
		zap.String("profile_id", profile.ID),
		zap.String("name", profile.Name),
		zap.Int("scripts", len(req.Scripts)))

	return m.GetProfile(ctx, profile.ID)
}

func createProfileScripts(tx *gorm.DB, profileID string, scripts []ScriptInput) error {
	for _, script := range scripts {
		record := &models.ProfileScript{
			ID:          uuid.New().String(),
			ProfileID:   profileID,
			Condition:   script.Condition,
			Key:         script.Key,
			Value:       script.Value,
			Action:      script.Action,
			Description: script.Description,
			CreatedAt:   time.Now(),
			UpdatedAt:   time.Now(),
		}
		if err := tx.Create(record).Error; err != nil {
			return apperr.Wrap(err, apperr.CodeInternal, "failed to create profile script")
		}
		for _, set := range script.Sets {
			setRecord := &models.ProfileScriptSet{
				ID:              uuid.New().String(),
				ProfileScriptID: record.ID,
				Key:             set.Key,
				Value:           set.Value,
				Description:     set.Description,
				CreatedAt:       time.Now(),
				UpdatedAt:       time.Now(),
			}
			if err := tx.Create(setRecord).Error; err != nil {
				return apperr.Wrap(err, apperr.CodeInternal, "failed to create profile script set")
			}
		}
	}
	return nil
}

// GetProfile retrieves a profile with its script clauses
func (m *Manager) GetProfile(ctx context.Context, id string) (*models.Profile, error) {
	var profile models.Profile
	err := m.db.Preload("Scripts", func(db *gorm.DB) *gorm.DB {
		return db.Order("created_at ASC, id ASC")
	}).Preload("Scripts.Sets", func(db *gorm.DB) *gorm.DB {
		return db.Order("created_at ASC, id ASC")
	}).Where("id = ?", id).First(&profile).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperr.NotFound("profile")
		}
		return nil, apperr.Wrap(err, apperr.CodeInternal, "failed to load profile")
	}
	return &profile, nil
}

// ListProfiles returns one page of profiles and the total count.
func (m *Manager) ListProfiles(ctx context.Context, skip, limit int) ([]models.Profile, int64, error) {
	var total int64
	if err := m.db.Model(&models.Profile{}).Count(&total).Error; err != nil {
		return nil, 0, apperr.Wrap(err, apperr.CodeInternal, "failed to count profiles")
	}

	var profiles []models.Profile
	query := paginate(m.db.Order("name ASC"), skip, limit).
		Preload("Scripts", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC, id ASC")
		}).
		Preload("Scripts.Sets", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC, id ASC")
		})
	if err := query.Find(&profiles).Error; err != nil {
		return nil, 0, apperr.Wrap(err, apperr.CodeInternal, "failed to list profiles")
	}
	return profiles, total, nil
}

// UpdateProfile updates a profile. When Scripts is provided, the
// existing clauses are replaced in one transaction.
func (m *Manager) UpdateProfile(ctx context.Context, id string, req *UpdateProfileRequest) (*models.Profile, error) {
	profile, err := m.GetProfile(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{"updated_at": time.Now()}
	if req.Name != nil && *req.Name != profile.Name {
		taken, err := m.nameTaken(&models.Profile{}, "name", *req.Name, id)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, apperr.Newf(apperr.CodeConflict, "profile %q already exists", *req.Name)
		}
		updates["name"] = *req.Name
	}
	if req.Action != nil {
		updates["action"] = *req.Action
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}

	err = m.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Profile{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return apperr.Wrap(err, apperr.CodeInternal, "failed to update profile")
		}
		if req.Scripts != nil {
			if err := deleteProfileScripts(tx, id); err != nil {
				return err
			}
			return createProfileScripts(tx, id, *req.Scripts)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return m.GetProfile(ctx, id)
}

func deleteProfileScripts(tx *gorm.DB, profileID string) error {
	var scriptIDs []string
	if err := tx.Model(&models.ProfileScript{}).
		Where("profile_id = ?", profileID).
		Pluck("id", &scriptIDs).Error; err != nil {
		return apperr.Wrap(err, apperr.CodeInternal, "failed to load profile scripts")
	}
	if len(scriptIDs) > 0 {
		if err := tx.Where("profile_script_id IN ?", scriptIDs).
			Delete(&models.ProfileScriptSet{}).Error; err != nil {
			return apperr.Wrap(err, apperr.CodeInternal, "failed to delete profile script sets")
		}
	}
	if err := tx.Where("profile_id = ?", profileID).
		Delete(&models.ProfileScript{}).Error; err != nil {
		return apperr.Wrap(err, apperr.CodeInternal, "failed to delete profile scripts")
	}
	return nil
}

// DeleteProfile deletes a profile and its script clauses. Rules that
// still assign the profile will surface as dangling references at the
// next render.
func (m *Manager) DeleteProfile(ctx context.Context, id string) error {
	profile, err := m.GetProfile(ctx, id)
	if err != nil {
		return err
	}

	err = m.db.Transaction(func(tx *gorm.DB) error {
		if err := deleteProfileScripts(tx, id); err != nil {
			return err
		}
		if err := tx.Delete(&models.Profile{}, "id = ?", id).Error; err != nil {
			return apperr.Wrap(err, apperr.CodeInternal, "failed to delete profile")
		}
		return nil
	})
	if err != nil {
		return err
	}

	m.logger.Info("profile deleted",
		zap.String("profile_id", id),
		zap.String("name", profile.Name))

	return nil
}
