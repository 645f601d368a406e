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

// CreateRulesetRequest represents a request to create a rule
type CreateRulesetRequest struct {
	Name        string        `json:"name" binding:"required"`
	Enabled     string        `json:"enabled"`
	Action      string        `json:"action" binding:"required"`
	Description string        `json:"description"`
	Scripts     []ScriptInput `json:"scripts"`
}

// UpdateRulesetRequest represents a request to update a rule. A non-nil
// Scripts slice replaces the rule's script clauses wholesale.
type UpdateRulesetRequest struct {
	Name        *string        `json:"name"`
	Enabled     *string        `json:"enabled"`
	Action      *string        `json:"action"`
	Description *string        `json:"description"`
	Scripts     *[]ScriptInput `json:"scripts"`
}

func validEnabled(v string) bool {
	return v == "yes" || v == "no"
}

// CreateRuleset creates a new rule with its script clauses
func (m *Manager) CreateRuleset(ctx context.Context, req *CreateRulesetRequest) (*models.Ruleset, error) {
	taken, err := m.nameTaken(&models.Ruleset{}, "name", req.Name, "")
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, apperr.Newf(apperr.CodeConflict, "rule %q already exists", req.Name)
	}

	enabled := req.Enabled
	if enabled == "" {
		enabled = "yes"
	}
	if !validEnabled(enabled) {
		return nil, apperr.Validation("enabled", "must be 'yes' or 'no'")
	}

	ruleset := &models.Ruleset{
		ID:          uuid.New().String(),
		Name:        req.Name,
		Enabled:     enabled,
		Action:      req.Action,
		Description: req.Description,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}

	err = m.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(ruleset).Error; err != nil {
			return apperr.Wrap(err, apperr.CodeInternal, "failed to create rule")
		}
		return createRulesetScripts(tx, ruleset.ID, req.Scripts)
	})
	if err != nil {
		return nil, err
	}

	m.logger.Info("rule created",
		zap.String("ruleset_id", ruleset.ID),
		zap.String("name", ruleset.Name),
		zap.Int("scripts", len(req.Scripts)))

	return m.GetRuleset(ctx, ruleset.ID)
}

func createRulesetScripts(tx *gorm.DB, rulesetID string, scripts []ScriptInput) error {
	for _, script := range scripts {
		record := &models.RulesetScript{
			ID:          uuid.New().String(),
			RulesetID:   rulesetID,
			Condition:   script.Condition,
			Key:         script.Key,
			Value:       script.Value,
			Action:      script.Action,
			Description: script.Description,
			CreatedAt:   time.Now(),
			UpdatedAt:   time.Now(),
		}
		if err := tx.Create(record).Error; err != nil {
			return apperr.Wrap(err, apperr.CodeInternal, "failed to create rule script")
		}
		for _, set := range script.Sets {
			setRecord := &models.RulesetScriptSet{
				ID:              uuid.New().String(),
				RulesetScriptID: record.ID,
				Key:             set.Key,
				Value:           set.Value,
				Description:     set.Description,
				CreatedAt:       time.Now(),
				UpdatedAt:       time.Now(),
			}
			if err := tx.Create(setRecord).Error; err != nil {
				return apperr.Wrap(err, apperr.CodeInternal, "failed to create rule script set")
			}
		}
	}
	return nil
}

// GetRuleset retrieves a rule with its script clauses
func (m *Manager) GetRuleset(ctx context.Context, id string) (*models.Ruleset, error) {
	var ruleset models.Ruleset
	err := m.db.Preload("Scripts", func(db *gorm.DB) *gorm.DB {
		return db.Order("created_at ASC, id ASC")
	}).Preload("Scripts.Sets", func(db *gorm.DB) *gorm.DB {
		return db.Order("created_at ASC, id ASC")
	}).Where("id = ?", id).First(&ruleset).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperr.NotFound("rule")
		}
		return nil, apperr.Wrap(err, apperr.CodeInternal, "failed to load rule")
	}
	return &ruleset, nil
}

// ListRulesets returns one page of rules and the total count.
func (m *Manager) ListRulesets(ctx context.Context, skip, limit int) ([]models.Ruleset, int64, error) {
	var total int64
	if err := m.db.Model(&models.Ruleset{}).Count(&total).Error; err != nil {
		return nil, 0, apperr.Wrap(err, apperr.CodeInternal, "failed to count rules")
	}

	var rulesets []models.Ruleset
	query := paginate(m.db.Order("name ASC"), skip, limit).
		Preload("Scripts", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC, id ASC")
		}).
		Preload("Scripts.Sets", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC, id ASC")
		})
	if err := query.Find(&rulesets).Error; err != nil {
		return nil, 0, apperr.Wrap(err, apperr.CodeInternal, "failed to list rules")
	}
	return rulesets, total, nil
}

// UpdateRuleset updates a rule. When Scripts is provided, the existing
// clauses are replaced in one transaction.
func (m *Manager) UpdateRuleset(ctx context.Context, id string, req *UpdateRulesetRequest) (*models.Ruleset, error) {
	ruleset, err := m.GetRuleset(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{"updated_at": time.Now()}
	if req.Name != nil && *req.Name != ruleset.Name {
		taken, err := m.nameTaken(&models.Ruleset{}, "name", *req.Name, id)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, apperr.Newf(apperr.CodeConflict, "rule %q already exists", *req.Name)
		}
		updates["name"] = *req.Name
	}
	if req.Enabled != nil {
		if !validEnabled(*req.Enabled) {
			return nil, apperr.Validation("enabled", "must be 'yes' or 'no'")
		}
		updates["enabled"] = *req.Enabled
	}
	if req.Action != nil {
		updates["action"] = *req.Action
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}

	err = m.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Ruleset{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return apperr.Wrap(err, apperr.CodeInternal, "failed to update rule")
		}
		if req.Scripts != nil {
			if err := deleteRulesetScripts(tx, id); err != nil {
				return err
			}
			return createRulesetScripts(tx, id, *req.Scripts)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return m.GetRuleset(ctx, id)
}

func deleteRulesetScripts(tx *gorm.DB, rulesetID string) error {
	var scriptIDs []string
	if err := tx.Model(&models.RulesetScript{}).
		Where("ruleset_id = ?", rulesetID).
		Pluck("id", &scriptIDs).Error; err != nil {
		return apperr.Wrap(err, apperr.CodeInternal, "failed to load rule scripts")
	}
	if len(scriptIDs) > 0 {
		if err := tx.Where("ruleset_script_id IN ?", scriptIDs).
			Delete(&models.RulesetScriptSet{}).Error; err != nil {
			return apperr.Wrap(err, apperr.CodeInternal, "failed to delete rule script sets")
		}
	}
	if err := tx.Where("ruleset_id = ?", rulesetID).
		Delete(&models.RulesetScript{}).Error; err != nil {
		return apperr.Wrap(err, apperr.CodeInternal, "failed to delete rule scripts")
	}
	return nil
}

// DeleteRuleset deletes a rule and its script clauses
func (m *Manager) DeleteRuleset(ctx context.Context, id string) error {
	ruleset, err := m.GetRuleset(ctx, id)
	if err != nil {
		return err
	}

	err = m.db.Transaction(func(tx *gorm.DB) error {
		if err := deleteRulesetScripts(tx, id); err != nil {
			return err
		}
		if err := tx.Delete(&models.Ruleset{}, "id = ?", id).Error; err != nil {
			return apperr.Wrap(err, apperr.CodeInternal, "failed to delete rule")
		}
		return nil
	})
	if err != nil {
		return err
	}

	m.logger.Info("rule deleted",
		zap.String("ruleset_id", id),
		zap.String("name", ruleset.Name))

	return nil
}
