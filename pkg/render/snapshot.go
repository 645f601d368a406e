// Package render turns the declarative entity store into tac_plus-ng
// configuration text.
package render

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yourorg/tacacs-console/pkg/db/models"
)

// Snapshot is a full read of the entity store, the sole input to Render.
type Snapshot struct {
	Setting  *models.NgSetting
	Mavis    []models.Mavis
	Options  []models.ConfigurationOption
	Hosts    []models.Host
	Groups   []models.Group
	Users    []models.User
	Services []models.Service
	Profiles []models.Profile
	Rulesets []models.Ruleset
}

// LoadSnapshot reads every entity collection in one pass. Profiles and
// rulesets are loaded with their script trees.
func LoadSnapshot(db *gorm.DB) (*Snapshot, error) {
	snap := &Snapshot{}

	var settings []models.NgSetting
	if err := db.Limit(1).Find(&settings).Error; err != nil {
		return nil, fmt.Errorf("failed to load daemon settings: %w", err)
	}
	if len(settings) > 0 {
		snap.Setting = &settings[0]
	}

	if err := db.Order("mavis_key ASC").Find(&snap.Mavis).Error; err != nil {
		return nil, fmt.Errorf("failed to load mavis settings: %w", err)
	}
	if err := db.Order("name ASC").Find(&snap.Options).Error; err != nil {
		return nil, fmt.Errorf("failed to load configuration options: %w", err)
	}
	if err := db.Order("name ASC").Find(&snap.Hosts).Error; err != nil {
		return nil, fmt.Errorf("failed to load hosts: %w", err)
	}
	if err := db.Order("group_name ASC").Find(&snap.Groups).Error; err != nil {
		return nil, fmt.Errorf("failed to load groups: %w", err)
	}
	if err := db.Order("username ASC").Find(&snap.Users).Error; err != nil {
		return nil, fmt.Errorf("failed to load users: %w", err)
	}
	if err := db.Order("name ASC").Find(&snap.Services).Error; err != nil {
		return nil, fmt.Errorf("failed to load services: %w", err)
	}

	scriptOrder := func(tx *gorm.DB) *gorm.DB { return tx.Order("created_at ASC, id ASC") }

	if err := db.Preload("Scripts", scriptOrder).
		Preload("Scripts.Sets", scriptOrder).
		Order("name ASC").
		Find(&snap.Profiles).Error; err != nil {
		return nil, fmt.Errorf("failed to load profiles: %w", err)
	}
	if err := db.Preload("Scripts", scriptOrder).
		Preload("Scripts.Sets", scriptOrder).
		Order("name ASC").
		Find(&snap.Rulesets).Error; err != nil {
		return nil, fmt.Errorf("failed to load rulesets: %w", err)
	}

	return snap, nil
}
