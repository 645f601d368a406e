// Package models contains database models for the TACACS+ console.
package models

import (
	"time"
)

// ConfigArtifact is a persisted, named rendering of the full configuration
// at a point in time. Filename and Content are immutable after creation;
// only Description and the Active flag may change. At most one artifact
// has Active=true across the store.
type ConfigArtifact struct {
	ID          string    `gorm:"primaryKey;size:64" json:"id"`
	Filename    string    `gorm:"size:64;uniqueIndex;not null" json:"filename"`
	Description string    `gorm:"type:text" json:"description,omitempty"`
	Content     string    `gorm:"type:text;not null" json:"-"`
	Active      bool      `gorm:"not null;default:false;index" json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName returns the table name for ConfigArtifact
func (ConfigArtifact) TableName() string {
	return "config_artifacts"
}
