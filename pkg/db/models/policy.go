// Package models contains database models for the TACACS+ console.
package models

import (
	"time"
)

// Profile represents an authorization profile compiled into a
// `profile <name> { script { ... } }` block.
type Profile struct {
	ID          string    `gorm:"primaryKey;size:64" json:"id"`
	Name        string    `gorm:"size:255;uniqueIndex;not null" json:"name"`
	Action      string    `gorm:"size:255;not null" json:"action"`
	Description string    `gorm:"type:text" json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Scripts []ProfileScript `gorm:"foreignKey:ProfileID;constraint:OnDelete:CASCADE" json:"scripts,omitempty"`
}

// TableName returns the table name for Profile
func (Profile) TableName() string {
	return "profiles"
}

// ProfileScript is one conditional clause inside a profile script block.
// Key/Value form the match expression, e.g. `if (service == shell)`.
type ProfileScript struct {
	ID          string    `gorm:"primaryKey;size:64" json:"id"`
	ProfileID   string    `gorm:"size:64;not null;index" json:"profile_id"`
	Condition   string    `gorm:"size:255;not null" json:"condition"`
	Key         string    `gorm:"size:255;not null" json:"key"`
	Value       string    `gorm:"size:255;not null" json:"value"`
	Action      string    `gorm:"size:255;not null" json:"action"`
	Description string    `gorm:"type:text" json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Sets []ProfileScriptSet `gorm:"foreignKey:ProfileScriptID;constraint:OnDelete:CASCADE" json:"sets,omitempty"`
}

// TableName returns the table name for ProfileScript
func (ProfileScript) TableName() string {
	return "profile_scripts"
}

// ProfileScriptSet is a `set key=value` attribute emitted inside a
// profile script clause.
type ProfileScriptSet struct {
	ID              string    `gorm:"primaryKey;size:64" json:"id"`
	ProfileScriptID string    `gorm:"size:64;not null;index" json:"profilescript_id"`
	Key             string    `gorm:"size:255;not null" json:"key"`
	Value           string    `gorm:"size:255;not null" json:"value"`
	Description     string    `gorm:"type:text" json:"description,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// TableName returns the table name for ProfileScriptSet
func (ProfileScriptSet) TableName() string {
	return "profile_script_sets"
}

// Ruleset represents a named rule inside the daemon's ruleset block.
type Ruleset struct {
	ID          string    `gorm:"primaryKey;size:64" json:"id"`
	Name        string    `gorm:"size:255;uniqueIndex;not null" json:"name"`
	Enabled     string    `gorm:"size:8;not null;default:'yes'" json:"enabled"`
	Action      string    `gorm:"size:255;not null" json:"action"`
	Description string    `gorm:"type:text" json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Scripts []RulesetScript `gorm:"foreignKey:RulesetID;constraint:OnDelete:CASCADE" json:"scripts,omitempty"`
}

// TableName returns the table name for Ruleset
func (Ruleset) TableName() string {
	return "rulesets"
}

// RulesetScript is one conditional clause inside a rule script block.
// When Key is "member" or "group", Value names a Group; when Key is
// "profile", Value names a Profile. Both must resolve at render time.
type RulesetScript struct {
	ID          string    `gorm:"primaryKey;size:64" json:"id"`
	RulesetID   string    `gorm:"size:64;not null;index" json:"ruleset_id"`
	Condition   string    `gorm:"size:255;not null" json:"condition"`
	Key         string    `gorm:"size:255;not null" json:"key"`
	Value       string    `gorm:"size:255;not null" json:"value"`
	Action      string    `gorm:"size:255;not null" json:"action"`
	Description string    `gorm:"type:text" json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Sets []RulesetScriptSet `gorm:"foreignKey:RulesetScriptID;constraint:OnDelete:CASCADE" json:"sets,omitempty"`
}

// TableName returns the table name for RulesetScript
func (RulesetScript) TableName() string {
	return "ruleset_scripts"
}

// RulesetScriptSet is a `key=value` assignment emitted inside a rule
// script clause, e.g. `profile=netadmin`.
type RulesetScriptSet struct {
	ID              string    `gorm:"primaryKey;size:64" json:"id"`
	RulesetScriptID string    `gorm:"size:64;not null;index" json:"rulesetscript_id"`
	Key             string    `gorm:"size:255;not null" json:"key"`
	Value           string    `gorm:"size:255;not null" json:"value"`
	Description     string    `gorm:"type:text" json:"description,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// TableName returns the table name for RulesetScriptSet
func (RulesetScriptSet) TableName() string {
	return "ruleset_script_sets"
}
