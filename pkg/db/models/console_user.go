// Package models contains database models for the TACACS+ console.
package models

import (
	"time"
)

// ConsoleUser is an operator account for the admin console itself,
// distinct from the TACACS+ users the daemon authenticates.
type ConsoleUser struct {
	ID           string    `gorm:"primaryKey;size:64" json:"id"`
	Email        string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	FullName     string    `gorm:"size:255" json:"full_name,omitempty"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	IsActive     bool      `gorm:"not null;default:true" json:"is_active"`
	IsSuperuser  bool      `gorm:"not null;default:false" json:"is_superuser"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName returns the table name for ConsoleUser
func (ConsoleUser) TableName() string {
	return "console_users"
}
