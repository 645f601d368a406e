// Package models contains database models for the TACACS+ console.
package models

import (
	"time"
)

// Group represents a TACACS+ user group.
type Group struct {
	ID          string    `gorm:"primaryKey;size:64" json:"id"`
	GroupName   string    `gorm:"size:255;uniqueIndex;not null" json:"group_name"`
	Description string    `gorm:"type:text" json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName returns the table name for Group
func (Group) TableName() string {
	return "tacacs_groups"
}

// PasswordType selects how a user's login password is verified.
type PasswordType string

const (
	PasswordTypeMavis PasswordType = "mavis"
	PasswordTypeClear PasswordType = "clear"
	PasswordTypeCrypt PasswordType = "crypt"
)

// User represents a TACACS+ user. Member names the group the user belongs
// to; it must resolve to an existing Group at render time.
type User struct {
	ID           string       `gorm:"primaryKey;size:64" json:"id"`
	Username     string       `gorm:"size:255;uniqueIndex;not null" json:"username"`
	PasswordType PasswordType `gorm:"size:32;not null;default:'mavis'" json:"password_type"`
	Password     string       `gorm:"size:255" json:"password,omitempty"`
	Member       string       `gorm:"size:255;not null;index" json:"member"`
	Description  string       `gorm:"type:text" json:"description,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// TableName returns the table name for User
func (User) TableName() string {
	return "tacacs_users"
}

// Service represents a TACACS+ authorization service name.
type Service struct {
	ID          string    `gorm:"primaryKey;size:64" json:"id"`
	Name        string    `gorm:"size:255;uniqueIndex;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName returns the table name for Service
func (Service) TableName() string {
	return "tacacs_services"
}
