// Package models contains database models for the TACACS+ console.
package models

import (
	"time"
)

// Host represents a network device that authenticates against the daemon.
// Parent optionally names another host whose settings this one inherits.
type Host struct {
	ID             string    `gorm:"primaryKey;size:64" json:"id"`
	Name           string    `gorm:"size:255;uniqueIndex;not null" json:"name"`
	IPv4Address    string    `gorm:"column:ipv4_address;size:64" json:"ipv4_address,omitempty"`
	IPv6Address    string    `gorm:"column:ipv6_address;size:64" json:"ipv6_address,omitempty"`
	SecretKey      string    `gorm:"size:255;not null" json:"secret_key"`
	WelcomeBanner  string    `gorm:"type:text" json:"welcome_banner,omitempty"`
	RejectBanner   string    `gorm:"type:text" json:"reject_banner,omitempty"`
	MOTDBanner     string    `gorm:"type:text" json:"motd_banner,omitempty"`
	FailedAuthBanner string  `gorm:"type:text" json:"failed_authentication_banner,omitempty"`
	Parent         string    `gorm:"size:255" json:"parent,omitempty"`
	Description    string    `gorm:"type:text" json:"description,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TableName returns the table name for Host
func (Host) TableName() string {
	return "hosts"
}
