// Package models contains database models for the TACACS+ console.
package models

import (
	"time"
)

// NgSetting holds the daemon-wide listener, spawn, and log settings.
// A single row is expected; the migrate command seeds the defaults.
type NgSetting struct {
	ID            string    `gorm:"primaryKey;size:64" json:"id"`
	IPv4Enabled   bool      `gorm:"column:ipv4_enabled;default:true" json:"ipv4_enabled"`
	IPv4Address   string    `gorm:"column:ipv4_address;size:64;default:'0.0.0.0'" json:"ipv4_address"`
	IPv4Port      int       `gorm:"column:ipv4_port;default:49" json:"ipv4_port"`
	IPv6Enabled   bool      `gorm:"column:ipv6_enabled;default:false" json:"ipv6_enabled"`
	IPv6Address   string    `gorm:"column:ipv6_address;size:64;default:'::'" json:"ipv6_address"`
	IPv6Port      int       `gorm:"column:ipv6_port;default:49" json:"ipv6_port"`
	InstancesMin  int       `gorm:"default:1" json:"instances_min"`
	InstancesMax  int       `gorm:"default:10" json:"instances_max"`
	Background    string    `gorm:"size:8;default:'no'" json:"background"`
	AccessLog     string    `gorm:"size:1024" json:"access_logfile_destination"`
	AuthenticationLog string `gorm:"size:1024" json:"authentication_logfile_destination"`
	AuthorizationLog  string `gorm:"size:1024" json:"authorization_logfile_destination"`
	AccountingLog     string `gorm:"size:1024" json:"accounting_logfile_destination"`
	LoginBackend  string    `gorm:"size:64;default:'mavis'" json:"login_backend"`
	UserBackend   string    `gorm:"size:64;default:'mavis'" json:"user_backend"`
	PAPBackend    string    `gorm:"size:64;default:'mavis'" json:"pap_backend"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TableName returns the table name for NgSetting
func (NgSetting) TableName() string {
	return "ng_settings"
}

// Mavis is one environment variable passed to the MAVIS external
// authentication module.
type Mavis struct {
	ID         string    `gorm:"primaryKey;size:64" json:"id"`
	MavisKey   string    `gorm:"size:255;uniqueIndex;not null" json:"mavis_key"`
	MavisValue string    `gorm:"size:255;not null" json:"mavis_value"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TableName returns the table name for Mavis
func (Mavis) TableName() string {
	return "mavis_settings"
}

// ConfigurationOption is a raw config snippet injected ahead of the named
// section ("host", "group", "user") in the rendered output.
type ConfigurationOption struct {
	ID           string    `gorm:"primaryKey;size:64" json:"id"`
	Name         string    `gorm:"size:255;uniqueIndex;not null" json:"name"`
	ConfigOption string    `gorm:"type:text;not null" json:"config_option"`
	Description  string    `gorm:"type:text" json:"description,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName returns the table name for ConfigurationOption
func (ConfigurationOption) TableName() string {
	return "configuration_options"
}
