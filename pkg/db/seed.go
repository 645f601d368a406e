// Package db provides database connectivity for the TACACS+ console.
package db

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/yourorg/tacacs-console/pkg/db/models"
)

// DefaultLogDirectory is where the daemon writes its AAA logs.
const DefaultLogDirectory = "/var/log/tac_plus-ng/"

// SeedDefaults creates the singleton daemon settings row and the initial
// superuser account when they do not exist yet. Safe to run repeatedly.
func SeedDefaults(db *gorm.DB, logger *zap.Logger, adminEmail, adminPassword string) error {
	var count int64
	if err := db.Model(&models.NgSetting{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count daemon settings: %w", err)
	}

	if count == 0 {
		setting := &models.NgSetting{
			ID:                uuid.New().String(),
			IPv4Enabled:       true,
			IPv4Address:       "0.0.0.0",
			IPv4Port:          49,
			IPv6Address:       "::",
			IPv6Port:          49,
			InstancesMin:      1,
			InstancesMax:      10,
			Background:        "no",
			AccessLog:         DefaultLogDirectory + "%Y/%m/access-%Y-%m-%d.log",
			AuthenticationLog: DefaultLogDirectory + "%Y/%m/authentication-%Y-%m-%d.log",
			AuthorizationLog:  DefaultLogDirectory + "%Y/%m/authorization-%Y-%m-%d.log",
			AccountingLog:     DefaultLogDirectory + "%Y/%m/accounting-%Y-%m-%d.log",
			LoginBackend:      "mavis",
			UserBackend:       "mavis",
			PAPBackend:        "mavis",
			CreatedAt:         time.Now(),
			UpdatedAt:         time.Now(),
		}
		if err := db.Create(setting).Error; err != nil {
			return fmt.Errorf("failed to seed daemon settings: %w", err)
		}
		logger.Info("seeded default daemon settings", zap.String("id", setting.ID))
	}

	if adminEmail == "" {
		return nil
	}

	if err := db.Model(&models.ConsoleUser{}).
		Where("email = ?", adminEmail).
		Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count console users: %w", err)
	}

	if count == 0 {
		hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("failed to hash admin password: %w", err)
		}
		admin := &models.ConsoleUser{
			ID:           uuid.New().String(),
			Email:        adminEmail,
			FullName:     "Administrator",
			PasswordHash: string(hash),
			IsActive:     true,
			IsSuperuser:  true,
			CreatedAt:    time.Now(),
			UpdatedAt:    time.Now(),
		}
		if err := db.Create(admin).Error; err != nil {
			return fmt.Errorf("failed to seed admin user: %w", err)
		}
		logger.Info("seeded admin user", zap.String("email", adminEmail))
	}

	return nil
}
