// Package inventory provides CRUD management for the TACACS+ entities
// that feed the config renderer: hosts, groups, users, services,
// profiles, rulesets, and daemon settings.
package inventory

import (
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/yourorg/tacacs-console/pkg/apperr"
)

// Manager manages the entity inventory
type Manager struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewManager creates a new inventory manager
func NewManager(db *gorm.DB, logger *zap.Logger) *Manager {
	return &Manager{
		db:     db,
		logger: logger,
	}
}

// paginate applies skip/limit to a query. A limit of 0 means no limit.
func paginate(query *gorm.DB, skip, limit int) *gorm.DB {
	if skip > 0 {
		query = query.Offset(skip)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	return query
}

// first loads a single record by ID, translating a miss into NOT_FOUND.
func (m *Manager) first(dest interface{}, resource, id string) error {
	if err := m.db.Where("id = ?", id).First(dest).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound(resource)
		}
		return apperr.Wrap(err, apperr.CodeInternal, "failed to load "+resource)
	}
	return nil
}

// nameTaken reports whether another record of the given model already
// uses the name. excludeID skips the record being updated.
func (m *Manager) nameTaken(model interface{}, column, name, excludeID string) (bool, error) {
	query := m.db.Model(model).Where(column+" = ?", name)
	if excludeID != "" {
		query = query.Where("id <> ?", excludeID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, apperr.Wrap(err, apperr.CodeInternal, "failed to check name uniqueness")
	}
	return count > 0, nil
}
