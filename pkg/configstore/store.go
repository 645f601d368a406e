// Package configstore persists named configuration artifacts and manages
// which one is active.
package configstore

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/yourorg/tacacs-console/pkg/apperr"
	"github.com/yourorg/tacacs-console/pkg/checker"
	"github.com/yourorg/tacacs-console/pkg/db/models"
	"github.com/yourorg/tacacs-console/pkg/render"
)

// MaxFilenameLength bounds artifact filenames.
const MaxFilenameLength = 30

// ReservedFilename is the name of the live daemon config and can never
// be used for an artifact.
const ReservedFilename = "tac_plus-ng"

var filenamePattern = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)

// ValidateFilename enforces the artifact filename rules: safe charset,
// bounded length, no path-like values, no reserved names.
func ValidateFilename(filename string) error {
	if filename == "" {
		return apperr.Validation("filename", "filename is required")
	}
	if len(filename) > MaxFilenameLength {
		return apperr.Validation("filename", "filename exceeds 30 characters")
	}
	if filename == "." || filename == ".." {
		return apperr.Validation("filename", "filename cannot be '.' or '..'")
	}
	if !filenamePattern.MatchString(filename) {
		return apperr.Validation("filename",
			"only alphanumerics, dots, underscores, and hyphens are allowed")
	}
	if filename == ReservedFilename {
		return apperr.Validation("filename", "filename is reserved")
	}
	return nil
}

// Manager owns all ConfigArtifact records. Content is immutable after
// creation; only the description and active flag ever change.
type Manager struct {
	db      *gorm.DB
	checker checker.Checker
	logger  *zap.Logger
}

// NewManager creates a new artifact store manager
func NewManager(db *gorm.DB, chk checker.Checker, logger *zap.Logger) *Manager {
	return &Manager{
		db:      db,
		checker: chk,
		logger:  logger,
	}
}

// Preview renders the current entity snapshot without persisting anything.
func (m *Manager) Preview(ctx context.Context) (string, error) {
	snap, err := render.LoadSnapshot(m.db)
	if err != nil {
		return "", apperr.Wrap(err, apperr.CodeRender, "failed to load entity snapshot")
	}
	return render.Render(snap)
}

// Build renders the current snapshot and persists it as a new inactive
// artifact under the given filename.
func (m *Manager) Build(ctx context.Context, filename, description string) (*models.ConfigArtifact, error) {
	if err := ValidateFilename(filename); err != nil {
		return nil, err
	}

	var count int64
	if err := m.db.Model(&models.ConfigArtifact{}).
		Where("filename = ?", filename).
		Count(&count).Error; err != nil {
		return nil, apperr.Wrap(err, apperr.CodeInternal, "failed to check filename uniqueness")
	}
	if count > 0 {
		return nil, apperr.Newf(apperr.CodeDuplicateFilename,
			"a configuration named %q already exists", filename)
	}

	content, err := m.Preview(ctx)
	if err != nil {
		return nil, err
	}

	artifact := &models.ConfigArtifact{
		ID:          uuid.New().String(),
		Filename:    filename,
		Description: description,
		Content:     content,
		Active:      false,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}

	if err := m.db.Create(artifact).Error; err != nil {
		return nil, apperr.Wrap(err, apperr.CodeInternal, "failed to persist artifact")
	}

	m.logger.Info("configuration artifact built",
		zap.String("artifact_id", artifact.ID),
		zap.String("filename", filename),
		zap.Int("bytes", len(content)))

	return artifact, nil
}

// Get retrieves an artifact by ID.
func (m *Manager) Get(ctx context.Context, id string) (*models.ConfigArtifact, error) {
	var artifact models.ConfigArtifact
	if err := m.db.Where("id = ?", id).First(&artifact).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("configuration artifact")
		}
		return nil, apperr.Wrap(err, apperr.CodeInternal, "failed to get artifact")
	}
	return &artifact, nil
}

// GetContent returns the stored configuration text, byte for byte as it
// was rendered at build time.
func (m *Manager) GetContent(ctx context.Context, id string) (string, error) {
	artifact, err := m.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return artifact.Content, nil
}

// List returns one page of artifacts plus the total count, newest first.
// The secondary id ordering keeps pagination stable across equal
// timestamps.
func (m *Manager) List(ctx context.Context, skip, limit int) ([]models.ConfigArtifact, int64, error) {
	var total int64
	if err := m.db.Model(&models.ConfigArtifact{}).Count(&total).Error; err != nil {
		return nil, 0, apperr.Wrap(err, apperr.CodeInternal, "failed to count artifacts")
	}

	query := m.db.Order("created_at DESC, id DESC")
	if skip > 0 {
		query = query.Offset(skip)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	var artifacts []models.ConfigArtifact
	if err := query.Find(&artifacts).Error; err != nil {
		return nil, 0, apperr.Wrap(err, apperr.CodeInternal, "failed to list artifacts")
	}

	return artifacts, total, nil
}

// UpdateDescription updates an artifact's description. Filename and
// content are immutable after creation.
func (m *Manager) UpdateDescription(ctx context.Context, id, description string) (*models.ConfigArtifact, error) {
	artifact, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := m.db.Model(artifact).Updates(map[string]interface{}{
		"description": description,
		"updated_at":  time.Now(),
	}).Error; err != nil {
		return nil, apperr.Wrap(err, apperr.CodeInternal, "failed to update artifact")
	}

	return m.Get(ctx, id)
}

// Delete removes an artifact. The active artifact cannot be deleted.
func (m *Manager) Delete(ctx context.Context, id string) error {
	artifact, err := m.Get(ctx, id)
	if err != nil {
		return err
	}
	if artifact.Active {
		return apperr.New(apperr.CodeConflict, "the active configuration cannot be deleted")
	}

	result := m.db.Where("id = ? AND active = ?", id, false).
		Delete(&models.ConfigArtifact{})
	if result.Error != nil {
		return apperr.Wrap(result.Error, apperr.CodeInternal, "failed to delete artifact")
	}
	if result.RowsAffected == 0 {
		// Activated between the read and the delete.
		return apperr.New(apperr.CodeConcurrentModification,
			"artifact was activated while being deleted")
	}

	m.logger.Info("configuration artifact deleted",
		zap.String("artifact_id", id),
		zap.String("filename", artifact.Filename))

	return nil
}

// GetActive returns the single active artifact, or nil when no artifact
// has been activated yet.
func (m *Manager) GetActive(ctx context.Context) (*models.ConfigArtifact, error) {
	var artifact models.ConfigArtifact
	if err := m.db.Where("active = ?", true).First(&artifact).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, apperr.Wrap(err, apperr.CodeInternal, "failed to get active artifact")
	}
	return &artifact, nil
}

// Check runs the external syntax checker against a stored artifact.
func (m *Manager) Check(ctx context.Context, id string) (*checker.CheckResult, error) {
	artifact, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return m.checker.Check(ctx, artifact.Content)
}
