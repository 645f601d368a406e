package configstore

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/yourorg/tacacs-console/pkg/apperr"
	"github.com/yourorg/tacacs-console/pkg/db/models"
)

// Coordinator switches the active configuration. At most one artifact is
// active at any time, and a switch is all-or-nothing: either the target
// ends up as the sole active artifact or the previous state is untouched.
type Coordinator struct {
	db     *gorm.DB
	logger *zap.Logger

	// Serializes in-process activation requests. Cross-process races are
	// handled by the guarded update inside the transaction.
	mu sync.Mutex
}

// NewCoordinator creates a new activation coordinator
func NewCoordinator(db *gorm.DB, logger *zap.Logger) *Coordinator {
	return &Coordinator{
		db:     db,
		logger: logger,
	}
}

// Activate makes the given artifact the active configuration. Activating
// the already-active artifact is a no-op success. A concurrent switch
// that steals the flip is retried once before reporting a conflict.
func (c *Coordinator) Activate(ctx context.Context, id string) (*models.ConfigArtifact, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for attempt := 0; attempt < 2; attempt++ {
		artifact, err := c.tryActivate(id)
		if err == nil {
			return artifact, nil
		}
		if !apperr.Is(err, apperr.CodeConcurrentModification) {
			return nil, err
		}
		c.logger.Warn("activation lost a concurrent flip, retrying",
			zap.String("artifact_id", id),
			zap.Int("attempt", attempt+1))
	}

	return nil, apperr.Newf(apperr.CodeConcurrentModification,
		"configuration %s was modified concurrently during activation", id)
}

func (c *Coordinator) tryActivate(id string) (*models.ConfigArtifact, error) {
	var activated *models.ConfigArtifact

	err := c.db.Transaction(func(tx *gorm.DB) error {
		var artifact models.ConfigArtifact
		if err := tx.Where("id = ?", id).First(&artifact).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("configuration artifact")
			}
			return apperr.Wrap(err, apperr.CodeInternal, "failed to load artifact")
		}

		if artifact.Active {
			// Idempotent: already the active configuration.
			activated = &artifact
			return nil
		}

		now := time.Now()
		if err := tx.Model(&models.ConfigArtifact{}).
			Where("active = ?", true).
			Updates(map[string]interface{}{
				"active":     false,
				"updated_at": now,
			}).Error; err != nil {
			return apperr.Wrap(err, apperr.CodeInternal, "failed to deactivate previous configuration")
		}

		// Guarded flip: zero rows affected means somebody else changed
		// this artifact between our read and the update.
		result := tx.Model(&models.ConfigArtifact{}).
			Where("id = ? AND active = ?", id, false).
			Updates(map[string]interface{}{
				"active":     true,
				"updated_at": now,
			})
		if result.Error != nil {
			return apperr.Wrap(result.Error, apperr.CodeInternal, "failed to activate configuration")
		}
		if result.RowsAffected == 0 {
			return apperr.Newf(apperr.CodeConcurrentModification,
				"configuration %s changed during activation", id)
		}

		artifact.Active = true
		artifact.UpdatedAt = now
		activated = &artifact
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.logger.Info("configuration activated",
		zap.String("artifact_id", activated.ID),
		zap.String("filename", activated.Filename))

	return activated, nil
}
