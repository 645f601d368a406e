package configstore

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/yourorg/tacacs-console/pkg/apperr"
	"github.com/yourorg/tacacs-console/pkg/db/models"
)

func countActive(t *testing.T, gdb *gorm.DB) int64 {
	t.Helper()
	var count int64
	require.NoError(t, gdb.Model(&models.ConfigArtifact{}).
		Where("active = ?", true).
		Count(&count).Error)
	return count
}

func TestActivate(t *testing.T) {
	m, gdb := newTestManager(t)
	c := NewCoordinator(gdb, zap.NewNop())
	ctx := context.Background()

	artifact, err := m.Build(ctx, "one", "")
	require.NoError(t, err)

	activated, err := c.Activate(ctx, artifact.ID)
	require.NoError(t, err)
	assert.True(t, activated.Active)
	assert.Equal(t, int64(1), countActive(t, gdb))
}

func TestActivateIdempotent(t *testing.T) {
	m, gdb := newTestManager(t)
	c := NewCoordinator(gdb, zap.NewNop())
	ctx := context.Background()

	artifact, err := m.Build(ctx, "one", "")
	require.NoError(t, err)

	_, err = c.Activate(ctx, artifact.ID)
	require.NoError(t, err)

	again, err := c.Activate(ctx, artifact.ID)
	require.NoError(t, err)
	assert.True(t, again.Active)
	assert.Equal(t, int64(1), countActive(t, gdb))
}

func TestActivateSwitches(t *testing.T) {
	m, gdb := newTestManager(t)
	c := NewCoordinator(gdb, zap.NewNop())
	ctx := context.Background()

	first, err := m.Build(ctx, "first", "")
	require.NoError(t, err)
	second, err := m.Build(ctx, "second", "")
	require.NoError(t, err)

	_, err = c.Activate(ctx, first.ID)
	require.NoError(t, err)
	_, err = c.Activate(ctx, second.ID)
	require.NoError(t, err)

	assert.Equal(t, int64(1), countActive(t, gdb))

	previous, err := m.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.False(t, previous.Active)

	current, err := m.GetActive(ctx)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, second.ID, current.ID)
}

func TestActivateNotFound(t *testing.T) {
	_, gdb := newTestManager(t)
	c := NewCoordinator(gdb, zap.NewNop())

	_, err := c.Activate(context.Background(), "no-such-artifact")
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.CodeNotFound))
}

func TestActivateConcurrent(t *testing.T) {
	m, gdb := newTestManager(t)
	c := NewCoordinator(gdb, zap.NewNop())
	ctx := context.Background()

	ids := make([]string, 5)
	for i := range ids {
		artifact, err := m.Build(ctx, fmt.Sprintf("cfg-%d", i), "")
		require.NoError(t, err)
		ids[i] = artifact.ID
	}

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := c.Activate(ctx, id)
			assert.NoError(t, err)
		}(id)
	}
	wg.Wait()

	// Whichever activation landed last, exactly one artifact is active.
	assert.Equal(t, int64(1), countActive(t, gdb))
}
