package render

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yourorg/tacacs-console/pkg/db"
	"github.com/yourorg/tacacs-console/pkg/db/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(gdb))
	return gdb
}

func TestLoadSnapshot(t *testing.T) {
	gdb := setupTestDB(t)

	require.NoError(t, gdb.Create(testSetting()).Error)
	require.NoError(t, gdb.Create(&models.Group{ID: uuid.New().String(), GroupName: "netadmins"}).Error)
	require.NoError(t, gdb.Create(&models.User{
		ID:           uuid.New().String(),
		Username:     "alice",
		PasswordType: models.PasswordTypeMavis,
		Member:       "netadmins",
	}).Error)

	profile := &models.Profile{
		ID:     uuid.New().String(),
		Name:   "netadmin",
		Action: "deny",
	}
	require.NoError(t, gdb.Create(profile).Error)
	script := &models.ProfileScript{
		ID:        uuid.New().String(),
		ProfileID: profile.ID,
		Condition: "if",
		Key:       "service",
		Value:     "shell",
		Action:    "permit",
	}
	require.NoError(t, gdb.Create(script).Error)
	require.NoError(t, gdb.Create(&models.ProfileScriptSet{
		ID:              uuid.New().String(),
		ProfileScriptID: script.ID,
		Key:             "priv-lvl",
		Value:           "15",
	}).Error)

	snap, err := LoadSnapshot(gdb)
	require.NoError(t, err)

	require.NotNil(t, snap.Setting)
	require.Len(t, snap.Groups, 1)
	require.Len(t, snap.Users, 1)
	require.Len(t, snap.Profiles, 1)
	require.Len(t, snap.Profiles[0].Scripts, 1)
	require.Len(t, snap.Profiles[0].Scripts[0].Sets, 1)

	out, err := Render(snap)
	require.NoError(t, err)
	require.Contains(t, out, "    profile netadmin {")
}

func TestLoadSnapshotEmptyStore(t *testing.T) {
	gdb := setupTestDB(t)

	snap, err := LoadSnapshot(gdb)
	require.NoError(t, err)
	require.Nil(t, snap.Setting)
}
