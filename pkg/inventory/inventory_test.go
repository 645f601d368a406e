package inventory

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yourorg/tacacs-console/pkg/apperr"
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

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	return NewManager(setupTestDB(t), zap.NewNop())
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func TestHostCRUD(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	host, err := m.CreateHost(ctx, &CreateHostRequest{
		Name:        "core-sw01",
		IPv4Address: "10.0.0.1",
		SecretKey:   "s3cr3t",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, host.ID)

	got, err := m.GetHost(ctx, host.ID)
	require.NoError(t, err)
	assert.Equal(t, "core-sw01", got.Name)

	updated, err := m.UpdateHost(ctx, host.ID, &UpdateHostRequest{
		IPv4Address: strPtr("10.0.0.2"),
		Description: strPtr("core switch"),
	})
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.2", updated.IPv4Address)
	assert.Equal(t, "core switch", updated.Description)
	assert.Equal(t, "s3cr3t", updated.SecretKey)

	require.NoError(t, m.DeleteHost(ctx, host.ID))
	_, err = m.GetHost(ctx, host.ID)
	assert.True(t, apperr.Is(err, apperr.CodeNotFound))
}

func TestHostDuplicateName(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	_, err := m.CreateHost(ctx, &CreateHostRequest{Name: "sw1", SecretKey: "k"})
	require.NoError(t, err)

	_, err = m.CreateHost(ctx, &CreateHostRequest{Name: "sw1", SecretKey: "k"})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.CodeConflict))
}

func TestHostParentMustExist(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	_, err := m.CreateHost(ctx, &CreateHostRequest{
		Name:      "child",
		SecretKey: "k",
		Parent:    "missing",
	})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.CodeReference))

	_, err = m.CreateHost(ctx, &CreateHostRequest{Name: "parent", SecretKey: "k"})
	require.NoError(t, err)

	child, err := m.CreateHost(ctx, &CreateHostRequest{
		Name:      "child",
		SecretKey: "k",
		Parent:    "parent",
	})
	require.NoError(t, err)

	_, err = m.UpdateHost(ctx, child.ID, &UpdateHostRequest{Parent: strPtr("also-missing")})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.CodeReference))

	// Clearing the parent is always allowed.
	cleared, err := m.UpdateHost(ctx, child.ID, &UpdateHostRequest{Parent: strPtr("")})
	require.NoError(t, err)
	assert.Empty(t, cleared.Parent)
}

func TestListHostsPagination(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	for _, name := range []string{"charlie", "alpha", "bravo"} {
		_, err := m.CreateHost(ctx, &CreateHostRequest{Name: name, SecretKey: "k"})
		require.NoError(t, err)
	}

	hosts, total, err := m.ListHosts(ctx, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, hosts, 3)
	assert.Equal(t, "alpha", hosts[0].Name)
	assert.Equal(t, "charlie", hosts[2].Name)

	page, total, err := m.ListHosts(ctx, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, page, 1)
	assert.Equal(t, "bravo", page[0].Name)
}

func TestGroupCRUD(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	group, err := m.CreateGroup(ctx, &CreateGroupRequest{GroupName: "netadmins"})
	require.NoError(t, err)

	_, err = m.CreateGroup(ctx, &CreateGroupRequest{GroupName: "netadmins"})
	assert.True(t, apperr.Is(err, apperr.CodeConflict))

	updated, err := m.UpdateGroup(ctx, group.ID, &UpdateGroupRequest{
		Description: strPtr("network administrators"),
	})
	require.NoError(t, err)
	assert.Equal(t, "network administrators", updated.Description)

	require.NoError(t, m.DeleteGroup(ctx, group.ID))
	_, err = m.GetGroup(ctx, group.ID)
	assert.True(t, apperr.Is(err, apperr.CodeNotFound))
}

func TestUserValidation(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	_, err := m.CreateGroup(ctx, &CreateGroupRequest{GroupName: "operators"})
	require.NoError(t, err)

	tests := []struct {
		name    string
		req     *CreateUserRequest
		wantErr apperr.Code
	}{
		{
			name: "mavis default",
			req:  &CreateUserRequest{Username: "alice", Member: "operators"},
		},
		{
			name: "clear with password",
			req: &CreateUserRequest{
				Username: "bob", PasswordType: "clear", Password: "hunter2", Member: "operators",
			},
		},
		{
			name: "clear without password",
			req: &CreateUserRequest{
				Username: "carol", PasswordType: "clear", Member: "operators",
			},
			wantErr: apperr.CodeValidation,
		},
		{
			name: "unknown password type",
			req: &CreateUserRequest{
				Username: "dave", PasswordType: "ldap", Member: "operators",
			},
			wantErr: apperr.CodeValidation,
		},
		{
			name: "unknown group",
			req:  &CreateUserRequest{Username: "erin", Member: "ghosts"},
			wantErr: apperr.CodeReference,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := m.CreateUser(ctx, tt.req)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.True(t, apperr.Is(err, tt.wantErr))
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, user.ID)
		})
	}
}

func TestUserDefaultsToMavis(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	_, err := m.CreateGroup(ctx, &CreateGroupRequest{GroupName: "operators"})
	require.NoError(t, err)

	user, err := m.CreateUser(ctx, &CreateUserRequest{Username: "alice", Member: "operators"})
	require.NoError(t, err)
	assert.Equal(t, models.PasswordTypeMavis, user.PasswordType)
}

func TestUpdateUserMemberReference(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	_, err := m.CreateGroup(ctx, &CreateGroupRequest{GroupName: "operators"})
	require.NoError(t, err)
	_, err = m.CreateGroup(ctx, &CreateGroupRequest{GroupName: "netadmins"})
	require.NoError(t, err)

	user, err := m.CreateUser(ctx, &CreateUserRequest{Username: "alice", Member: "operators"})
	require.NoError(t, err)

	updated, err := m.UpdateUser(ctx, user.ID, &UpdateUserRequest{Member: strPtr("netadmins")})
	require.NoError(t, err)
	assert.Equal(t, "netadmins", updated.Member)

	_, err = m.UpdateUser(ctx, user.ID, &UpdateUserRequest{Member: strPtr("ghosts")})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.CodeReference))
}

func TestServiceCRUD(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	svc, err := m.CreateService(ctx, &CreateServiceRequest{Name: "shell"})
	require.NoError(t, err)

	_, err = m.CreateService(ctx, &CreateServiceRequest{Name: "shell"})
	assert.True(t, apperr.Is(err, apperr.CodeConflict))

	services, total, err := m.ListServices(ctx, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, services, 1)

	require.NoError(t, m.DeleteService(ctx, svc.ID))
}

func TestProfileScripts(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	profile, err := m.CreateProfile(ctx, &CreateProfileRequest{
		Name:   "netadmin",
		Action: "deny",
		Scripts: []ScriptInput{
			{
				Condition: "if",
				Key:       "service",
				Value:     "shell",
				Action:    "permit",
				Sets: []ScriptSetInput{
					{Key: "priv-lvl", Value: "15"},
				},
			},
		},
	})
	require.NoError(t, err)

	got, err := m.GetProfile(ctx, profile.ID)
	require.NoError(t, err)
	require.Len(t, got.Scripts, 1)
	require.Len(t, got.Scripts[0].Sets, 1)
	assert.Equal(t, "priv-lvl", got.Scripts[0].Sets[0].Key)

	// A non-nil scripts slice replaces the clauses wholesale.
	replaced, err := m.UpdateProfile(ctx, profile.ID, &UpdateProfileRequest{
		Scripts: &[]ScriptInput{
			{Condition: "if", Key: "service", Value: "shell", Action: "permit"},
			{Condition: "if", Key: "cmd", Value: "show", Action: "permit"},
		},
	})
	require.NoError(t, err)
	require.Len(t, replaced.Scripts, 2)
	assert.Empty(t, replaced.Scripts[0].Sets)

	// Orphaned sets from the old clause are gone.
	var setCount int64
	require.NoError(t, m.db.Model(&models.ProfileScriptSet{}).Count(&setCount).Error)
	assert.Equal(t, int64(0), setCount)

	require.NoError(t, m.DeleteProfile(ctx, profile.ID))
	var scriptCount int64
	require.NoError(t, m.db.Model(&models.ProfileScript{}).Count(&scriptCount).Error)
	assert.Equal(t, int64(0), scriptCount)
}

func TestRulesetEnabledValidation(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	rule, err := m.CreateRuleset(ctx, &CreateRulesetRequest{Name: "admins", Action: "deny"})
	require.NoError(t, err)
	assert.Equal(t, "yes", rule.Enabled)

	_, err = m.CreateRuleset(ctx, &CreateRulesetRequest{
		Name: "bad", Enabled: "maybe", Action: "deny",
	})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.CodeValidation))

	updated, err := m.UpdateRuleset(ctx, rule.ID, &UpdateRulesetRequest{Enabled: strPtr("no")})
	require.NoError(t, err)
	assert.Equal(t, "no", updated.Enabled)

	_, err = m.UpdateRuleset(ctx, rule.ID, &UpdateRulesetRequest{Enabled: strPtr("maybe")})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.CodeValidation))
}

func TestRulesetScriptsReplace(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	rule, err := m.CreateRuleset(ctx, &CreateRulesetRequest{
		Name:   "admins",
		Action: "deny",
		Scripts: []ScriptInput{
			{
				Condition: "if",
				Key:       "member",
				Value:     "netadmins",
				Action:    "permit",
				Sets: []ScriptSetInput{
					{Key: "profile", Value: "netadmin"},
				},
			},
		},
	})
	require.NoError(t, err)
	require.Len(t, rule.Scripts, 1)

	replaced, err := m.UpdateRuleset(ctx, rule.ID, &UpdateRulesetRequest{
		Scripts: &[]ScriptInput{},
	})
	require.NoError(t, err)
	assert.Empty(t, replaced.Scripts)

	var setCount int64
	require.NoError(t, m.db.Model(&models.RulesetScriptSet{}).Count(&setCount).Error)
	assert.Equal(t, int64(0), setCount)
}

func seedSettings(t *testing.T, m *Manager) {
	t.Helper()
	require.NoError(t, m.db.Create(&models.NgSetting{
		ID:           "settings",
		IPv4Address:  "0.0.0.0",
		IPv4Port:     49,
		InstancesMin: 1,
		InstancesMax: 10,
		Background:   "no",
		LoginBackend: "mavis",
		UserBackend:  "mavis",
		PAPBackend:   "mavis",
	}).Error)
}

func TestSettingsUpdate(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	_, err := m.GetSettings(ctx)
	assert.True(t, apperr.Is(err, apperr.CodeNotFound))

	seedSettings(t, m)

	updated, err := m.UpdateSettings(ctx, &UpdateSettingsRequest{
		IPv4Port:     intPtr(4949),
		InstancesMax: intPtr(20),
	})
	require.NoError(t, err)
	assert.Equal(t, 4949, updated.IPv4Port)
	assert.Equal(t, 20, updated.InstancesMax)
	assert.Equal(t, "0.0.0.0", updated.IPv4Address)
}

func TestSettingsValidation(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	seedSettings(t, m)

	_, err := m.UpdateSettings(ctx, &UpdateSettingsRequest{InstancesMin: intPtr(0)})
	assert.True(t, apperr.Is(err, apperr.CodeValidation))

	_, err = m.UpdateSettings(ctx, &UpdateSettingsRequest{
		InstancesMin: intPtr(5),
		InstancesMax: intPtr(3),
	})
	assert.True(t, apperr.Is(err, apperr.CodeValidation))

	_, err = m.UpdateSettings(ctx, &UpdateSettingsRequest{Background: strPtr("maybe")})
	assert.True(t, apperr.Is(err, apperr.CodeValidation))
}

func TestMavisUpsert(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	created, err := m.UpsertMavis(ctx, &MavisRequest{
		MavisKey:   "LDAP_SERVER",
		MavisValue: "ldaps://old.example.com",
	})
	require.NoError(t, err)

	updated, err := m.UpsertMavis(ctx, &MavisRequest{
		MavisKey:   "LDAP_SERVER",
		MavisValue: "ldaps://new.example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "ldaps://new.example.com", updated.MavisValue)

	entries, err := m.ListMavis(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	require.NoError(t, m.DeleteMavis(ctx, created.ID))
	entries, err = m.ListMavis(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestOptionCRUD(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	opt, err := m.CreateOption(ctx, &OptionRequest{
		Name:         "host",
		ConfigOption: "connection timeout = 600",
	})
	require.NoError(t, err)

	_, err = m.CreateOption(ctx, &OptionRequest{
		Name:         "host",
		ConfigOption: "other",
	})
	assert.True(t, apperr.Is(err, apperr.CodeConflict))

	updated, err := m.UpdateOption(ctx, opt.ID, &OptionRequest{
		Name:         "host",
		ConfigOption: "connection timeout = 300",
	})
	require.NoError(t, err)
	assert.Equal(t, "connection timeout = 300", updated.ConfigOption)

	require.NoError(t, m.DeleteOption(ctx, opt.ID))
	opts, err := m.ListOptions(ctx)
	require.NoError(t, err)
	assert.Empty(t, opts)
}
