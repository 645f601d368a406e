package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yourorg/tacacs-console/pkg/auth"
	"github.com/yourorg/tacacs-console/pkg/checker"
	"github.com/yourorg/tacacs-console/pkg/configstore"
	"github.com/yourorg/tacacs-console/pkg/db"
	"github.com/yourorg/tacacs-console/pkg/db/models"
	"github.com/yourorg/tacacs-console/pkg/inventory"
	"github.com/yourorg/tacacs-console/pkg/metrics"
)

type stubChecker struct {
	result *checker.CheckResult
}

func (s *stubChecker) Check(ctx context.Context, content string) (*checker.CheckResult, error) {
	return s.result, nil
}

type testEnv struct {
	router *gin.Engine
	db     *gorm.DB
	token  string
}

func setupTestServer(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(gdb))

	require.NoError(t, gdb.Create(&models.NgSetting{
		ID:                "settings",
		IPv4Address:       "0.0.0.0",
		IPv4Port:          49,
		InstancesMin:      1,
		InstancesMax:      10,
		Background:        "no",
		AccessLog:         "/var/log/tac_plus-ng/access.log",
		AuthenticationLog: "/var/log/tac_plus-ng/authentication.log",
		AuthorizationLog:  "/var/log/tac_plus-ng/authorization.log",
		AccountingLog:     "/var/log/tac_plus-ng/accounting.log",
		LoginBackend:      "mavis",
		UserBackend:       "mavis",
		PAPBackend:        "mavis",
	}).Error)

	hash, err := bcrypt.GenerateFromPassword([]byte("changeme123"), bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, gdb.Create(&models.ConsoleUser{
		ID:           uuid.New().String(),
		Email:        "admin@example.com",
		PasswordHash: string(hash),
		IsActive:     true,
		IsSuperuser:  true,
	}).Error)

	log := zap.NewNop()
	jwtManager := auth.NewJWTManager("test-secret", "tacacs-console", time.Hour)
	chk := &stubChecker{result: &checker.CheckResult{
		Status:  checker.StatusPass,
		Line:    0,
		Message: "Syntax check successful.",
	}}

	store := configstore.NewManager(gdb, chk, log)

	server := NewServer(DefaultServerConfig(), &Dependencies{
		DB:               gdb,
		Logger:           log,
		AuthMiddleware:   auth.NewMiddleware(jwtManager, gdb, log),
		AuthService:      auth.NewService(gdb, jwtManager, log),
		InventoryManager: inventory.NewManager(gdb, log),
		ConfigStore:      store,
		Coordinator:      configstore.NewCoordinator(gdb, log),
		Metrics:          metrics.New(),
	})

	env := &testEnv{router: server.Router(), db: gdb}
	env.token = env.login(t, "admin@example.com", "changeme123")
	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) login(t *testing.T, email, password string) string {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/v1/auth/login", gin.H{
		"email":    email,
		"password": password,
	}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, "bearer", resp.TokenType)
	require.NotEmpty(t, resp.AccessToken)
	return resp.AccessToken
}

func decode(t *testing.T, w *httptest.ResponseRecorder, dest interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), dest), w.Body.String())
}

func TestHealthAndReady(t *testing.T) {
	env := setupTestServer(t)

	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/health", nil, "").Code)
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/ready", nil, "").Code)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	env := setupTestServer(t)

	w := env.do(t, http.MethodPost, "/api/v1/auth/login", gin.H{
		"email":    "admin@example.com",
		"password": "wrong",
	}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	var resp struct {
		Code string `json:"code"`
	}
	decode(t, w, &resp)
	assert.Equal(t, "UNAUTHORIZED", resp.Code)
}

func TestRoutesRequireAuth(t *testing.T) {
	env := setupTestServer(t)

	for _, path := range []string{
		"/api/v1/hosts",
		"/api/v1/configs",
		"/api/v1/settings/daemon",
	} {
		w := env.do(t, http.MethodGet, path, nil, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
}

func TestCurrentUser(t *testing.T) {
	env := setupTestServer(t)

	w := env.do(t, http.MethodGet, "/api/v1/auth/me", nil, env.token)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Email     string `json:"email"`
		Superuser bool   `json:"superuser"`
	}
	decode(t, w, &resp)
	assert.Equal(t, "admin@example.com", resp.Email)
	assert.True(t, resp.Superuser)
}

func TestHostLifecycle(t *testing.T) {
	env := setupTestServer(t)

	w := env.do(t, http.MethodPost, "/api/v1/hosts", gin.H{
		"name":         "core-sw01",
		"ipv4_address": "10.0.0.1",
		"secret_key":   "s3cr3t",
	}, env.token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var host models.Host
	decode(t, w, &host)
	require.NotEmpty(t, host.ID)

	// Duplicate name is a conflict.
	w = env.do(t, http.MethodPost, "/api/v1/hosts", gin.H{
		"name":       "core-sw01",
		"secret_key": "k",
	}, env.token)
	assert.Equal(t, http.StatusConflict, w.Code)

	// Dangling parent reference is rejected up front.
	w = env.do(t, http.MethodPost, "/api/v1/hosts", gin.H{
		"name":       "orphan",
		"secret_key": "k",
		"parent":     "missing",
	}, env.token)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPut, "/api/v1/hosts/"+host.ID, gin.H{
		"description": "core switch",
	}, env.token)
	require.Equal(t, http.StatusOK, w.Code)

	var list struct {
		Hosts []models.Host `json:"hosts"`
		Total int64         `json:"total"`
	}
	w = env.do(t, http.MethodGet, "/api/v1/hosts", nil, env.token)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &list)
	assert.Equal(t, int64(1), list.Total)

	w = env.do(t, http.MethodDelete, "/api/v1/hosts/"+host.ID, nil, env.token)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/api/v1/hosts/"+host.ID, nil, env.token)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestConfigLifecycle(t *testing.T) {
	env := setupTestServer(t)

	w := env.do(t, http.MethodGet, "/api/v1/configs/preview", nil, env.token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "id = tac_plus-ng {")

	// No active config yet.
	w = env.do(t, http.MethodGet, "/api/v1/configs/active", nil, env.token)
	require.Equal(t, http.StatusOK, w.Code)
	var active struct {
		Active *models.ConfigArtifact `json:"active"`
	}
	decode(t, w, &active)
	assert.Nil(t, active.Active)

	w = env.do(t, http.MethodPost, "/api/v1/configs", gin.H{
		"filename":    "prod-2026-09",
		"description": "initial rollout",
	}, env.token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var artifact models.ConfigArtifact
	decode(t, w, &artifact)
	require.NotEmpty(t, artifact.ID)
	assert.False(t, artifact.Active)

	// Duplicate filename.
	w = env.do(t, http.MethodPost, "/api/v1/configs", gin.H{
		"filename": "prod-2026-09",
	}, env.token)
	assert.Equal(t, http.StatusConflict, w.Code)

	// Invalid filename.
	w = env.do(t, http.MethodPost, "/api/v1/configs", gin.H{
		"filename": "../escape",
	}, env.token)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodGet, "/api/v1/configs/"+artifact.ID+"/content", nil, env.token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "id = spawnd {")

	w = env.do(t, http.MethodPost, "/api/v1/configs/"+artifact.ID+"/check", nil, env.token)
	require.Equal(t, http.StatusOK, w.Code)
	var check checker.CheckResult
	decode(t, w, &check)
	assert.Equal(t, checker.StatusPass, check.Status)
	assert.Equal(t, 0, check.Line)

	w = env.do(t, http.MethodPost, "/api/v1/configs/"+artifact.ID+"/activate", nil, env.token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.do(t, http.MethodGet, "/api/v1/configs/active", nil, env.token)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &active)
	require.NotNil(t, active.Active)
	assert.Equal(t, artifact.ID, active.Active.ID)

	// The active artifact cannot be deleted.
	w = env.do(t, http.MethodDelete, "/api/v1/configs/"+artifact.ID, nil, env.token)
	assert.Equal(t, http.StatusConflict, w.Code)

	// Activation is idempotent.
	w = env.do(t, http.MethodPost, "/api/v1/configs/"+artifact.ID+"/activate", nil, env.token)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodPost, "/api/v1/configs/missing/activate", nil, env.token)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestActivationSwitchesActive(t *testing.T) {
	env := setupTestServer(t)

	var first, second models.ConfigArtifact

	w := env.do(t, http.MethodPost, "/api/v1/configs", gin.H{"filename": "first"}, env.token)
	require.Equal(t, http.StatusCreated, w.Code)
	decode(t, w, &first)

	w = env.do(t, http.MethodPost, "/api/v1/configs", gin.H{"filename": "second"}, env.token)
	require.Equal(t, http.StatusCreated, w.Code)
	decode(t, w, &second)

	require.Equal(t, http.StatusOK,
		env.do(t, http.MethodPost, "/api/v1/configs/"+first.ID+"/activate", nil, env.token).Code)
	require.Equal(t, http.StatusOK,
		env.do(t, http.MethodPost, "/api/v1/configs/"+second.ID+"/activate", nil, env.token).Code)

	var count int64
	require.NoError(t, env.db.Model(&models.ConfigArtifact{}).
		Where("active = ?", true).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	w = env.do(t, http.MethodGet, "/api/v1/configs/active", nil, env.token)
	var active struct {
		Active *models.ConfigArtifact `json:"active"`
	}
	decode(t, w, &active)
	require.NotNil(t, active.Active)
	assert.Equal(t, second.ID, active.Active.ID)
}

func TestScopeEnforcement(t *testing.T) {
	env := setupTestServer(t)

	// An operator without the activate scope can build but not activate.
	hash, err := bcrypt.GenerateFromPassword([]byte("operator123"), bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, env.db.Create(&models.ConsoleUser{
		ID:           uuid.New().String(),
		Email:        "op@example.com",
		PasswordHash: string(hash),
		IsActive:     true,
	}).Error)
	opToken := env.login(t, "op@example.com", "operator123")

	w := env.do(t, http.MethodPost, "/api/v1/configs", gin.H{"filename": "by-op"}, opToken)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var artifact models.ConfigArtifact
	decode(t, w, &artifact)

	w = env.do(t, http.MethodPost, "/api/v1/configs/"+artifact.ID+"/activate", nil, opToken)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodPut, "/api/v1/settings/daemon", gin.H{"ipv4_port": 4949}, opToken)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestSettingsEndpoints(t *testing.T) {
	env := setupTestServer(t)

	w := env.do(t, http.MethodPut, "/api/v1/settings/daemon", gin.H{
		"ipv4_port":     4949,
		"instances_max": 20,
	}, env.token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var setting models.NgSetting
	decode(t, w, &setting)
	assert.Equal(t, 4949, setting.IPv4Port)

	w = env.do(t, http.MethodPut, "/api/v1/settings/daemon", gin.H{
		"instances_min": 0,
	}, env.token)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPut, "/api/v1/settings/mavis", gin.H{
		"mavis_key":   "LDAP_SERVER",
		"mavis_value": "ldaps://ldap.example.com",
	}, env.token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// The variable shows up in the rendered preview.
	w = env.do(t, http.MethodGet, "/api/v1/configs/preview", nil, env.token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `setenv LDAP_SERVER = "ldaps://ldap.example.com"`)
}

func TestRenderErrorSurfacesOnBuild(t *testing.T) {
	env := setupTestServer(t)

	// A group the renderer will fail to resolve.
	w := env.do(t, http.MethodPost, "/api/v1/groups", gin.H{"group_name": "netadmins"}, env.token)
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.do(t, http.MethodPost, "/api/v1/users", gin.H{
		"username": "alice",
		"member":   "netadmins",
	}, env.token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	// Bypass the manager to break the reference the way a raw DB edit would.
	require.NoError(t, env.db.Model(&models.User{}).
		Where("username = ?", "alice").
		Update("member", "ghosts").Error)

	w = env.do(t, http.MethodPost, "/api/v1/configs", gin.H{"filename": "broken"}, env.token)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp struct {
		Code    string                 `json:"code"`
		Details map[string]interface{} `json:"details"`
	}
	decode(t, w, &resp)
	assert.Equal(t, "REFERENCE_ERROR", resp.Code)
	assert.Equal(t, "member", resp.Details["field"])
}
