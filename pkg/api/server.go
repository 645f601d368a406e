// Package api provides the HTTP API for the TACACS+ console.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/yourorg/tacacs-console/pkg/audit"
	"github.com/yourorg/tacacs-console/pkg/auth"
	"github.com/yourorg/tacacs-console/pkg/configstore"
	"github.com/yourorg/tacacs-console/pkg/inventory"
	"github.com/yourorg/tacacs-console/pkg/metrics"
)

// ServerConfig represents server configuration
type ServerConfig struct {
	Host            string        `json:"host" yaml:"host"`
	Port            int           `json:"port" yaml:"port"`
	ReadTimeout     time.Duration `json:"read_timeout" yaml:"read_timeout"`
	WriteTimeout    time.Duration `json:"write_timeout" yaml:"write_timeout"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout"`
	Debug           bool          `json:"debug" yaml:"debug"`
	TrustedProxies  []string      `json:"trusted_proxies" yaml:"trusted_proxies"`
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Host:            "0.0.0.0",
		Port:            8080,
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		Debug:           false,
	}
}

// Server represents the HTTP server
type Server struct {
	config   *ServerConfig
	logger   *zap.Logger
	db       *gorm.DB
	router   *gin.Engine
	server   *http.Server
	handlers *Handlers
	authMW   *auth.Middleware
}

// Dependencies contains all dependencies needed by the server
type Dependencies struct {
	DB               *gorm.DB
	Logger           *zap.Logger
	AuthMiddleware   *auth.Middleware
	AuthService      *auth.Service
	InventoryManager *inventory.Manager
	ConfigStore      *configstore.Manager
	Coordinator      *configstore.Coordinator
	AuditLogger      *audit.Logger
	Metrics          *metrics.Metrics
}

// NewServer creates a new HTTP server
func NewServer(config *ServerConfig, deps *Dependencies) *Server {
	if !config.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLogger(deps.Logger))
	if deps.Metrics != nil {
		router.Use(deps.Metrics.Middleware())
	}

	if len(config.TrustedProxies) > 0 {
		router.SetTrustedProxies(config.TrustedProxies)
	}

	handlers := NewHandlers(
		deps.Logger,
		deps.DB,
		deps.AuthService,
		deps.InventoryManager,
		deps.ConfigStore,
		deps.Coordinator,
		deps.AuditLogger,
		deps.Metrics,
	)

	s := &Server{
		config:   config,
		logger:   deps.Logger,
		db:       deps.DB,
		router:   router,
		handlers: handlers,
		authMW:   deps.AuthMiddleware,
	}

	s.setupRoutes(deps.Metrics)

	return s
}

// setupRoutes configures all routes
func (s *Server) setupRoutes(m *metrics.Metrics) {
	// Health checks and metrics (no auth)
	s.router.GET("/health", s.handlers.HealthCheck)
	s.router.GET("/ready", s.handlers.Readiness)
	if m != nil {
		s.router.GET("/metrics", m.Handler())
	}

	v1 := s.router.Group("/api/v1")

	// Public routes
	v1.POST("/auth/login", s.handlers.Login)

	authenticated := v1.Group("")
	authenticated.Use(s.authMW.Authenticate())
	{
		authenticated.GET("/auth/me", s.handlers.CurrentUser)
		authenticated.POST("/auth/change-password", s.handlers.ChangePassword)

		entitiesRead := s.authMW.RequireScopes(auth.ScopeEntitiesRead)
		entitiesWrite := s.authMW.RequireScopes(auth.ScopeEntitiesWrite)

		hosts := authenticated.Group("/hosts")
		{
			hosts.GET("", entitiesRead, s.handlers.ListHosts)
			hosts.POST("", entitiesWrite, s.handlers.CreateHost)
			hosts.GET("/:host_id", entitiesRead, s.handlers.GetHost)
			hosts.PUT("/:host_id", entitiesWrite, s.handlers.UpdateHost)
			hosts.DELETE("/:host_id", entitiesWrite, s.handlers.DeleteHost)
		}

		groups := authenticated.Group("/groups")
		{
			groups.GET("", entitiesRead, s.handlers.ListGroups)
			groups.POST("", entitiesWrite, s.handlers.CreateGroup)
			groups.GET("/:group_id", entitiesRead, s.handlers.GetGroup)
			groups.PUT("/:group_id", entitiesWrite, s.handlers.UpdateGroup)
			groups.DELETE("/:group_id", entitiesWrite, s.handlers.DeleteGroup)
		}

		users := authenticated.Group("/users")
		{
			users.GET("", entitiesRead, s.handlers.ListUsers)
			users.POST("", entitiesWrite, s.handlers.CreateUser)
			users.GET("/:user_id", entitiesRead, s.handlers.GetUser)
			users.PUT("/:user_id", entitiesWrite, s.handlers.UpdateUser)
			users.DELETE("/:user_id", entitiesWrite, s.handlers.DeleteUser)
		}

		services := authenticated.Group("/services")
		{
			services.GET("", entitiesRead, s.handlers.ListServices)
			services.POST("", entitiesWrite, s.handlers.CreateService)
			services.GET("/:service_id", entitiesRead, s.handlers.GetService)
			services.PUT("/:service_id", entitiesWrite, s.handlers.UpdateService)
			services.DELETE("/:service_id", entitiesWrite, s.handlers.DeleteService)
		}

		profiles := authenticated.Group("/profiles")
		{
			profiles.GET("", entitiesRead, s.handlers.ListProfiles)
			profiles.POST("", entitiesWrite, s.handlers.CreateProfile)
			profiles.GET("/:profile_id", entitiesRead, s.handlers.GetProfile)
			profiles.PUT("/:profile_id", entitiesWrite, s.handlers.UpdateProfile)
			profiles.DELETE("/:profile_id", entitiesWrite, s.handlers.DeleteProfile)
		}

		rulesets := authenticated.Group("/rulesets")
		{
			rulesets.GET("", entitiesRead, s.handlers.ListRulesets)
			rulesets.POST("", entitiesWrite, s.handlers.CreateRuleset)
			rulesets.GET("/:ruleset_id", entitiesRead, s.handlers.GetRuleset)
			rulesets.PUT("/:ruleset_id", entitiesWrite, s.handlers.UpdateRuleset)
			rulesets.DELETE("/:ruleset_id", entitiesWrite, s.handlers.DeleteRuleset)
		}

		settingsWrite := s.authMW.RequireScopes(auth.ScopeSettingsWrite)

		settings := authenticated.Group("/settings")
		{
			settings.GET("/daemon", entitiesRead, s.handlers.GetSettings)
			settings.PUT("/daemon", settingsWrite, s.handlers.UpdateSettings)
			settings.GET("/mavis", entitiesRead, s.handlers.ListMavis)
			settings.PUT("/mavis", settingsWrite, s.handlers.UpsertMavis)
			settings.DELETE("/mavis/:mavis_id", settingsWrite, s.handlers.DeleteMavis)
			settings.GET("/options", entitiesRead, s.handlers.ListOptions)
			settings.POST("/options", settingsWrite, s.handlers.CreateOption)
			settings.PUT("/options/:option_id", settingsWrite, s.handlers.UpdateOption)
			settings.DELETE("/options/:option_id", settingsWrite, s.handlers.DeleteOption)
		}

		configsRead := s.authMW.RequireScopes(auth.ScopeConfigsRead)
		configsWrite := s.authMW.RequireScopes(auth.ScopeConfigsWrite)
		configsActivate := s.authMW.RequireScopes(auth.ScopeConfigActivate)

		configs := authenticated.Group("/configs")
		{
			configs.GET("/preview", configsRead, s.handlers.PreviewConfig)
			configs.GET("", configsRead, s.handlers.ListConfigs)
			configs.POST("", configsWrite, s.handlers.BuildConfig)
			configs.GET("/active", configsRead, s.handlers.GetActiveConfig)
			configs.GET("/:config_id", configsRead, s.handlers.GetConfig)
			configs.GET("/:config_id/content", configsRead, s.handlers.GetConfigContent)
			configs.PUT("/:config_id", configsWrite, s.handlers.UpdateConfigDescription)
			configs.DELETE("/:config_id", configsWrite, s.handlers.DeleteConfig)
			configs.POST("/:config_id/check", configsWrite, s.handlers.CheckConfig)
			configs.POST("/:config_id/activate", configsActivate, s.handlers.ActivateConfig)
		}
	}
}

// Start starts the HTTP server
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("starting HTTP server", zap.String("address", addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")

	shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	return s.server.Shutdown(shutdownCtx)
}

// Router returns the gin router for testing
func (s *Server) Router() *gin.Engine {
	return s.router
}

// RequestLogger returns a gin middleware for logging requests
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		fields := []zap.Field{
			zap.Int("status", status),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		}

		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		if status >= 500 {
			logger.Error("request completed", fields...)
		} else if status >= 400 {
			logger.Warn("request completed", fields...)
		} else {
			logger.Info("request completed", fields...)
		}
	}
}

// CORS returns a gin middleware for CORS
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
