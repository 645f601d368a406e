// Package main provides the TACACS+ console server entry point.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/yourorg/tacacs-console/internal/version"
	"github.com/yourorg/tacacs-console/pkg/api"
	"github.com/yourorg/tacacs-console/pkg/audit"
	"github.com/yourorg/tacacs-console/pkg/auth"
	"github.com/yourorg/tacacs-console/pkg/checker"
	"github.com/yourorg/tacacs-console/pkg/configstore"
	"github.com/yourorg/tacacs-console/pkg/db"
	"github.com/yourorg/tacacs-console/pkg/inventory"
	"github.com/yourorg/tacacs-console/pkg/metrics"
	"github.com/yourorg/tacacs-console/pkg/render"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "tacacs-console",
		Short: "TACACS+ configuration console",
		Long:  `Build, validate, and activate tac_plus-ng configurations from a managed entity inventory.`,
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(versionCmd)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("/etc/tacacs-console/")
	}

	viper.SetEnvPrefix("TC")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Fprintf(os.Stderr, "Error reading config file: %v\n", err)
		}
	}
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the console API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations and seed defaults",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMigrations()
	},
}

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render the current configuration to stdout",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRender()
	},
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Render the current configuration and run the syntax checker",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCheck()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("Version: %s\n", version.Version)
		fmt.Printf("Commit: %s\n", version.GitCommit)
		fmt.Printf("Build Date: %s\n", version.BuildDate)
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func dbConfigFromViper() *db.Config {
	cfg := &db.Config{
		Host:               viper.GetString("database.host"),
		Port:               viper.GetInt("database.port"),
		Username:           viper.GetString("database.user"),
		Password:           viper.GetString("database.password"),
		Database:           viper.GetString("database.name"),
		MaxConnections:     viper.GetInt("database.max_open_conns"),
		MaxIdleConnections: viper.GetInt("database.max_idle_conns"),
		ConnectionLifetime: viper.GetDuration("database.conn_max_lifetime"),
		LogLevel:           viper.GetString("database.log_level"),
	}

	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.Port == 0 {
		cfg.Port = 3306
	}
	if cfg.Username == "" {
		cfg.Username = "root"
	}
	if cfg.Database == "" {
		cfg.Database = "tacacsconsole"
	}
	if cfg.MaxConnections == 0 {
		cfg.MaxConnections = 25
	}
	if cfg.MaxIdleConnections == 0 {
		cfg.MaxIdleConnections = 5
	}
	if cfg.ConnectionLifetime == 0 {
		cfg.ConnectionLifetime = 5 * time.Minute
	}

	return cfg
}

func newChecker(logger *zap.Logger) checker.Checker {
	return checker.NewBinaryChecker(
		viper.GetString("checker.binary"),
		viper.GetDuration("checker.timeout"),
		logger,
	)
}

func runServer() error {
	logger, err := createLogger()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Sync()

	logger.Info("starting tacacs console server",
		zap.String("version", version.Version))

	conn, err := db.NewConnection(dbConfigFromViper(), logger)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	database := conn.DB()

	if err := conn.AutoMigrate(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	jwtSecret := viper.GetString("auth.jwt_secret")
	if jwtSecret == "" {
		jwtSecret = "default-secret-change-in-production"
		logger.Warn("using default JWT secret, change in production!")
	}

	tokenExpiry := viper.GetDuration("auth.token_expiry")
	if tokenExpiry == 0 {
		tokenExpiry = 12 * time.Hour
	}

	issuer := viper.GetString("auth.issuer")
	if issuer == "" {
		issuer = "tacacs-console"
	}

	jwtManager := auth.NewJWTManager(jwtSecret, issuer, tokenExpiry)
	authService := auth.NewService(database, jwtManager, logger)
	authMW := auth.NewMiddleware(jwtManager, database, logger)

	inventoryManager := inventory.NewManager(database, logger)
	chk := newChecker(logger)
	store := configstore.NewManager(database, chk, logger)
	coordinator := configstore.NewCoordinator(database, logger)

	// Audit logging is optional; the console runs fine without Quickwit.
	var auditLogger *audit.Logger
	if viper.GetBool("quickwit.enabled") {
		quickwitConfig := audit.DefaultQuickwitConfig()
		if url := viper.GetString("quickwit.url"); url != "" {
			quickwitConfig.BaseURL = url
		}
		if indexID := viper.GetString("quickwit.index_id"); indexID != "" {
			quickwitConfig.IndexID = indexID
		}

		quickwitClient := audit.NewQuickwitClient(quickwitConfig, logger)
		auditLogger = audit.NewLogger(quickwitClient, quickwitConfig, logger)

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := auditLogger.EnsureIndex(ctx); err != nil {
			logger.Warn("failed to ensure audit index", zap.Error(err))
		}
		cancel()
	}

	serverConfig := api.DefaultServerConfig()
	if host := viper.GetString("server.host"); host != "" {
		serverConfig.Host = host
	}
	if port := viper.GetInt("server.port"); port != 0 {
		serverConfig.Port = port
	}
	serverConfig.Debug = viper.GetBool("server.debug")

	server := api.NewServer(serverConfig, &api.Dependencies{
		DB:               database,
		Logger:           logger,
		AuthMiddleware:   authMW,
		AuthService:      authService,
		InventoryManager: inventoryManager,
		ConfigStore:      store,
		Coordinator:      coordinator,
		AuditLogger:      auditLogger,
		Metrics:          metrics.New(),
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("received shutdown signal")
		cancel()

		if err := server.Shutdown(context.Background()); err != nil {
			logger.Error("failed to shutdown server", zap.Error(err))
		}

		if auditLogger != nil {
			if err := auditLogger.Close(); err != nil {
				logger.Error("failed to close audit logger", zap.Error(err))
			}
		}
	}()

	errChan := make(chan error, 1)
	go func() {
		errChan <- server.Start()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		return nil
	}
}

func runMigrations() error {
	logger, err := createLogger()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Sync()

	conn, err := db.NewConnection(dbConfigFromViper(), logger)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := conn.AutoMigrate(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	adminEmail := viper.GetString("admin.email")
	adminPassword := viper.GetString("admin.password")
	if adminEmail == "" {
		adminEmail = "admin@example.com"
	}
	if adminPassword == "" {
		adminPassword = "changeme"
		logger.Warn("seeding default admin password, change it immediately")
	}

	return db.SeedDefaults(conn.DB(), logger, adminEmail, adminPassword)
}

func runRender() error {
	logger, err := createLogger()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Sync()

	conn, err := db.NewConnection(dbConfigFromViper(), logger)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	snap, err := render.LoadSnapshot(conn.DB())
	if err != nil {
		return fmt.Errorf("failed to load snapshot: %w", err)
	}

	content, err := render.Render(snap)
	if err != nil {
		return err
	}

	fmt.Print(content)
	return nil
}

func runCheck() error {
	logger, err := createLogger()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Sync()

	conn, err := db.NewConnection(dbConfigFromViper(), logger)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	snap, err := render.LoadSnapshot(conn.DB())
	if err != nil {
		return fmt.Errorf("failed to load snapshot: %w", err)
	}

	content, err := render.Render(snap)
	if err != nil {
		return err
	}

	result, err := newChecker(logger).Check(context.Background(), content)
	if err != nil {
		return err
	}

	if result.Status == checker.StatusPass {
		fmt.Println("Syntax check passed.")
		return nil
	}

	fmt.Printf("Syntax check failed at line %d: %s\n", result.Line, result.Message)
	return result.Err()
}

func createLogger() (*zap.Logger, error) {
	config := zap.NewProductionConfig()

	if viper.GetBool("logging.development") {
		config = zap.NewDevelopmentConfig()
	}

	level := viper.GetString("logging.level")
	if level != "" {
		var zapLevel zapcore.Level
		if err := zapLevel.UnmarshalText([]byte(level)); err == nil {
			config.Level.SetLevel(zapLevel)
		}
	}

	return config.Build()
}
