package bootstrap

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"medical-messenger/config"
	deliveryHttp "medical-messenger/internal/delivery/http"
	"medical-messenger/internal/delivery/http/handler"
	"medical-messenger/internal/delivery/http/middleware"
	"medical-messenger/internal/infrastructure/cache"
	"medical-messenger/internal/infrastructure/database"
	"medical-messenger/internal/repository"
	"medical-messenger/internal/service"
	"medical-messenger/internal/usecase"
	"medical-messenger/pkg/jwt"
	"medical-messenger/pkg/validator"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const shutdownTimeout = 10 * time.Second

// App holds all dependencies for the application
type App struct {
	Config        *config.Config
	DB            *gorm.DB
	RedisClient   *redis.Client
	Server        *http.Server
	ExpiryService *service.SubscriptionExpiryService
}

// Setup loads and validates configuration, then configures the global logger.
func Setup() (*config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	setupLogger(cfg.Log)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	logrus.Info("Configuration loaded successfully")
	return cfg, nil
}

// OpenDatabase connects to PostgreSQL, optionally applying pending migrations.
func OpenDatabase(cfg *config.Config, migrate bool) (*gorm.DB, error) {
	db, err := database.NewPostgresConnection(cfg.DB, cfg.IsDevelopment())
	if err != nil {
		return nil, err
	}

	if migrate {
		migrator, err := database.NewMigrator(db, logrus.StandardLogger())
		if err != nil {
			CloseDatabase(db)
			return nil, err
		}
		if err := migrator.Up(); err != nil {
			CloseDatabase(db)
			return nil, err
		}
	}
	return db, nil
}

// New creates a new App instance with all dependencies initialized
func New(cfg *config.Config, migrate bool) (*App, error) {
	app := &App{Config: cfg}

	// Initialize database
	db, err := OpenDatabase(cfg, migrate)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	app.DB = db
	logrus.Info("Database connected successfully")

	// Initialize Redis
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	app.RedisClient = redisClient
	logrus.Info("Redis connected successfully")

	// Initialize all layers
	app.initialize()

	return app, nil
}

// setupLogger configures the logrus logger
func setupLogger(cfg config.LogConfig) {
	if strings.EqualFold(cfg.Format, "text") {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}
	logrus.SetOutput(os.Stdout)

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		logrus.Warnf("Unknown log level %q, using info", cfg.Level)
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
}

// initialize wires repositories, services, usecases and the HTTP server
func (app *App) initialize() {
	cfg := app.Config
	db := app.DB
	log := logrus.StandardLogger()

	// Initialize JWT service
	jwtService := jwt.NewJWTService(cfg.JWT)

	// Initialize validator
	customValidator := validator.NewValidator()

	// Initialize repositories
	userRepo := repository.NewUserRepository()
	doctorProfileRepo := repository.NewDoctorProfileRepository()
	subscriptionRepo := repository.NewSubscriptionRepository()
	messageRepo := repository.NewMessageRepository()
	auditLogRepo := repository.NewAuditLogRepository()

	// Initialize services
	tokenStore := service.NewRedisTokenStore(app.RedisClient)
	accessGate := service.NewAccessGate(jwtService, tokenStore, log)
	auditService := service.NewAuditService(log, auditLogRepo)
	directoryCache := service.NewRedisDirectoryCache(app.RedisClient)
	chatBroadcaster := service.NewRedisChatBroadcaster(app.RedisClient, log)
	app.ExpiryService = service.NewSubscriptionExpiryService(db, log, subscriptionRepo, auditService, cfg.Subscription.SweepInterval)

	// Initialize usecases
	authUsecase := usecase.NewAuthUsecase(db, log, userRepo, accessGate, auditService)
	directoryUsecase := usecase.NewDoctorDirectoryUsecase(db, log, doctorProfileRepo, directoryCache, cfg.Directory)
	subscriptionUsecase := usecase.NewSubscriptionUsecase(db, log, userRepo, subscriptionRepo, auditService, cfg.Subscription)
	messageUsecase := usecase.NewMessageUsecase(db, log, subscriptionRepo, messageRepo, chatBroadcaster)
	auditLogUsecase := usecase.NewAuditLogUsecase(db, log, auditLogRepo)

	// Initialize handlers
	healthHandler := handler.NewHealthHandler(time.Now())
	authHandler := handler.NewAuthHandler(authUsecase, customValidator)
	doctorHandler := handler.NewDoctorHandler(directoryUsecase, customValidator)
	subscriptionHandler := handler.NewSubscriptionHandler(subscriptionUsecase, customValidator)
	messageHandler := handler.NewMessageHandler(messageUsecase, customValidator, log)
	auditLogHandler := handler.NewAuditLogHandler(auditLogUsecase, customValidator)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(accessGate, log)
	corsMiddleware := middleware.NewCORSMiddleware(cfg.App.CORSAllowedOrigins)
	loggingMiddleware := middleware.NewLoggingMiddleware(log)

	// Initialize router
	router := deliveryHttp.NewRouter(
		healthHandler,
		authHandler,
		doctorHandler,
		subscriptionHandler,
		messageHandler,
		auditLogHandler,
		authMiddleware,
		corsMiddleware,
		loggingMiddleware,
	)

	// Create server
	app.Server = newHTTPServer(fmt.Sprintf(":%s", cfg.App.Port), router.Setup())
}

// newHTTPServer builds the API server. There is no write timeout because
// message streams stay open; instead every request context is cancelled as
// soon as Shutdown starts, which ends open streams.
func newHTTPServer(addr string, root http.Handler) *http.Server {
	baseCtx, cancel := context.WithCancel(context.Background())
	server := &http.Server{
		Addr:              addr,
		Handler:           root,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext: func(net.Listener) context.Context {
			return baseCtx
		},
	}
	server.RegisterOnShutdown(cancel)
	return server
}

// Run starts the HTTP server and background workers, and blocks until shutdown
func (app *App) Run() error {
	app.ExpiryService.Start()

	serverErr := make(chan error, 1)
	go func() {
		logrus.Infof("Server starting on port %s", app.Config.App.Port)
		logrus.Infof("Environment: %s", app.Config.App.Env)
		if err := app.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal or a failed listener
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	var runErr error
	select {
	case <-quit:
	case err := <-serverErr:
		runErr = fmt.Errorf("failed to start server: %w", err)
	}

	app.shutdown()
	return runErr
}

func (app *App) shutdown() {
	logrus.Info("Shutting down server...")

	// Create shutdown context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	// Shutdown HTTP server gracefully
	if err := app.Server.Shutdown(ctx); err != nil {
		logrus.Errorf("Server forced to shutdown: %v", err)
	}

	app.ExpiryService.Stop()

	// Close connections
	app.Close()

	logrus.Info("Server shutdown complete")
}

// Close closes all connections (database, redis, etc.)
func (app *App) Close() {
	// Close database connection
	if app.DB != nil {
		CloseDatabase(app.DB)
	}

	// Close Redis connection
	if app.RedisClient != nil {
		app.RedisClient.Close()
	}
}

// CloseDatabase releases the connection pool behind db.
func CloseDatabase(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err == nil {
		sqlDB.Close()
	}
}
