package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dental-referral-tracker/config"
	deliveryHttp "dental-referral-tracker/internal/delivery/http"
	"dental-referral-tracker/internal/delivery/http/handler"
	"dental-referral-tracker/internal/delivery/http/middleware"
	domainRepo "dental-referral-tracker/internal/domain/repository"
	"dental-referral-tracker/internal/gateway"
	"dental-referral-tracker/internal/infrastructure/cache"
	"dental-referral-tracker/internal/infrastructure/database"
	"dental-referral-tracker/internal/repository"
	"dental-referral-tracker/internal/service"
	"dental-referral-tracker/internal/usecase"
	"dental-referral-tracker/pkg/jwt"
	"dental-referral-tracker/pkg/validator"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const warmUpTimeout = 30 * time.Second

// App holds all dependencies for the application
type App struct {
	Config      *config.Config
	DB          *gorm.DB
	RedisClient *redis.Client
	Server      *http.Server
}

// New creates a new App instance with all dependencies initialized
func New() (*App, error) {
	app := &App{}

	// Setup logger
	setupLogger()

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	app.Config = cfg
	logrus.WithFields(logrus.Fields{
		"backend":  cfg.Store.Backend,
		"timezone": cfg.App.Location().String(),
	}).Info("Configuration loaded successfully")

	// The relational backend also persists the audit trail
	if cfg.Store.Backend == config.StoreBackendPostgres {
		if cfg.DB.AutoMigrate {
			if err := database.RunMigrations(cfg.DB); err != nil {
				return nil, fmt.Errorf("failed to run migrations: %w", err)
			}
			logrus.Info("Database migrations applied")
		}

		db, err := database.NewPostgresConnection(cfg.DB, cfg.App.Location().String())
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		app.DB = db
		logrus.Info("Database connected successfully")
	}

	// Initialize Redis
	redisClient, err := cache.NewRedisClient(cfg.Redis)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	app.RedisClient = redisClient
	logrus.Info("Redis connected successfully")

	// Initialize all layers
	server, err := initializeServer(cfg, app.DB, redisClient)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Server = server

	return app, nil
}

// setupLogger configures the logrus logger
func setupLogger() {
	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetOutput(os.Stdout)
	logrus.SetLevel(logrus.InfoLevel)
}

func newGateway(cfg *config.Config, db *gorm.DB, log *logrus.Logger) (domainRepo.Gateway, error) {
	switch cfg.Store.Backend {
	case config.StoreBackendSupabase:
		gw, err := gateway.NewSupabaseGateway(cfg.Supabase, log)
		if err != nil {
			return nil, fmt.Errorf("failed to configure supabase gateway: %w", err)
		}
		return gw, nil
	default:
		return gateway.NewPostgresGateway(
			db,
			log,
			repository.NewDentistRepository(),
			repository.NewStaffRepository(),
			repository.NewReferralRepository(),
		), nil
	}
}

// initializeServer creates and configures the HTTP server
func initializeServer(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*http.Server, error) {
	// Initialize logger
	log := logrus.StandardLogger()
	loc := cfg.App.Location()

	// Initialize JWT service
	jwtService := jwt.NewJWTService(cfg.JWT)

	// Initialize validator
	customValidator := validator.NewValidator()

	// Initialize store gateway
	storeGateway, err := newGateway(cfg, db, log)
	if err != nil {
		return nil, err
	}

	// Initialize services
	auditLogRepo := repository.NewAuditLogRepository()
	auditService := service.NewAuditService(db, log, auditLogRepo)
	sessions := service.NewRedisSessionStore(redisClient, log)

	// Initialize usecases
	referralUsecase := usecase.NewReferralUsecase(log, storeGateway, auditService, loc, time.Now)
	adminUsecase := usecase.NewAdminUsecase(log, storeGateway, referralUsecase, auditService)
	authUsecase := usecase.NewAuthUsecase(log, storeGateway, referralUsecase, jwtService, sessions, auditService)
	dashboardUsecase := usecase.NewDashboardUsecase(referralUsecase, cfg.Metrics.WeeklyGoal, loc, time.Now)
	auditLogUsecase := usecase.NewAuditLogUsecase(db, log, auditLogRepo)

	// Load the first snapshot; requests retry on their own if this fails
	ctx, cancel := context.WithTimeout(context.Background(), warmUpTimeout)
	defer cancel()
	if snap, err := referralUsecase.Refresh(ctx); err != nil {
		log.Warnf("Initial snapshot load failed: %+v", err)
	} else {
		log.Infof("Initial snapshot loaded: %d referrals, %d dentists", len(snap.Referrals), len(snap.Dentists))
	}

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authUsecase, customValidator, jwtService)
	referralHandler := handler.NewReferralHandler(referralUsecase, customValidator)
	dashboardHandler := handler.NewDashboardHandler(dashboardUsecase)
	adminHandler := handler.NewAdminHandler(adminUsecase, customValidator)
	auditLogHandler := handler.NewAuditLogHandler(auditLogUsecase)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(jwtService, sessions, log)
	corsMiddleware := middleware.NewCORSMiddleware(cfg.App.CORSOrigin)

	// Initialize router
	router := deliveryHttp.NewRouter(authHandler, referralHandler, dashboardHandler, adminHandler, auditLogHandler, authMiddleware, corsMiddleware)
	httpRouter := router.Setup()

	// Create server
	serverAddr := fmt.Sprintf(":%s", cfg.App.Port)
	return &http.Server{
		Addr:              serverAddr,
		Handler:           httpRouter,
		ReadHeaderTimeout: 10 * time.Second,
	}, nil
}

// Run starts the HTTP server and handles graceful shutdown
func (app *App) Run() {
	// Start server in goroutine
	go func() {
		logrus.Infof("Server starting on port %s", app.Config.App.Port)
		logrus.Infof("Environment: %s", app.Config.App.Env)
		if err := app.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	app.waitForShutdown()
}

// waitForShutdown blocks until an interrupt signal is received
func (app *App) waitForShutdown() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down server...")

	// Create shutdown context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Shutdown HTTP server gracefully
	if err := app.Server.Shutdown(ctx); err != nil {
		logrus.Errorf("Server forced to shutdown: %v", err)
	}

	// Close connections
	app.Close()

	logrus.Info("Server shutdown complete")
}

// Close closes all connections (database, redis, etc.)
func (app *App) Close() {
	// Close database connection
	if app.DB != nil {
		sqlDB, err := app.DB.DB()
		if err == nil {
			sqlDB.Close()
		}
	}

	// Close Redis connection
	if app.RedisClient != nil {
		app.RedisClient.Close()
	}
}
