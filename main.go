package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver for database/sql (migrations)
	"go.uber.org/zap"

	"github.com/civicworks/grievance-engine/pkg/config"
	"github.com/civicworks/grievance-engine/pkg/database"
	"github.com/civicworks/grievance-engine/pkg/handlers"
	"github.com/civicworks/grievance-engine/pkg/middleware"
	"github.com/civicworks/grievance-engine/pkg/repositories"
	"github.com/civicworks/grievance-engine/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	var logger *zap.Logger
	if cfg.Env == "local" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("Configuration loaded",
		zap.String("env", cfg.Env),
		zap.String("database", cfg.Database.Database),
		zap.String("database_host", cfg.Database.Host),
		zap.Bool("cache_enabled", cfg.Redis.Host != ""),
		zap.Bool("assistant_enabled", cfg.Assistant.APIKey != ""))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Migrations run over database/sql; the app itself uses pgxpool.
	migrationDB, err := sql.Open("pgx", cfg.Database.ConnectionString())
	if err != nil {
		logger.Fatal("Failed to open migration connection", zap.Error(err))
	}
	if err := database.RunMigrations(migrationDB, cfg.MigrationsPath, logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}
	if err := migrationDB.Close(); err != nil {
		logger.Warn("Failed to close migration connection", zap.Error(err))
	}

	db, err := database.NewConnection(ctx, &database.Config{
		URL:            cfg.Database.ConnectionString(),
		MaxConnections: cfg.Database.MaxConnections,
	})
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	cache, err := database.NewRedisClient(&cfg.Redis)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	if cache != nil {
		defer cache.Close()
	}

	// Repositories
	requestRepo := repositories.NewRequestRepository(db)
	categoryRepo := repositories.NewCategoryRepository(db)
	userRepo := repositories.NewUserRepository(db)
	fundRepo := repositories.NewFundRequestRepository(db)
	whatsappRepo := repositories.NewWhatsappRepository(db)
	attachmentRepo := repositories.NewAttachmentRepository(db)
	auditRepo := repositories.NewAuditRepository(db)

	// Services
	auditService := services.NewAuditService(auditRepo, logger)
	requestService := services.NewRequestService(requestRepo, categoryRepo, userRepo, auditService, logger)
	categoryService := services.NewCategoryService(categoryRepo, auditService, logger)
	userService := services.NewUserService(userRepo, auditService, logger)
	fundService := services.NewFundService(fundRepo, requestRepo, auditService, logger)
	whatsappService := services.NewWhatsappService(whatsappRepo, requestService, auditService, logger)
	attachmentService := services.NewAttachmentService(attachmentRepo, requestRepo, cfg.UploadDir, logger)
	dashboardService := services.NewDashboardService(requestRepo, cache, logger)
	assistantService := services.NewAssistantService(&cfg.Assistant, logger)

	mux := http.NewServeMux()

	// Handlers
	handlers.NewHealthHandler(cfg, logger).RegisterRoutes(mux)
	handlers.NewRequestsHandler(requestService, logger).RegisterRoutes(mux)
	handlers.NewCategoriesHandler(categoryService, logger).RegisterRoutes(mux)
	handlers.NewUsersHandler(userService, logger).RegisterRoutes(mux)
	handlers.NewFundsHandler(fundService, logger).RegisterRoutes(mux)
	handlers.NewWhatsappHandler(whatsappService, logger).RegisterRoutes(mux)
	handlers.NewAttachmentsHandler(attachmentService, logger).RegisterRoutes(mux)
	handlers.NewDashboardHandler(dashboardService, logger).RegisterRoutes(mux)
	handlers.NewAssistantHandler(assistantService, logger).RegisterRoutes(mux)
	handlers.NewAuditHandler(auditService, logger).RegisterRoutes(mux)

	handler := middleware.RequestLogger(logger)(mux)

	addr := cfg.BindAddr + ":" + cfg.Port
	server := &http.Server{Addr: addr, Handler: handler}

	go func() {
		logger.Info("Starting grievance-engine",
			zap.String("addr", addr),
			zap.String("version", cfg.Version))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Shutdown signal received, draining connections")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown did not complete cleanly", zap.Error(err))
	}
}
