package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/yunshang/merchant-admin-backend/config"
	"github.com/yunshang/merchant-admin-backend/internal/app/controller"
	"github.com/yunshang/merchant-admin-backend/internal/app/repository"
	"github.com/yunshang/merchant-admin-backend/internal/app/service"
	"github.com/yunshang/merchant-admin-backend/internal/db"
	"github.com/yunshang/merchant-admin-backend/internal/middleware"
	"github.com/yunshang/merchant-admin-backend/internal/router"
	"github.com/yunshang/merchant-admin-backend/internal/scheduler"
	"github.com/yunshang/merchant-admin-backend/internal/storage"
	"github.com/yunshang/merchant-admin-backend/pkg/logger"
	"github.com/yunshang/merchant-admin-backend/pkg/redis"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	// Initialize logger
	logLevel := "info"
	if cfg.Server.Environment == "development" {
		logLevel = "debug"
	}
	logger.Initialize(logger.Config{
		Level:       logLevel,
		Format:      "console", // Use "json" for production
		EnableColor: true,
	})

	logger.Info("Starting Merchant Admin Backend Server", map[string]interface{}{
		"environment": cfg.Server.Environment,
		"port":        cfg.Server.Port,
		"log_level":   logLevel,
	})

	// Initialize database
	if err := db.Initialize(&cfg.Database); err != nil {
		logger.Fatal("Failed to initialize database", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", err)
		}
	}()

	// Run migrations
	if err := db.Migrate(); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}

	// Redis backs the token blacklist; without it logout revocation
	// degrades to a no-op
	if cfg.Redis.Enabled {
		if err := redis.Init(&cfg.Redis); err != nil {
			logger.Fatal("Failed to initialize Redis", err)
		}
		defer func() {
			if err := redis.Close(); err != nil {
				logger.Error("Failed to close Redis connection", err)
			}
		}()
	} else {
		logger.Warn("Redis disabled: logout token revocation is inactive", nil)
	}

	// Initialize repositories
	accountRepo := repository.NewAccountRepository(db.GetDB())

	// Initialize services
	accountService := service.NewAccountService(accountRepo)
	exportService := service.NewExportService(accountService)
	authService := service.NewAuthService(
		accountRepo,
		cfg.JWT.Secret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)

	// Initialize storage
	s3Storage := storage.NewS3Storage(
		cfg.S3.Region,
		cfg.S3.Bucket,
		cfg.S3.AccessKeyID,
		cfg.S3.SecretAccessKey,
		cfg.S3.BaseURL,
	)

	// Initialize controllers
	authController := controller.NewAuthController(authService)
	accountController := controller.NewAccountController(accountService, exportService)
	uploadController := controller.NewUploadController(s3Storage)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(cfg.JWT.Secret)

	// Start the premium expiry sweep
	premiumScheduler := scheduler.NewPremiumScheduler(accountRepo, cfg.Scheduler.PremiumSweepSpec)
	if err := premiumScheduler.Start(); err != nil {
		logger.Fatal("Failed to start premium scheduler", err)
	}
	defer premiumScheduler.Stop()

	// Setup router
	r := router.NewRouter(
		authController,
		accountController,
		uploadController,
		authMiddleware,
		cfg,
	)
	engine := r.Setup()

	// Start server in a goroutine
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Server.Port)
		logger.Info("Server started successfully", map[string]interface{}{
			"address": addr,
			"pid":     os.Getpid(),
		})
		if err := engine.Run(addr); err != nil {
			logger.Fatal("Failed to start server", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server gracefully...")
	logger.Info("Server stopped successfully")
}
