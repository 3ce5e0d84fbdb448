package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bizcribe/bizcribe-backend/config"
	"github.com/bizcribe/bizcribe-backend/internal/app/controller"
	"github.com/bizcribe/bizcribe-backend/internal/app/repository"
	"github.com/bizcribe/bizcribe-backend/internal/app/service"
	"github.com/bizcribe/bizcribe-backend/internal/db"
	"github.com/bizcribe/bizcribe-backend/internal/router"
	"github.com/bizcribe/bizcribe-backend/internal/storage"
	"github.com/bizcribe/bizcribe-backend/pkg/geocode"
	"github.com/bizcribe/bizcribe-backend/pkg/logger"
	"github.com/bizcribe/bizcribe-backend/pkg/redis"
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

	logger.Info("Starting Bizcribe Backend Server", map[string]interface{}{
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

	// Seed the initial admin account (optional)
	if err := db.Seed(); err != nil {
		logger.Warn("Failed to seed database", map[string]interface{}{
			"error": err.Error(),
		})
	}

	// Initialize redis (optional, used as the geocode cache)
	if cfg.Redis.Enabled {
		if err := redis.Init(&cfg.Redis); err != nil {
			logger.Warn("Redis unavailable, geocode caching disabled", map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			defer redis.Close()
		}
	}

	// Geocoding client with Mapbox primary and Nominatim fallback
	geocoder := geocode.NewClient(geocode.Config{
		MapboxToken:    cfg.Geocode.MapboxToken,
		NominatimEmail: cfg.Geocode.NominatimEmail,
		Timeout:        cfg.Geocode.Timeout,
		CacheTTL:       cfg.Geocode.CacheTTL,
	}, redis.GetClient())

	// S3 archive for raw import uploads (optional)
	var archiver service.UploadArchiver
	if cfg.S3.Bucket != "" {
		archiver = storage.NewS3Storage(
			cfg.S3.Region,
			cfg.S3.Bucket,
			cfg.S3.AccessKeyID,
			cfg.S3.SecretAccessKey,
			cfg.S3.BaseURL,
		)
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db.GetDB())
	businessRepo := repository.NewBusinessRepository(db.GetDB())
	submissionRepo := repository.NewSubmissionRepository(db.GetDB())
	importRepo := repository.NewImportRepository(db.GetDB())

	// Initialize services
	submissionService := service.NewSubmissionService(db.GetDB(), submissionRepo, businessRepo)
	authService := service.NewAuthService(userRepo, submissionService, &cfg.JWT)
	businessService := service.NewBusinessService(businessRepo)
	importService := service.NewImportService(db.GetDB(), importRepo, businessRepo, geocoder, archiver)

	// Initialize controllers
	ctrls := router.Controllers{
		Auth:       controller.NewAuthController(authService),
		Business:   controller.NewBusinessController(businessService, authService),
		Submission: controller.NewSubmissionController(submissionService, authService),
		Import:     controller.NewImportController(importService),
	}

	engine := router.Setup(cfg, ctrls)

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
