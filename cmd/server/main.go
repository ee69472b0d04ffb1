package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/stitchline/stitchline-backend/config"
	"github.com/stitchline/stitchline-backend/internal/app/controller"
	"github.com/stitchline/stitchline-backend/internal/app/repository"
	"github.com/stitchline/stitchline-backend/internal/app/service"
	"github.com/stitchline/stitchline-backend/internal/db"
	"github.com/stitchline/stitchline-backend/internal/middleware"
	"github.com/stitchline/stitchline-backend/internal/router"
	"github.com/stitchline/stitchline-backend/internal/scheduler"
	"github.com/stitchline/stitchline-backend/pkg/logger"
	"github.com/stitchline/stitchline-backend/pkg/mailer"
	"github.com/stitchline/stitchline-backend/pkg/payment/paystack"
	"github.com/stitchline/stitchline-backend/pkg/redis"
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

	logger.Info("Starting STITCHLINE Backend Server", map[string]interface{}{
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

	// Redis is optional; the settings cache and token blacklist degrade
	// gracefully without it.
	if err := redis.Init(&cfg.Redis); err != nil {
		logger.Warn("Redis unavailable, continuing without it", map[string]interface{}{
			"error": err.Error(),
		})
	}
	defer func() {
		if err := redis.Close(); err != nil {
			logger.Error("Failed to close redis connection", err)
		}
	}()

	paystackClient, err := paystack.NewClient(paystack.Config{
		SecretKey:   cfg.Payment.Paystack.SecretKey,
		PublicKey:   cfg.Payment.Paystack.PublicKey,
		BaseURL:     cfg.Payment.Paystack.BaseURL,
		CallbackURL: cfg.Payment.Paystack.CallbackURL,
	})
	if err != nil {
		logger.Fatal("Failed to initialize payment client", err)
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db.GetDB())
	templateRepo := repository.NewTemplateRepository(db.GetDB())
	settingsRepo := repository.NewSettingsRepository(db.GetDB())
	orderRepo := repository.NewOrderRepository(db.GetDB())

	// Initialize services
	settingsCache := service.NewSettingsCache(settingsRepo)
	if err := settingsCache.Refresh(context.Background()); err != nil {
		logger.Warn("Could not warm shipping settings cache", map[string]interface{}{
			"error": err.Error(),
		})
	}

	authService := service.NewAuthService(userRepo, cfg.JWT)
	customerService := service.NewCustomerService(userRepo)
	templateService := service.NewTemplateService(templateRepo)
	pricingService := service.NewPricingService(settingsCache)
	notifier := service.NewEmailNotifier(mailer.New(cfg.SMTP))
	orderService := service.NewOrderService(orderRepo, customerService, templateService, pricingService, notifier)
	paymentService := service.NewPaymentService(orderRepo, paystackClient)

	// Initialize controllers
	authController := controller.NewAuthController(authService)
	templateController := controller.NewTemplateController(templateService)
	orderController := controller.NewOrderController(orderService)
	paymentController := controller.NewPaymentController(paymentService)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(cfg.JWT.Secret)

	// Keep the settings snapshot fresh in the background
	settingsScheduler := scheduler.NewSettingsScheduler(settingsCache)
	if err := settingsScheduler.Start(); err != nil {
		logger.Warn("Settings scheduler did not start", map[string]interface{}{
			"error": err.Error(),
		})
	}
	defer settingsScheduler.Stop()

	// Setup router
	r := router.NewRouter(
		authController,
		templateController,
		orderController,
		paymentController,
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
