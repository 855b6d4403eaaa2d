package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/goil-app/notifications-api/internal/auth"
	"github.com/goil-app/notifications-api/internal/config"
	"github.com/goil-app/notifications-api/internal/database"
	"github.com/goil-app/notifications-api/internal/getstream"
	"github.com/goil-app/notifications-api/internal/http/handler"
	"github.com/goil-app/notifications-api/internal/http/middleware"
	"github.com/goil-app/notifications-api/internal/http/router"
	"github.com/goil-app/notifications-api/internal/logger"
	"github.com/goil-app/notifications-api/internal/repository"
	"github.com/goil-app/notifications-api/internal/service"
	"github.com/goil-app/notifications-api/internal/storage"
	"github.com/goil-app/notifications-api/internal/tracking"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.NewLogger(&cfg.Logging, &cfg.App)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting application",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Environment),
		zap.Int("port", cfg.App.Port),
		zap.Int("workers", cfg.App.EffectiveWorkers()),
	)

	// Connect to the primary store
	db, err := database.NewDatabases(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := db.Close(closeCtx); err != nil {
			log.Warn("Error closing database connection", zap.Error(err))
		}
	}()

	// Initialize the image URL signer
	signer, err := storage.NewURLSigner(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize url signer: %w", err)
	}

	// External chat provider client
	chatClient := getstream.NewClient(
		cfg.GetStream.BaseURL,
		cfg.GetStream.APIKey,
		cfg.GetStream.Secret,
		cfg.GetStream.TokenTTLDuration(),
		nil,
		log,
	)

	// Tracking dispatcher: Redis-backed when configured, otherwise the
	// community queue endpoint
	var dispatcher tracking.Dispatcher
	if cfg.Queue.RedisURL != "" {
		redisOpts, err := redis.ParseURL(cfg.Queue.RedisURL)
		if err != nil {
			return fmt.Errorf("invalid redis url: %w", err)
		}
		dispatcher = tracking.NewRedisDispatcher(
			redis.NewClient(redisOpts),
			cfg.Queue.RedisName,
			cfg.Queue.TimeoutDuration(),
			log,
		)
		log.Info("Tracking dispatcher using redis queue", zap.String("queue", cfg.Queue.RedisName))
	} else {
		dispatcher = tracking.NewHTTPDispatcher(cfg.Queue.URL, cfg.Queue.TimeoutDuration(), log)
		log.Info("Tracking dispatcher using queue endpoint", zap.String("url", cfg.Queue.URL))
	}

	// Initialize repositories
	notificationRepo := repository.NewNotificationRepository(db.Notifications)
	userRepo := repository.NewUserRepository(db.Account)
	sessionRepo := repository.NewSessionRepository(db.Client)
	businessRepo := repository.NewBusinessRepository(db.Client)
	readLogRepo := repository.NewNotificationReadRepository(db.Analytics)

	// Initialize services
	notificationService := service.NewNotificationService(
		notificationRepo,
		userRepo,
		businessRepo,
		readLogRepo,
		chatClient,
		signer,
		dispatcher,
		log,
	)

	// Initialize middleware
	tokenValidator := auth.NewTokenValidator(cfg.JWT.Secret)
	authMiddleware := auth.NewMiddleware(tokenValidator, log)
	sessionGuard := middleware.NewSessionGuard(sessionRepo, log)
	rateLimiter := middleware.NewRateLimiter(&cfg.RateLimit, log)

	// Initialize handlers
	healthHandler := handler.NewHealthHandler(db, log)
	notificationHandler := handler.NewNotificationHandler(notificationService, log)

	// Setup router
	rt := router.NewRouter(
		cfg,
		log,
		authMiddleware,
		sessionGuard,
		rateLimiter,
		healthHandler,
		notificationHandler,
	)

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      rt.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeoutDuration(),
		WriteTimeout: cfg.Server.WriteTimeoutDuration(),
	}

	// Start server in goroutine
	serverErrors := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		serverErrors <- srv.ListenAndServe()
	}()

	// Wait for interrupt signal
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		log.Info("Shutdown signal received", zap.String("signal", sig.String()))

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("Failed to shutdown gracefully", zap.Error(err))
			return err
		}

		log.Info("Server stopped gracefully")
	}

	return nil
}
