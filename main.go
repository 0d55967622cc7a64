package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	api "github.com/d093w1z/deinbox/cmd/api"
	authRepo "github.com/d093w1z/deinbox/internal/auth/repository"
	"github.com/d093w1z/deinbox/internal/auth/scheduler"
	authUsecase "github.com/d093w1z/deinbox/internal/auth/usecase"
	cleanupUsecase "github.com/d093w1z/deinbox/internal/cleanup/usecase"
	emailRepo "github.com/d093w1z/deinbox/internal/email/repository"
	emailUsecase "github.com/d093w1z/deinbox/internal/email/usecase"
	"github.com/d093w1z/deinbox/pkg/cache"
	"github.com/d093w1z/deinbox/pkg/categorizer"
	"github.com/d093w1z/deinbox/pkg/config"
	"github.com/d093w1z/deinbox/pkg/database"
	"github.com/d093w1z/deinbox/pkg/gmail"
	"github.com/d093w1z/deinbox/pkg/logger"

	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	zlog, err := logger.New(cfg.LogLevel, cfg.LogDevelopment)
	if err != nil {
		log.Fatal("Failed to init logger:", err)
	}
	defer func() { _ = zlog.Sync() }()

	// Initialize database
	db, err := database.NewPostgresConnection(cfg, zlog)
	if err != nil {
		zlog.Fatal("Failed to connect to database", zap.Error(err))
	}

	// Cache gateway; an unreachable redis only degrades it
	rdb := cache.NewRedisClient(cfg.Redis)
	defer func() { _ = rdb.Close() }()
	gateway := cache.New(rdb, cache.Config{
		Namespace:   cfg.Cache.Namespace,
		OpTimeout:   cfg.Cache.OpTimeout,
		LoadTimeout: cfg.Cache.LoadTimeout,
		RetryAfter:  cfg.Cache.RetryAfter,
	}, zlog.Named("cache"))

	// Initialize repositories (dependency injection)
	userRepo := authRepo.NewUserRepository(db)
	actionRepo := emailRepo.NewActionLogRepository(db)

	// Purge expired app sessions in the background
	janitor := scheduler.NewSessionJanitor(userRepo, time.Hour, zlog.Named("janitor"))
	janitor.Start()

	// Gmail adapter
	gmailService := gmail.NewService(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.Gmail, zlog.Named("gmail"))
	unsubscriber := gmail.NewUnsubscriber(0, zlog.Named("unsubscribe"))

	// Initialize use cases (dependency injection)
	authUc := authUsecase.NewAuthUsecase(userRepo, cfg, zlog.Named("auth"))
	emailUc := emailUsecase.NewEmailUsecase(userRepo, actionRepo, gmailService, unsubscriber, gateway, cfg, zlog.Named("email"))
	cleanupUc := cleanupUsecase.NewCleanupUsecase(emailUc, categorizer.Default(), gateway, cfg, zlog.Named("cleanup"))

	// Initialize HTTP handler
	handler := api.NewHandler(authUc, emailUc, cleanupUc, gateway, cfg, zlog)
	srv := handler.Server(":" + cfg.Port)

	go func() {
		zlog.Info("Server starting", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zlog.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zlog.Error("Server shutdown error", zap.Error(err))
	}
	janitor.Stop()

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	zlog.Info("Server stopped")
}
