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

	_ "paperless/docs" // swagger docs

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"paperless/internal/auth"
	"paperless/internal/cache"
	"paperless/internal/config"
	"paperless/internal/db"
	"paperless/internal/handler"
	"paperless/internal/logger"
	"paperless/internal/repository"
	"paperless/internal/router"
	"paperless/internal/service"
	"paperless/internal/storage"
)

const shutdownTimeout = 10 * time.Second

// @title Paperless System API
// @version 1.0
// @description Document management API with uploads, boss approval, printing and JWT authentication.
// @host localhost:4000
// @BasePath /
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	zl, err := logger.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger init: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, zl); err != nil {
		zl.Fatal("server stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, zl *zap.Logger) error {
	gormDB, err := db.Connect(ctx, db.Options{
		Driver:  cfg.DBDriver,
		DSN:     cfg.DBDSN,
		Retries: cfg.DBConnectRetries,
		Backoff: cfg.DBConnectBackoff,
		Logger:  zl,
		Verbose: cfg.LogLevel == "debug",
	})
	if err != nil {
		return err
	}
	if err := db.Migrate(gormDB); err != nil {
		return err
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer cacheClient.Close()
	if err := cacheClient.Ping(ctx); err != nil {
		zl.Warn("redis unavailable, running without cache and token revocation", zap.Error(err))
	}

	store, err := newStorage(ctx, cfg)
	if err != nil {
		return err
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(gormDB)
	documentRepo := repository.NewDocumentRepository(gormDB)

	// Initialize auth components
	jwtService := auth.NewJWTService(cfg.JWTSecret, cfg.JWTTTL)
	tokenStore := auth.NewTokenStore(cacheClient)

	// Initialize services
	authService := service.NewAuthService(userRepo, jwtService, tokenStore)
	userService := service.NewUserService(userRepo, cacheClient)
	documentService := service.NewDocumentService(documentRepo, store, cfg.MaxUploadSize, zl)

	e := echo.New()
	router.Register(e, cfg, zl, authService, auth.DefaultPolicy(), router.Handlers{
		Auth:     handler.NewAuthHandler(authService, userService),
		User:     handler.NewUserHandler(userService),
		Document: handler.NewDocumentHandler(documentService),
		File:     handler.NewFileHandler(documentService, store, cfg.UploadsPublic),
		Health:   handler.NewHealthHandler(cfg.Environment),
	})

	if !cfg.IsProduction() {
		zl.Info("swagger documentation available", zap.String("url", cfg.ServerURL+"/swagger/index.html"))
	}

	errCh := make(chan error, 1)
	go func() {
		zl.Info("server starting",
			zap.String("port", cfg.ServerPort),
			zap.String("environment", cfg.Environment),
			zap.String("storage", cfg.StorageDriver),
		)
		if err := e.Start(":" + cfg.ServerPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	zl.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if sqlDB, err := gormDB.DB(); err == nil {
		_ = sqlDB.Close()
	}
	return nil
}

func newStorage(ctx context.Context, cfg *config.Config) (storage.Storage, error) {
	if cfg.StorageDriver == "s3" {
		return storage.NewS3Storage(ctx, storage.S3Options{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Prefix:    cfg.S3Prefix,
		})
	}
	return storage.NewLocalStorage(cfg.UploadDir, cfg.ServerURL)
}
