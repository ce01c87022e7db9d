// Package main is the entry point for the Dukes' Club service.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/JAFletch-surg/dukes-club/docs"
	"github.com/JAFletch-surg/dukes-club/internal/app"
	"github.com/JAFletch-surg/dukes-club/internal/config"
	"github.com/JAFletch-surg/dukes-club/internal/database"
	"github.com/JAFletch-surg/dukes-club/internal/metrics"
	"github.com/JAFletch-surg/dukes-club/internal/storage"
	"github.com/JAFletch-surg/dukes-club/pkg/redis"
	"github.com/gin-gonic/gin"
)

// @title Dukes' Club API
// @version 1.0
// @description Membership, content management and session API for the Dukes' Club.
// @host localhost:8080
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token. Browser clients use the access_token cookie instead.
func main() {
	if err := run(); err != nil {
		slog.Error("Service stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database
	db, err := database.Connect(cfg)
	if err != nil {
		return err
	}

	// Initialize Redis
	redisClient, err := redis.NewClient(ctx, cfg)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	var files storage.FileStorage
	if cfg.S3.Enabled() {
		if files, err = storage.NewS3Storage(cfg.S3); err != nil {
			return err
		}
	} else {
		logger.Warn("S3 is not configured; uploads are disabled")
	}

	application, err := app.New(app.Deps{
		Cfg:     cfg,
		DB:      db,
		Redis:   redisClient,
		Logger:  logger,
		Metrics: metrics.New(),
		Files:   files,
	})
	if err != nil {
		return err
	}
	defer application.Close()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           application.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting Dukes' Club service", "port", cfg.Port, "environment", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
