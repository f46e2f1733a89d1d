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

	"item-catalog/internal"
	"item-catalog/internal/config"
	"item-catalog/internal/logger"
	"item-catalog/internal/store"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.LoadAndValidate()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	appLogger, err := logger.NewLogger(cfg.Environment, cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() {
		_ = appLogger.Sync()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, store.Options{
		Driver:      cfg.StoreDriver,
		DSN:         cfg.DBDSN,
		AutoMigrate: cfg.AutoMigrate,
	}, appLogger)
	if err != nil {
		appLogger.Fatal("failed to open item store", zap.Error(err))
	}

	srv, err := internal.NewServer(st, cfg, appLogger)
	if err != nil {
		st.Close()
		appLogger.Fatal("failed to build server", zap.Error(err))
	}

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		appLogger.Info("starting server",
			zap.String("addr", httpServer.Addr),
			zap.String("environment", cfg.Environment),
			zap.String("store", cfg.StoreDriver),
			zap.Bool("auth", cfg.AuthEnabled),
			zap.Bool("metrics", cfg.EnableMetrics),
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	appLogger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("server forced to shutdown", zap.Error(err))
	}
	if err := srv.Close(shutdownCtx); err != nil {
		appLogger.Error("failed to close item store", zap.Error(err))
	}
	appLogger.Info("server exited gracefully")
}
