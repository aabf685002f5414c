package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/quantfolio/quantfolio/internal/cache"
	"github.com/quantfolio/quantfolio/internal/config"
	"github.com/quantfolio/quantfolio/internal/db"
	"github.com/quantfolio/quantfolio/internal/logger"
	"github.com/quantfolio/quantfolio/internal/mail"
	"github.com/quantfolio/quantfolio/internal/services"
	"github.com/quantfolio/quantfolio/internal/store"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	zlog, err := logger.New(cfg.Env)
	if err != nil {
		log.Fatal("failed to initialize logger:", err)
	}
	defer zlog.Sync()

	// Relational store
	database, err := db.Connect(cfg)
	if err != nil {
		zlog.Fatal("failed to connect to database", zap.Error(err))
	}
	defer database.Close()
	if err := database.Health(); err != nil {
		zlog.Fatal("database health check failed", zap.Error(err))
	}
	if err := database.Migrate(context.Background()); err != nil {
		zlog.Fatal("failed to run migrations", zap.Error(err))
	}
	zlog.Info("database connection established")

	sqlDB, err := database.GetSQLDB()
	if err != nil {
		zlog.Fatal("failed to get sql.DB", zap.Error(err))
	}
	sessions := store.NewFactory(sqlDB)

	// Quote cache
	cacheStore, err := cache.OpenSQLite(cfg.CacheDBPath)
	if err != nil {
		zlog.Fatal("failed to open cache store", zap.Error(err))
	}
	defer cacheStore.Close()
	zlog.Info("cache store opened", zap.String("path", cfg.CacheDBPath))

	// Services
	provider := services.NewAlphaVantageProvider(cfg.AlphaVantageAPIKey)
	quotes := services.NewQuoteService(provider, cacheStore, zlog)
	mailer := mail.NewSMTPMailer(cfg, zlog)

	refresh := services.NewRefreshService(quotes, sessions, cfg.DefaultSymbols, cfg.RefreshInterval, zlog)
	alerts := services.NewAlertService(sessions, quotes, mailer, zlog)

	// Background tasks
	ctx, cancel := context.WithCancel(context.Background())
	refreshDone := make(chan struct{})
	go func() {
		defer close(refreshDone)
		if err := refresh.Run(ctx); err != nil && ctx.Err() == nil {
			zlog.Error("price refresh loop exited", zap.Error(err))
		}
	}()

	alerts.Start(cfg.AlertCheckInterval)

	cleanup := cache.NewCleanupJob(cacheStore, zlog)
	if err := cleanup.Start("@daily"); err != nil {
		zlog.Error("failed to start cache cleanup", zap.Error(err))
	}

	zlog.Info("stock portfolio tracker started",
		zap.Strings("symbols", cfg.DefaultSymbols),
		zap.Duration("refresh_interval", cfg.RefreshInterval),
		zap.Duration("alert_interval", cfg.AlertCheckInterval))

	// Block until shutdown signal
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	zlog.Info("shutting down")
	cancel()
	<-refreshDone
	alerts.Stop()
	cleanup.Stop()
	zlog.Info("shutdown complete")
}
