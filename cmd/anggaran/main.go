package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"anggaran/internal/cache"
	"anggaran/internal/cli"
	apphttp "anggaran/internal/http"
	applog "anggaran/internal/log"
	"anggaran/internal/services"
	"anggaran/internal/tips"
)

func main() {
	cli.LoadEnvFile()
	cfg, logger := cli.LoadAndValidateConfig(applog.ComponentApp)

	startCtx := context.Background()
	res, err := cli.OpenBackend(startCtx, logger, cfg)
	if err != nil {
		logger.Error("Failed to initialize backend", applog.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	tipClient := tips.NewClient(cfg.TipServiceURL,
		tips.WithTimeout(cfg.TipTimeout),
		tips.WithCacheTTL(cfg.TipCacheTTL),
		tips.WithLogger(logger))

	svc, err := services.NewBudgetService(startCtx, res.Store, services.Options{
		UndoWindow:                cfg.UndoWindow,
		RequireBalancedAllocation: cfg.RequireBalancedAllocation,
		Publisher:                 res.Publisher,
		Tips:                      tipClient,
		Logger:                    logger,
	})
	if err != nil {
		logger.Error("Failed to load budget", applog.FieldError, err)
		_ = res.Cleanup()
		os.Exit(1)
	}

	caches := cache.NewManager(logger)
	caches.Register(tipClient.Cache())
	caches.Register(svc.UndoCache())
	caches.StartCleanup(10 * time.Minute)

	scheduler := services.NewRolloverScheduler(svc, services.RolloverSchedulerConfig{Interval: cfg.RolloverCheckInterval}, logger)

	srv, err := apphttp.NewServer(":"+cfg.Port, svc, apphttp.ServerOptions{
		RateLimitRPM:   cfg.RateLimitRPM,
		TrustedProxies: cfg.TrustedProxies,
		Logger:         logger,
	})
	if err != nil {
		logger.Error("Failed to configure HTTP server", applog.FieldError, err)
		os.Exit(1)
	}
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 15 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err)
		}
		if err := scheduler.Stop(ctx); err != nil {
			logger.Warn("Rollover scheduler stop error", applog.FieldError, err)
		}
		caches.Stop()
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", applog.FieldError, err)
		}
	})

	if err := scheduler.Start(ctx); err != nil {
		logger.Error("Failed to start rollover scheduler", applog.FieldError, err)
		os.Exit(1)
	}

	logger.Info("Starting anggaran server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"tips_enabled", cfg.TipServiceURL != "",
		"archive_events", res.Publisher != nil)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
