package main

import (
	"context"
	"os"
	"time"

	"anggaran/internal/amqp"
	"anggaran/internal/cli"
	"anggaran/internal/config"
	applog "anggaran/internal/log"
	"anggaran/internal/sheets"
	gsheet "anggaran/internal/sheets/google"
	mem "anggaran/internal/sheets/memory"
	"anggaran/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg, logger := cli.LoadAndValidateConfig(applog.ComponentWorker)
	logger.Info("Starting anggaran-worker")

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required to consume archive events")
		os.Exit(1)
	}

	startCtx := context.Background()

	// The worker only reads the store; the publisher side belongs to the
	// server.
	storeCfg := *cfg
	storeCfg.AMQPURL = ""
	res, err := cli.OpenBackend(startCtx, logger, &storeCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", applog.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	writer, err := archiveWriter(startCtx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", applog.FieldError, err)
		_ = res.Cleanup()
		os.Exit(1)
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
		_ = res.Cleanup()
		os.Exit(1)
	}
	amqpClient.WithLogger(logger)

	archiveWorker := worker.NewArchiveWorker(res.Store, writer, logger)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(context.Context) {
		if err := amqpClient.Close(); err != nil {
			logger.Warn("AMQP close error", applog.FieldError, err)
		}
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", applog.FieldError, err)
		}
	})

	// Archives written while the worker was down have no pending message.
	if n, err := archiveWorker.ProcessAllArchives(ctx); err != nil {
		logger.Error("Startup archive sync failed", applog.FieldError, err, "synced", n)
	} else {
		logger.Info("Startup archive sync complete", "synced", n)
	}

	go func() {
		if err := amqpClient.ConsumeArchiveSync(ctx, archiveWorker.HandleArchiveSync); err != nil && ctx.Err() == nil {
			logger.Error("Message consumption failed", applog.FieldError, err)
		}
	}()

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped gracefully")
}

// archiveWriter returns the Google Sheets mirror when configured and an
// in-memory sink otherwise.
func archiveWriter(ctx context.Context, cfg *config.Config, logger *applog.Logger) (sheets.ArchiveWriter, error) {
	if !cfg.SheetsEnabled() {
		logger.Info("Google Sheets disabled - no GOOGLE_SPREADSHEET_ID provided, archives are kept in memory")
		return mem.New(), nil
	}
	client, err := gsheet.New(applog.IntoContext(ctx, logger), cfg.GoogleSpreadsheetID, cfg.GoogleArchiveSheetName)
	if err != nil {
		return nil, err
	}
	logger.Info("Google Sheets client initialized",
		"spreadsheet_id", cfg.GoogleSpreadsheetID,
		"sheet", cfg.GoogleArchiveSheetName)
	return client, nil
}
