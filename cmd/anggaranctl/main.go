package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"anggaran/internal/backend"
	"anggaran/internal/cli"
	"anggaran/internal/config"
	applog "anggaran/internal/log"
	"anggaran/internal/services"
	"anggaran/internal/tips"
)

// app holds what every subcommand needs once the root has initialised.
type app struct {
	cfg     *config.Config
	logger  *applog.Logger
	backend *backend.BackendResult
	svc     *services.BudgetService
}

func newRootCmd() *cobra.Command {
	a := &app{}
	var logLevel string

	root := &cobra.Command{
		Use:   "anggaranctl",
		Short: "Administer an anggaran budget store",
		Long: `anggaranctl works directly on the configured store (DATA_BACKEND):
export and import snapshots, drive the monthly rollover, print reports
and backfill the Google Sheets archive mirror.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.open(cmd.Context(), logLevel)
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return a.close()
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error); defaults to LOG_LEVEL")

	root.AddCommand(exportCmd(a))
	root.AddCommand(importCmd(a))
	root.AddCommand(dashboardCmd(a))
	root.AddCommand(reportCmd(a))
	root.AddCommand(monthsCmd(a))
	root.AddCommand(tipCmd(a))
	root.AddCommand(rolloverCmd(a))
	root.AddCommand(syncArchivesCmd(a))
	return root
}

func (a *app) open(ctx context.Context, logLevel string) error {
	cli.LoadEnvFile()
	a.cfg = config.Load()
	if logLevel != "" {
		a.cfg.LogLevel = logLevel
	}
	a.logger = applog.New(applog.Config{
		Level:     applog.ParseLevel(a.cfg.LogLevel),
		Format:    a.cfg.LogFormat,
		Component: applog.ComponentCLI,
		Output:    os.Stderr,
	})
	if err := a.cfg.Validate(); err != nil {
		return err
	}

	res, err := cli.OpenBackend(ctx, a.logger, a.cfg)
	if err != nil {
		return fmt.Errorf("open backend: %w", err)
	}
	a.backend = res

	a.svc, err = services.NewBudgetService(ctx, res.Store, services.Options{
		UndoWindow:                a.cfg.UndoWindow,
		RequireBalancedAllocation: a.cfg.RequireBalancedAllocation,
		Publisher:                 res.Publisher,
		Tips: tips.NewClient(a.cfg.TipServiceURL,
			tips.WithTimeout(a.cfg.TipTimeout),
			tips.WithCacheTTL(a.cfg.TipCacheTTL),
			tips.WithLogger(a.logger)),
		Logger: a.logger,
	})
	if err != nil {
		_ = res.Cleanup()
		a.backend = nil
		return fmt.Errorf("load budget: %w", err)
	}
	return nil
}

func (a *app) close() error {
	if a.backend == nil {
		return nil
	}
	err := a.backend.Cleanup()
	a.backend = nil
	return err
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, cli.ErrorStyle.Render("Error: "+err.Error()))
		os.Exit(1)
	}
}
