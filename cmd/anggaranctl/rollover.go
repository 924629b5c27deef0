package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"anggaran/internal/cli"
	"anggaran/internal/config"
	"anggaran/internal/core"
	"anggaran/internal/ledger"
	applog "anggaran/internal/log"
	"anggaran/internal/sheets"
	gsheet "anggaran/internal/sheets/google"
	mem "anggaran/internal/sheets/memory"
	"anggaran/internal/worker"
)

func rolloverCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rollover",
		Short: "Inspect or complete the monthly rollover",
	}
	cmd.AddCommand(rolloverStatusCmd(a))
	cmd.AddCommand(rolloverConfirmCmd(a))
	cmd.AddCommand(rolloverSkipCmd(a))
	cmd.AddCommand(archiveNowCmd(a))
	return cmd
}

func rolloverStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether a new month is waiting",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := a.svc.CheckRollover(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Last active month: %s\nCurrent month:     %s\n", st.LastActiveMonth, st.CurrentMonth)
			if st.Pending {
				fmt.Fprintln(out, cli.WarningStyle.Render("Rollover pending"))
			} else {
				fmt.Fprintln(out, cli.SuccessStyle.Render("Up to date"))
			}
			return nil
		},
	}
}

func rolloverConfirmCmd(a *app) *cobra.Command {
	var (
		reset  bool
		income string
	)
	cmd := &cobra.Command{
		Use:   "confirm",
		Short: "Open the current month",
		Long: `Confirm opens the current month. With --reset the closing month is
archived and its expenses cleared. --income replaces the monthly income.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts := ledger.RolloverOptions{ResetExpenses: reset}
			if income != "" {
				m, err := core.ParseMoney(income)
				if err != nil {
					return err
				}
				opts.NewIncome = &m
			}
			archived, err := a.svc.ConfirmRollover(cmd.Context(), opts)
			if err != nil {
				return err
			}
			if archived != nil {
				fmt.Fprintln(cmd.OutOrStdout(), cli.SuccessStyle.Render("Archived "+string(archived.Month)))
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.SuccessStyle.Render("Rollover complete"))
			return nil
		},
	}
	cmd.Flags().BoolVar(&reset, "reset", false, "archive the closing month and clear its expenses")
	cmd.Flags().StringVar(&income, "income", "", "new monthly income")
	return cmd
}

func rolloverSkipCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "skip",
		Short: "Open the current month without archiving",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.svc.SkipRollover(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.SuccessStyle.Render("Rollover skipped"))
			return nil
		},
	}
}

func archiveNowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "archive-now",
		Short: "Archive the current month and start it over",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			archived, err := a.svc.ArchiveNow(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.SuccessStyle.Render("Archived "+string(archived.Month)))
			return nil
		},
	}
}

func syncArchivesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sync-archives",
		Short: "Write every stored archive to the archive sheet",
		Long: `sync-archives backfills the Google Sheets archive mirror from the
store without going through the message queue. Without
GOOGLE_SPREADSHEET_ID it only reports what would be written.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			writer, err := archiveWriter(cmd.Context(), a.cfg, a.logger)
			if err != nil {
				return err
			}
			n, err := worker.NewArchiveWorker(a.backend.Store, writer, a.logger).ProcessAllArchives(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.SuccessStyle.Render(fmt.Sprintf("Synced %d archive(s)", n)))
			return nil
		},
	}
}

func archiveWriter(ctx context.Context, cfg *config.Config, logger *applog.Logger) (sheets.ArchiveWriter, error) {
	if !cfg.SheetsEnabled() {
		return mem.New(), nil
	}
	return gsheet.New(applog.IntoContext(ctx, logger), cfg.GoogleSpreadsheetID, cfg.GoogleArchiveSheetName)
}
