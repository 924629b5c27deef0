package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"anggaran/internal/cli"
	"anggaran/internal/core"
)

func exportCmd(a *app) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the full budget snapshot as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			snapshot := a.svc.Export(cmd.Context())
			if out == "" {
				return encodeExport(cmd.OutOrStdout(), snapshot)
			}
			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("create %s: %w", out, err)
			}
			if err := writeExport(f, snapshot); err != nil {
				return fmt.Errorf("%s: %w", out, err)
			}
			fmt.Fprintln(cmd.ErrOrStderr(), cli.SuccessStyle.Render("Exported to "+out))
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "write to file instead of stdout")
	return cmd
}

func encodeExport(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	return nil
}

// writeExport encodes v and closes w. A failed close is reported since
// it can lose the final write.
func writeExport(w io.WriteCloser, v any) error {
	if err := encodeExport(w, v); err != nil {
		w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close export: %w", err)
	}
	return nil
}

func importCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file|->",
		Short: "Replace budget data with a JSON snapshot",
		Long: `Import replaces every slot present in the document. Fields that are
absent are left alone. A document with any malformed field is rejected
as a whole and nothing changes.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				data []byte
				err  error
			)
			if args[0] == "-" {
				data, err = io.ReadAll(cmd.InOrStdin())
			} else {
				data, err = os.ReadFile(args[0])
			}
			if err != nil {
				return fmt.Errorf("read import: %w", err)
			}
			if err := a.svc.Import(cmd.Context(), data); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.SuccessStyle.Render("Import complete"))
			return nil
		},
	}
}

func dashboardCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Show this month's budget per category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			d := a.svc.Dashboard()
			st := a.svc.State()

			fmt.Fprintln(out, cli.TitleStyle.Render("Budget "+string(st.LastActiveMonth)))
			fmt.Fprintf(out, "Income %s  Planned %s  Spent %s  Savings %s\n",
				core.FormatRupiah(d.Income),
				core.FormatRupiah(d.TotalPlanned),
				core.FormatRupiah(d.TotalSpent),
				core.FormatRupiah(d.Savings))
			if !d.Balanced {
				fmt.Fprintln(out, cli.WarningStyle.Render(fmt.Sprintf("Allocations total %.1f%%, not 100%%", d.AllocationTotal)))
			}
			fmt.Fprintln(out)

			t := cli.NewTable(out, "ID", "Category", "Alloc", "Budget", "Spent", "Remaining", "Used")
			for _, c := range d.Categories {
				used := fmt.Sprintf("%.0f%%", c.Usage*100)
				if c.TipSuggested {
					used = cli.WarningStyle.Render(used)
				}
				remaining := core.FormatRupiah(c.Remaining)
				if c.Remaining.IsNegative() {
					remaining = cli.ErrorStyle.Render(remaining)
				}
				t.Row(c.ID, c.Name, strconv.FormatFloat(c.Allocation, 'f', -1, 64)+"%",
					core.FormatRupiah(c.Budget), core.FormatRupiah(c.Spent), remaining, used)
			}
			if st.PendingRollover {
				defer fmt.Fprintln(out, cli.WarningStyle.Render("\nA new month has started: run 'anggaranctl rollover confirm' or 'rollover skip'"))
			}
			return t.Flush()
		},
	}
}

func reportCmd(a *app) *cobra.Command {
	var start, end string
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Spending and income per category across months",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			now := core.MonthOf(time.Now())
			if end == "" {
				end = string(now)
			}
			if start == "" {
				start = end
			}
			s, err := core.ParseMonth(start)
			if err != nil {
				return core.Invalid("start", "must be YYYY-MM")
			}
			e, err := core.ParseMonth(end)
			if err != nil {
				return core.Invalid("end", "must be YYYY-MM")
			}
			res, err := a.svc.Report(s, e)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, cli.TitleStyle.Render(fmt.Sprintf("Report %s .. %s", res.Start, res.End)))
			fmt.Fprintf(out, "Income %s  Spent %s\n\n", core.FormatRupiah(res.TotalIncome), core.FormatRupiah(res.TotalSpent))

			headers := append([]string{"Category"}, monthHeaders(res.Months)...)
			t := cli.NewTable(out, append(headers, "Total")...)
			for _, c := range res.Categories {
				row := []any{c.Name}
				for _, m := range res.Months {
					row = append(row, core.FormatRupiah(c.Monthly[m]))
				}
				t.Row(append(row, core.FormatRupiah(c.Total))...)
			}
			if len(res.Categories) == 0 {
				fmt.Fprintln(out, cli.SubtleStyle.Render("(no spending in range)"))
			}
			return t.Flush()
		},
	}
	cmd.Flags().StringVar(&start, "start", "", "first month (YYYY-MM), defaults to --end")
	cmd.Flags().StringVar(&end, "end", "", "last month (YYYY-MM), defaults to the current month")
	return cmd
}

func monthHeaders(months []core.Month) []string {
	out := make([]string, len(months))
	for i, m := range months {
		out[i] = string(m)
	}
	return out
}

func monthsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "months",
		Short: "List months that have expenses or an archive",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, m := range a.svc.AvailableMonths() {
				fmt.Fprintln(cmd.OutOrStdout(), m)
			}
			return nil
		},
	}
}

func tipCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tip <category-id>",
		Short: "Ask for a spending tip for a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tip, err := a.svc.SpendingTip(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tip)
			return nil
		},
	}
}
