package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/merosman91/Agricultural-Tractor/internal/cli/formatter"
	"github.com/merosman91/Agricultural-Tractor/internal/export"
	"github.com/merosman91/Agricultural-Tractor/internal/service"
	"github.com/merosman91/Agricultural-Tractor/internal/share"
	"github.com/spf13/cobra"
)

func newStatsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show totals, today's hours and unpaid money",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatStats(app.Records.Stats(), app.currency()))
			return nil
		},
	}
}

func newReportCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Customer and financial reports",
	}

	cmd.AddCommand(
		newReportCustomersCmd(app),
		newReportShareCmd(app),
		newReportPDFCmd(app),
		newReportFinancialCmd(app),
		newReportTopCmd(app),
		newReportMonthCmd(app),
	)

	return cmd
}

func newReportCustomersCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "customers [CUSTOMER]",
		Short: "Summarize every customer, or itemize one by name or phone",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				agg, err := app.Reports.Find(args[0])
				if err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), formatter.FormatCustomerReport(*agg, app.currency()))
				return nil
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatCustomerReports(app.Reports.BuildReports(), app.currency()))
			return nil
		},
	}
}

func newReportShareCmd(app *App) *cobra.Command {
	var linkOnly bool

	cmd := &cobra.Command{
		Use:   "share CUSTOMER",
		Short: "Print a shareable text report and a message link for the customer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			agg, err := app.Reports.Find(args[0])
			if err != nil {
				return err
			}
			text := app.Reports.RenderShareableText(*agg)
			link := share.ComposeURL(agg.Phone, text)

			out := cmd.OutOrStdout()
			if linkOnly {
				fmt.Fprintln(out, link)
				return nil
			}
			fmt.Fprintln(out, text)
			fmt.Fprintln(out)
			fmt.Fprintf(out, "%s %s\n", formatter.Dim("Send:"), link)
			return nil
		},
	}

	cmd.Flags().BoolVar(&linkOnly, "link-only", false, "Print only the message link")
	return cmd
}

func newReportPDFCmd(app *App) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "pdf CUSTOMER",
		Short: "Write a customer report as PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			agg, err := app.Reports.Find(args[0])
			if err != nil {
				return err
			}
			if out == "" {
				out = pdfFileName(agg.Name, app.now())
			}

			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("creating %s: %w", out, err)
			}
			currency := app.currency()
			amount := func(n int) string { return service.FormatAmount(n, currency) }
			if err := export.CustomerPDF(f, *agg, amount, app.now()); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("closing %s: %w", out, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Wrote report for %s to %s\n", agg.Name, out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (default <customer>-<date>.pdf)")
	return cmd
}

// pdfFileName builds a filesystem-safe default name such as
// "ali-hassan-2025-01-05.pdf".
func pdfFileName(customer string, now time.Time) string {
	slug := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		default:
			return '-'
		}
	}, strings.TrimSpace(customer))
	slug = strings.Trim(slug, "-")
	if slug == "" {
		slug = "customer"
	}
	return fmt.Sprintf("%s-%s.pdf", slug, now.Format("2006-01-02"))
}

func newReportFinancialCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "financial",
		Short: "Show collected and pending money",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatFinancial(app.Reports.FinancialReport(), app.currency()))
			return nil
		},
	}
}

func newReportTopCmd(app *App) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "top",
		Short: "Rank customers by billed amount",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatTopCustomers(app.Records.TopCustomers(limit), app.currency()))
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 5, "Number of customers to show")
	return cmd
}

func newReportMonthCmd(app *App) *cobra.Command {
	var month string

	cmd := &cobra.Command{
		Use:   "month",
		Short: "Totals for one calendar month (default current)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t := app.now()
			if month != "" {
				parsed, err := time.Parse("2006-01", month)
				if err != nil {
					return fmt.Errorf("invalid --month %q: use YYYY-MM", month)
				}
				t = parsed
			}
			summary := app.Records.MonthSummary(t.Year(), int(t.Month()))
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatMonthSummary(summary, app.currency()))
			return nil
		},
	}

	cmd.Flags().StringVar(&month, "month", "", "Month as YYYY-MM")
	return cmd
}
