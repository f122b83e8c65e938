package cli

import (
	"fmt"
	"strings"

	"github.com/merosman91/Agricultural-Tractor/internal/cli/formatter"
	"github.com/merosman91/Agricultural-Tractor/internal/domain"
	"github.com/merosman91/Agricultural-Tractor/internal/service"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

func newRecordCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "record",
		Aliases: []string{"r"},
		Short:   "Manage work records",
	}

	cmd.AddCommand(
		newRecordAddCmd(app),
		newRecordUpdateCmd(app),
		newRecordRemoveCmd(app),
		newRecordShowCmd(app),
		newRecordListCmd(app),
		newRecordPayCmd(app),
		newRecordSearchCmd(app),
		newRecordUpcomingCmd(app),
	)

	return cmd
}

// recordFlags are the editable record fields shared by add and update.
type recordFlags struct {
	customer, phone, location, workType, notes, date, status string
	hours, rate                                              int
}

func (f *recordFlags) bind(fs *pflag.FlagSet) {
	fs.StringVar(&f.customer, "customer", "", "Customer name")
	fs.StringVar(&f.phone, "phone", "", "Customer phone number")
	fs.StringVar(&f.location, "location", "", "Field or village")
	fs.StringVar(&f.workType, "work-type", "", "Kind of work, e.g. plowing")
	fs.StringVar(&f.notes, "notes", "", "Free-form notes")
	fs.StringVar(&f.date, "date", "", "Work date (YYYY-MM-DD, default today)")
	fs.IntVar(&f.hours, "hours", 0, "Hours worked (1-24)")
	fs.IntVar(&f.rate, "rate", 0, "Hourly rate (default from config)")
	fs.StringVar(&f.status, "status", "", "Payment status: paid, deferred or partial")
}

func (f *recordFlags) input() (domain.RecordInput, error) {
	in := domain.RecordInput{
		CustomerName: f.customer,
		Phone:        f.phone,
		Location:     f.location,
		WorkType:     f.workType,
		Notes:        f.notes,
		Date:         f.date,
		Hours:        f.hours,
		HourlyRate:   f.rate,
	}
	if f.status != "" {
		s, err := domain.ParsePaymentStatus(f.status)
		if err != nil {
			return in, err
		}
		in.PaymentStatus = s
	}
	return in, nil
}

// patch builds a partial update from the flags the user actually set, so an
// explicit empty value clears a field.
func (f *recordFlags) patch(fs *pflag.FlagSet) (domain.RecordPatch, error) {
	var p domain.RecordPatch
	var err error
	fs.Visit(func(fl *pflag.Flag) {
		switch fl.Name {
		case "customer":
			p.CustomerName = &f.customer
		case "phone":
			p.Phone = &f.phone
		case "location":
			p.Location = &f.location
		case "work-type":
			p.WorkType = &f.workType
		case "notes":
			p.Notes = &f.notes
		case "date":
			p.Date = &f.date
		case "hours":
			p.Hours = &f.hours
		case "rate":
			p.HourlyRate = &f.rate
		case "status":
			s, perr := domain.ParsePaymentStatus(f.status)
			if perr != nil {
				err = perr
				return
			}
			p.PaymentStatus = &s
		}
	})
	return p, err
}

func newRecordAddCmd(app *App) *cobra.Command {
	var flags recordFlags

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Log a new work record",
		Long:  "Log a new work record. Run without flags in a terminal to fill in a form.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := flags.input()
			if err != nil {
				return err
			}
			if cmd.Flags().NFlag() == 0 && app.interactive() {
				var v recordFormValues
				form := recordForm(app.defaultRate(), app.now().Format(domain.DateLayout), &v)
				if err := form.Run(); err != nil {
					return err
				}
				in = v.input()
			}

			rec, err := app.Records.Add(cmd.Context(), in)
			if rec == nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added record %s for %s: %s, %s (%s)\n",
				formatter.ShortID(rec.ID), rec.CustomerName, formatter.FormatHours(rec.Hours),
				service.FormatAmount(rec.TotalAmount, app.currency()), rec.PaymentStatus)
			return err
		},
	}

	flags.bind(cmd.Flags())
	return cmd
}

func newRecordUpdateCmd(app *App) *cobra.Command {
	var flags recordFlags

	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Change fields of a work record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := resolveRecordID(app, args[0])
			if err != nil {
				return err
			}
			patch, err := flags.patch(cmd.Flags())
			if err != nil {
				return err
			}
			if patch.IsEmpty() {
				return fmt.Errorf("nothing to update: pass at least one field flag")
			}

			rec, err := app.Records.Update(cmd.Context(), id, patch)
			if rec == nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated record %s: %s, %s\n",
				formatter.ShortID(rec.ID), formatter.FormatHours(rec.Hours),
				service.FormatAmount(rec.TotalAmount, app.currency()))
			return err
		},
	}

	flags.bind(cmd.Flags())
	return cmd
}

func newRecordRemoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "remove ID",
		Aliases: []string{"rm"},
		Short:   "Remove a work record",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := resolveRecordID(app, args[0])
			if err != nil {
				return err
			}
			removed, err := app.Records.Delete(cmd.Context(), id)
			if !removed {
				if err == nil {
					err = fmt.Errorf("record %q: %w", id, domain.ErrNotFound)
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed record %s\n", formatter.ShortID(id))
			return err
		},
	}
}

func newRecordShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show one work record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := resolveRecordID(app, args[0])
			if err != nil {
				return err
			}
			rec, err := app.Records.Get(id)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatRecordDetail(rec, app.currency()))
			return nil
		},
	}
}

func newRecordListCmd(app *App) *cobra.Command {
	var date, customer, status, workType string

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List work records, optionally filtered",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := service.RecordFilter{Date: date, Customer: customer, WorkType: workType}
			if status != "" {
				s, err := domain.ParsePaymentStatus(status)
				if err != nil {
					return err
				}
				filter.PaymentStatus = s
			}
			records := app.Records.List(filter)
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatRecordList("Records", records, app.currency()))
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Only records on this date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&customer, "customer", "", "Match customer name or phone")
	cmd.Flags().StringVar(&status, "status", "", "Only records with this payment status")
	cmd.Flags().StringVar(&workType, "work-type", "", "Only records of this work type")

	return cmd
}

func newRecordPayCmd(app *App) *cobra.Command {
	var status string

	cmd := &cobra.Command{
		Use:   "pay ID",
		Short: "Set the payment status of a record (default paid)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := resolveRecordID(app, args[0])
			if err != nil {
				return err
			}
			s, err := domain.ParsePaymentStatus(status)
			if err != nil {
				return err
			}
			rec, err := app.Records.SetPaymentStatus(cmd.Context(), id, s)
			if rec == nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Record %s is now %s\n", formatter.ShortID(rec.ID), rec.PaymentStatus)
			return err
		},
	}

	cmd.Flags().StringVar(&status, "status", string(domain.PaymentPaid), "Payment status: paid, deferred or partial")
	return cmd
}

func newRecordSearchCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "search QUERY...",
		Short: "Search name, phone, location and notes",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			records := app.Records.Search(query)
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatRecordList(fmt.Sprintf("Matches for %q", query), records, app.currency()))
			return nil
		},
	}
}

func newRecordUpcomingCmd(app *App) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "upcoming",
		Short: "List work scheduled from today onwards",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			records := app.Records.Upcoming(days)
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatUpcoming(records, app.now()))
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", 7, "How many days ahead to look")
	return cmd
}

