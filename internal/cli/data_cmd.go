package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/merosman91/Agricultural-Tractor/internal/export"
	"github.com/spf13/cobra"
)

func newDataCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "data",
		Short: "Export, import and clear work records",
	}

	cmd.AddCommand(
		newDataExportCmd(app),
		newDataImportCmd(app),
		newDataClearCmd(app),
	)

	return cmd
}

// pickFormat prefers an explicit --format, then the file extension, then
// fallback.
func pickFormat(flag, file string, fallback export.Format) (export.Format, error) {
	switch {
	case flag != "":
		return export.ParseFormat(flag)
	case file != "":
		return export.ParseFormat(file)
	default:
		return fallback, nil
	}
}

func newDataExportCmd(app *App) *cobra.Command {
	var format, file string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write all records as json, csv or xlsx",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := pickFormat(format, file, export.FormatJSON)
			if err != nil {
				return err
			}
			records := app.Records.Snapshot()

			if file == "" {
				return export.Write(cmd.OutOrStdout(), records, f)
			}
			out, err := os.Create(file)
			if err != nil {
				return fmt.Errorf("creating %s: %w", file, err)
			}
			if err := export.Write(out, records, f); err != nil {
				out.Close()
				return err
			}
			if err := out.Close(); err != nil {
				return fmt.Errorf("closing %s: %w", file, err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d records to %s\n", len(records), file)
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "", "json, csv or xlsx (default from file extension, else json)")
	cmd.Flags().StringVarP(&file, "file", "f", "", "Output file (default stdout)")
	return cmd
}

func newDataImportCmd(app *App) *cobra.Command {
	var format, file string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Append records from a json or csv file",
		Long:  "Append records from a json or csv file. Nothing is imported when any row is invalid.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := pickFormat(format, file, export.FormatJSON)
			if err != nil {
				return err
			}

			var in io.Reader = cmd.InOrStdin()
			if file != "" && file != "-" {
				fh, err := os.Open(file)
				if err != nil {
					return fmt.Errorf("opening %s: %w", file, err)
				}
				defer fh.Close()
				in = fh
			}

			records, err := export.Read(in, f)
			if err != nil {
				return err
			}
			n, err := app.Records.Import(cmd.Context(), records)
			if n == 0 && err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d records\n", n)
			return err
		},
	}

	cmd.Flags().StringVar(&format, "format", "", "json or csv (default from file extension, else json)")
	cmd.Flags().StringVarP(&file, "file", "f", "", "Input file (default stdin)")
	return cmd
}

func newDataClearCmd(app *App) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				if !app.interactive() {
					return fmt.Errorf("refusing to clear records without --yes")
				}
				confirmed := false
				title := fmt.Sprintf("Delete all %d records?", len(app.Records.Snapshot()))
				if err := wizardConfirm(title, &confirmed).Run(); err != nil {
					return err
				}
				if !confirmed {
					fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
					return nil
				}
			}
			if err := app.Records.Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "All records deleted.")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}
