package cmd

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/frahmantamala/pennytrack/internal/core/date"
	"github.com/frahmantamala/pennytrack/internal/entry"
	"github.com/frahmantamala/pennytrack/internal/export"
	"github.com/frahmantamala/pennytrack/internal/report"
	"github.com/frahmantamala/pennytrack/pkg/fileutil"
	"github.com/spf13/cobra"
)

var (
	exportDir  string
	exportFrom string
	exportTo   string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export entries or a monthly report",
}

var exportCSVCmd = &cobra.Command{
	Use:   "csv",
	Short: "Export the entries of a date range as CSV",
	Args:  cobra.NoArgs,
	RunE: withApp(func(a *app, _ *cobra.Command, _ []string) error {
		from, to, err := exportRange(a)
		if err != nil {
			return err
		}
		entries := a.ledger.Entries.Query(entry.Between(from, to))
		return writeExport(a, export.CSVFileName(from, to), len(entries), func(w io.Writer) error {
			return export.CSV(w, entries)
		})
	}),
}

var exportJSONCmd = &cobra.Command{
	Use:   "json",
	Short: "Export every entry as JSON",
	Args:  cobra.NoArgs,
	RunE: withApp(func(a *app, _ *cobra.Command, _ []string) error {
		entries := a.ledger.Entries.All()
		return writeExport(a, export.JSONFileName(a.ledger.Now(a.ctx)), len(entries), func(w io.Writer) error {
			return export.JSON(w, entries)
		})
	}),
}

var exportYAMLCmd = &cobra.Command{
	Use:   "yaml",
	Short: "Export every entry as YAML",
	Args:  cobra.NoArgs,
	RunE: withApp(func(a *app, _ *cobra.Command, _ []string) error {
		entries := a.ledger.Entries.All()
		return writeExport(a, export.YAMLFileName(a.ledger.Now(a.ctx)), len(entries), func(w io.Writer) error {
			return export.YAML(w, entries)
		})
	}),
}

var exportTextCmd = &cobra.Command{
	Use:   "text [YYYY-MM]",
	Short: "Write a plain text report of a month",
	Args:  cobra.MaximumNArgs(1),
	RunE: withApp(func(a *app, _ *cobra.Command, args []string) error {
		month, err := monthArg(a, args)
		if err != nil {
			return err
		}
		entries := a.ledger.Entries.Query(entry.InMonth(month))
		summary := report.Monthly(month, entries, a.ledger.Budgets.MonthStatus(month))
		return writeExport(a, export.TextFileName(month), len(entries), func(w io.Writer) error {
			return export.Text(w, summary, entries)
		})
	}),
}

func exportRange(a *app) (date.Date, date.Date, error) {
	to := a.ledger.Today(a.ctx)
	if exportTo != "" {
		d, err := date.Parse(exportTo)
		if err != nil {
			return date.Date{}, date.Date{}, fmt.Errorf("--to must be YYYY-MM-DD")
		}
		to = d
	}
	from := to.Period().First()
	if exportFrom != "" {
		d, err := date.Parse(exportFrom)
		if err != nil {
			return date.Date{}, date.Date{}, fmt.Errorf("--from must be YYYY-MM-DD")
		}
		from = d
	}
	if to.Before(from) {
		return date.Date{}, date.Date{}, fmt.Errorf("range %s to %s ends before it starts", from, to)
	}
	return from, to, nil
}

func writeExport(a *app, name string, count int, write func(io.Writer) error) error {
	path := filepath.Join(exportDir, name)
	if err := fileutil.WriteAtomic(path, write); err != nil {
		return fmt.Errorf("export failed: %w", err)
	}
	a.logger.Info("export written", "path", path, "entries", count)
	fmt.Fprintf(a.out, "%s exported %d entries to %s\n", a.f.Good.Render("✓"), count, path)
	return nil
}

func init() {
	exportCmd.PersistentFlags().StringVarP(&exportDir, "output-dir", "o", ".", "directory to write the export to")
	exportCSVCmd.Flags().StringVar(&exportFrom, "from", "", "first date (default start of the --to month)")
	exportCSVCmd.Flags().StringVar(&exportTo, "to", "", "last date (default today)")

	exportCmd.AddCommand(exportCSVCmd)
	exportCmd.AddCommand(exportJSONCmd)
	exportCmd.AddCommand(exportYAMLCmd)
	exportCmd.AddCommand(exportTextCmd)
}
