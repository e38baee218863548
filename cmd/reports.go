package cmd

import (
	"fmt"

	"github.com/frahmantamala/pennytrack/internal"
	"github.com/frahmantamala/pennytrack/internal/core/date"
	"github.com/frahmantamala/pennytrack/internal/report"
	"github.com/spf13/cobra"
)

var (
	compareAgainst  string
	compareFrom     string
	compareTo       string
	compareBaseFrom string
	compareBaseTo   string
)

var summaryCmd = &cobra.Command{
	Use:   "summary [YYYY-MM]",
	Short: "Monthly summary with spending by category and budget status",
	Args:  cobra.MaximumNArgs(1),
	RunE: withApp(func(a *app, _ *cobra.Command, args []string) error {
		month, err := monthArg(a, args)
		if err != nil {
			return err
		}
		summary := report.Monthly(month, a.ledger.Entries.All(), a.ledger.Budgets.MonthStatus(month))
		a.f.MonthlySummary(a.out, summary)
		return nil
	}),
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Statistics dashboard over all entries",
	Args:  cobra.NoArgs,
	RunE: withApp(func(a *app, _ *cobra.Command, _ []string) error {
		stats, ok := report.Stats(a.ledger.Entries.All())
		if !ok {
			fmt.Fprintln(a.out, a.f.Muted.Render("No expenses recorded yet."))
			return nil
		}
		a.f.Stats(a.out, stats)
		return nil
	}),
}

var compareCmd = &cobra.Command{
	Use:   "compare [YYYY-MM]",
	Short: "Compare spending between two periods",
	Long: `Compare a month against the previous month (--against prev, the default) or
the same month last year (--against year). With --from/--to and
--base-from/--base-to two arbitrary date ranges are compared instead.`,
	Args: cobra.MaximumNArgs(1),
	RunE: withApp(func(a *app, _ *cobra.Command, args []string) error {
		current, base, err := comparePeriods(a, args)
		if err != nil {
			return err
		}
		a.f.Comparison(a.out, report.Compare(a.ledger.Entries.All(), current, base))
		return nil
	}),
}

func comparePeriods(a *app, args []string) (report.Period, report.Period, error) {
	if compareFrom != "" || compareBaseFrom != "" {
		current, err := rangePeriod(compareFrom, compareTo)
		if err != nil {
			return report.Period{}, report.Period{}, err
		}
		base, err := rangePeriod(compareBaseFrom, compareBaseTo)
		if err != nil {
			return report.Period{}, report.Period{}, err
		}
		return current, base, nil
	}

	month, err := monthArg(a, args)
	if err != nil {
		return report.Period{}, report.Period{}, err
	}
	switch compareAgainst {
	case "prev", "previous":
		return report.MonthPeriod(month), report.MonthPeriod(month.Previous()), nil
	case "year":
		return report.MonthPeriod(month), report.MonthPeriod(month.YearAgo()), nil
	}
	return report.Period{}, report.Period{}, fmt.Errorf("--against must be prev or year, got %q", compareAgainst)
}

func rangePeriod(from, to string) (report.Period, error) {
	if from == "" || to == "" {
		return report.Period{}, fmt.Errorf("custom comparisons need --from, --to, --base-from and --base-to")
	}
	f, err := date.Parse(from)
	if err != nil {
		return report.Period{}, internal.NewValidationFieldError("from", "dates must be YYYY-MM-DD", internal.ErrCodeInvalidDate)
	}
	t, err := date.Parse(to)
	if err != nil {
		return report.Period{}, internal.NewValidationFieldError("to", "dates must be YYYY-MM-DD", internal.ErrCodeInvalidDate)
	}
	if t.Before(f) {
		return report.Period{}, fmt.Errorf("range %s to %s ends before it starts", f, t)
	}
	return report.Period{Label: f.String() + " to " + t.String(), From: f, To: t}, nil
}

// monthArg is the optional YYYY-MM argument, defaulting to this month.
func monthArg(a *app, args []string) (date.Month, error) {
	if len(args) == 0 {
		return a.ledger.Today(a.ctx).Period(), nil
	}
	m, err := date.ParseMonth(args[0])
	if err != nil {
		return date.Month{}, internal.NewValidationFieldError("month", "month must be YYYY-MM", internal.ErrCodeInvalidMonth)
	}
	return m, nil
}

func init() {
	compareCmd.Flags().StringVar(&compareAgainst, "against", "prev", "prev or year")
	compareCmd.Flags().StringVar(&compareFrom, "from", "", "start of the current range")
	compareCmd.Flags().StringVar(&compareTo, "to", "", "end of the current range")
	compareCmd.Flags().StringVar(&compareBaseFrom, "base-from", "", "start of the base range")
	compareCmd.Flags().StringVar(&compareBaseTo, "base-to", "", "end of the base range")
}
