package render

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/frahmantamala/pennytrack/internal/budget"
	"github.com/frahmantamala/pennytrack/internal/core/date"
	"github.com/frahmantamala/pennytrack/internal/entry"
	"github.com/frahmantamala/pennytrack/internal/recurrence"
	"github.com/frahmantamala/pennytrack/internal/report"
	"github.com/shopspring/decimal"
)

const width = 60

func (f *Formatter) table(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(f.Muted).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return f.Header.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
}

func (f *Formatter) title(w io.Writer, text string) {
	fmt.Fprintln(w, Rule("=", width))
	fmt.Fprintln(w, f.Title.Render(fmt.Sprintf("%*s", (width+len(text))/2, text)))
	fmt.Fprintln(w, Rule("=", width))
}

func (f *Formatter) status(s budget.Status, text string) string {
	switch s {
	case budget.StatusOver:
		return f.Bad.Render(text)
	case budget.StatusWarning:
		return f.Warn.Render(text)
	default:
		return f.Good.Render(text)
	}
}

func (f *Formatter) kind(k entry.Kind, text string) string {
	if k == entry.KindIncome {
		return f.Good.Render(text)
	}
	return f.Bad.Render(text)
}

// Entries lists entries with a totals footer.
func (f *Formatter) Entries(w io.Writer, entries []entry.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, f.Muted.Render("No entries found."))
		return
	}
	t := f.table("ID", "Date", "Type", "Category", "Amount", "Note")
	for _, e := range entries {
		t.Row(e.ID, f.Date(e.Date), f.kind(e.Kind, string(e.Kind)), e.Category, f.Amount(e.Amount), e.Note)
	}
	fmt.Fprintln(w, t.Render())
	f.Totals(w, report.Totalize(entries))
}

func (f *Formatter) Totals(w io.Writer, t report.Totals) {
	fmt.Fprintf(w, "Expenses: %s   Income: %s   Net: %s   (%d entries)\n",
		f.Bad.Render(f.Amount(t.Expenses)),
		f.Good.Render(f.Amount(t.Income)),
		f.net(t.Net),
		t.Count)
}

func (f *Formatter) net(d decimal.Decimal) string {
	if d.IsNegative() {
		return f.Bad.Render(f.Amount(d))
	}
	return f.Good.Render(f.Amount(d))
}

// Alert prints a budget warning raised by an expense.
func (f *Formatter) Alert(w io.Writer, a budget.Alert) {
	switch a.Status {
	case budget.StatusOver:
		fmt.Fprintf(w, "%s %s budget exceeded for %s: %s of %s\n",
			f.Bad.Render("!"), a.Budget.Key.Category, a.Budget.Key.Month,
			f.Amount(a.Spend), f.Amount(a.Budget.Threshold))
	case budget.StatusWarning:
		fmt.Fprintf(w, "%s %s budget at %s for %s: %s of %s\n",
			f.Warn.Render("!"), a.Budget.Key.Category, f.Percent(a.Percent), a.Budget.Key.Month,
			f.Amount(a.Spend), f.Amount(a.Budget.Threshold))
	}
}

func (f *Formatter) percentOf(c budget.Classification) string {
	if c.Degenerate {
		return "n/a"
	}
	return f.Percent(c.Percent)
}

// MonthlySummary prints income, expenses, the category breakdown with any
// budget status, and the daily average.
func (f *Formatter) MonthlySummary(w io.Writer, s report.MonthlySummary) {
	f.title(w, "Monthly Summary: "+s.Month.Label())
	fmt.Fprintf(w, "Income:   %s\n", f.Good.Render(f.Amount(s.Totals.Income)))
	fmt.Fprintf(w, "Expenses: %s\n", f.Bad.Render(f.Amount(s.Totals.Expenses)))
	fmt.Fprintf(w, "Net:      %s\n", f.net(s.Totals.Net))

	if len(s.Categories) == 0 {
		fmt.Fprintln(w, f.Muted.Render("No expenses this month."))
		return
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, f.Header.Render("Spending by category:"))
	for _, c := range s.Categories {
		line := fmt.Sprintf("  %-15s %12s %s %6s", c.Category, f.Amount(c.Amount), Bar(c.Share, 20), f.Percent(c.Share))
		if c.Budget != nil {
			line += " " + f.status(c.Budget.Status, fmt.Sprintf("[%s of %s]", f.percentOf(c.Budget.Classification), f.Amount(c.Budget.Budget.Threshold)))
		}
		fmt.Fprintln(w, line)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Daily average: %s\n", f.Amount(s.DailyAverage))
}

// Stats prints the statistics dashboard.
func (f *Formatter) Stats(w io.Writer, s report.Statistics) {
	f.title(w, "Statistics Dashboard")

	fmt.Fprintln(w, f.Header.Render("Overall:"))
	fmt.Fprintf(w, "  Total expenses:      %s\n", f.Amount(s.Totals.Expenses))
	fmt.Fprintf(w, "  Total income:        %s\n", f.Amount(s.Totals.Income))
	fmt.Fprintf(w, "  Net:                 %s\n", f.net(s.Totals.Net))
	fmt.Fprintf(w, "  Number of expenses:  %d\n", s.ExpenseCount)
	fmt.Fprintf(w, "  Average expense:     %s\n", f.Amount(s.AverageExpense))
	fmt.Fprintf(w, "  Days tracked:        %d\n", s.DaysTracked)
	fmt.Fprintf(w, "  Average daily spend: %s\n", f.Amount(s.AverageDaily))

	fmt.Fprintln(w)
	fmt.Fprintln(w, f.Warn.Render("Highest expense:"))
	fmt.Fprintf(w, "  %s - %s on %s\n", f.Amount(s.Highest.Amount), s.Highest.Category, f.Date(s.Highest.Date))
	if s.Highest.Note != "" {
		fmt.Fprintf(w, "  Note: %s\n", s.Highest.Note)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, f.Accent.Render("Categories:"))
	fmt.Fprintf(w, "  Most frequent:  %s (%d times)\n", s.MostFrequent.Category, s.MostFrequent.Count)
	fmt.Fprintf(w, "  Most expensive: %s (%s)\n", s.MostExpensive.Category, f.Amount(s.MostExpensive.Amount))
	fmt.Fprintf(w, "  Categories:     %d\n", s.CategoryCount)

	if s.Trend != nil {
		fmt.Fprintln(w)
		fmt.Fprintln(w, f.Header.Render("Spending trend:"))
		direction := f.Good.Render("decreasing")
		if s.Trend.Direction == report.TrendUp {
			direction = f.Bad.Render("increasing")
		}
		fmt.Fprintf(w, "  %s (recent average %s vs %s)\n", direction, f.Amount(s.Trend.RecentAvg), f.Amount(s.Trend.PreviousAvg))
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, f.Title.Render("Top expenses:"))
	for i, e := range s.TopExpenses {
		fmt.Fprintf(w, "  %d. %-12s %-15s (%s)\n", i+1, f.Amount(e.Amount), e.Category, f.Date(e.Date))
	}
}

// Comparison prints a per-category comparison of two periods.
func (f *Formatter) Comparison(w io.Writer, c report.Comparison) {
	f.title(w, c.Current.Label+" vs "+c.Base.Label)
	t := f.table("Category", c.Current.Label, c.Base.Label, "Change", "%")
	rows := append(append([]report.Change{}, c.Categories...), c.Total)
	for _, ch := range rows {
		t.Row(ch.Category, f.Amount(ch.Current), f.Amount(ch.Base), f.change(ch.Diff, f.Signed(ch.Diff)), f.change(ch.Diff, f.Percent(ch.Percent)))
	}
	fmt.Fprintln(w, t.Render())
	fmt.Fprintf(w, "%s: %d expenses   %s: %d expenses\n", c.Current.Label, c.CurrentCount, c.Base.Label, c.BaseCount)
}

func (f *Formatter) change(diff decimal.Decimal, text string) string {
	switch {
	case diff.IsPositive():
		return f.Bad.Render(text)
	case diff.IsNegative():
		return f.Good.Render(text)
	}
	return text
}

// Budgets lists thresholds with their position for deletion.
func (f *Formatter) Budgets(w io.Writer, budgets []budget.Budget) {
	if len(budgets) == 0 {
		fmt.Fprintln(w, f.Muted.Render("No budgets set."))
		return
	}
	t := f.table("#", "Month", "Category", "Budget")
	for i, b := range budgets {
		t.Row(strconv.Itoa(i+1), b.Key.Month.String(), b.Key.Category, f.Amount(b.Threshold))
	}
	fmt.Fprintln(w, t.Render())
}

// BudgetStatus prints every budget of a month against its spend.
func (f *Formatter) BudgetStatus(w io.Writer, month date.Month, lines []budget.Line) {
	f.title(w, "Budget Status: "+month.Label())
	if len(lines) == 0 {
		fmt.Fprintln(w, f.Muted.Render("No budgets set for this month."))
		return
	}
	for _, l := range lines {
		fmt.Fprintf(w, "%-15s %s / %s  %s %s\n",
			l.Budget.Key.Category,
			f.Amount(l.Spend),
			f.Amount(l.Budget.Threshold),
			f.status(l.Status, Bar(l.Percent, 20)),
			f.status(l.Status, f.percentOf(l.Classification)))
		if l.Remaining.IsNegative() {
			fmt.Fprintf(w, "  %s\n", f.Bad.Render("over by "+f.Amount(l.Remaining.Neg())))
		} else {
			fmt.Fprintf(w, "  %s\n", f.Muted.Render(f.Amount(l.Remaining)+" remaining"))
		}
	}
}

// Rules lists recurring rules with their position for deletion.
func (f *Formatter) Rules(w io.Writer, rules []recurrence.Rule) {
	if len(rules) == 0 {
		fmt.Fprintln(w, f.Muted.Render("No recurring expenses."))
		return
	}
	t := f.table("#", "Amount", "Category", "Frequency", "Last added", "Note")
	for i, r := range rules {
		t.Row(strconv.Itoa(i+1), f.Amount(r.Amount), r.Category, string(r.Frequency), f.Date(r.LastMaterialized), r.Note)
	}
	fmt.Fprintln(w, t.Render())
}

// Upcoming lists projected recurring expenses.
func (f *Formatter) Upcoming(w io.Writer, occurrences []recurrence.Occurrence) {
	if len(occurrences) == 0 {
		fmt.Fprintln(w, f.Muted.Render("Nothing scheduled in that window."))
		return
	}
	t := f.table("Date", "Rule", "Amount", "Category", "Note")
	total := decimal.Zero
	for _, o := range occurrences {
		t.Row(f.Date(o.Date), strconv.Itoa(o.Position), f.Amount(o.Amount), o.Category, o.Note)
		total = total.Add(o.Amount)
	}
	fmt.Fprintln(w, t.Render())
	fmt.Fprintf(w, "Projected total: %s\n", f.Amount(total))
}
