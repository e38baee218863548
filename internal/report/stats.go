package report

import (
	"sort"

	"github.com/frahmantamala/pennytrack/internal/entry"
	"github.com/shopspring/decimal"
)

type Trend string

const (
	TrendUp   Trend = "increasing"
	TrendDown Trend = "decreasing"
)

// trendWindow is the number of recent expenses compared against the ones
// before them.
const trendWindow = 10

type SpendingTrend struct {
	Direction   Trend           `json:"direction"`
	RecentAvg   decimal.Decimal `json:"recent_average"`
	PreviousAvg decimal.Decimal `json:"previous_average"`
}

type Statistics struct {
	Totals         Totals          `json:"totals"`
	ExpenseCount   int             `json:"expense_count"`
	AverageExpense decimal.Decimal `json:"average_expense"`
	DaysTracked    int             `json:"days_tracked"`
	AverageDaily   decimal.Decimal `json:"average_daily"`
	Highest        entry.Entry     `json:"highest"`
	MostFrequent   CategoryTotal   `json:"most_frequent"`
	MostExpensive  CategoryTotal   `json:"most_expensive"`
	CategoryCount  int             `json:"category_count"`
	Trend          *SpendingTrend  `json:"trend,omitempty"`
	TopExpenses    []entry.Entry   `json:"top_expenses"`
}

// Stats builds the dashboard over entries in insertion order. It reports
// false when there are no expenses.
func Stats(entries []entry.Entry) (Statistics, bool) {
	expenses := make([]entry.Entry, 0, len(entries))
	for _, e := range entries {
		if e.IsExpense() {
			expenses = append(expenses, e)
		}
	}
	if len(expenses) == 0 {
		return Statistics{}, false
	}

	s := Statistics{
		Totals:       Totalize(entries),
		ExpenseCount: len(expenses),
	}
	s.AverageExpense = s.Totals.Expenses.Div(decimal.NewFromInt(int64(len(expenses))))

	first, last := expenses[0].Date, expenses[0].Date
	s.Highest = expenses[0]
	for _, e := range expenses[1:] {
		if e.Date.Before(first) {
			first = e.Date
		}
		if e.Date.After(last) {
			last = e.Date
		}
		if e.Amount.GreaterThan(s.Highest.Amount) {
			s.Highest = e
		}
	}
	s.DaysTracked = last.DaysSince(first) + 1
	s.AverageDaily = s.Totals.Expenses.Div(decimal.NewFromInt(int64(s.DaysTracked)))

	categories := ByCategory(expenses)
	s.CategoryCount = len(categories)
	s.MostExpensive = categories[0]
	s.MostFrequent = categories[0]
	for _, c := range categories[1:] {
		if c.Count > s.MostFrequent.Count {
			s.MostFrequent = c
		}
	}

	if len(expenses) >= trendWindow {
		recent := expenses[len(expenses)-trendWindow:]
		older := expenses[:len(expenses)-trendWindow]
		if len(older) > trendWindow {
			older = older[len(older)-trendWindow:]
		}
		if len(older) > 0 {
			t := SpendingTrend{
				RecentAvg:   average(recent),
				PreviousAvg: average(older),
				Direction:   TrendDown,
			}
			if t.RecentAvg.GreaterThan(t.PreviousAvg) {
				t.Direction = TrendUp
			}
			s.Trend = &t
		}
	}

	top := make([]entry.Entry, len(expenses))
	copy(top, expenses)
	sort.SliceStable(top, func(i, j int) bool {
		return top[i].Amount.GreaterThan(top[j].Amount)
	})
	if len(top) > 5 {
		top = top[:5]
	}
	s.TopExpenses = top

	return s, true
}

func average(entries []entry.Entry) decimal.Decimal {
	sum := decimal.Zero
	for _, e := range entries {
		sum = sum.Add(e.Amount)
	}
	return sum.Div(decimal.NewFromInt(int64(len(entries))))
}
