// Package report derives summaries from ledger entries. Nothing here reads
// or writes storage.
package report

import (
	"sort"

	"github.com/frahmantamala/pennytrack/internal/budget"
	"github.com/frahmantamala/pennytrack/internal/core/date"
	"github.com/frahmantamala/pennytrack/internal/entry"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

type Totals struct {
	Expenses decimal.Decimal `json:"expenses"`
	Income   decimal.Decimal `json:"income"`
	Net      decimal.Decimal `json:"net"`
	Count    int             `json:"count"`
}

func Totalize(entries []entry.Entry) Totals {
	t := Totals{Expenses: decimal.Zero, Income: decimal.Zero}
	for _, e := range entries {
		if e.IsExpense() {
			t.Expenses = t.Expenses.Add(e.Amount)
		} else {
			t.Income = t.Income.Add(e.Amount)
		}
	}
	t.Net = t.Income.Sub(t.Expenses)
	t.Count = len(entries)
	return t
}

// CategoryTotal is the expense total of one category. Share is its
// percentage of all expenses in the period.
type CategoryTotal struct {
	Category string          `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
	Count    int             `json:"count"`
	Share    decimal.Decimal `json:"share"`
	Budget   *budget.Line    `json:"budget,omitempty"`
}

// ByCategory totals expenses per category, largest first.
func ByCategory(entries []entry.Entry) []CategoryTotal {
	totals := make(map[string]*CategoryTotal)
	all := decimal.Zero
	for _, e := range entries {
		if !e.IsExpense() {
			continue
		}
		ct, ok := totals[e.Category]
		if !ok {
			ct = &CategoryTotal{Category: e.Category, Amount: decimal.Zero}
			totals[e.Category] = ct
		}
		ct.Amount = ct.Amount.Add(e.Amount)
		ct.Count++
		all = all.Add(e.Amount)
	}

	out := make([]CategoryTotal, 0, len(totals))
	for _, ct := range totals {
		if all.IsPositive() {
			ct.Share = ct.Amount.Div(all).Mul(hundred)
		}
		out = append(out, *ct)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Amount.Equal(out[j].Amount) {
			return out[i].Amount.GreaterThan(out[j].Amount)
		}
		return out[i].Category < out[j].Category
	})
	return out
}

type MonthlySummary struct {
	Month        date.Month      `json:"month"`
	Totals       Totals          `json:"totals"`
	Categories   []CategoryTotal `json:"categories"`
	Budgets      []budget.Line   `json:"budgets"`
	DailyAverage decimal.Decimal `json:"daily_average"`
}

// Monthly summarizes the entries of month. lines are that month's budget
// status lines; each is attached to its category when it has spend.
func Monthly(month date.Month, entries []entry.Entry, lines []budget.Line) MonthlySummary {
	inMonth := make([]entry.Entry, 0, len(entries))
	for _, e := range entries {
		if month.Contains(e.Date) {
			inMonth = append(inMonth, e)
		}
	}

	summary := MonthlySummary{
		Month:      month,
		Totals:     Totalize(inMonth),
		Categories: ByCategory(inMonth),
		Budgets:    lines,
	}
	for i := range summary.Categories {
		for j := range lines {
			if lines[j].Budget.Key.Category == summary.Categories[i].Category {
				line := lines[j]
				summary.Categories[i].Budget = &line
			}
		}
	}
	summary.DailyAverage = summary.Totals.Expenses.Div(decimal.NewFromInt(int64(month.Days())))
	return summary
}
