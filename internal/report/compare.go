package report

import (
	"sort"

	"github.com/frahmantamala/pennytrack/internal/core/date"
	"github.com/frahmantamala/pennytrack/internal/entry"
	"github.com/shopspring/decimal"
)

// Period is a labelled inclusive date range.
type Period struct {
	Label string    `json:"label"`
	From  date.Date `json:"from"`
	To    date.Date `json:"to"`
}

func MonthPeriod(m date.Month) Period {
	return Period{Label: m.Label(), From: m.First(), To: m.Last()}
}

type Change struct {
	Category string          `json:"category"`
	Current  decimal.Decimal `json:"current"`
	Base     decimal.Decimal `json:"base"`
	Diff     decimal.Decimal `json:"diff"`
	// Percent is the change relative to Base, zero when Base is zero.
	Percent decimal.Decimal `json:"percent"`
}

type Comparison struct {
	Current      Period   `json:"current"`
	Base         Period   `json:"base"`
	CurrentCount int      `json:"current_count"`
	BaseCount    int      `json:"base_count"`
	Categories   []Change `json:"categories"`
	Total        Change   `json:"total"`
}

// Compare measures the expenses of current against base, per category.
func Compare(entries []entry.Entry, current, base Period) Comparison {
	cur := expensesByCategory(entries, current)
	old := expensesByCategory(entries, base)

	c := Comparison{Current: current, Base: base}

	names := make(map[string]struct{})
	for k := range cur.amounts {
		names[k] = struct{}{}
	}
	for k := range old.amounts {
		names[k] = struct{}{}
	}
	sorted := make([]string, 0, len(names))
	for k := range names {
		sorted = append(sorted, k)
	}
	sort.Strings(sorted)

	for _, name := range sorted {
		c.Categories = append(c.Categories, change(name, cur.amounts[name], old.amounts[name]))
	}
	c.Total = change("TOTAL", cur.total, old.total)
	c.CurrentCount = cur.count
	c.BaseCount = old.count
	return c
}

type periodExpenses struct {
	amounts map[string]decimal.Decimal
	total   decimal.Decimal
	count   int
}

func expensesByCategory(entries []entry.Entry, p Period) periodExpenses {
	out := periodExpenses{amounts: make(map[string]decimal.Decimal), total: decimal.Zero}
	for _, e := range entries {
		if !e.IsExpense() || !e.Date.Within(p.From, p.To) {
			continue
		}
		out.amounts[e.Category] = out.amounts[e.Category].Add(e.Amount)
		out.total = out.total.Add(e.Amount)
		out.count++
	}
	return out
}

func change(category string, current, base decimal.Decimal) Change {
	c := Change{
		Category: category,
		Current:  current,
		Base:     base,
		Diff:     current.Sub(base),
		Percent:  decimal.Zero,
	}
	if base.IsPositive() {
		c.Percent = c.Diff.Div(base).Mul(hundred)
	}
	return c
}
