package recurrence

import (
	"sort"

	"github.com/frahmantamala/pennytrack/internal/core/date"
	"github.com/shopspring/decimal"
	"github.com/teambition/rrule-go"
)

// Occurrence is a projected future materialization.
type Occurrence struct {
	Position  int             `json:"position"`
	Date      date.Date       `json:"date"`
	Amount    decimal.Decimal `json:"amount"`
	Category  string          `json:"category"`
	Note      string          `json:"note"`
	Frequency Frequency       `json:"frequency"`
}

// Upcoming projects the materializations of every rule from today through
// today+days, assuming the engine runs daily. An overdue rule fires today.
func (e *Engine) Upcoming(today date.Date, days int) ([]Occurrence, error) {
	until := today.Add(days)
	var out []Occurrence

	for i, rule := range e.rules {
		checker, err := GetDuenessChecker(rule.Frequency)
		if err != nil {
			continue
		}
		first := rule.LastMaterialized.Add(checker.Interval())
		if first.Before(today) {
			first = today
		}
		if first.After(until) {
			continue
		}

		schedule, err := rrule.NewRRule(rrule.ROption{
			Freq:     rrule.DAILY,
			Interval: checker.Interval(),
			Dtstart:  first.Time(),
			Until:    until.Time(),
		})
		if err != nil {
			return nil, err
		}
		for _, t := range schedule.All() {
			out = append(out, Occurrence{
				Position:  i + 1,
				Date:      date.Of(t),
				Amount:    rule.Amount,
				Category:  rule.Category,
				Note:      rule.Note,
				Frequency: rule.Frequency,
			})
		}
	}

	sort.SliceStable(out, func(a, b int) bool {
		return out[a].Date.Before(out[b].Date)
	})
	return out, nil
}
