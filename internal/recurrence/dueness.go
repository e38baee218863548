package recurrence

import (
	"fmt"

	"github.com/frahmantamala/pennytrack/internal/core/date"
)

// DuenessChecker decides whether a rule fires on a given day.
type DuenessChecker interface {
	IsDue(last, today date.Date) bool
	// Interval is the fixed spacing between firings, in days.
	Interval() int
}

// intervalChecker fires once at least days whole days have passed. Months are
// treated as 28 days, so a monthly rule drifts against the calendar.
type intervalChecker struct {
	days int
}

func (c intervalChecker) IsDue(last, today date.Date) bool {
	return today.DaysSince(last) >= c.days
}

func (c intervalChecker) Interval() int {
	return c.days
}

var duenessStrategies = map[Frequency]DuenessChecker{
	Daily:   intervalChecker{days: 1},
	Weekly:  intervalChecker{days: 7},
	Monthly: intervalChecker{days: 28},
}

func GetDuenessChecker(frequency Frequency) (DuenessChecker, error) {
	checker, ok := duenessStrategies[frequency]
	if !ok {
		return nil, fmt.Errorf("unknown frequency %q", frequency)
	}
	return checker, nil
}
