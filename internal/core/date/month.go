package date

import (
	"fmt"
	"time"
)

// Month is a calendar year-month such as 2024-02.
type Month struct {
	y int
	m time.Month
}

func NewMonth(year int, month time.Month) Month {
	return New(year, month, 1).Period()
}

// ParseMonth reads "YYYY-MM".
func ParseMonth(str string) (Month, error) {
	on, err := time.Parse(MonthLayout, str)
	if err != nil {
		return Month{}, fmt.Errorf("invalid month %q want format %q: %w", str, "YYYY-MM", err)
	}
	return NewMonth(on.Year(), on.Month()), nil
}

func (m Month) Year() int         { return m.y }
func (m Month) Month() time.Month { return m.m }
func (m Month) IsZero() bool      { return m.y == 0 && m.m == 0 }
func (m Month) String() string    { return m.First().Time().Format(MonthLayout) }

func (m Month) First() Date { return New(m.y, m.m, 1) }
func (m Month) Last() Date  { return New(m.y, m.m+1, 0) }

// Days returns the number of days in m.
func (m Month) Days() int { return m.Last().Day() }

// Contains reports whether d falls in m.
func (m Month) Contains(d Date) bool { return d.y == m.y && d.m == m.m }

// Previous returns the month before m.
func (m Month) Previous() Month { return NewMonth(m.y, m.m-1) }

// YearAgo returns the same month one year earlier.
func (m Month) YearAgo() Month { return NewMonth(m.y-1, m.m) }

// Label renders m as "January 2024".
func (m Month) Label() string { return m.First().Time().Format("January 2006") }

func (m Month) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Month) UnmarshalText(text []byte) error {
	parsed, err := ParseMonth(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
