// Package date holds day-granular calendar dates and year-month periods.
package date

import (
	"encoding/json"
	"fmt"
	"time"
)

// Layout is the on-disk and wire format of a Date.
const Layout = "2006-01-02"

// readLayout also accepts single-digit months and days ("2024-3-5").
const readLayout = "2006-1-2"

// MonthLayout is the format of a Month.
const MonthLayout = "2006-01"

// Date is a calendar day with no time of day or zone.
type Date struct {
	y int
	m time.Month
	d int
}

// New returns a normalized Date, so New(2024, 1, 32) is 2024-02-01.
func New(year int, month time.Month, day int) Date {
	d := Date{year, month, day}
	d.y, d.m, d.d = d.Time().Date()
	return d
}

// Of returns the calendar day of t in t's own location.
func Of(t time.Time) Date { return New(t.Date()) }

// Today returns the current local date.
func Today() Date { return Of(time.Now()) }

// Parse reads a Date in Layout, tolerating unpadded month and day.
func Parse(str string) (Date, error) {
	on, err := time.Parse(readLayout, str)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q want format %q: %w", str, "YYYY-MM-DD", err)
	}
	return Of(on), nil
}

// MustParse is like Parse but panics on error.
func MustParse(str string) Date {
	d, err := Parse(str)
	if err != nil {
		panic(err.Error())
	}
	return d
}

// Time returns midnight UTC of d.
func (d Date) Time() time.Time { return time.Date(d.y, d.m, d.d, 0, 0, 0, 0, time.UTC) }

func (d Date) Year() int          { return d.y }
func (d Date) Month() time.Month  { return d.m }
func (d Date) Day() int           { return d.d }
func (d Date) IsZero() bool       { return d.y == 0 && d.m == 0 && d.d == 0 }
func (d Date) String() string     { return d.Time().Format(Layout) }
func (d Date) Before(x Date) bool { return d.Time().Before(x.Time()) }
func (d Date) After(x Date) bool  { return d.Time().After(x.Time()) }

// Add returns d shifted by n days.
func (d Date) Add(n int) Date { return New(d.y, d.m, d.d+n) }

// DaysSince returns the whole number of days from x to d.
func (d Date) DaysSince(x Date) int {
	return int(d.Time().Sub(x.Time()).Hours() / 24)
}

// Within reports whether d lies in [from, to]. A zero bound is open.
func (d Date) Within(from, to Date) bool {
	if !from.IsZero() && d.Before(from) {
		return false
	}
	if !to.IsZero() && d.After(to) {
		return false
	}
	return true
}

// Period returns the year-month d falls in.
func (d Date) Period() Month { return Month{y: d.y, m: d.m} }

func (d *Date) UnmarshalJSON(bytes []byte) error {
	var str string
	if err := json.Unmarshal(bytes, &str); err != nil {
		return err
	}
	parsed, err := Parse(str)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d Date) MarshalYAML() (interface{}, error) {
	return d.String(), nil
}

var _ json.Marshaler = (*Date)(nil)
var _ json.Unmarshaler = (*Date)(nil)
