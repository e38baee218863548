// Package render turns ledger data into terminal text.
package render

import (
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/charmbracelet/lipgloss"
	"github.com/frahmantamala/pennytrack/internal/core/date"
	"github.com/frahmantamala/pennytrack/internal/settings"
	"github.com/ncruces/go-strftime"
	"github.com/shopspring/decimal"
)

// Palette holds the styles used for emphasis. A disabled palette renders
// text unchanged.
type Palette struct {
	Title   lipgloss.Style
	Header  lipgloss.Style
	Good    lipgloss.Style
	Warn    lipgloss.Style
	Bad     lipgloss.Style
	Accent  lipgloss.Style
	Muted   lipgloss.Style
	enabled bool
}

func NewPalette(useColors bool) Palette {
	if !useColors {
		plain := lipgloss.NewStyle()
		return Palette{Title: plain, Header: plain, Good: plain, Warn: plain, Bad: plain, Accent: plain, Muted: plain}
	}
	return Palette{
		Title:   lipgloss.NewStyle().Bold(true),
		Header:  lipgloss.NewStyle().Foreground(lipgloss.Color("#89b4fa")).Bold(true),
		Good:    lipgloss.NewStyle().Foreground(lipgloss.Color("#a6e3a1")),
		Warn:    lipgloss.NewStyle().Foreground(lipgloss.Color("#f9e2af")),
		Bad:     lipgloss.NewStyle().Foreground(lipgloss.Color("#f38ba8")),
		Accent:  lipgloss.NewStyle().Foreground(lipgloss.Color("#cba6f7")),
		Muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("#7f849c")),
		enabled: true,
	}
}

func (p Palette) Enabled() bool { return p.enabled }

// Formatter renders amounts and dates according to the user settings.
type Formatter struct {
	Palette
	money      *money.Formatter
	dateFormat string
}

func NewFormatter(s settings.Settings) *Formatter {
	return &Formatter{
		Palette:    NewPalette(s.UseColors),
		money:      money.NewFormatter(2, ".", ",", s.CurrencySymbol, "$1"),
		dateFormat: s.DateFormat,
	}
}

// Plain is a formatter with defaults and no colors, for files.
func Plain() *Formatter {
	s := settings.Defaults()
	s.UseColors = false
	return NewFormatter(s)
}

// Amount renders d rounded to cents with the currency symbol and thousands
// separators, e.g. "$1,234.50".
func (f *Formatter) Amount(d decimal.Decimal) string {
	return f.money.Format(d.Round(2).Shift(2).IntPart())
}

// Signed renders d with an explicit "+" for positive values.
func (f *Formatter) Signed(d decimal.Decimal) string {
	if d.IsPositive() {
		return "+" + f.Amount(d)
	}
	return f.Amount(d)
}

// Percent renders p with one decimal place.
func (f *Formatter) Percent(p decimal.Decimal) string {
	return p.StringFixed(1) + "%"
}

// Date renders d with the strftime pattern from the settings.
func (f *Formatter) Date(d date.Date) string {
	if f.dateFormat == "" {
		return d.String()
	}
	return strftime.Format(f.dateFormat, d.Time())
}

// Bar draws a proportional bar of width cells for percent (0–100).
func Bar(percent decimal.Decimal, width int) string {
	filled := int(percent.Div(decimal.NewFromInt(100)).Mul(decimal.NewFromInt(int64(width))).IntPart())
	if filled < 0 {
		filled = 0
	}
	if filled > width {
		filled = width
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

// Rule returns a horizontal separator of n characters.
func Rule(ch string, n int) string {
	return strings.Repeat(ch, n)
}
