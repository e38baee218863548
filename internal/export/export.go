// Package export writes ledger entries and reports to external formats.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/frahmantamala/pennytrack/internal/core/date"
	"github.com/frahmantamala/pennytrack/internal/entry"
	"github.com/frahmantamala/pennytrack/internal/entry/csvfile"
	"github.com/frahmantamala/pennytrack/internal/render"
	"github.com/frahmantamala/pennytrack/internal/report"
	"gopkg.in/yaml.v3"
)

type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatText Format = "text"
)

var Formats = []string{string(FormatCSV), string(FormatJSON), string(FormatYAML), string(FormatText)}

// Record is the exported shape of an entry.
type Record struct {
	ID       string      `json:"id" yaml:"id"`
	Date     string      `json:"date" yaml:"date"`
	Amount   json.Number `json:"amount" yaml:"amount"`
	Category string      `json:"category" yaml:"category"`
	Note     string      `json:"note" yaml:"note"`
	Type     string      `json:"type" yaml:"type"`
}

func toRecords(entries []entry.Entry) []Record {
	out := make([]Record, len(entries))
	for i, e := range entries {
		out[i] = Record{
			ID:       e.ID,
			Date:     e.Date.String(),
			Amount:   json.Number(e.Amount.StringFixed(2)),
			Category: e.Category,
			Note:     e.Note,
			Type:     string(e.Kind),
		}
	}
	return out
}

// CSV writes entries in the same layout as the entries file.
func CSV(w io.Writer, entries []entry.Entry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvfile.Header); err != nil {
		return err
	}
	for _, r := range toRecords(entries) {
		if err := cw.Write([]string{r.ID, r.Date, r.Amount.String(), r.Category, r.Note, r.Type}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func JSON(w io.Writer, entries []entry.Entry) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(toRecords(entries))
}

func YAML(w io.Writer, entries []entry.Entry) error {
	type yamlRecord struct {
		ID       string  `yaml:"id"`
		Date     string  `yaml:"date"`
		Amount   float64 `yaml:"amount"`
		Category string  `yaml:"category"`
		Note     string  `yaml:"note,omitempty"`
		Type     string  `yaml:"type"`
	}
	out := make([]yamlRecord, len(entries))
	for i, e := range entries {
		out[i] = yamlRecord{
			ID:       e.ID,
			Date:     e.Date.String(),
			Amount:   e.Amount.Round(2).InexactFloat64(),
			Category: e.Category,
			Note:     e.Note,
			Type:     string(e.Kind),
		}
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(map[string]interface{}{"entries": out}); err != nil {
		return err
	}
	return enc.Close()
}

// Text writes a plain monthly report: the summary followed by every entry
// of the month.
func Text(w io.Writer, summary report.MonthlySummary, entries []entry.Entry) error {
	f := render.Plain()
	f.MonthlySummary(w, summary)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Entries:")
	f.Entries(w, entries)
	return nil
}

func CSVFileName(from, to date.Date) string {
	return fmt.Sprintf("export_%s_to_%s.csv", from, to)
}

func JSONFileName(now time.Time) string {
	return fmt.Sprintf("expenses_export_%s.json", now.Format("20060102"))
}

func YAMLFileName(now time.Time) string {
	return fmt.Sprintf("expenses_export_%s.yaml", now.Format("20060102"))
}

func TextFileName(month date.Month) string {
	return fmt.Sprintf("report_%s.txt", month)
}
