// Package csvfile stores ledger entries in a CSV file with the header
// ID,Date,Amount,Category,Note,Type.
package csvfile

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/frahmantamala/pennytrack/internal"
	entryDatamodel "github.com/frahmantamala/pennytrack/internal/core/datamodel/entry"
	"github.com/frahmantamala/pennytrack/internal/entry"
	"github.com/frahmantamala/pennytrack/pkg/fileutil"
)

var Header = []string{"ID", "Date", "Amount", "Category", "Note", "Type"}

var _ entry.Quarantiner = (*EntryRepository)(nil)

// EntryRepository implements entry.Repository on a CSV file. The id
// high-water mark lives in a sidecar file next to it.
type EntryRepository struct {
	path string
}

func NewEntryRepository(path string) entry.Repository {
	return &EntryRepository{path: path}
}

func (r *EntryRepository) seqPath() string {
	return r.path + ".seq"
}

func (r *EntryRepository) LoadAll() ([]*entry.Entry, error) {
	rows, _, err := r.readRows()
	if err != nil {
		return nil, err
	}
	return entry.FromDataModelSlice(rows)
}

// Append adds one row at the end of the file. A missing file, or one written
// before the Type column existed, is rewritten whole instead.
func (r *EntryRepository) Append(e *entry.Entry) error {
	rows, hasType, err := r.readRows()
	if err != nil {
		return err
	}
	if !hasType {
		existing, err := entry.FromDataModelSlice(rows)
		if err != nil {
			return err
		}
		return r.ReplaceAll(append(existing, e))
	}

	f, err := os.OpenFile(r.path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open entries file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(record(entry.ToDataModel(e))); err != nil {
		return fmt.Errorf("write entry: %w", err)
	}
	w.Flush()
	return w.Error()
}

func (r *EntryRepository) ReplaceAll(entries []*entry.Entry) error {
	return fileutil.WriteAtomic(r.path, func(out io.Writer) error {
		w := csv.NewWriter(out)
		if err := w.Write(Header); err != nil {
			return err
		}
		for _, row := range entry.ToDataModelSlice(entries) {
			if err := w.Write(record(row)); err != nil {
				return err
			}
		}
		w.Flush()
		return w.Error()
	})
}

// Quarantine renames an unreadable entries file to <name>.corrupt-<timestamp>
// so a fresh file can take its place. It returns the new path, or "" when
// there was no file.
func (r *EntryRepository) Quarantine() (string, error) {
	if !fileutil.Exists(r.path) {
		return "", nil
	}
	aside := fmt.Sprintf("%s.corrupt-%s", r.path, time.Now().Format("20060102-150405"))
	if err := os.Rename(r.path, aside); err != nil {
		return "", fmt.Errorf("move entries file aside: %w", err)
	}
	return aside, nil
}

func (r *EntryRepository) HighWater() (int64, error) {
	data, err := os.ReadFile(r.seqPath())
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read entry sequence: %w", err)
	}
	n, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return 0, internal.ErrStorageCorrupt.WithCause(fmt.Errorf("entry sequence: %w", err))
	}
	return n, nil
}

func (r *EntryRepository) SetHighWater(n int64) error {
	return fileutil.WriteAtomic(r.seqPath(), func(w io.Writer) error {
		_, err := fmt.Fprintf(w, "%d\n", n)
		return err
	})
}

// readRows decodes the file by header name. It reports whether the header
// carries the Type column. A missing or empty file has no rows.
func (r *EntryRepository) readRows() ([]*entryDatamodel.Entry, bool, error) {
	f, err := os.Open(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("open entries file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	head, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, internal.ErrStorageCorrupt.WithCause(fmt.Errorf("entries header: %w", err))
	}

	cols := make(map[string]int, len(head))
	for i, name := range head {
		cols[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	for _, required := range []string{"ID", "Date", "Amount", "Category"} {
		if _, ok := cols[required]; !ok {
			return nil, false, internal.ErrStorageCorrupt.WithCause(fmt.Errorf("entries file lacks column %s", required))
		}
	}
	_, hasType := cols["Type"]

	field := func(rec []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return rec[i]
	}

	rows := make([]*entryDatamodel.Entry, 0)
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, false, internal.ErrStorageCorrupt.WithCause(fmt.Errorf("entries file: %w", err))
		}
		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
			continue
		}
		rows = append(rows, &entryDatamodel.Entry{
			EntryID:  strings.TrimSpace(field(rec, "ID")),
			Date:     strings.TrimSpace(field(rec, "Date")),
			Amount:   field(rec, "Amount"),
			Category: field(rec, "Category"),
			Note:     field(rec, "Note"),
			Type:     field(rec, "Type"),
		})
	}
	return rows, hasType, nil
}

func record(row *entryDatamodel.Entry) []string {
	return []string{row.EntryID, row.Date, row.Amount, row.Category, row.Note, row.Type}
}
