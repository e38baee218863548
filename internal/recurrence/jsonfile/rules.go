// Package jsonfile stores recurring rules as a JSON array.
package jsonfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/frahmantamala/pennytrack/internal"
	ruleDatamodel "github.com/frahmantamala/pennytrack/internal/core/datamodel/recurrence"
	"github.com/frahmantamala/pennytrack/internal/recurrence"
	"github.com/frahmantamala/pennytrack/pkg/fileutil"
)

// record is the on-disk shape. Amounts are written as strings but older
// files carry plain JSON numbers; json.Number takes both.
type record struct {
	Amount    json.Number `json:"amount"`
	Category  string      `json:"category"`
	Note      string      `json:"note"`
	Frequency string      `json:"frequency"`
	LastAdded string      `json:"last_added"`
}

type RuleRepository struct {
	path string
}

func NewRuleRepository(path string) recurrence.Repository {
	return &RuleRepository{path: path}
}

// Load returns no rules when the file does not exist yet.
func (r *RuleRepository) Load() ([]*recurrence.Rule, error) {
	data, err := os.ReadFile(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read recurring rules: %w", err)
	}

	var records []record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, internal.ErrStorageCorrupt.WithCause(fmt.Errorf("recurring rules: %w", err))
	}
	rows := make([]*ruleDatamodel.Rule, len(records))
	for i, rec := range records {
		rows[i] = &ruleDatamodel.Rule{
			Amount:    rec.Amount.String(),
			Category:  rec.Category,
			Note:      rec.Note,
			Frequency: rec.Frequency,
			LastAdded: rec.LastAdded,
		}
	}
	return recurrence.FromDataModelSlice(rows)
}

func (r *RuleRepository) Save(rules []*recurrence.Rule) error {
	rows := recurrence.ToDataModelSlice(rules)
	return fileutil.WriteAtomic(r.path, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	})
}
