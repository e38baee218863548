// Package jsonfile stores budgets as a JSON object of "YYYY-MM:Category"
// keys to threshold numbers.
package jsonfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/frahmantamala/pennytrack/internal"
	"github.com/frahmantamala/pennytrack/internal/budget"
	budgetDatamodel "github.com/frahmantamala/pennytrack/internal/core/datamodel/budget"
	"github.com/frahmantamala/pennytrack/pkg/fileutil"
)

type BudgetRepository struct {
	path string
}

func NewBudgetRepository(path string) budget.Repository {
	return &BudgetRepository{path: path}
}

// Load returns no budgets when the file does not exist yet.
func (r *BudgetRepository) Load() ([]*budget.Budget, error) {
	data, err := os.ReadFile(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read budgets: %w", err)
	}

	var raw map[string]json.Number
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, internal.ErrStorageCorrupt.WithCause(fmt.Errorf("budgets: %w", err))
	}

	rows := make([]*budgetDatamodel.Budget, 0, len(raw))
	for key, amount := range raw {
		rows = append(rows, &budgetDatamodel.Budget{Key: key, Amount: amount.String()})
	}
	return budget.FromDataModelSlice(rows)
}

func (r *BudgetRepository) Save(budgets []*budget.Budget) error {
	raw := make(map[string]json.Number, len(budgets))
	for _, row := range budget.ToDataModelSlice(budgets) {
		raw[row.Key] = json.Number(row.Amount)
	}
	return fileutil.WriteAtomic(r.path, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(raw)
	})
}
