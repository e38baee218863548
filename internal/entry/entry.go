package entry

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/frahmantamala/pennytrack/internal"
	"github.com/frahmantamala/pennytrack/internal/core/date"
	entryDatamodel "github.com/frahmantamala/pennytrack/internal/core/datamodel/entry"
	"github.com/shopspring/decimal"
)

type Kind string

const (
	KindExpense Kind = "expense"
	KindIncome  Kind = "income"
)

// DefaultCategory is used when an entry is added without a category.
const DefaultCategory = "Uncategorized"

// Entry is one dated money movement in the ledger.
type Entry struct {
	ID       string          `json:"id"`
	Date     date.Date       `json:"date"`
	Amount   decimal.Decimal `json:"amount"`
	Category string          `json:"category"`
	Note     string          `json:"note"`
	Kind     Kind            `json:"type"`
}

func (e *Entry) IsExpense() bool {
	return e.Kind == KindExpense
}

// Signed returns the amount as it affects the balance: negative for expenses.
func (e *Entry) Signed() decimal.Decimal {
	if e.IsExpense() {
		return e.Amount.Neg()
	}
	return e.Amount
}

// idNumber returns the numeric value of an entry id.
func idNumber(id string) (int64, bool) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// kindFromStorage decodes the persisted type column. A missing value means
// the row predates income tracking and is an expense.
func kindFromStorage(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case "", KindExpense:
		return KindExpense, nil
	case KindIncome:
		return KindIncome, nil
	}
	return "", fmt.Errorf("unknown entry type %q", s)
}

func ToDataModel(e *Entry) *entryDatamodel.Entry {
	return &entryDatamodel.Entry{
		EntryID:  e.ID,
		Date:     e.Date.String(),
		Amount:   e.Amount.StringFixed(2),
		Category: e.Category,
		Note:     e.Note,
		Type:     string(e.Kind),
	}
}

// FromDataModel decodes a persisted row. Any malformed column makes the
// whole store unreadable, so the error wraps ErrStorageCorrupt.
func FromDataModel(row *entryDatamodel.Entry) (*Entry, error) {
	if _, ok := idNumber(row.EntryID); !ok {
		return nil, internal.ErrStorageCorrupt.WithCause(fmt.Errorf("invalid entry id %q", row.EntryID))
	}
	on, err := date.Parse(row.Date)
	if err != nil {
		return nil, internal.ErrStorageCorrupt.WithCause(fmt.Errorf("entry %s: %w", row.EntryID, err))
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(row.Amount))
	if err != nil {
		return nil, internal.ErrStorageCorrupt.WithCause(fmt.Errorf("entry %s: invalid amount %q", row.EntryID, row.Amount))
	}
	kind, err := kindFromStorage(row.Type)
	if err != nil {
		return nil, internal.ErrStorageCorrupt.WithCause(fmt.Errorf("entry %s: %w", row.EntryID, err))
	}
	return &Entry{
		ID:       row.EntryID,
		Date:     on,
		Amount:   amount,
		Category: row.Category,
		Note:     row.Note,
		Kind:     kind,
	}, nil
}

func ToDataModelSlice(entries []*Entry) []*entryDatamodel.Entry {
	result := make([]*entryDatamodel.Entry, len(entries))
	for i, e := range entries {
		result[i] = ToDataModel(e)
	}
	return result
}

func FromDataModelSlice(rows []*entryDatamodel.Entry) ([]*Entry, error) {
	result := make([]*Entry, 0, len(rows))
	seen := make(map[string]struct{}, len(rows))
	for _, row := range rows {
		e, err := FromDataModel(row)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[e.ID]; dup {
			return nil, internal.ErrStorageCorrupt.WithCause(fmt.Errorf("duplicate entry id %s", e.ID))
		}
		seen[e.ID] = struct{}{}
		result = append(result, e)
	}
	return result, nil
}
