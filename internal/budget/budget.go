package budget

import (
	"fmt"
	"strings"

	"github.com/frahmantamala/pennytrack/internal"
	"github.com/frahmantamala/pennytrack/internal/core/date"
	budgetDatamodel "github.com/frahmantamala/pennytrack/internal/core/datamodel/budget"
	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusOk      Status = "ok"
	StatusWarning Status = "warning"
	StatusOver    Status = "over"
)

var (
	warningPercent = decimal.NewFromInt(80)
	overPercent    = decimal.NewFromInt(100)
	hundred        = decimal.NewFromInt(100)
)

// Key identifies a budget: one category in one month.
type Key struct {
	Month    date.Month
	Category string
}

// String renders the persisted form "YYYY-MM:Category".
func (k Key) String() string {
	return k.Month.String() + ":" + k.Category
}

func (k Key) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// ParseKey reads "YYYY-MM:Category". The category may itself contain colons.
func ParseKey(s string) (Key, error) {
	month, category, ok := strings.Cut(s, ":")
	if !ok || category == "" {
		return Key{}, fmt.Errorf("invalid budget key %q", s)
	}
	m, err := date.ParseMonth(month)
	if err != nil {
		return Key{}, err
	}
	return Key{Month: m, Category: category}, nil
}

type Budget struct {
	Key       Key             `json:"key"`
	Threshold decimal.Decimal `json:"amount"`
}

// Classification is a spend measured against a threshold. Degenerate is set
// when the threshold is zero and spend is not, in which case Percent is
// meaningless and left at zero.
type Classification struct {
	Status     Status          `json:"status"`
	Percent    decimal.Decimal `json:"percent"`
	Degenerate bool            `json:"degenerate,omitempty"`
}

// Classify buckets spend against threshold: below 80% is ok, 80% up to but
// excluding 100% is a warning, and 100% or more is over. A zero threshold
// is 0% ok for zero spend and over otherwise.
func Classify(spend, threshold decimal.Decimal) Classification {
	if threshold.IsZero() {
		if spend.IsZero() {
			return Classification{Status: StatusOk, Percent: decimal.Zero}
		}
		return Classification{Status: StatusOver, Degenerate: true}
	}

	percent := spend.Div(threshold).Mul(hundred)
	switch {
	case percent.GreaterThanOrEqual(overPercent):
		return Classification{Status: StatusOver, Percent: percent}
	case percent.GreaterThanOrEqual(warningPercent):
		return Classification{Status: StatusWarning, Percent: percent}
	default:
		return Classification{Status: StatusOk, Percent: percent}
	}
}

func ToDataModel(b *Budget) *budgetDatamodel.Budget {
	return &budgetDatamodel.Budget{
		Key:    b.Key.String(),
		Amount: b.Threshold.StringFixed(2),
	}
}

func FromDataModel(row *budgetDatamodel.Budget) (*Budget, error) {
	key, err := ParseKey(row.Key)
	if err != nil {
		return nil, internal.ErrStorageCorrupt.WithCause(err)
	}
	threshold, err := decimal.NewFromString(strings.TrimSpace(row.Amount))
	if err != nil {
		return nil, internal.ErrStorageCorrupt.WithCause(fmt.Errorf("budget %s: invalid amount %q", row.Key, row.Amount))
	}
	return &Budget{Key: key, Threshold: threshold}, nil
}

func ToDataModelSlice(budgets []*Budget) []*budgetDatamodel.Budget {
	result := make([]*budgetDatamodel.Budget, len(budgets))
	for i, b := range budgets {
		result[i] = ToDataModel(b)
	}
	return result
}

func FromDataModelSlice(rows []*budgetDatamodel.Budget) ([]*Budget, error) {
	result := make([]*Budget, len(rows))
	for i, row := range rows {
		b, err := FromDataModel(row)
		if err != nil {
			return nil, err
		}
		result[i] = b
	}
	return result, nil
}
