package recurrence

import (
	"fmt"
	"strings"

	errors "github.com/frahmantamala/pennytrack/internal"
	"github.com/frahmantamala/pennytrack/internal/core/common/validation"
	"github.com/frahmantamala/pennytrack/internal/core/date"
	ruleDatamodel "github.com/frahmantamala/pennytrack/internal/core/datamodel/recurrence"
	"github.com/frahmantamala/pennytrack/internal/entry"
	"github.com/shopspring/decimal"
)

type Frequency string

const (
	Daily   Frequency = "daily"
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
)

var Frequencies = []string{string(Daily), string(Weekly), string(Monthly)}

func ParseFrequency(s string) (Frequency, error) {
	f := Frequency(strings.ToLower(strings.TrimSpace(s)))
	if _, err := GetDuenessChecker(f); err != nil {
		return "", errors.NewValidationFieldError("frequency",
			fmt.Sprintf("frequency must be one of %s", strings.Join(Frequencies, ", ")), errors.ErrCodeInvalidFrequency)
	}
	return f, nil
}

// Rule is a template for an expense repeated on a fixed interval.
type Rule struct {
	Amount           decimal.Decimal `json:"amount"`
	Category         string          `json:"category"`
	Note             string          `json:"note"`
	Frequency        Frequency       `json:"frequency"`
	LastMaterialized date.Date       `json:"last_added"`
}

// entryDTO is the expense the rule materializes on day on.
func (r *Rule) entryDTO(on date.Date) entry.CreateEntryDTO {
	return entry.CreateEntryDTO{
		Date:     on.String(),
		Amount:   r.Amount.StringFixed(2),
		Category: r.Category,
		Note:     r.Note,
		Kind:     entry.KindExpense,
	}
}

// CreateRuleDTO registers a new rule. Start is the date the schedule counts
// from and defaults to today.
type CreateRuleDTO struct {
	Amount    string `json:"amount"`
	Category  string `json:"category"`
	Note      string `json:"note"`
	Frequency string `json:"frequency"`
	Start     string `json:"start"`
}

func (dto CreateRuleDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("amount", dto.Amount).Required().PositiveAmount()
	v.Field("frequency", strings.ToLower(dto.Frequency)).OneOf(errors.ErrCodeInvalidFrequency, Frequencies...)
	v.Field("start", dto.Start).DateText()
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

func (dto CreateRuleDTO) build(today date.Date) *Rule {
	start := today
	if dto.Start != "" {
		start = date.MustParse(dto.Start)
	}
	freq := Monthly
	if dto.Frequency != "" {
		freq = Frequency(strings.ToLower(dto.Frequency))
	}
	category := strings.TrimSpace(dto.Category)
	if category == "" {
		category = entry.DefaultCategory
	}
	return &Rule{
		Amount:           decimal.RequireFromString(strings.TrimSpace(dto.Amount)).Round(2),
		Category:         category,
		Note:             strings.TrimSpace(dto.Note),
		Frequency:        freq,
		LastMaterialized: start,
	}
}

func ToDataModel(r *Rule) *ruleDatamodel.Rule {
	return &ruleDatamodel.Rule{
		Amount:    r.Amount.StringFixed(2),
		Category:  r.Category,
		Note:      r.Note,
		Frequency: string(r.Frequency),
		LastAdded: r.LastMaterialized.String(),
	}
}

func FromDataModel(row *ruleDatamodel.Rule) (*Rule, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(row.Amount))
	if err != nil {
		return nil, fmt.Errorf("invalid rule amount %q", row.Amount)
	}
	freq, err := ParseFrequency(row.Frequency)
	if err != nil {
		return nil, err
	}
	last, err := date.Parse(strings.TrimSpace(row.LastAdded))
	if err != nil {
		return nil, err
	}
	return &Rule{
		Amount:           amount,
		Category:         row.Category,
		Note:             row.Note,
		Frequency:        freq,
		LastMaterialized: last,
	}, nil
}

func ToDataModelSlice(rules []*Rule) []*ruleDatamodel.Rule {
	result := make([]*ruleDatamodel.Rule, len(rules))
	for i, r := range rules {
		result[i] = ToDataModel(r)
	}
	return result
}

// FromDataModelSlice decodes every row or fails as a whole.
func FromDataModelSlice(rows []*ruleDatamodel.Rule) ([]*Rule, error) {
	result := make([]*Rule, len(rows))
	for i, row := range rows {
		r, err := FromDataModel(row)
		if err != nil {
			return nil, errors.ErrStorageCorrupt.WithCause(fmt.Errorf("rule %d: %w", i+1, err))
		}
		result[i] = r
	}
	return result, nil
}
