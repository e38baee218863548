package entry

import (
	"strings"

	errors "github.com/frahmantamala/pennytrack/internal"
	"github.com/frahmantamala/pennytrack/internal/core/common/validation"
	"github.com/frahmantamala/pennytrack/internal/core/date"
	"github.com/shopspring/decimal"
)

// CreateEntryDTO is the input for a new entry. Amount and Date are raw text
// so malformed user input surfaces as a validation error.
type CreateEntryDTO struct {
	Date     string `json:"date"`
	Amount   string `json:"amount"`
	Category string `json:"category"`
	Note     string `json:"note"`
	Kind     Kind   `json:"type"`
}

func (dto CreateEntryDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("amount", dto.Amount).Required().PositiveAmount()
	v.Field("date", dto.Date).DateText()
	v.Field("type", string(dto.Kind)).OneOf(errors.ErrCodeInvalidKind, string(KindExpense), string(KindIncome))
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

// build turns a validated dto into an entry without an id. today fills an
// empty date.
func (dto CreateEntryDTO) build(today date.Date) *Entry {
	on := today
	if dto.Date != "" {
		on = date.MustParse(dto.Date)
	}
	category := strings.TrimSpace(dto.Category)
	if category == "" {
		category = DefaultCategory
	}
	kind := dto.Kind
	if kind == "" {
		kind = KindExpense
	}
	return &Entry{
		Date:     on,
		Amount:   decimal.RequireFromString(strings.TrimSpace(dto.Amount)).Round(2),
		Category: category,
		Note:     strings.TrimSpace(dto.Note),
		Kind:     kind,
	}
}

// UpdateEntryDTO carries a partial update. Nil fields keep their value.
type UpdateEntryDTO struct {
	Date     *string `json:"date,omitempty"`
	Amount   *string `json:"amount,omitempty"`
	Category *string `json:"category,omitempty"`
	Note     *string `json:"note,omitempty"`
	Kind     *Kind   `json:"type,omitempty"`
}

func (dto UpdateEntryDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("amount", dto.Amount).PositiveAmount()
	if dto.Date != nil {
		v.Field("date", dto.Date).Required().DateText()
	}
	if dto.Category != nil {
		v.Field("category", dto.Category).Required()
	}
	if dto.Kind != nil {
		v.Field("type", string(*dto.Kind)).Required().OneOf(errors.ErrCodeInvalidKind, string(KindExpense), string(KindIncome))
	}
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

// IsEmpty reports whether the update changes nothing.
func (dto UpdateEntryDTO) IsEmpty() bool {
	return dto.Date == nil && dto.Amount == nil && dto.Category == nil && dto.Note == nil && dto.Kind == nil
}

func (dto UpdateEntryDTO) apply(e *Entry) {
	if dto.Date != nil {
		e.Date = date.MustParse(*dto.Date)
	}
	if dto.Amount != nil {
		e.Amount = decimal.RequireFromString(strings.TrimSpace(*dto.Amount)).Round(2)
	}
	if dto.Category != nil {
		e.Category = strings.TrimSpace(*dto.Category)
	}
	if dto.Note != nil {
		e.Note = strings.TrimSpace(*dto.Note)
	}
	if dto.Kind != nil {
		e.Kind = *dto.Kind
	}
}
