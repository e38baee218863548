package validation

import (
	"fmt"
	"strings"

	errors "github.com/frahmantamala/pennytrack/internal"
	"github.com/frahmantamala/pennytrack/internal/core/date"
	"github.com/shopspring/decimal"
)

type ValidatorFunc func(interface{}) *errors.AppError

type FieldValidator struct {
	FieldName  string
	Value      interface{}
	Validators []ValidatorFunc
}

type ValidationBuilder struct {
	fields []FieldValidator
}

func NewValidator() *ValidationBuilder {
	return &ValidationBuilder{
		fields: make([]FieldValidator, 0),
	}
}

func (v *ValidationBuilder) Field(name string, value interface{}) *FieldValidator {
	fv := FieldValidator{
		FieldName:  name,
		Value:      value,
		Validators: make([]ValidatorFunc, 0),
	}
	v.fields = append(v.fields, fv)
	return &v.fields[len(v.fields)-1]
}

func (fv *FieldValidator) Required() *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *errors.AppError {
		switch v := value.(type) {
		case string:
			if strings.TrimSpace(v) == "" {
				return errors.NewValidationFieldError(fv.FieldName, fmt.Sprintf("%s is required", fv.FieldName), errors.ErrCodeValidationFailed)
			}
		case *string:
			if v == nil || strings.TrimSpace(*v) == "" {
				return errors.NewValidationFieldError(fv.FieldName, fmt.Sprintf("%s is required", fv.FieldName), errors.ErrCodeValidationFailed)
			}
		}
		return nil
	})
	return fv
}

// PositiveAmount accepts decimal text that is greater than zero once rounded
// to cents.
func (fv *FieldValidator) PositiveAmount() *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *errors.AppError {
		text, ok := stringValue(value)
		if !ok {
			return nil
		}
		amount, err := decimal.NewFromString(strings.TrimSpace(text))
		if err != nil {
			return errors.NewValidationFieldError(fv.FieldName, fmt.Sprintf("%s must be a number", fv.FieldName), errors.ErrCodeInvalidAmount)
		}
		if !amount.Round(2).IsPositive() {
			return errors.NewValidationFieldError(fv.FieldName, fmt.Sprintf("%s must be positive", fv.FieldName), errors.ErrCodeInvalidAmount)
		}
		return nil
	})
	return fv
}

// NonNegativeAmount accepts decimal text that is zero or more.
func (fv *FieldValidator) NonNegativeAmount() *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *errors.AppError {
		text, ok := stringValue(value)
		if !ok {
			return nil
		}
		amount, err := decimal.NewFromString(strings.TrimSpace(text))
		if err != nil {
			return errors.NewValidationFieldError(fv.FieldName, fmt.Sprintf("%s must be a number", fv.FieldName), errors.ErrCodeInvalidAmount)
		}
		if amount.IsNegative() {
			return errors.NewValidationFieldError(fv.FieldName, fmt.Sprintf("%s must not be negative", fv.FieldName), errors.ErrCodeInvalidAmount)
		}
		return nil
	})
	return fv
}

// DateText accepts YYYY-MM-DD. An empty value passes.
func (fv *FieldValidator) DateText() *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *errors.AppError {
		text, ok := stringValue(value)
		if !ok || text == "" {
			return nil
		}
		if _, err := date.Parse(text); err != nil {
			return errors.NewValidationFieldError(fv.FieldName, fmt.Sprintf("%s must be a date in YYYY-MM-DD format", fv.FieldName), errors.ErrCodeInvalidDate)
		}
		return nil
	})
	return fv
}

// MonthText accepts YYYY-MM.
func (fv *FieldValidator) MonthText() *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *errors.AppError {
		text, ok := stringValue(value)
		if !ok {
			return nil
		}
		if _, err := date.ParseMonth(text); err != nil {
			return errors.NewValidationFieldError(fv.FieldName, fmt.Sprintf("%s must be a month in YYYY-MM format", fv.FieldName), errors.ErrCodeInvalidMonth)
		}
		return nil
	})
	return fv
}

// OneOf accepts an empty value or one of allowed.
func (fv *FieldValidator) OneOf(code errors.ErrorCode, allowed ...string) *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *errors.AppError {
		text, ok := stringValue(value)
		if !ok || text == "" {
			return nil
		}
		for _, a := range allowed {
			if text == a {
				return nil
			}
		}
		message := fmt.Sprintf("%s must be one of %s", fv.FieldName, strings.Join(allowed, ", "))
		return errors.NewValidationFieldError(fv.FieldName, message, code)
	})
	return fv
}

func (fv *FieldValidator) Custom(validator func(interface{}) *errors.AppError) *FieldValidator {
	fv.Validators = append(fv.Validators, validator)
	return fv
}

func (v *ValidationBuilder) Validate() *errors.AppError {
	var validationErrors []errors.ValidationError

	for _, field := range v.fields {
		for _, validator := range field.Validators {
			err := validator(field.Value)
			if err == nil {
				continue
			}
			if details, ok := err.Details.(errors.ValidationErrors); ok {
				validationErrors = append(validationErrors, details.Errors...)
			} else {
				validationErrors = append(validationErrors, errors.ValidationError{
					Field:   field.FieldName,
					Message: err.Message,
					Code:    string(err.Code),
				})
			}
			// first failure per field is enough
			break
		}
	}

	if len(validationErrors) > 0 {
		return errors.NewValidationError("validation failed", errors.ErrCodeValidationFailed).
			WithDetails(errors.ValidationErrors{Errors: validationErrors})
	}

	return nil
}

// stringValue unwraps string and *string. A nil pointer reports false so
// optional fields skip their checks.
func stringValue(value interface{}) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case *string:
		if v == nil {
			return "", false
		}
		return *v, true
	}
	return "", false
}
