package domain

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FinancialData is the typed form of a record carrying an id and a scale.
type FinancialData struct {
	ID    string  `json:"id"`
	Scale float64 `json:"scale"`
}

type rawFinancialData struct {
	ID    string `validate:"required"`
	Scale string
}

// Violation describes one failed field check.
type Violation struct {
	Field   string
	Message string
}

// ValidationError lists every violation found on a record.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, fmt.Sprintf("%s: %s", v.Field, v.Message))
	}
	return fmt.Sprintf("invalid record: %s", strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// ParseFinancialData checks a record against the financial schema and coerces
// scale to a finite float. All violations are reported together.
func ParseFinancialData(rec Record) (FinancialData, error) {
	raw := rawFinancialData{ID: rec["id"], Scale: rec["scale"]}

	var violations []Violation
	if err := validate.Struct(raw); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return FinancialData{}, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		for _, fe := range fieldErrs {
			if fe.Field() == "ID" {
				violations = append(violations, Violation{Field: "id", Message: "id is required"})
			}
		}
	}

	scale, err := strconv.ParseFloat(strings.TrimSpace(raw.Scale), 64)
	if err != nil || math.IsNaN(scale) || math.IsInf(scale, 0) {
		violations = append(violations, Violation{Field: "scale", Message: "scale must be a valid number"})
	}

	if len(violations) > 0 {
		return FinancialData{}, &ValidationError{Violations: violations}
	}
	return FinancialData{ID: raw.ID, Scale: scale}, nil
}
