// Package validation checks request bodies against their struct tags and
// reports failures as validation errors.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	appErrors "github.com/ritu11x/cortex-ai/internal/errors"
)

// FieldError describes one failed rule.
type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// Validator wraps a configured validator.Validate.
type Validator struct {
	validate *validator.Validate
}

var (
	instance *Validator
	once     sync.Once
)

// Default returns the shared validator.
func Default() *Validator {
	once.Do(func() { instance = New() })
	return instance
}

// New creates a validator that names fields by their json tag.
func New() *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	return &Validator{validate: v}
}

// Struct validates s. Failures come back as a VALIDATION_FAILED error whose
// message names the first failing field.
func (v *Validator) Struct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return appErrors.Validation("VALIDATION_FAILED", "invalid request").WithCause(err).Build()
	}
	fields := Fields(verrs)
	details := make([]string, len(fields))
	for i, f := range fields {
		details[i] = f.Field + ": " + f.Message
	}
	return appErrors.Validation("VALIDATION_FAILED", details[0]).
		WithDetails(strings.Join(details, "; ")).
		WithCause(err).
		Build()
}

// Fields converts validator errors into FieldErrors.
func Fields(verrs validator.ValidationErrors) []FieldError {
	out := make([]FieldError, 0, len(verrs))
	for _, e := range verrs {
		out = append(out, FieldError{
			Field:   e.Field(),
			Rule:    e.Tag(),
			Message: message(e.Tag(), e.Param()),
		})
	}
	return out
}

func message(tag, param string) string {
	switch tag {
	case "required", "notblank":
		return "is required"
	case "max":
		return fmt.Sprintf("must be at most %s long", param)
	case "min":
		return fmt.Sprintf("must be at least %s long", param)
	case "oneof":
		return "must be one of " + strings.ReplaceAll(param, " ", ", ")
	case "url":
		return "must be a valid URL"
	default:
		return "failed " + tag + " validation"
	}
}
