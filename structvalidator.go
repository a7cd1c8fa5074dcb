// SPDX-License-Identifier: GPL-3.0-or-later

package vpipe

import (
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	structValidate *validator.Validate
	structOnce     sync.Once
)

// getStructValidate returns the shared struct validator instance.
func getStructValidate() *validator.Validate {
	structOnce.Do(func() {
		structValidate = validator.New(validator.WithRequiredStructEnabled())

		// Use json tag names for field names in rejection descriptions
		structValidate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
	})
	return structValidate
}

// NewStructValidator returns a [Validator] that validates struct values
// using go-playground/validator struct tags such as
// `validate:"required,min=3"`. All failing fields are flattened into a
// single rejection description.
func NewStructValidator[T any]() Validator[T] {
	return structValidator[T]{}
}

type structValidator[T any] struct{}

// Validate implements [Validator].
func (structValidator[T]) Validate(value T) (T, bool, error) {
	err := getStructValidate().Struct(value)
	if err == nil {
		return value, true, nil
	}

	var zero T
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return zero, false, &ValidationError{Description: "validation failed"}
	}

	messages := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		messages = append(messages, fe.Field()+": "+formatFieldError(fe))
	}
	return zero, false, &ValidationError{Description: strings.Join(messages, "; ")}
}

// formatFieldError creates a human-readable message for one failing field.
func formatFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "url":
		return "must be a valid URL"
	case "uuid":
		return "must be a valid UUID"
	case "oneof":
		return "must be one of: " + fe.Param()
	default:
		return "is invalid"
	}
}
