package models

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrInvalid marks a value that does not conform to its entity shape.
var ErrInvalid = errors.New("invalid entity")

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// report json field names, e.g. "plateNumber"
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})
	_ = v.RegisterValidation("vehiclestatus", func(fl validator.FieldLevel) bool {
		return VehicleStatus(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("servicetype", func(fl validator.FieldLevel) bool {
		return ServiceType(fl.Field().String()).Valid()
	})
	return v
}

// Validator exposes the shared instance so the HTTP layer can validate
// request bodies with the same custom tags.
func Validator() *validator.Validate {
	return validate
}

// Validate checks a single entity against its shape. The returned error
// wraps both ErrInvalid and the underlying validator.ValidationErrors.
func Validate(entity any) error {
	if err := validate.Struct(entity); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}

// ValidateAll checks every element of a collection and reports the first
// offending index.
func ValidateAll[T any](items []T) error {
	for i := range items {
		if err := validate.Struct(items[i]); err != nil {
			return fmt.Errorf("%w: element %d: %w", ErrInvalid, i, err)
		}
	}
	return nil
}
