// Package validation checks clustering parameters and run configuration.
// Struct-level rules are expressed as go-playground/validator tags; rules
// spanning several fields go through ConfigValidator.
package validation

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// ErrNilStruct is returned when Struct is handed a nil pointer.
var ErrNilStruct = errors.New("cannot validate nil value")

func instance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		// finite rejects NaN and ±Inf on float fields
		_ = validate.RegisterValidation("finite", func(fl validator.FieldLevel) bool {
			switch fl.Field().Kind() {
			case reflect.Float32, reflect.Float64:
				f := fl.Field().Float()
				return !math.IsNaN(f) && !math.IsInf(f, 0)
			}
			return true
		})
	})
	return validate
}

// Struct validates v against its `validate` tags and returns every
// violation joined into one error, or nil.
func Struct(v any) error {
	if v == nil {
		return ErrNilStruct
	}
	if rv := reflect.ValueOf(v); rv.Kind() == reflect.Pointer && rv.IsNil() {
		return ErrNilStruct
	}
	return formatValidationError(instance().Struct(v))
}

// formatValidationError converts validator errors to a more user-friendly format
func formatValidationError(err error) error {
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	errs := make([]error, 0, len(validationErrs))
	for _, e := range validationErrs {
		field := e.Namespace()
		param := e.Param()

		switch e.Tag() {
		case "required":
			errs = append(errs, fmt.Errorf("%s: field is required", field))
		case "min", "gte":
			errs = append(errs, fmt.Errorf("%s: must be at least %s, got %v", field, param, e.Value()))
		case "max", "lte":
			errs = append(errs, fmt.Errorf("%s: must not exceed %s, got %v", field, param, e.Value()))
		case "gt":
			errs = append(errs, fmt.Errorf("%s: must be greater than %s, got %v", field, param, e.Value()))
		case "finite":
			errs = append(errs, fmt.Errorf("%s: must be a finite number", field))
		case "oneof":
			errs = append(errs, fmt.Errorf("%s: must be one of [%s], got %v", field, param, e.Value()))
		default:
			errs = append(errs, fmt.Errorf("%s: validation failed (%s)", field, e.Tag()))
		}
	}
	return errors.Join(errs...)
}
