package validation

import (
	"errors"
	"fmt"
)

// ConfigValidator collects cross-field validation errors rather than failing
// on the first one.
type ConfigValidator struct {
	errors []error
	name   string
}

// NewConfigValidator creates a new config validator with the given config name.
func NewConfigValidator(configName string) *ConfigValidator {
	return &ConfigValidator{name: configName}
}

func (cv *ConfigValidator) add(field, format string, args ...any) {
	cv.errors = append(cv.errors, fmt.Errorf("%s.%s: %s", cv.name, field, fmt.Sprintf(format, args...)))
}

// Required validates that a string field is not empty.
func (cv *ConfigValidator) Required(field, value string) *ConfigValidator {
	if value == "" {
		cv.add(field, "required field is empty")
	}
	return cv
}

// Positive validates that an int field is positive (> 0).
func (cv *ConfigValidator) Positive(field string, value int) *ConfigValidator {
	if value <= 0 {
		cv.add(field, "value %d must be positive", value)
	}
	return cv
}

// PositiveFloat validates that a float field is positive (> 0).
func (cv *ConfigValidator) PositiveFloat(field string, value float64) *ConfigValidator {
	if !(value > 0) {
		cv.add(field, "value %v must be positive", value)
	}
	return cv
}

// OneOf validates that a string field is one of the allowed values.
func (cv *ConfigValidator) OneOf(field, value string, allowed []string) *ConfigValidator {
	for _, a := range allowed {
		if value == a {
			return cv
		}
	}
	cv.add(field, "value %q must be one of %v", value, allowed)
	return cv
}

// Exclusive validates that at most one of the named fields is set.
func (cv *ConfigValidator) Exclusive(fields map[string]bool) *ConfigValidator {
	var set []string
	for name, isSet := range fields {
		if isSet {
			set = append(set, name)
		}
	}
	if len(set) > 1 {
		cv.errors = append(cv.errors, fmt.Errorf("%s: fields %v are mutually exclusive", cv.name, set))
	}
	return cv
}

// Custom applies a custom validation function.
func (cv *ConfigValidator) Custom(field string, fn func() error) *ConfigValidator {
	if err := fn(); err != nil {
		cv.errors = append(cv.errors, fmt.Errorf("%s.%s: %w", cv.name, field, err))
	}
	return cv
}

// When conditionally applies validations if the condition is true.
func (cv *ConfigValidator) When(condition bool, validations func(*ConfigValidator)) *ConfigValidator {
	if condition {
		validations(cv)
	}
	return cv
}

// HasErrors returns true if any validation errors occurred.
func (cv *ConfigValidator) HasErrors() bool {
	return len(cv.errors) > 0
}

// Validate returns every collected error joined, or nil.
func (cv *ConfigValidator) Validate() error {
	return errors.Join(cv.errors...)
}

// DefaultOr returns the value if it's non-zero, otherwise returns the default.
func DefaultOr[T comparable](value, defaultValue T) T {
	var zero T
	if value == zero {
		return defaultValue
	}
	return value
}
