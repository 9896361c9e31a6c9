package validation

import (
	"errors"
	"math"
	"strings"
	"testing"
)

func TestConfigValidator_Required(t *testing.T) {
	cv := NewConfigValidator("TestConfig")
	cv.Required("Name", "")

	if !cv.HasErrors() {
		t.Error("Expected error for empty required field")
	}

	cv2 := NewConfigValidator("TestConfig")
	cv2.Required("Name", "value")

	if cv2.HasErrors() {
		t.Error("Expected no error for non-empty required field")
	}
}

func TestConfigValidator_Positive(t *testing.T) {
	if !NewConfigValidator("C").Positive("Workers", 0).HasErrors() {
		t.Error("Expected error for zero")
	}
	if NewConfigValidator("C").Positive("Workers", 3).HasErrors() {
		t.Error("Expected no error for positive value")
	}
}

func TestConfigValidator_PositiveFloat(t *testing.T) {
	for _, v := range []float64{0, -1, math.NaN()} {
		if !NewConfigValidator("C").PositiveFloat("Theta", v).HasErrors() {
			t.Errorf("Expected error for %v", v)
		}
	}
	if NewConfigValidator("C").PositiveFloat("Theta", 0.01).HasErrors() {
		t.Error("Expected no error for positive value")
	}
}

func TestConfigValidator_OneOf(t *testing.T) {
	allowed := []string{"debug", "info"}
	if NewConfigValidator("C").OneOf("Level", "info", allowed).HasErrors() {
		t.Error("Expected no error for allowed value")
	}
	if !NewConfigValidator("C").OneOf("Level", "trace", allowed).HasErrors() {
		t.Error("Expected error for disallowed value")
	}
}

func TestConfigValidator_Exclusive(t *testing.T) {
	cv := NewConfigValidator("C").Exclusive(map[string]bool{"inputs": true, "postgres": true})
	if !cv.HasErrors() {
		t.Error("Expected error when both sources are set")
	}
	cv = NewConfigValidator("C").Exclusive(map[string]bool{"inputs": true, "postgres": false})
	if cv.HasErrors() {
		t.Error("Expected no error for a single source")
	}
}

func TestConfigValidator_CustomWrapsCause(t *testing.T) {
	cause := errors.New("boom")
	err := NewConfigValidator("C").Custom("Field", func() error { return cause }).Validate()
	if !errors.Is(err, cause) {
		t.Errorf("Expected wrapped cause, got %v", err)
	}
}

func TestConfigValidator_When(t *testing.T) {
	cv := NewConfigValidator("C").When(false, func(cv *ConfigValidator) {
		cv.Required("Name", "")
	})
	if cv.HasErrors() {
		t.Error("Expected condition false to skip validations")
	}

	cv = NewConfigValidator("C").When(true, func(cv *ConfigValidator) {
		cv.Required("Name", "")
	})
	if !cv.HasErrors() {
		t.Error("Expected condition true to apply validations")
	}
}

func TestConfigValidator_CollectsAll(t *testing.T) {
	err := NewConfigValidator("Run").
		Required("Name", "").
		Positive("Workers", -1).
		Validate()
	if err == nil {
		t.Fatal("Expected errors")
	}
	msg := err.Error()
	if !strings.Contains(msg, "Run.Name") || !strings.Contains(msg, "Run.Workers") {
		t.Errorf("Expected both fields in %q", msg)
	}
	if NewConfigValidator("Run").Validate() != nil {
		t.Error("Expected nil for empty validator")
	}
}

func TestDefaultOr(t *testing.T) {
	if DefaultOr("", "x") != "x" {
		t.Error("Expected default for empty string")
	}
	if DefaultOr(5, 10) != 5 {
		t.Error("Expected value for non-zero int")
	}
	if DefaultOr(0.0, 0.01) != 0.01 {
		t.Error("Expected default for zero float")
	}
}
