package validation

import (
	stderrors "errors"
	"testing"
	"time"

	"github.com/vnykmshr/matflow/pkg/common/errors"
)

func TestValidatePositive(t *testing.T) {
	tests := []struct {
		name      string
		module    string
		field     string
		value     int
		wantError bool
	}{
		{"positive value", "test", "count", 10, false},
		{"positive value 1", "test", "count", 1, false},
		{"zero value", "test", "count", 0, true},
		{"negative value", "test", "count", -1, true},
		{"large positive", "test", "count", 1000000, false},
		{"large negative", "test", "count", -1000000, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePositive(tt.module, tt.field, tt.value)

			if tt.wantError {
				if err == nil {
					t.Error("expected error, got nil")
				}
				if !errors.IsValidationError(err) {
					t.Errorf("expected ValidationError, got %T", err)
				}
			} else {
				if err != nil {
					t.Errorf("expected no error, got %v", err)
				}
			}
		})
	}
}

func TestValidateNonNegative(t *testing.T) {
	tests := []struct {
		name      string
		value     int
		wantError bool
	}{
		{"positive value", 10, false},
		{"zero value", 0, false},
		{"negative value", -1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateNonNegative("test", "workers", tt.value)
			if (err != nil) != tt.wantError {
				t.Errorf("ValidateNonNegative(%d) error = %v, wantError %v", tt.value, err, tt.wantError)
			}
		})
	}
}

func TestValidateNonNegativeDuration(t *testing.T) {
	tests := []struct {
		name      string
		value     time.Duration
		wantError bool
	}{
		{"positive", time.Second, false},
		{"zero means unbounded", 0, false},
		{"negative", -time.Millisecond, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateNonNegativeDuration("test", "timeout", tt.value)
			if (err != nil) != tt.wantError {
				t.Errorf("ValidateNonNegativeDuration(%v) error = %v, wantError %v", tt.value, err, tt.wantError)
			}
		})
	}
}

func TestValidateNotEmpty(t *testing.T) {
	if err := ValidateNotEmpty("scheduler", "Spec", "@every 1s"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	err := ValidateNotEmpty("scheduler", "Spec", "")
	if err == nil {
		t.Fatal("expected error for empty string")
	}
	want := "scheduler: invalid Spec= (cannot be empty) - provide a non-empty Spec"
	if err.Error() != want {
		t.Errorf("got %q, want %q", err.Error(), want)
	}
}

func TestValidationErrorWrapping(t *testing.T) {
	err := ValidatePositive("benchmark", "Size", 0)
	if !stderrors.Is(err, errors.ErrInvalidConfiguration) {
		t.Errorf("expected %v to match ErrInvalidConfiguration", err)
	}

	var ve *errors.ValidationError
	if !stderrors.As(err, &ve) {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	if ve.Module != "benchmark" || ve.Field != "Size" {
		t.Errorf("unexpected details: module=%q field=%q", ve.Module, ve.Field)
	}
}
