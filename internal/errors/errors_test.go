package errors

import (
	stdErrors "errors"
	"fmt"
	"testing"
)

func TestHerbarioError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *HerbarioError
		expected string
	}{
		{
			name:     "error without cause",
			err:      New(CategoryConfig, SeverityFatal, "configuration invalid"),
			expected: "config (fatal): configuration invalid",
		},
		{
			name:     "error with cause",
			err:      Wrap(fmt.Errorf("file not found"), CategoryConfig, SeverityFatal, "failed to load config"),
			expected: "config (fatal): failed to load config: file not found",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			result := test.err.Error()
			if result != test.expected {
				t.Errorf("Error() = %q, want %q", result, test.expected)
			}
		})
	}
}

func TestHerbarioError_WithContext(t *testing.T) {
	err := New(CategoryNetwork, SeverityWarning, "fetch failed").
		WithContext("url", "https://api.example.test").
		WithContext("page", 3)

	if err.Context == nil {
		t.Fatal("Context should not be nil")
	}

	if err.Context["url"] != "https://api.example.test" {
		t.Errorf("Context[url] = %v, want https://api.example.test", err.Context["url"])
	}

	if err.Context["page"] != 3 {
		t.Errorf("Context[page] = %v, want 3", err.Context["page"])
	}
}

func TestIsCategory(t *testing.T) {
	inputErr := MissingInput("data/herbario_species.csv", nil)
	networkErr := New(CategoryNetwork, SeverityError, "connection refused")
	standardErr := fmt.Errorf("standard error")

	tests := []struct {
		name     string
		err      error
		category ErrorCategory
		expected bool
	}{
		{"input error matches input", inputErr, CategoryInput, true},
		{"input error does not match network", inputErr, CategoryNetwork, false},
		{"network error matches network", networkErr, CategoryNetwork, true},
		{"standard error never matches", standardErr, CategoryInput, false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := IsCategory(test.err, test.category); got != test.expected {
				t.Errorf("IsCategory() = %v, want %v", got, test.expected)
			}
		})
	}
}

func TestUnwrap(t *testing.T) {
	cause := fmt.Errorf("disk full")
	err := Filesystem(cause, "failed to write archive")

	if !stdErrors.Is(err, cause) {
		t.Error("errors.Is should find the wrapped cause")
	}
	if err.Severity != SeverityFatal {
		t.Errorf("Filesystem severity = %s, want %s", err.Severity, SeverityFatal)
	}
}

func TestIsRetryable(t *testing.T) {
	retryable := WrapRetryable(fmt.Errorf("timeout"), CategoryNetwork, SeverityError, "request timed out")
	permanent := MissingInput("missing.csv", nil)

	if !IsRetryable(retryable) {
		t.Error("WrapRetryable error should be retryable")
	}
	if IsRetryable(permanent) {
		t.Error("missing input error should not be retryable")
	}
	if IsRetryable(fmt.Errorf("plain")) {
		t.Error("plain error should not be retryable")
	}
}

func TestGetCategory(t *testing.T) {
	if got := GetCategory(New(CategoryArchive, SeverityError, "zip failed")); got != CategoryArchive {
		t.Errorf("GetCategory() = %s, want %s", got, CategoryArchive)
	}
	if got := GetCategory(fmt.Errorf("plain")); got != CategoryInternal {
		t.Errorf("GetCategory(plain) = %s, want %s", got, CategoryInternal)
	}
}
