package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		expected string
	}{
		{
			name: "message only",
			err: &Error{
				Code:    EINVALID,
				Message: "invalid input",
			},
			expected: "invalid input",
		},
		{
			name: "with operation",
			err: &Error{
				Code:    EINVALID,
				Op:      "cart.add_item",
				Message: "invalid input",
			},
			expected: "cart.add_item: invalid input",
		},
		{
			name: "with wrapped error",
			err: &Error{
				Code:    EINTERNAL,
				Op:      "review.add",
				Message: "failed to save",
				Err:     errors.New("database connection failed"),
			},
			expected: "review.add: failed to save: database connection failed",
		},
		{
			name: "wrapped error without op",
			err: &Error{
				Code:    EINTERNAL,
				Message: "failed to save",
				Err:     errors.New("database connection failed"),
			},
			expected: "failed to save: database connection failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error.Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	underlying := errors.New("underlying error")
	err := &Error{
		Code:    EINTERNAL,
		Message: "wrapped",
		Err:     underlying,
	}

	if unwrapped := err.Unwrap(); unwrapped != underlying {
		t.Errorf("Error.Unwrap() = %v, want %v", unwrapped, underlying)
	}

	if !errors.Is(err, underlying) {
		t.Error("errors.Is should find underlying error")
	}
}

func TestErrorCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "nil error",
			err:      nil,
			expected: "",
		},
		{
			name:     "domain error",
			err:      &Error{Code: ENOTFOUND, Message: "gone"},
			expected: ENOTFOUND,
		},
		{
			name:     "wrapped domain error",
			err:      fmt.Errorf("outer: %w", &Error{Code: ECONFLICT, Message: "dup"}),
			expected: ECONFLICT,
		},
		{
			name:     "plain error",
			err:      errors.New("boom"),
			expected: EINTERNAL,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ErrorCode(tt.err); got != tt.expected {
				t.Errorf("ErrorCode() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestErrorMessage(t *testing.T) {
	const generic = "An internal error occurred. Please try again later."

	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "nil error",
			err:      nil,
			expected: "",
		},
		{
			name:     "user-facing message",
			err:      &Error{Code: EINVALID, Message: "quantity must be positive"},
			expected: "quantity must be positive",
		},
		{
			name:     "internal error hides details",
			err:      &Error{Code: EINTERNAL, Message: "pg: connection refused"},
			expected: generic,
		},
		{
			name:     "unknown error hides details",
			err:      errors.New("pg: connection refused"),
			expected: generic,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ErrorMessage(tt.err); got != tt.expected {
				t.Errorf("ErrorMessage() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestSentinelCodes(t *testing.T) {
	tests := []struct {
		err  error
		code string
	}{
		{ErrProductNotFound, ENOTFOUND},
		{ErrCartItemNotFound, ENOTFOUND},
		{ErrInvalidQuantity, EINVALID},
		{ErrDuplicateReview, ECONFLICT},
		{ErrInvalidRating, EINVALID},
		{ErrEmailTaken, ECONFLICT},
	}

	for _, tt := range tests {
		if !IsCode(tt.err, tt.code) {
			t.Errorf("IsCode(%v, %q) = false, want true", tt.err, tt.code)
		}
	}
}
