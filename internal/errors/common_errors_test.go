package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorType_Constants(t *testing.T) {
	tests := []struct {
		name     string
		errType  ErrorType
		expected string
	}{
		{name: "parsing error type", errType: ErrTypeParsing, expected: "PARSING"},
		{name: "io error type", errType: ErrTypeIO, expected: "IO"},
		{name: "config error type", errType: ErrTypeConfig, expected: "CONFIG"},
		{name: "insufficient data error type", errType: ErrTypeInsufficientData, expected: "INSUFFICIENT_DATA"},
		{name: "validation error type", errType: ErrTypeValidation, expected: "VALIDATION"},
		{name: "not found error type", errType: ErrTypeNotFound, expected: "NOT_FOUND"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, string(tt.errType))
		})
	}
}

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name        string
		appError    *AppError
		wantMessage string
	}{
		{
			name: "error without cause",
			appError: &AppError{
				Type:    ErrTypeConfig,
				Message: "end_year must not precede start_year",
			},
			wantMessage: "[CONFIG] end_year must not precede start_year",
		},
		{
			name: "error with cause",
			appError: &AppError{
				Type:    ErrTypeIO,
				Message: "failed to open input",
				Cause:   fmt.Errorf("permission denied"),
			},
			wantMessage: "[IO] failed to open input: permission denied",
		},
		{
			name: "error with empty message",
			appError: &AppError{
				Type: ErrTypeValidation,
			},
			wantMessage: "[VALIDATION] ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantMessage, tt.appError.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := NewIOError("failed to write export", "/tmp/out.csv", cause)

	assert.Same(t, cause, err.Unwrap())
	assert.True(t, errors.Is(err, cause))
	assert.Nil(t, NewConfigError("bad", nil).Unwrap())
}

func TestAppError_WithContext(t *testing.T) {
	err := &AppError{Type: ErrTypeValidation, Message: "bad year"}
	require.Nil(t, err.Context)

	err.WithContext("year", 1949).WithContext("column", "[1949]")

	assert.Equal(t, 1949, err.Context["year"])
	assert.Equal(t, "[1949]", err.Context["column"])
}

func TestNewParseError(t *testing.T) {
	err := NewParseError(3, "[1987]", "abc", nil)

	assert.Equal(t, ErrTypeParsing, err.Type)
	assert.Contains(t, err.Error(), `row 3, column "[1987]"`)
	assert.Contains(t, err.Error(), `"abc"`)
	assert.Equal(t, 3, err.Context["row"])
	assert.Equal(t, "[1987]", err.Context["column"])
	assert.Equal(t, "abc", err.Context["value"])
}

func TestTypeOfAndIsType(t *testing.T) {
	wrapped := fmt.Errorf("clean stage: %w", NewInsufficientDataError("no groups left"))

	tests := []struct {
		name string
		err  error
		want ErrorType
	}{
		{name: "nil", err: nil, want: ""},
		{name: "plain error", err: errors.New("boom"), want: ""},
		{name: "direct", err: NewNotFoundError("group FCY"), want: ErrTypeNotFound},
		{name: "wrapped", err: wrapped, want: ErrTypeInsufficientData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TypeOf(tt.err))
			if tt.want != "" {
				assert.True(t, IsType(tt.err, tt.want))
			}
			assert.False(t, IsType(tt.err, ErrTypeConfig))
		})
	}
}
