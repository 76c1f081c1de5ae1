package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnifiedError_Creation(t *testing.T) {
	tests := []struct {
		name     string
		builder  func() *UnifiedError
		expected *UnifiedError
	}{
		{
			name: "validation error",
			builder: func() *UnifiedError {
				return Validation("INVALID_INPUT", "Input validation failed").
					WithDetails("field 'url' is invalid").
					Build()
			},
			expected: &UnifiedError{
				Type:     ErrorTypeValidation,
				Code:     "INVALID_INPUT",
				Message:  "Input validation failed",
				Details:  "field 'url' is invalid",
				Severity: SeverityLow,
			},
		},
		{
			name: "not found error",
			builder: func() *UnifiedError {
				return NotFound("ITEM_NOT_FOUND", "Item not found").
					WithOperation("Get").
					Build()
			},
			expected: &UnifiedError{
				Type:      ErrorTypeNotFound,
				Code:      "ITEM_NOT_FOUND",
				Message:   "Item not found",
				Operation: "Get",
				Severity:  SeverityLow,
			},
		},
		{
			name: "external error is retryable",
			builder: func() *UnifiedError {
				return External("CLASSIFIER_UNAVAILABLE", "classifier failed").Build()
			},
			expected: &UnifiedError{
				Type:      ErrorTypeExternal,
				Code:      "CLASSIFIER_UNAVAILABLE",
				Message:   "classifier failed",
				Severity:  SeverityMedium,
				Retryable: true,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.builder()

			assert.Equal(t, tt.expected.Type, err.Type)
			assert.Equal(t, tt.expected.Code, err.Code)
			assert.Equal(t, tt.expected.Message, err.Message)
			assert.Equal(t, tt.expected.Details, err.Details)
			assert.Equal(t, tt.expected.Operation, err.Operation)
			assert.Equal(t, tt.expected.Severity, err.Severity)
			assert.Equal(t, tt.expected.Retryable, err.Retryable)
		})
	}
}

func TestUnifiedError_ErrorInterface(t *testing.T) {
	err := Validation("TEST_CODE", "Test message").
		WithDetails("Additional details").
		Build()
	assert.Equal(t, "[VALIDATION:TEST_CODE] Test message: Additional details", err.Error())

	err2 := NotFound("NOT_FOUND", "Item not found").Build()
	assert.Equal(t, "[NOT_FOUND:NOT_FOUND] Item not found", err2.Error())
}

func TestUnifiedError_Unwrap(t *testing.T) {
	original := errors.New("connection reset")
	err := Connection("STORE_UNREACHABLE", "store unreachable").
		WithCause(original).
		Build()

	assert.Equal(t, original, err.Unwrap())
	assert.True(t, errors.Is(err, original))
}

func TestErrorType_Checking(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		checkFn  func(error) bool
		expected bool
	}{
		{"validation", Validation("V", "v").Build(), IsValidation, true},
		{"not found", NotFound("N", "n").Build(), IsNotFound, true},
		{"conflict", Conflict("C", "c").Build(), IsConflict, true},
		{"unauthorized", Unauthorized("U", "u").Build(), IsUnauthorized, true},
		{"forbidden", Forbidden("F", "f").Build(), IsForbidden, true},
		{"timeout", Timeout("T", "t").Build(), IsTimeout, true},
		{"connection", Connection("C", "c").Build(), IsConnection, true},
		{"external", External("E", "e").Build(), IsExternal, true},
		{"mismatch", Validation("V", "v").Build(), IsNotFound, false},
		{"plain error", errors.New("boom"), IsExternal, false},
		{"wrapped with fmt", fmt.Errorf("ctx: %w", NotFound("N", "n").Build()), IsNotFound, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.checkFn(tt.err))
		})
	}
}

func TestWrap(t *testing.T) {
	t.Run("Should preserve type of unified errors", func(t *testing.T) {
		inner := NotFound("ITEM_NOT_FOUND", "Item not found").Build()

		wrapped := Wrap(inner, "items.Get", "could not load item")

		require.NotNil(t, wrapped)
		assert.Equal(t, ErrorTypeNotFound, wrapped.Type)
		assert.Equal(t, "ITEM_NOT_FOUND", wrapped.Code)
		assert.Equal(t, "Item not found", wrapped.Details)
		assert.Equal(t, "items.Get", wrapped.Operation)
		assert.Equal(t, SeverityLow, wrapped.Severity)
		assert.True(t, errors.Is(wrapped, inner))
	})

	t.Run("Should turn foreign errors into internal errors", func(t *testing.T) {
		wrapped := Wrap(errors.New("disk full"), "sqlite.Create", "insert failed")

		assert.Equal(t, ErrorTypeInternal, wrapped.Type)
		assert.Equal(t, "WRAP_ERROR", wrapped.Code)
		assert.Equal(t, "disk full", wrapped.Details)
		assert.Equal(t, SeverityHigh, wrapped.Severity)
	})

	t.Run("Should return nil for nil", func(t *testing.T) {
		assert.Nil(t, Wrap(nil, "op", "msg"))
	})
}

func TestHelpers(t *testing.T) {
	err := External("UPSTREAM", "upstream said no").Build()

	assert.True(t, IsRetryable(err))
	assert.False(t, IsRetryable(errors.New("plain")))
	assert.Equal(t, SeverityMedium, GetSeverity(err))
	assert.Equal(t, SeverityHigh, GetSeverity(Connection("C", "c").Build()))
	assert.Equal(t, SeverityHigh, GetSeverity(errors.New("plain")))
	assert.False(t, IsRetryable(Validation("V", "v").Build()))
	assert.Equal(t, "UPSTREAM", Code(err))
	assert.Equal(t, "", Code(errors.New("plain")))
	assert.Equal(t, "upstream said no", Message(err))
	assert.Equal(t, "plain", Message(errors.New("plain")))
}
