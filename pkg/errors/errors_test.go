package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAPIError(t *testing.T) {
	t.Run("structured payload", func(t *testing.T) {
		err := NewAPIError(409, &ErrorPayload{Error: ErrorBody{Code: "duplicate_email", Message: "email already exists"}})

		assert.Equal(t, "email already exists", err.Error())
		assert.True(t, err.Structured())
		assert.Equal(t, "duplicate_email", err.Code())
		assert.Equal(t, 409, err.Status)
	})

	t.Run("missing payload falls back to status", func(t *testing.T) {
		err := NewAPIError(502, nil)

		assert.Equal(t, "HTTP 502", err.Error())
		assert.False(t, err.Structured())
		assert.Empty(t, err.Code())
	})

	t.Run("payload without message", func(t *testing.T) {
		err := NewAPIError(500, &ErrorPayload{})

		assert.Equal(t, "HTTP 500", err.Error())
		assert.False(t, err.Structured())
	})

	t.Run("not found", func(t *testing.T) {
		assert.True(t, NewAPIError(404, nil).NotFound())
		assert.False(t, NewAPIError(400, nil).NotFound())
	})
}

func TestAsAPIError_Wrapped(t *testing.T) {
	wrapped := fmt.Errorf("create user: %w", NewAPIError(422, nil))

	apiErr, ok := AsAPIError(wrapped)
	require.True(t, ok)
	assert.Equal(t, 422, apiErr.Status)

	_, ok = AsAPIError(stderrors.New("boom"))
	assert.False(t, ok)
}

func TestTransportError_Unwrap(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := NewTransportError("GET /users", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "GET /users: connection refused", err.Error())
	_, ok := AsAPIError(err)
	assert.False(t, ok)
}

func TestValidationError_Error(t *testing.T) {
	assert.Equal(t, "validation failed: email - invalid email", NewValidationError("email", "invalid email").Error())
	assert.Equal(t, "validation failed: Amount - Invalid amount format", ErrInvalidAmount.Error())
}

func TestMalformedFileError(t *testing.T) {
	cause := stderrors.New("unexpected end of JSON input")
	err := NewMalformedFileError("users.json", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "users.json")
}

func TestUserMessage(t *testing.T) {
	const fallback = "Unexpected error"

	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: ""},
		{name: "validation", err: NewValidationError("amount", "amount must be greater than 0"), want: "amount must be greater than 0"},
		{name: "structured api error", err: NewAPIError(409, &ErrorPayload{Error: ErrorBody{Code: "duplicate_email", Message: "email already exists"}}), want: "email already exists"},
		{name: "unstructured api error", err: NewAPIError(500, nil), want: fallback},
		{name: "transport", err: NewTransportError("POST /users", stderrors.New("dial tcp")), want: fallback},
		{name: "plain", err: stderrors.New("boom"), want: fallback},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UserMessage(tt.err, fallback))
		})
	}
}
