package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
)

// Common client-side errors
var (
	ErrInvalidAmount     = NewValidationError("Amount", "Invalid amount format")
	ErrNonPositiveAmount = NewValidationError("Amount", "Amount must be greater than zero")
	ErrNoItems           = stderrors.New("expected an array or an object with an items array")
)

// ErrorBody is the body of the backend's error envelope.
type ErrorBody struct {
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Details json.RawMessage `json:"details,omitempty"`
}

// ErrorPayload is the JSON shape the backend returns for any non-2xx response:
// {"error": {"code": ..., "message": ..., "details": ...}}.
type ErrorPayload struct {
	Error ErrorBody `json:"error"`
}

// APIError represents a non-2xx response from the backend.
// Payload is nil when the response body could not be decoded.
type APIError struct {
	Status  int
	Message string
	Payload *ErrorPayload
}

// NewAPIError creates an APIError. When the payload carries a message it wins,
// otherwise the message falls back to "HTTP <status>".
func NewAPIError(status int, payload *ErrorPayload) *APIError {
	msg := fmt.Sprintf("HTTP %d", status)
	if payload != nil && payload.Error.Message != "" {
		msg = payload.Error.Message
	}
	return &APIError{
		Status:  status,
		Message: msg,
		Payload: payload,
	}
}

// Error implements the error interface
func (e *APIError) Error() string {
	return e.Message
}

// Structured reports whether the backend returned a decodable error envelope.
func (e *APIError) Structured() bool {
	return e.Payload != nil && e.Payload.Error.Message != ""
}

// Code returns the machine-readable error code, or "" for unstructured errors.
func (e *APIError) Code() string {
	if e.Payload == nil {
		return ""
	}
	return e.Payload.Error.Code
}

// NotFound reports whether the backend answered 404.
func (e *APIError) NotFound() bool {
	return e.Status == http.StatusNotFound
}

// TransportError represents a request that never produced an HTTP response.
type TransportError struct {
	Op  string
	Err error
}

// NewTransportError creates a new transport error
func NewTransportError(op string, err error) *TransportError {
	return &TransportError{Op: op, Err: err}
}

// Error implements the error interface
func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap returns the wrapped error
func (e *TransportError) Unwrap() error {
	return e.Err
}

// ValidationError represents a validation failure with field-level details
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed: %s - %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// MalformedFileError represents an import file that is not valid JSON or does
// not contain an array of items.
type MalformedFileError struct {
	Name string
	Err  error
}

// NewMalformedFileError creates a new malformed file error
func NewMalformedFileError(name string, err error) *MalformedFileError {
	return &MalformedFileError{Name: name, Err: err}
}

// Error implements the error interface
func (e *MalformedFileError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("malformed import file %s: %v", e.Name, e.Err)
	}
	return fmt.Sprintf("malformed import file: %v", e.Err)
}

// Unwrap returns the wrapped error
func (e *MalformedFileError) Unwrap() error {
	return e.Err
}

// AsAPIError extracts an *APIError from err's chain.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if stderrors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// AsValidationError extracts a *ValidationError from err's chain.
func AsValidationError(err error) (*ValidationError, bool) {
	var vErr *ValidationError
	if stderrors.As(err, &vErr) {
		return vErr, true
	}
	return nil, false
}

// UserMessage returns the text to show an end user for err. Validation
// failures and structured API errors surface their own message; everything
// else collapses to fallback.
func UserMessage(err error, fallback string) string {
	if err == nil {
		return ""
	}
	if vErr, ok := AsValidationError(err); ok {
		return vErr.Message
	}
	if apiErr, ok := AsAPIError(err); ok && apiErr.Structured() {
		return apiErr.Payload.Error.Message
	}
	return fallback
}
