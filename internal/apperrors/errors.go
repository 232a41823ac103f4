package apperrors

import (
	"errors"
	"fmt"
)

// Code classifies a pipeline failure for the route layer.
type Code string

const (
	// CodeInvalidInput means a required field or file was missing
	CodeInvalidInput Code = "INVALID_INPUT"
	// CodeProviderError means OCR/model/text-database returned a failure
	CodeProviderError Code = "PROVIDER_ERROR"
	// CodeParseError means a provider response was not the expected JSON
	CodeParseError Code = "PARSE_ERROR"
	// CodeConfigurationError means a required credential is absent
	CodeConfigurationError Code = "CONFIGURATION_ERROR"
)

// Error is a structured pipeline error.
type Error struct {
	Code    Code
	Message string
	// Status is the upstream HTTP status for provider errors, 0 otherwise
	Status int
	Cause  error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: %s (upstream status %d)", e.Code, e.Message, e.Status)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// NewInvalidInput reports a missing or malformed request field.
func NewInvalidInput(message string) *Error {
	return &Error{Code: CodeInvalidInput, Message: message}
}

// NewProviderError reports a non-success response from an external provider.
func NewProviderError(provider string, status int, message string, cause error) *Error {
	return &Error{
		Code:    CodeProviderError,
		Message: fmt.Sprintf("%s: %s", provider, message),
		Status:  status,
		Cause:   cause,
	}
}

// NewParseError reports a provider response that was not valid JSON in the
// expected shape.
func NewParseError(provider string, cause error) *Error {
	return &Error{
		Code:    CodeParseError,
		Message: fmt.Sprintf("%s returned an unparseable response", provider),
		Cause:   cause,
	}
}

// NewConfigurationError reports a missing credential so operators can tell
// missing setup apart from a transient provider outage.
func NewConfigurationError(message string) *Error {
	return &Error{Code: CodeConfigurationError, Message: message}
}

// CodeOf returns the code of err if it is (or wraps) an *Error, "" otherwise.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
