// Package apperrors defines the typed error vocabulary shared by every
// layer of parley, from provider adapters up through the HTTP gateway.
package apperrors

import (
	"errors"
	"fmt"
)

// Code identifies a specific error category surfaced to callers.
type Code string

const (
	CodeNotFound           Code = "not_found"
	CodeValidation         Code = "validation"
	CodeProviderAuth       Code = "provider_auth"
	CodeProviderRateLimit  Code = "provider_rate_limit"
	CodeProviderTimeout    Code = "provider_timeout"
	CodeProviderUpstream   Code = "provider_upstream"
	CodeMalformedLLMOutput Code = "malformed_llm_output"
	CodeStorage            Code = "storage"
	CodeInternal           Code = "internal"
)

// Error is the structured error type returned by parley's internal
// packages. It carries a stable Code so the gateway can map it to an HTTP
// status or SSE event without string matching.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates an Error with the given code and message.
func New(code Code, msg string) *Error {
	return &Error{Code: code, Message: msg}
}

// Newf creates an Error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an existing error.
func Wrap(cause error, code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, Cause: cause}
}

// NotFound creates a not_found error.
func NotFound(msg string) *Error { return New(CodeNotFound, msg) }

// Validation creates a validation error.
func Validation(msg string) *Error { return New(CodeValidation, msg) }

// Validationf creates a formatted validation error.
func Validationf(format string, args ...any) *Error { return Newf(CodeValidation, format, args...) }

// Storage wraps a storage-layer failure.
func Storage(cause error, msg string) *Error { return Wrap(cause, CodeStorage, msg) }

// Internal wraps an unexpected internal failure.
func Internal(cause error, msg string) *Error { return Wrap(cause, CodeInternal, msg) }

// CodeOf returns the Code carried by err, or defaultCode if err is not an
// *Error (or is nil).
func CodeOf(err error, defaultCode Code) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return defaultCode
}

// Is reports whether err is an *Error with the given code.
func Is(err error, code Code) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}
