package core

import (
	"errors"
	"fmt"
)

// Error represents a classified coaching-session error.
type Error struct {
	Type    ErrorType `json:"type"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for error wrapping.
func (e *Error) Unwrap() error {
	return e.Err
}

// ErrorType categorizes errors.
type ErrorType string

const (
	ErrDeviceUnavailable ErrorType = "device_unavailable"
	ErrTransport         ErrorType = "transport_error"
	ErrDecode            ErrorType = "decode_error"
	ErrFormatMismatch    ErrorType = "format_mismatch"
)

// NewDeviceUnavailableError reports that the microphone could not be acquired.
func NewDeviceUnavailableError(message string, underlying error) *Error {
	return &Error{
		Type:    ErrDeviceUnavailable,
		Message: message,
		Err:     underlying,
	}
}

// NewTransportError reports a session-level transport failure. These are terminal.
func NewTransportError(message string, underlying error) *Error {
	return &Error{
		Type:    ErrTransport,
		Message: message,
		Err:     underlying,
	}
}

// NewDecodeError reports a malformed inbound audio chunk.
func NewDecodeError(message string, underlying error) *Error {
	return &Error{
		Type:    ErrDecode,
		Message: message,
		Err:     underlying,
	}
}

// NewFormatMismatchError reports report text missing its expected markers.
func NewFormatMismatchError(message string) *Error {
	return &Error{
		Type:    ErrFormatMismatch,
		Message: message,
	}
}

// IsType reports whether err (or anything it wraps) is a *Error of type t.
func IsType(err error, t ErrorType) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Type == t
}
