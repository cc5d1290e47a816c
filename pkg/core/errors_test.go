package core

import (
	"errors"
	"fmt"
	"io"
	"testing"
)

func TestError_Error(t *testing.T) {
	err := &Error{
		Type:    ErrDecode,
		Message: "odd byte length",
	}

	expected := "decode_error: odd byte length"
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}
}

func TestError_WithUnderlying(t *testing.T) {
	err := NewTransportError("read live frame", io.ErrUnexpectedEOF)

	expected := "transport_error: read live frame: unexpected EOF"
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("errors.Is(err, io.ErrUnexpectedEOF) = false, want true")
	}
}

func TestIsType(t *testing.T) {
	tests := []struct {
		name string
		err  error
		typ  ErrorType
		want bool
	}{
		{"direct", NewDeviceUnavailableError("mic denied", nil), ErrDeviceUnavailable, true},
		{"wrapped", fmt.Errorf("start capture: %w", NewDeviceUnavailableError("mic denied", nil)), ErrDeviceUnavailable, true},
		{"other type", NewDecodeError("bad base64", nil), ErrTransport, false},
		{"plain error", errors.New("boom"), ErrDecode, false},
		{"nil", nil, ErrDecode, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsType(tt.err, tt.typ); got != tt.want {
				t.Errorf("IsType() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewFormatMismatchError(t *testing.T) {
	err := NewFormatMismatchError("separator missing")
	if err.Type != ErrFormatMismatch {
		t.Errorf("Type = %v, want %v", err.Type, ErrFormatMismatch)
	}
	if err.Unwrap() != nil {
		t.Errorf("Unwrap() = %v, want nil", err.Unwrap())
	}
}
