// Package core holds types shared across the realtime pipeline.
package core

import (
	"fmt"
)

// Error represents a session-level error.
type Error struct {
	Type    ErrorType `json:"type"`
	Message string    `json:"message"`
	Code    string    `json:"code,omitempty"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s (code: %s)", e.Type, e.Message, e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// ErrorType categorizes errors per their recovery policy: configuration
// errors are fatal to session start, transport errors tear the session down
// to idle, decode errors are handled with defensive fallbacks.
type ErrorType string

const (
	ErrConfig    ErrorType = "config_error"
	ErrTransport ErrorType = "transport_error"
	ErrClosed    ErrorType = "session_closed"
	ErrDecode    ErrorType = "decode_error"
)

// NewConfigError creates a configuration error.
func NewConfigError(message string) *Error {
	return &Error{Type: ErrConfig, Message: message}
}

// NewTransportError creates a transport error.
func NewTransportError(message string) *Error {
	return &Error{Type: ErrTransport, Message: message}
}

// NewClosedError reports an operation against a closed session.
func NewClosedError(message string) *Error {
	return &Error{Type: ErrClosed, Message: message}
}

// NewDecodeError creates a decode error.
func NewDecodeError(message string) *Error {
	return &Error{Type: ErrDecode, Message: message}
}
