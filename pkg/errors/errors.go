package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType represents different types of errors that can occur
type ErrorType string

const (
	ErrorTypeConfig        ErrorType = "config"
	ErrorTypeConfiguration ErrorType = "configuration"
	ErrorTypeFilesystem    ErrorType = "filesystem"
	ErrorTypeNetwork       ErrorType = "network"
	ErrorTypeParsing       ErrorType = "parsing"
	ErrorTypeHTTPStatus    ErrorType = "http_status"
	ErrorTypeUnknown       ErrorType = "unknown"
)

// Error represents a ripper error with type information.
// Code carries the HTTP status for network and status errors, 0 otherwise.
type Error struct {
	Type    ErrorType
	Message string
	Code    int
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s error (code %d): %s: %v", e.Type, e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s error (code %d): %s", e.Type, e.Code, e.Message)
}

// Unwrap returns the underlying cause
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an error of the given type
func New(t ErrorType, msg string) *Error {
	return &Error{Type: t, Message: msg}
}

// Wrap creates an error of the given type around a cause
func Wrap(t ErrorType, err error, msg string) *Error {
	return &Error{Type: t, Message: msg, Err: err}
}

// Config reports a missing or malformed configuration file
func Config(err error, msg string) *Error {
	return Wrap(ErrorTypeConfig, err, msg)
}

// Configuration reports a composition error, e.g. a node without a parent
func Configuration(msg string) *Error {
	return New(ErrorTypeConfiguration, msg)
}

// Filesystem reports a failed filesystem operation
func Filesystem(err error, msg string) *Error {
	return Wrap(ErrorTypeFilesystem, err, msg)
}

// TypeOf returns the ErrorType of err, or ErrorTypeUnknown
func TypeOf(err error) ErrorType {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Type
	}
	return ErrorTypeUnknown
}

// IsType reports whether any error in err's chain is an *Error of type t
func IsType(err error, t ErrorType) bool {
	if err == nil {
		return false
	}
	return TypeOf(err) == t
}

// IsFatal checks if an error type should terminate the process
func IsFatal(errorType ErrorType) bool {
	switch errorType {
	case ErrorTypeConfig, ErrorTypeConfiguration:
		return true
	default:
		return false
	}
}
