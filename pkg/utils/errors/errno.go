// Package errors provides the service error model: numeric error codes with
// HTTP and gRPC mappings and bilingual messages.
package errors

import (
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Errno is a typed service error. The zero value is not usable; construct
// with New and register via Register so codes stay unique.
type Errno struct {
	// Code is the numeric error code (see code.go for the layout).
	Code int

	// HTTP is the HTTP status code returned for this error.
	HTTP int

	// GRPCCode is the gRPC status code for this error.
	GRPCCode codes.Code

	// MessageEN is the English message.
	MessageEN string

	// MessageZH is the Chinese message.
	MessageZH string

	cause error
}

// New creates a new Errno.
func New(code, httpStatus int, grpcCode codes.Code, messageEN, messageZH string) *Errno {
	return &Errno{
		Code:      code,
		HTTP:      httpStatus,
		GRPCCode:  grpcCode,
		MessageEN: messageEN,
		MessageZH: messageZH,
	}
}

// Error implements the error interface.
func (e *Errno) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.MessageEN, e.cause)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.MessageEN)
}

// Unwrap returns the wrapped cause, if any.
func (e *Errno) Unwrap() error {
	return e.cause
}

// WithCause returns a copy of the Errno carrying the underlying cause.
func (e *Errno) WithCause(err error) *Errno {
	clone := *e
	clone.cause = err
	return &clone
}

// WithMessage returns a copy with the English message replaced.
func (e *Errno) WithMessage(msg string) *Errno {
	clone := *e
	clone.MessageEN = msg
	return &clone
}

// WithMessagef returns a copy with a formatted English message.
func (e *Errno) WithMessagef(format string, args ...any) *Errno {
	return e.WithMessage(fmt.Sprintf(format, args...))
}

// Message returns the message for the given language ("zh" or "en").
func (e *Errno) Message(lang string) string {
	if lang == "zh" && e.MessageZH != "" {
		return e.MessageZH
	}
	return e.MessageEN
}

// HTTPStatus returns the HTTP status code.
func (e *Errno) HTTPStatus() int {
	return e.HTTP
}

// GRPCStatus converts the Errno into a gRPC status.
func (e *Errno) GRPCStatus() *status.Status {
	return status.New(e.GRPCCode, e.MessageEN)
}

// Is matches two Errnos by code so errors.Is works across WithCause copies.
func (e *Errno) Is(target error) bool {
	var t *Errno
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// FromError extracts an *Errno from err, unwrapping as needed.
// Returns nil when err carries no Errno.
func FromError(err error) *Errno {
	var e *Errno
	if errors.As(err, &e) {
		return e
	}
	return nil
}
