package shared

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies a failure so boundaries can map it (HTTP status, exit code, metric label)
type ErrorKind string

const (
	KindNotFound              ErrorKind = "NotFound"
	KindValidation            ErrorKind = "Validation"
	KindConflict              ErrorKind = "Conflict"
	KindUnauthorized          ErrorKind = "Unauthorized"
	KindForbidden             ErrorKind = "Forbidden"
	KindCancelled             ErrorKind = "Cancelled"
	KindHandlerNotFound       ErrorKind = "HandlerNotFound"
	KindDuplicateRegistration ErrorKind = "DuplicateRegistration"
	KindUnexpected            ErrorKind = "Unexpected"
	KindInvalidState          ErrorKind = "InvalidState"
)

// FieldError describes a single failed validation rule
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) String() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Error is the failure half of a Result.
//
// Errors are treated as immutable once constructed; helpers such as
// WithMetadata return copies.
type Error struct {
	Kind     ErrorKind
	Message  string
	Fields   []FieldError
	Metadata map[string]string
	cause    error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if len(e.Fields) > 0 {
		parts := make([]string, len(e.Fields))
		for i, f := range e.Fields {
			parts[i] = f.String()
		}
		b.WriteString(" [")
		b.WriteString(strings.Join(parts, "; "))
		b.WriteString("]")
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Is matches another *Error by kind, so errors.Is(err, &Error{Kind: KindNotFound}) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

// WithMetadata returns a copy of the error with key=value added to its metadata
func (e *Error) WithMetadata(key, value string) *Error {
	cp := *e
	cp.Metadata = make(map[string]string, len(e.Metadata)+1)
	for k, v := range e.Metadata {
		cp.Metadata[k] = v
	}
	cp.Metadata[key] = value
	return &cp
}

// WithCause returns a copy of the error wrapping cause
func (e *Error) WithCause(cause error) *Error {
	cp := *e
	cp.cause = cause
	return &cp
}

func newError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func NotFound(message string) *Error {
	return newError(KindNotFound, message)
}

// NotFoundf is NotFound with fmt formatting
func NotFoundf(format string, args ...any) *Error {
	return newError(KindNotFound, fmt.Sprintf(format, args...))
}

// Validation builds a validation failure carrying every failed field
func Validation(fields ...FieldError) *Error {
	msg := "validation failed"
	if len(fields) == 1 {
		msg = fmt.Sprintf("validation failed on %s", fields[0].Field)
	} else if len(fields) > 1 {
		msg = fmt.Sprintf("validation failed on %d fields", len(fields))
	}
	return &Error{Kind: KindValidation, Message: msg, Fields: fields}
}

func Conflict(message string) *Error {
	return newError(KindConflict, message)
}

func Unauthorized(message string) *Error {
	return newError(KindUnauthorized, message)
}

func Forbidden(message string) *Error {
	return newError(KindForbidden, message)
}

// Cancelled wraps the context error that stopped the operation
func Cancelled(cause error) *Error {
	msg := "operation cancelled"
	if cause != nil {
		msg = cause.Error()
	}
	return &Error{Kind: KindCancelled, Message: msg, cause: cause}
}

func HandlerNotFound(requestType string) *Error {
	return newError(KindHandlerNotFound, fmt.Sprintf("no handler registered for type %s", requestType))
}

func DuplicateRegistration(requestType string) *Error {
	return newError(KindDuplicateRegistration, fmt.Sprintf("handler already registered for type %s", requestType))
}

func InvalidState(message string) *Error {
	return newError(KindInvalidState, message)
}

// Unexpected wraps an error nobody classified
func Unexpected(cause error) *Error {
	msg := "unexpected error"
	if cause != nil {
		msg = cause.Error()
	}
	return &Error{Kind: KindUnexpected, Message: msg, cause: cause}
}

// AsError normalizes any Go error into an *Error.
// Existing *Error values anywhere in the chain are returned as-is,
// context cancellation and deadlines become Cancelled, everything else Unexpected.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return Cancelled(err)
	}
	return Unexpected(err)
}

// KindOf reports the kind of err, or "" when err is nil
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	return AsError(err).Kind
}

// IsKind reports whether err normalizes to the given kind
func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}
