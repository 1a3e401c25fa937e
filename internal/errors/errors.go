// Package errors defines the structured error kinds returned by the record store.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Code identifies the kind of failure. It is the only information callers need
// to branch on; the message and wrapped error are for humans and logs.
type Code string

const (
	// CodeFile is returned when a directory or file could not be created or opened.
	CodeFile Code = "FILE_ERROR"
	// CodeRead is returned when a table file is unreadable.
	CodeRead Code = "READ_ERROR"
	// CodeWrite is returned when a table file could not be overwritten.
	CodeWrite Code = "WRITE_ERROR"
	// CodeFormat is returned when stored content does not parse as the expected structure.
	CodeFormat Code = "FORMAT_ERROR"
	// CodeNotFound is returned when zero records matched an identifier or filter.
	CodeNotFound Code = "NOT_FOUND"
	// CodeDuplicate is returned when more than one record matched a unique identifier.
	CodeDuplicate Code = "DUPLICATE"
	// CodeBadInput is returned when the caller supplied mismatched or invalid arguments.
	CodeBadInput Code = "BAD_INPUT"
)

// Sentinels for errors.Is. Any *Error with the same code matches.
var (
	ErrFile      = New(CodeFile, "")
	ErrRead      = New(CodeRead, "")
	ErrWrite     = New(CodeWrite, "")
	ErrFormat    = New(CodeFormat, "")
	ErrNotFound  = New(CodeNotFound, "")
	ErrDuplicate = New(CodeDuplicate, "")
	ErrBadInput  = New(CodeBadInput, "")
)

// Error is a concrete error type with a code, a message and an optional cause.
type Error struct {
	code       Code
	message    string
	wrappedErr error
}

// New creates a new Error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{
		code:    code,
		message: message,
	}
}

// Wrap wraps an underlying error.
func (e *Error) Wrap(err error) *Error {
	e.wrappedErr = err
	return e
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.message
	if msg == "" {
		msg = Message(e.code)
	}
	if e.wrappedErr != nil {
		return fmt.Sprintf("%s: %v", msg, e.wrappedErr)
	}
	return msg
}

// Code returns the error code.
func (e *Error) Code() Code {
	return e.code
}

// Unwrap returns the wrapped error if any.
func (e *Error) Unwrap() error {
	return e.wrappedErr
}

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.code == e.code
}

// CodeOf returns the code of the first *Error in err's chain, or "" if none.
func CodeOf(err error) Code {
	var e *Error
	if stderrors.As(err, &e) {
		return e.code
	}
	return ""
}

// Message returns the user facing description of a code.
func Message(code Code) string {
	switch code {
	case CodeFile:
		return "file error"
	case CodeRead:
		return "database read error"
	case CodeWrite:
		return "database write error"
	case CodeFormat:
		return "database format error"
	case CodeNotFound:
		return "not found"
	case CodeDuplicate:
		return "found more than once"
	case CodeBadInput:
		return "bad input"
	default:
		return "unknown error"
	}
}

// ExitCode returns the process exit status to use for err.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	switch CodeOf(err) {
	case CodeFile:
		return 2
	case CodeRead:
		return 3
	case CodeWrite:
		return 4
	case CodeFormat:
		return 5
	case CodeNotFound:
		return 6
	case CodeDuplicate:
		return 7
	case CodeBadInput:
		return 8
	default:
		return 1
	}
}

// Predefined constructors.

// FileError creates a FILE_ERROR wrapping err.
func FileError(message string, err error) *Error {
	return New(CodeFile, message).Wrap(err)
}

// ReadError creates a READ_ERROR wrapping err.
func ReadError(message string, err error) *Error {
	return New(CodeRead, message).Wrap(err)
}

// WriteError creates a WRITE_ERROR wrapping err.
func WriteError(message string, err error) *Error {
	return New(CodeWrite, message).Wrap(err)
}

// FormatError creates a FORMAT_ERROR wrapping err.
func FormatError(message string, err error) *Error {
	return New(CodeFormat, message).Wrap(err)
}

// NotFound creates a NOT_FOUND error for the given resource.
func NotFound(resource string) *Error {
	return New(CodeNotFound, fmt.Sprintf("%s not found", resource))
}

// Duplicate creates a DUPLICATE error for the given resource.
func Duplicate(resource string) *Error {
	return New(CodeDuplicate, fmt.Sprintf("%s found more than once", resource))
}

// BadInput creates a BAD_INPUT error.
func BadInput(message string) *Error {
	return New(CodeBadInput, message)
}
