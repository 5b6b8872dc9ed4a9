// Package procerrors defines the closed set of error kinds used across the
// service. Stores and collaborators return low-level facts (sql.ErrNoRows,
// transport errors); services translate them into coded errors here so the
// HTTP layer can map codes to statuses without string matching.
package procerrors

import (
	"errors"
	"fmt"
)

// Code identifies an error kind.
type Code string

const (
	// CodeConfiguration means a required source (database file, spreadsheet)
	// is missing or unreadable. Fatal for the operation that needs it.
	CodeConfiguration Code = "configuration"
	// CodeSourceFormat means a source exists but its shape is wrong
	// (missing column, empty sheet). Fatal for that rebuild or ingestion.
	CodeSourceFormat Code = "source_format"
	// CodeLookup marks a failed jurisdiction API call (timeout, non-2xx,
	// transport error). Recovered per item, never aborts a run.
	CodeLookup Code = "lookup"
	// CodeCacheBuild marks a failed reconciliation rebuild. The previously
	// cached view is left untouched.
	CodeCacheBuild Code = "cache_build"
	CodeNotFound   Code = "not_found"
	CodeBadRequest Code = "bad_request"
	CodeTimeout    Code = "timeout"
	CodeInternal   Code = "internal"
)

// Error carries a code plus structured context. Context fields are optional
// and populated via the With* builders.
type Error struct {
	Code    Code
	Message string

	// Structured context; empty when not applicable.
	Path  string // source file path
	Table string // store table name
	Court string // jurisdiction code

	err error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Path != "" {
		msg += fmt.Sprintf(" (path=%s)", e.Path)
	}
	if e.Table != "" {
		msg += fmt.Sprintf(" (table=%s)", e.Table)
	}
	if e.Court != "" {
		msg += fmt.Sprintf(" (court=%s)", e.Court)
	}
	if e.err != nil {
		msg += ": " + e.err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.err }

// New builds a coded error with a static message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf builds a coded error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, err: err}
}

// WithPath attaches a source file path to the error context.
func (e *Error) WithPath(path string) *Error {
	e.Path = path
	return e
}

// WithTable attaches a store table name to the error context.
func (e *Error) WithTable(table string) *Error {
	e.Table = table
	return e
}

// WithCourt attaches a jurisdiction code to the error context.
func (e *Error) WithCourt(court string) *Error {
	e.Court = court
	return e
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// Is is an alias for HasCode kept for call-site readability.
func Is(err error, code Code) bool { return HasCode(err, code) }

// CodeOf extracts the code from err, defaulting to CodeInternal for uncoded
// errors.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}
