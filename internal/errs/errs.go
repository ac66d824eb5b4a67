// Package errs defines the tagged-sum error kinds shared across the module
// and wraps them with github.com/pkg/errors so callers keep a stack trace
// without losing the ability to branch on what went wrong.
package errs

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind tags the broad category of a failure, mirroring the abstract error
// kinds used throughout the design: invalid input, I/O, storage, or an
// unimplemented code path.
type Kind int

const (
	// NoErr is the zero value; never attached to a real error.
	NoErr Kind = iota
	// BadParameter marks invalid ranges, reversed bounds, non-positive
	// sizes, mismatched geometries, or unsorted input where sorted input
	// is required.
	BadParameter
	// FileOpen marks a failure to open a CSV or SQLite file.
	FileOpen
	// SQLiteExec marks a failed SQLite operation.
	SQLiteExec
	// SQLiteMissingContent marks a SQLite query that found no row where
	// one was required.
	SQLiteMissingContent
	// FunctionNotImplemented marks a deliberately unsupported code path,
	// e.g. XIC queries at an MS level other than 1.
	FunctionNotImplemented
	// Error is a generic catch-all; narrowed to one of the above wherever
	// the call site can tell what actually went wrong.
	Error
)

func (k Kind) String() string {
	switch k {
	case NoErr:
		return "NoErr"
	case BadParameter:
		return "BadParameter"
	case FileOpen:
		return "FileOpen"
	case SQLiteExec:
		return "SQLiteExec"
	case SQLiteMissingContent:
		return "SQLiteMissingContent"
	case FunctionNotImplemented:
		return "FunctionNotImplemented"
	default:
		return "Error"
	}
}

// kindError attaches a Kind to a wrapped error without hiding the
// underlying cause or stack trace captured by pkg/errors.
type kindError struct {
	kind Kind
	err  error
}

func (e *kindError) Error() string { return fmt.Sprintf("%s: %v", e.kind, e.err) }
func (e *kindError) Unwrap() error { return e.err }

// New creates a new error of the given kind with a stack trace attached.
func New(kind Kind, message string) error {
	return &kindError{kind: kind, err: errors.New(message)}
}

// Newf creates a new formatted error of the given kind with a stack trace.
func Newf(kind Kind, format string, args ...interface{}) error {
	return &kindError{kind: kind, err: errors.Errorf(format, args...)}
}

// Wrap attaches kind to err and records a stack trace at the call site.
// Returns nil if err is nil.
func Wrap(err error, kind Kind, message string) error {
	if err == nil {
		return nil
	}
	return &kindError{kind: kind, err: errors.Wrap(err, message)}
}

// Wrapf is Wrap with a formatted message.
func Wrapf(err error, kind Kind, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return &kindError{kind: kind, err: errors.Wrapf(err, format, args...)}
}

// KindOf recovers the Kind attached to err, or Error if err was not
// produced by this package.
func KindOf(err error) Kind {
	if err == nil {
		return NoErr
	}
	var ke *kindError
	if errors.As(err, &ke) {
		return ke.kind
	}
	return Error
}

// Is reports whether err (or any error it wraps) carries the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
