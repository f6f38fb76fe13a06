package store

import (
	"errors"
	"fmt"
)

// ErrorKind categorizes store failures.
type ErrorKind string

const (
	// KindValidation indicates a missing or empty required argument.
	KindValidation ErrorKind = "VALIDATION"

	// KindNotFound indicates an unknown item_code or operation.
	KindNotFound ErrorKind = "NOT_FOUND"

	// KindSchemaMissing indicates no usable requirement source exists
	// after schema adaptation was attempted.
	KindSchemaMissing ErrorKind = "SCHEMA_MISSING"

	// KindStorage indicates an I/O or constraint failure from SQLite.
	KindStorage ErrorKind = "STORAGE"
)

// Error is the caller-visible failure type for all store operations.
// The Kind is stable and safe to branch on; Message is for humans.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the underlying cause for errors.Is/As chains.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewValidationError reports a missing or empty required argument.
func NewValidationError(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// NewNotFoundError reports an unknown item_code or operation name.
func NewNotFoundError(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// NewSchemaMissingError reports that no requirement source is queryable.
func NewSchemaMissingError(format string, args ...any) *Error {
	return &Error{Kind: KindSchemaMissing, Message: fmt.Sprintf(format, args...)}
}

// NewStorageError wraps a SQLite failure.
func NewStorageError(err error, format string, args ...any) *Error {
	return &Error{Kind: KindStorage, Message: fmt.Sprintf(format, args...), Err: err}
}

// kindOf extracts the ErrorKind from a (possibly wrapped) error.
// Returns "" when err carries no store Error.
func kindOf(err error) ErrorKind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return ""
}

// IsValidation returns true if the error is a validation failure.
func IsValidation(err error) bool { return kindOf(err) == KindValidation }

// IsNotFound returns true if the error is a not-found failure.
func IsNotFound(err error) bool { return kindOf(err) == KindNotFound }

// IsSchemaMissing returns true if the error indicates an unusable catalog.
func IsSchemaMissing(err error) bool { return kindOf(err) == KindSchemaMissing }

// IsStorage returns true if the error is a storage-layer failure.
func IsStorage(err error) bool { return kindOf(err) == KindStorage }

// asStorageError passes store errors through unchanged and wraps anything
// else as a storage failure. Used at the end of operations that mix
// domain checks with SQL execution.
func asStorageError(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	var se *Error
	if errors.As(err, &se) {
		return err
	}
	return NewStorageError(err, format, args...)
}
