package apperr

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies an Error for the boundary layer.
type Kind string

const (
	KindNotFound        Kind = "NOT_FOUND"
	KindValidation      Kind = "VALIDATION_ERROR"
	KindInvalidArgument Kind = "INVALID_ARGUMENT"
	KindForbidden       Kind = "FORBIDDEN"
	KindIntegrity       Kind = "INTEGRITY_ERROR"
	KindInternal        Kind = "INTERNAL_ERROR"
)

// Sentinels usable with errors.Is.
var (
	ErrNotFound        = &Error{Kind: KindNotFound}
	ErrValidation      = &Error{Kind: KindValidation}
	ErrInvalidArgument = &Error{Kind: KindInvalidArgument}
	ErrForbidden       = &Error{Kind: KindForbidden}
	ErrIntegrity       = &Error{Kind: KindIntegrity}
	ErrInternal        = &Error{Kind: KindInternal}
)

// Error is the error type returned by the core.
type Error struct {
	Kind   Kind
	Entity string
	ID     uint64
	Field  string
	Reason string
	Err    error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(strings.ToLower(string(e.Kind)))
	if e.Entity != "" {
		b.WriteString(": ")
		b.WriteString(e.Entity)
		if e.ID != 0 {
			fmt.Fprintf(&b, " id(%d)", e.ID)
		}
	}
	if e.Field != "" {
		fmt.Fprintf(&b, " field %s", e.Field)
	}
	if e.Reason != "" {
		b.WriteString(": ")
		b.WriteString(e.Reason)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so callers can compare against the sentinels.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// NotFound reports a missing or out-of-scope entity.
func NotFound(entity string, id uint64) *Error {
	return &Error{Kind: KindNotFound, Entity: entity, ID: id, Reason: "not found"}
}

// Validation reports a field value that does not satisfy its schema.
func Validation(fieldID uint64, reason string) *Error {
	return &Error{Kind: KindValidation, Entity: "field", ID: fieldID, Reason: reason}
}

// InvalidArgument reports a malformed position or target.
func InvalidArgument(entity string, id uint64, field, reason string) *Error {
	return &Error{Kind: KindInvalidArgument, Entity: entity, ID: id, Field: field, Reason: reason}
}

// Forbidden reports a caller lacking the required relationship to a project or task.
func Forbidden(entity string, id uint64, reason string) *Error {
	return &Error{Kind: KindForbidden, Entity: entity, ID: id, Reason: reason}
}

// Integrity reports a sequencer call made outside a transaction.
func Integrity(reason string) *Error {
	return &Error{Kind: KindIntegrity, Reason: reason}
}

// Internal wraps an unexpected failure such as a zero-row update.
func Internal(entity string, id uint64, reason string, err error) *Error {
	return &Error{Kind: KindInternal, Entity: entity, ID: id, Reason: reason, Err: err}
}

// KindOf returns the kind of err, or KindInternal when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
