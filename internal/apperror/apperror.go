// Package apperror defines the error taxonomy shared by the domain, the services
// and the HTTP layer. Every failure carries a Kind, so callers branch on the
// category ("fix your input" vs "not allowed right now") instead of on concrete types.
package apperror

import (
	"errors"
	"fmt"
)

// Kind is the category of a failure.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindBusinessRule
	KindNotFound
	KindAccessDenied
	KindConflict
	KindUnauthenticated
	KindEncryption
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindBusinessRule:
		return "business_rule"
	case KindNotFound:
		return "not_found"
	case KindAccessDenied:
		return "access_denied"
	case KindConflict:
		return "conflict"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindEncryption:
		return "encryption"
	default:
		return "internal"
	}
}

// Error is a categorized application error.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error with the same code, so a sentinel that
// was refined with WithMessage or WithCause still matches it.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code != "" && e.Code == t.Code
}

// WithMessage returns a copy of e with a formatted message.
func (e *Error) WithMessage(format string, args ...any) *Error {
	cp := *e
	cp.Message = fmt.Sprintf(format, args...)
	return &cp
}

// WithCause returns a copy of e wrapping err.
func (e *Error) WithCause(err error) *Error {
	cp := *e
	cp.Err = err
	return &cp
}

// New creates an error of the given kind.
func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// Validation creates a domain validation error with the generic validation code.
func Validation(format string, args ...any) *Error {
	return ErrValidation.WithMessage(format, args...)
}

// BusinessRule creates a business rule violation with the generic code.
func BusinessRule(format string, args ...any) *Error {
	return ErrBusinessRule.WithMessage(format, args...)
}

// NotFound creates a not-found error with the generic code.
func NotFound(format string, args ...any) *Error {
	return ErrNotFound.WithMessage(format, args...)
}

// AccessDenied creates an access-denied error with the generic code.
func AccessDenied(format string, args ...any) *Error {
	return ErrAccessDenied.WithMessage(format, args...)
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// As returns the first *Error in err's chain.
func As(err error) (*Error, bool) {
	var appErr *Error
	ok := errors.As(err, &appErr)
	return appErr, ok
}
