package resolver

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a resolution failure. Only KindNotFound is recoverable
// by the loader; every other kind fails the importing module.
type ErrorKind string

const (
	KindNotFound         ErrorKind = "not-found"
	KindInvalidSpecifier ErrorKind = "invalid-specifier"
	KindCyclic           ErrorKind = "cyclic"
	KindIO               ErrorKind = "io"
	KindPackageJSON      ErrorKind = "package-json"
)

// Error is the typed failure returned by Resolve.
type Error struct {
	Kind      ErrorKind
	Specifier string
	Importer  string
	Err       error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("resolve %q", e.Specifier)
	if e.Importer != "" {
		msg += fmt.Sprintf(" from %q", e.Importer)
	}
	msg += ": " + string(e.Kind)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so callers can test with the
// sentinel values below.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Specifier == "" && t.Importer == "" && t.Err == nil && t.Kind == e.Kind
}

var (
	ErrNotFound         = &Error{Kind: KindNotFound}
	ErrInvalidSpecifier = &Error{Kind: KindInvalidSpecifier}
	ErrCyclic           = &Error{Kind: KindCyclic}
)

// IsNotFound reports whether err is a not-found resolution failure.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func newError(kind ErrorKind, specifier, importer string, err error) *Error {
	return &Error{Kind: kind, Specifier: specifier, Importer: importer, Err: err}
}
