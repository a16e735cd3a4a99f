package model

import (
	"errors"
	"fmt"
)

// ErrorKind is the category of a keychain failure, independent of the store
// that produced it.
type ErrorKind string

const (
	KindNotFound          ErrorKind = "not_found"
	KindDuplicate         ErrorKind = "duplicate"
	KindAccessDenied      ErrorKind = "access_denied"
	KindInvalidParameters ErrorKind = "invalid_parameters"
	KindNativeFailure     ErrorKind = "native_failure"
	KindEncoding          ErrorKind = "encoding_failure"
)

// Sentinels for errors.Is. They match any *Error of the same kind.
var (
	ErrNotFound          = &Error{Kind: KindNotFound}
	ErrDuplicate         = &Error{Kind: KindDuplicate}
	ErrAccessDenied      = &Error{Kind: KindAccessDenied}
	ErrInvalidParameters = &Error{Kind: KindInvalidParameters}
	ErrNativeFailure     = &Error{Kind: KindNativeFailure}
	ErrEncoding          = &Error{Kind: KindEncoding}
)

// Error is the caller-facing failure of a keychain operation. Code is the
// store's status unchanged; Description is the store's message when it gave
// one, otherwise the fallback text for Code.
type Error struct {
	Kind        ErrorKind
	Code        Status
	Description string
	Err         error
}

// NewError builds an Error for code, using msg as the description when set.
func NewError(code Status, msg string) *Error {
	if msg == "" {
		msg = code.Description()
	}
	return &Error{Kind: code.Kind(), Code: code, Description: msg}
}

// FromStoreError converts a SecureStore failure into an Error. A nil err
// returns nil.
func FromStoreError(err error) error {
	if err == nil {
		return nil
	}
	var existing *Error
	if errors.As(err, &existing) {
		return err
	}
	var se *StatusError
	if errors.As(err, &se) {
		e := NewError(se.Status, se.Message)
		e.Err = err
		return e
	}
	e := NewError(StatusInternalComponent, err.Error())
	e.Err = err
	return e
}

func (e *Error) Error() string {
	desc := e.Description
	if desc == "" {
		desc = e.Code.Description()
	}
	return fmt.Sprintf("keychain %s (%d): %s", e.Kind, int32(e.Code), desc)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches by kind so that errors.Is(err, ErrNotFound) works for any code
// that maps to KindNotFound.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// KindOf returns the kind of err, or "" when err is not an *Error.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
