// Package apperr defines the failure taxonomy shared by the analysis pipeline
// and its collaborators.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure.
type Kind string

const (
	KindDataUnavailable     Kind = "DATA_UNAVAILABLE"
	KindInsufficientHistory Kind = "INSUFFICIENT_HISTORY"
	KindInvalidParameter    Kind = "INVALID_PARAMETER"
	KindInternal            Kind = "INTERNAL"
)

// Error is a classified failure with an optional cause.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so errors.Is(err, ErrDataUnavailable) works.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind && t.Msg == ""
}

// Sentinels for errors.Is checks.
var (
	ErrDataUnavailable     = &Error{Kind: KindDataUnavailable}
	ErrInsufficientHistory = &Error{Kind: KindInsufficientHistory}
	ErrInvalidParameter    = &Error{Kind: KindInvalidParameter}
)

func DataUnavailable(msg string, err error) *Error {
	return &Error{Kind: KindDataUnavailable, Msg: msg, Err: err}
}

func InsufficientHistory(msg string) *Error {
	return &Error{Kind: KindInsufficientHistory, Msg: msg}
}

func InvalidParameter(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidParameter, Msg: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of err, or KindInternal for unclassified errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
