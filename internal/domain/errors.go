package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by stores when no row matches.
var ErrNotFound = errors.New("not found")

type Kind string

const (
	KindInvalidInput Kind = "INVALID_INPUT"
	KindInvalidDates Kind = "INVALID_DATES"
	KindNotFound     Kind = "NOT_FOUND"
)

// Error is an expected, caller-facing failure. Anything else coming out of the
// booking engine is unclassified.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return fmt.Sprintf("%s: %s", e.Kind, e.Message) }

func InvalidInput(msg string) *Error { return &Error{Kind: KindInvalidInput, Message: msg} }
func InvalidDates(msg string) *Error { return &Error{Kind: KindInvalidDates, Message: msg} }
func NotFound(msg string) *Error     { return &Error{Kind: KindNotFound, Message: msg} }

// KindOf returns the Kind of err, or "" when err is not a *Error.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}
