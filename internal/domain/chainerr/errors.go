// internal/domain/chainerr/errors.go
package chainerr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure of a chain flow.
type Kind string

const (
	KindConfiguration       Kind = "configuration"
	KindAddressResolution   Kind = "address_resolution"
	KindAccountLookup       Kind = "account_lookup"
	KindSubmission          Kind = "submission"
	KindConfirmationTimeout Kind = "confirmation_timeout"
)

// Sentinels for errors.Is matching by kind.
var (
	ErrConfiguration       = errors.New("chainerr: configuration error")
	ErrAddressResolution   = errors.New("chainerr: address resolution error")
	ErrAccountLookup       = errors.New("chainerr: account lookup error")
	ErrSubmission          = errors.New("chainerr: submission error")
	ErrConfirmationTimeout = errors.New("chainerr: confirmation timeout")
)

var sentinels = map[Kind]error{
	KindConfiguration:       ErrConfiguration,
	KindAddressResolution:   ErrAddressResolution,
	KindAccountLookup:       ErrAccountLookup,
	KindSubmission:          ErrSubmission,
	KindConfirmationTimeout: ErrConfirmationTimeout,
}

// Error carries the kind, the failing operation and the underlying cause.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is reports whether target is the sentinel of e's kind.
func (e *Error) Is(target error) bool {
	if e == nil {
		return false
	}
	s, ok := sentinels[e.Kind]
	return ok && s == target
}

func newError(kind Kind, op string, err error) error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func Config(op string, err error) error     { return newError(KindConfiguration, op, err) }
func Address(op string, err error) error    { return newError(KindAddressResolution, op, err) }
func Lookup(op string, err error) error     { return newError(KindAccountLookup, op, err) }
func Submission(op string, err error) error { return newError(KindSubmission, op, err) }
func Timeout(op string, err error) error    { return newError(KindConfirmationTimeout, op, err) }

// KindOf returns the kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
