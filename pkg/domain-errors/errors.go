// Package domainerrors provides coded errors for the custody domain.
//
// Every failure surfaced to a caller carries one of the symbolic codes
// below. Codes are stable API: transports map them to wire statuses and
// tests assert on them, never on message text.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code identifies a class of domain failure.
type Code string

const (
	// Custody protocol codes.
	CodeAlreadyExists         Code = "already_exists"
	CodeNotFound              Code = "not_found"
	CodeInsufficientBalance   Code = "insufficient_balance"
	CodeNotOwner              Code = "not_owner"
	CodeInvalidAuthorization  Code = "invalid_authorization"
	CodeClawbackDisabled      Code = "clawback_disabled"
	CodeNotManagedTreasury    Code = "not_managed_treasury"
	CodeCannotClawbackManaged Code = "cannot_clawback_managed"
	CodeSupplyMustBeZero      Code = "supply_must_be_zero"

	// Ambient codes.
	CodeInvalidInput       Code = "invalid_input"
	CodeInvariantViolation Code = "invariant_violation"
	CodeTimeout            Code = "timeout"
	CodeInternal           Code = "internal"
)

// Error pairs a code with a human-readable message and an optional cause.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New returns a coded error with the given message.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf returns a coded error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error. The cause stays
// reachable through errors.Is/As.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, Err: err}
}

// HasCode reports whether any error in the chain carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	for errors.As(err, &de) {
		if de.Code == code {
			return true
		}
		err = de.Err
		if err == nil {
			return false
		}
	}
	return false
}

// CodeOf returns the outermost code in the chain, or CodeInternal when the
// error carries none.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}
