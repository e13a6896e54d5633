// Package apperrors defines the failure taxonomy shared by the server and the client.
package apperrors

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidState = errors.New("invalid state")
	ErrInvalidBid   = errors.New("invalid bid")
	ErrUnauthorized = errors.New("unauthorized")
	ErrValidation   = errors.New("validation failed")
	ErrTransient    = errors.New("transient failure")
)

// Wire codes carried in the response envelope.
const (
	CodeNotFound     = "NOT_FOUND"
	CodeInvalidState = "INVALID_STATE"
	CodeInvalidBid   = "INVALID_BID"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeValidation   = "VALIDATION"
	CodeTransient    = "TRANSIENT"
	CodeInternal     = "INTERNAL"
)

// Error is a classified failure with a human readable message.
type Error struct {
	Kind    error
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Is(target error) bool {
	return e.Kind == target
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// NotFound reports a missing resource, e.g. NotFound("item").
func NotFound(what string) error {
	return &Error{Kind: ErrNotFound, Message: what + " not found"}
}

func InvalidState(msg string) error {
	return &Error{Kind: ErrInvalidState, Message: msg}
}

func InvalidBid(msg string) error {
	return &Error{Kind: ErrInvalidBid, Message: msg}
}

func Unauthorized(msg string) error {
	return &Error{Kind: ErrUnauthorized, Message: msg}
}

func Validation(msg string) error {
	return &Error{Kind: ErrValidation, Message: msg}
}

// Transient wraps a storage or network failure that may succeed on retry.
func Transient(err error) error {
	return &Error{Kind: ErrTransient, Message: "temporarily unavailable", Cause: err}
}

// Message returns the user facing message of a classified error, or the
// error text otherwise.
func Message(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}

// Code maps an error to its wire code.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return CodeNotFound
	case errors.Is(err, ErrInvalidState):
		return CodeInvalidState
	case errors.Is(err, ErrInvalidBid):
		return CodeInvalidBid
	case errors.Is(err, ErrUnauthorized):
		return CodeUnauthorized
	case errors.Is(err, ErrValidation):
		return CodeValidation
	case errors.Is(err, ErrTransient):
		return CodeTransient
	default:
		return CodeInternal
	}
}

// FromCode rebuilds a classified error from a wire code and message.
func FromCode(code, message string) error {
	var kind error
	switch code {
	case CodeNotFound:
		kind = ErrNotFound
	case CodeInvalidState:
		kind = ErrInvalidState
	case CodeInvalidBid:
		kind = ErrInvalidBid
	case CodeUnauthorized:
		kind = ErrUnauthorized
	case CodeValidation:
		kind = ErrValidation
	case CodeTransient:
		kind = ErrTransient
	default:
		return errors.New(message)
	}
	return &Error{Kind: kind, Message: message}
}

// IsDomain reports whether err is a rejection the server made on purpose.
// Domain rejections are final and never retried.
func IsDomain(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrInvalidState) ||
		errors.Is(err, ErrInvalidBid) ||
		errors.Is(err, ErrUnauthorized) ||
		errors.Is(err, ErrValidation)
}
