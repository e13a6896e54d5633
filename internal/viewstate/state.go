// Package viewstate models what a screen shows while data is loading,
// loaded or failed, as a value updated by a pure reducer.
package viewstate

import (
	"errors"

	"github.com/labs/fleamarket/internal/apperrors"
)

type Status int

const (
	Idle Status = iota
	Loading
	Success
	Error
)

func (s Status) String() string {
	switch s {
	case Loading:
		return "loading"
	case Success:
		return "success"
	case Error:
		return "error"
	default:
		return "idle"
	}
}

// Source tells whether loaded data came from the server or the device cache.
type Source string

const (
	FromRemote Source = "remote"
	FromCache  Source = "cache"
)

// State holds the last loaded data even while reloading or after a failure,
// so a screen can keep showing it.
type State[T any] struct {
	Status  Status
	Data    T
	HasData bool
	Source  Source
	Err     error
	Message string
}

// Event is one of Started, Loaded or Failed.
type Event[T any] interface {
	event(T)
}

type Started[T any] struct{}

type Loaded[T any] struct {
	Data   T
	Source Source
}

type Failed[T any] struct {
	Err error
}

func (Started[T]) event(T) {}
func (Loaded[T]) event(T)  {}
func (Failed[T]) event(T)  {}

// Reduce returns the state after e. It never mutates s.
func Reduce[T any](s State[T], e Event[T]) State[T] {
	switch e := e.(type) {
	case Started[T]:
		s.Status = Loading
		s.Err = nil
		s.Message = ""
	case Loaded[T]:
		s.Status = Success
		s.Data = e.Data
		s.HasData = true
		s.Source = e.Source
		s.Err = nil
		s.Message = ""
		if e.Source == FromCache {
			s.Message = "Showing saved results. You appear to be offline."
		}
	case Failed[T]:
		s.Status = Error
		s.Err = e.Err
		s.Message = Message(e.Err)
	}
	return s
}

// Message is the text a user sees for err.
func Message(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, apperrors.ErrTransient):
		return "Could not reach the marketplace. Check your connection and try again."
	case errors.Is(err, apperrors.ErrInvalidBid):
		return "Your bid must be higher than the current bid."
	case errors.Is(err, apperrors.ErrNotFound),
		errors.Is(err, apperrors.ErrInvalidState),
		errors.Is(err, apperrors.ErrUnauthorized),
		errors.Is(err, apperrors.ErrValidation):
		return apperrors.Message(err)
	default:
		return "Something went wrong."
	}
}
