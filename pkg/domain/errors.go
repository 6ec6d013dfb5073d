package domain

import (
	"errors"
	"fmt"
)

// ErrUnknownState is returned when a state id is absent from the source.
var ErrUnknownState = errors.New("unknown state")

// ErrUnknownHandler is returned when a rule references an unregistered response handler.
var ErrUnknownHandler = errors.New("unknown handler")

// ErrMalformedPattern is returned when a rule pattern cannot be compiled.
var ErrMalformedPattern = errors.New("malformed pattern")

// ErrNoInvalidAnswers is returned when a source is built without any invalid-answer replies.
var ErrNoInvalidAnswers = errors.New("no invalid answers configured")

// ErrMissingState is returned when a definition lacks the entry or top-level state.
var ErrMissingState = errors.New("required state missing")

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// UnknownStateError reports the state id that could not be resolved.
type UnknownStateError struct {
	ID string
}

func (e *UnknownStateError) Error() string {
	return fmt.Sprintf("unknown state %q", e.ID)
}

func (e *UnknownStateError) Unwrap() error {
	return ErrUnknownState
}

// HandlerError wraps a failure raised while dispatching to a response handler.
type HandlerError struct {
	Handler string
	Err     error
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("handler %q: %v", e.Handler, e.Err)
}

func (e *HandlerError) Unwrap() error {
	return e.Err
}
