package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventStateEnter EventType = "state_enter"
	EventCapture    EventType = "capture"
	EventLearn      EventType = "learn"
	EventDispatch   EventType = "dispatch"
	EventInvalid    EventType = "invalid"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
}

// StateEvent is emitted when the engine moves to a state.
type StateEvent struct {
	EventBase
	StateID  string `json:"state_id"`
	Terminal bool   `json:"terminal"`
}

// CaptureEvent is emitted when a rule stores a value in the session dictionary.
type CaptureEvent struct {
	EventBase
	StateID  string `json:"state_id"`
	Variable string `json:"variable"`
	Value    string `json:"value"`
}

// LearnEvent is emitted when a new state and rule are synthesized.
type LearnEvent struct {
	EventBase
	Subject    string `json:"subject"`
	NewStateID string `json:"new_state_id"`
}

// DispatchEvent is emitted after a response handler returns.
type DispatchEvent struct {
	EventBase
	StateID  string        `json:"state_id"`
	Handler  string        `json:"handler"`
	Arg      string        `json:"arg,omitempty"`
	Captured string        `json:"captured,omitempty"`
	Duration time.Duration `json:"duration"`
	IsError  bool          `json:"is_error,omitempty"`
}

// InvalidEvent is emitted when no rule matched the utterance.
type InvalidEvent struct {
	EventBase
	StateID string `json:"state_id"`
	Input   string `json:"input"`
}

// LifecycleHooks defines callbacks for engine observability.
// Nil callbacks are skipped.
type LifecycleHooks struct {
	OnStateEnter func(context.Context, *StateEvent)
	OnCapture    func(context.Context, *CaptureEvent)
	OnLearn      func(context.Context, *LearnEvent)
	OnDispatch   func(context.Context, *DispatchEvent)
	OnInvalid    func(context.Context, *InvalidEvent)
}

// Merge returns hooks that call h first and then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnStateEnter: chain(h.OnStateEnter, other.OnStateEnter),
		OnCapture:    chain(h.OnCapture, other.OnCapture),
		OnLearn:      chain(h.OnLearn, other.OnLearn),
		OnDispatch:   chain(h.OnDispatch, other.OnDispatch),
		OnInvalid:    chain(h.OnInvalid, other.OnInvalid),
	}
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
