package runtime

import (
	"context"
	"time"

	"github.com/aretw0/majbot/pkg/domain"
)

func base(t domain.EventType) domain.EventBase {
	return domain.EventBase{Timestamp: time.Now(), Type: t}
}

func (e *Engine) emitStateEnter(ctx context.Context, st domain.State) {
	if e.hooks.OnStateEnter == nil {
		return
	}
	e.hooks.OnStateEnter(ctx, &domain.StateEvent{
		EventBase: base(domain.EventStateEnter),
		StateID:   st.ID,
		Terminal:  st.IsTerminal(),
	})
}

func (e *Engine) emitCapture(ctx context.Context, stateID, variable, value string) {
	if e.hooks.OnCapture == nil {
		return
	}
	e.hooks.OnCapture(ctx, &domain.CaptureEvent{
		EventBase: base(domain.EventCapture),
		StateID:   stateID,
		Variable:  variable,
		Value:     value,
	})
}

func (e *Engine) emitLearn(ctx context.Context, subject, newID string) {
	if e.hooks.OnLearn == nil {
		return
	}
	e.hooks.OnLearn(ctx, &domain.LearnEvent{
		EventBase:  base(domain.EventLearn),
		Subject:    subject,
		NewStateID: newID,
	})
}

func (e *Engine) emitDispatch(ctx context.Context, stateID string, d domain.Dispatch, captured string, took time.Duration, failed bool) {
	if e.hooks.OnDispatch == nil {
		return
	}
	e.hooks.OnDispatch(ctx, &domain.DispatchEvent{
		EventBase: base(domain.EventDispatch),
		StateID:   stateID,
		Handler:   d.Handler,
		Arg:       d.Arg,
		Captured:  captured,
		Duration:  took,
		IsError:   failed,
	})
}

func (e *Engine) emitInvalid(ctx context.Context, stateID, input string) {
	if e.hooks.OnInvalid == nil {
		return
	}
	e.hooks.OnInvalid(ctx, &domain.InvalidEvent{
		EventBase: base(domain.EventInvalid),
		StateID:   stateID,
		Input:     input,
	})
}
