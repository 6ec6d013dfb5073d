package runtime_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/majbot/internal/runtime"
	"github.com/aretw0/majbot/pkg/domain"
	"github.com/aretw0/majbot/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	events []domain.EventType
	enters []string
	learns []string
	calls  []*domain.DispatchEvent
}

func (r *recorder) hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStateEnter: func(_ context.Context, e *domain.StateEvent) {
			r.events = append(r.events, e.Type)
			r.enters = append(r.enters, e.StateID)
		},
		OnCapture: func(_ context.Context, e *domain.CaptureEvent) {
			r.events = append(r.events, e.Type)
		},
		OnLearn: func(_ context.Context, e *domain.LearnEvent) {
			r.events = append(r.events, e.Type)
			r.learns = append(r.learns, e.NewStateID)
		},
		OnDispatch: func(_ context.Context, e *domain.DispatchEvent) {
			r.events = append(r.events, e.Type)
			r.calls = append(r.calls, e)
		},
		OnInvalid: func(_ context.Context, e *domain.InvalidEvent) {
			r.events = append(r.events, e.Type)
		},
	}
}

func TestEngine_LifecycleHooks(t *testing.T) {
	rules := []domain.Keyword{
		rememberRule(),
		{Pattern: "forecast", Action: domain.Dispatch{Handler: "Weather", Arg: "today"}},
	}
	reg, _ := recordingRegistry("Weather", "Clear")
	rec := &recorder{}
	engine := runtime.NewEngine("0", greetingSource(t, rules...), reg, runtime.WithLifecycleHooks(rec.hooks()))

	send(t, engine, "I am Zoe")
	send(t, engine, "remember likes maps")
	send(t, engine, "forecast")
	send(t, engine, "xyzzy")

	assert.Equal(t, []domain.EventType{
		domain.EventCapture, domain.EventStateEnter,
		domain.EventLearn, domain.EventStateEnter,
		domain.EventDispatch,
		domain.EventInvalid,
	}, rec.events)
	assert.Equal(t, []string{"1", "1"}, rec.enters)
	assert.Equal(t, []string{"2"}, rec.learns)
	require.Len(t, rec.calls, 1)
	assert.Equal(t, "Weather", rec.calls[0].Handler)
	assert.False(t, rec.calls[0].IsError)
}

func TestLifecycleHooks_Merge(t *testing.T) {
	var order []string
	a := domain.LifecycleHooks{OnInvalid: func(context.Context, *domain.InvalidEvent) { order = append(order, "a") }}
	b := domain.LifecycleHooks{OnInvalid: func(context.Context, *domain.InvalidEvent) { order = append(order, "b") }}

	engine := runtime.NewEngine("1", greetingSource(t), nil, runtime.WithLifecycleHooks(a.Merge(b)))
	send(t, engine, "nothing here")
	assert.Equal(t, []string{"a", "b"}, order)
}

func TestEngine_Failures(t *testing.T) {
	t.Run("Unknown Target Keeps Level", func(t *testing.T) {
		rule := domain.Keyword{Pattern: `go (\w+)`, Variable: "where", Action: domain.Transition{Target: "missing"}}
		engine := runtime.NewEngine("1", greetingSource(t, rule), nil)

		_, err := engine.Send(context.Background(), "go north")
		assert.ErrorIs(t, err, domain.ErrUnknownState)
		var unknown *domain.UnknownStateError
		require.ErrorAs(t, err, &unknown)
		assert.Equal(t, "missing", unknown.ID)
		assert.Equal(t, "1", engine.Level())
		assert.Equal(t, "north", engine.Dictionary()["where"], "capture survives the failed turn")
	})

	t.Run("Unknown Handler", func(t *testing.T) {
		rule := domain.Keyword{Pattern: "forecast", Action: domain.Dispatch{Handler: "Nope"}}
		engine := runtime.NewEngine("1", greetingSource(t, rule), registry.NewRegistry())

		_, err := engine.Send(context.Background(), "forecast")
		assert.ErrorIs(t, err, domain.ErrUnknownHandler)
		assert.Equal(t, "1", engine.Level())
	})

	t.Run("Nil Dispatcher", func(t *testing.T) {
		rule := domain.Keyword{Pattern: "forecast", Action: domain.Dispatch{Handler: "Weather"}}
		engine := runtime.NewEngine("1", greetingSource(t, rule), nil)

		_, err := engine.Send(context.Background(), "forecast")
		assert.ErrorIs(t, err, domain.ErrUnknownHandler)
	})

	t.Run("Handler Error", func(t *testing.T) {
		boom := errors.New("upstream down")
		reg := registry.NewRegistry()
		reg.Register("Weather", func(context.Context, string, string) (string, error) { return "", boom })

		rec := &recorder{}
		rule := domain.Keyword{Pattern: "forecast", Action: domain.Dispatch{Handler: "Weather"}}
		engine := runtime.NewEngine("1", greetingSource(t, rule), reg, runtime.WithLifecycleHooks(rec.hooks()))

		_, err := engine.Send(context.Background(), "forecast")
		assert.ErrorIs(t, err, boom)
		var herr *domain.HandlerError
		require.ErrorAs(t, err, &herr)
		assert.Equal(t, "Weather", herr.Handler)
		require.Len(t, rec.calls, 1)
		assert.True(t, rec.calls[0].IsError)
	})

	t.Run("Unknown Level", func(t *testing.T) {
		engine := runtime.NewEngine("404", greetingSource(t), nil)
		_, err := engine.Send(context.Background(), "hi")
		assert.ErrorIs(t, err, domain.ErrUnknownState)
		_, err = engine.Message()
		assert.ErrorIs(t, err, domain.ErrUnknownState)
	})
}
