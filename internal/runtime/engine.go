package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/aretw0/majbot/internal/logging"
	"github.com/aretw0/majbot/pkg/domain"
	"github.com/aretw0/majbot/pkg/ports"
)

// Dispatcher runs named response handlers. *registry.Registry satisfies it.
type Dispatcher interface {
	Execute(ctx context.Context, name, arg, captured string) (string, error)
}

// Engine is the conversation state machine of a single session.
// It is not safe for concurrent use; hosts serialize turns per session.
type Engine struct {
	source   ports.StateSource
	handlers Dispatcher
	matcher  Matcher

	level string
	dict  map[string]string

	hooks  domain.LifecycleHooks
	logger *slog.Logger
}

// EngineOption configures the Engine.
type EngineOption func(*Engine)

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithDictionary seeds the session dictionary, e.g. when resuming a stored session.
func WithDictionary(dict map[string]string) EngineOption {
	return func(e *Engine) {
		for k, v := range dict {
			e.dict[k] = v
		}
	}
}

// NewEngine creates an engine positioned at level (EntryStateID when empty).
// A nil handlers value makes every dispatch rule fail with domain.ErrUnknownHandler.
func NewEngine(level string, source ports.StateSource, handlers Dispatcher, opts ...EngineOption) *Engine {
	if level == "" {
		level = domain.EntryStateID
	}
	e := &Engine{
		source:   source,
		handlers: handlers,
		level:    level,
		dict:     make(map[string]string),
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.matcher = Matcher{Logger: e.logger}
	return e
}

// Level returns the id of the current state.
func (e *Engine) Level() string {
	return e.level
}

// Source returns the state source the engine walks.
func (e *Engine) Source() ports.StateSource {
	return e.source
}

// Dictionary returns a copy of the captured session variables.
func (e *Engine) Dictionary() map[string]string {
	out := make(map[string]string, len(e.dict))
	for k, v := range e.dict {
		out[k] = v
	}
	return out
}

// Snapshot captures the current level and dictionary under the given session id.
func (e *Engine) Snapshot(sessionID string) *domain.Session {
	return &domain.Session{
		ID:         sessionID,
		Level:      e.level,
		Dictionary: e.Dictionary(),
		UpdatedAt:  time.Now(),
	}
}

// Restore positions the engine at a stored snapshot.
// The level must resolve in the engine's source.
func (e *Engine) Restore(sess *domain.Session) error {
	if _, err := e.source.State(sess.Level); err != nil {
		return fmt.Errorf("restore session %s: %w", sess.ID, err)
	}
	e.level = sess.Level
	e.dict = make(map[string]string, len(sess.Dictionary))
	for k, v := range sess.Dictionary {
		e.dict[k] = v
	}
	return nil
}

// Message renders the prompt of the current state with captured variables substituted
// and unresolved placeholders removed.
func (e *Engine) Message() (string, error) {
	st, err := e.source.State(e.level)
	if err != nil {
		return "", err
	}
	return e.render(st), nil
}

// Send processes one user utterance and returns the reply.
//
// When the current state is terminal its reply has already been delivered, so the engine
// first resets to the top-level state and interprets text against that menu.
// Successful transitions reply with the successor's prompt; reaching a terminal state
// additionally resets the level to TopStateID. Dispatch rules reply with the handler
// output and reset to TopStateID. When no rule matches, the reply is one of the source's
// invalid answers and the level is kept.
//
// Captured variables and learned states are applied as soon as a rule wins, so they
// survive a turn that later fails (for instance on an unknown target).
func (e *Engine) Send(ctx context.Context, text string) (string, error) {
	st, err := e.source.State(e.level)
	if err != nil {
		return "", err
	}

	if st.IsTerminal() {
		e.level = domain.TopStateID
		if st, err = e.source.State(e.level); err != nil {
			return "", err
		}
	}

	m, ok := e.matcher.Select(text, st.Keywords)
	if !ok {
		e.emitInvalid(ctx, st.ID, text)
		return e.source.InvalidAnswer(), nil
	}

	e.logger.Debug("rule selected", "state_id", st.ID, "pattern", m.Keyword.Pattern, "score", m.Score)
	e.apply(ctx, st.ID, m)

	if d, ok := m.Keyword.Action.(domain.Dispatch); ok {
		return e.dispatch(ctx, st.ID, d, m.Captured)
	}
	return e.transition(ctx, m.Keyword.Target())
}

func (e *Engine) dispatch(ctx context.Context, stateID string, d domain.Dispatch, captured string) (string, error) {
	if e.handlers == nil {
		return "", &domain.HandlerError{Handler: d.Handler, Err: fmt.Errorf("%w: %s", domain.ErrUnknownHandler, d.Handler)}
	}

	started := time.Now()
	reply, err := e.handlers.Execute(ctx, d.Handler, d.Arg, captured)
	e.emitDispatch(ctx, stateID, d, captured, time.Since(started), err != nil)
	if err != nil {
		e.logger.Warn("handler failed", "handler", d.Handler, "state_id", stateID, "err", err)
		return "", &domain.HandlerError{Handler: d.Handler, Err: err}
	}

	e.level = domain.TopStateID
	return reply, nil
}

func (e *Engine) transition(ctx context.Context, target string) (string, error) {
	next, err := e.source.State(target)
	if err != nil {
		return "", err
	}

	e.level = next.ID
	e.emitStateEnter(ctx, next)

	reply := e.render(next)
	if next.IsTerminal() {
		e.level = domain.TopStateID
	}
	return reply, nil
}

// substitute replaces [name] placeholders with dictionary values, in key order.
func (e *Engine) substitute(text string) string {
	keys := make([]string, 0, len(e.dict))
	for k := range e.dict {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		text = replaceAll(text, "["+k+"]", e.dict[k])
	}
	return text
}
