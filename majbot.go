package majbot

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/aretw0/majbot/internal/compiler"
	"github.com/aretw0/majbot/internal/logging"
	"github.com/aretw0/majbot/internal/runtime"
	"github.com/aretw0/majbot/pkg/adapters/memory"
	"github.com/aretw0/majbot/pkg/domain"
	"github.com/aretw0/majbot/pkg/handlers/weather"
	"github.com/aretw0/majbot/pkg/ports"
	"github.com/aretw0/majbot/pkg/registry"
	"github.com/aretw0/majbot/pkg/session"
)

// Engine is the per-conversation state machine.
type Engine = runtime.Engine

// Bot is the high-level entry point of the library.
// It holds a validated definition and builds engines and session managers over it.
type Bot struct {
	Name string

	source     *memory.Source
	handlers   *registry.Registry
	forecaster weather.Forecaster
	hooks      domain.LifecycleHooks
	logger     *slog.Logger
	entry      string
}

// Option defines a functional option for configuring the Bot.
type Option func(*Bot)

// WithSource injects an already built definition, bypassing file loading.
func WithSource(src *memory.Source) Option {
	return func(b *Bot) {
		b.source = src
	}
}

// WithHandlers replaces the default handler registry.
func WithHandlers(reg *registry.Registry) Option {
	return func(b *Bot) {
		b.handlers = reg
	}
}

// WithForecaster sets the backend of the default weather handler.
func WithForecaster(f weather.Forecaster) Option {
	return func(b *Bot) {
		b.forecaster = f
	}
}

// WithLifecycleHooks registers observability hooks on every engine.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(b *Bot) {
		b.hooks = hooks
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bot) {
		b.logger = logger
	}
}

// WithEntryState configures the state new conversations start at (default: "0").
func WithEntryState(id string) Option {
	return func(b *Bot) {
		b.entry = id
	}
}

// New loads and validates the definition at path.
// If WithSource is provided, path is only used as the bot name.
func New(path string, opts ...Option) (*Bot, error) {
	b := &Bot{entry: domain.EntryStateID}
	for _, opt := range opts {
		opt(b)
	}

	if path != "" {
		b.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	if b.source == nil {
		if path == "" {
			return nil, fmt.Errorf("path is required when no source is provided")
		}
		src, err := compiler.Load(path)
		if err != nil {
			return nil, err
		}
		b.source = src
	}

	if b.logger == nil {
		b.logger = logging.NewNop()
	}
	if b.Name != "" {
		b.logger = b.logger.With("bot", b.Name)
	}

	if b.handlers == nil {
		b.handlers = DefaultHandlers(b.forecaster, b.logger)
	}

	if err := compiler.Validate(b.source.States(), b.handlers); err != nil {
		return nil, err
	}
	if _, err := b.source.State(b.entry); err != nil {
		return nil, fmt.Errorf("entry state: %w", err)
	}
	return b, nil
}

// DefaultHandlers returns a registry with the built-in response handlers.
// A nil forecaster selects weather.HTTPForecaster with its defaults.
func DefaultHandlers(f weather.Forecaster, logger *slog.Logger) *registry.Registry {
	if f == nil {
		f = weather.NewHTTPForecaster(weather.WithLogger(logger))
	}
	reg := registry.NewRegistry()
	reg.Register(weather.Name, weather.New(f).Handle)
	return reg
}

// NewEngine starts a conversation at the entry state over a private copy of the definition.
func (b *Bot) NewEngine(opts ...runtime.EngineOption) *Engine {
	base := []runtime.EngineOption{
		runtime.WithLifecycleHooks(b.hooks),
		runtime.WithLogger(b.logger),
	}
	return runtime.NewEngine(b.entry, b.source.Clone(), b.handlers, append(base, opts...)...)
}

// NewManager returns a session manager that builds its engines from this bot.
func (b *Bot) NewManager(store ports.SessionStore, opts ...session.Option) *session.Manager {
	opts = append([]session.Option{session.WithLogger(b.logger)}, opts...)
	return session.NewManager(store, b.Factory(), opts...)
}

// Factory adapts NewEngine to session.Factory.
func (b *Bot) Factory() session.Factory {
	return func() *runtime.Engine {
		return b.NewEngine()
	}
}

// States returns the definition's states, for inspection and export.
func (b *Bot) States() []domain.State {
	return b.source.States()
}

// Source returns the definition the bot was built from. Engines work on copies of it.
func (b *Bot) Source() *memory.Source {
	return b.source
}

// Handlers returns the registry used for dispatch rules.
func (b *Bot) Handlers() *registry.Registry {
	return b.handlers
}
