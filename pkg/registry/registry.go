package registry

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/majbot/pkg/domain"
)

// HandlerFunc produces a reply for a matched dispatch rule.
// It receives the rule's static argument and the text captured from the utterance.
type HandlerFunc func(ctx context.Context, arg, captured string) (string, error)

// Registry maps handler names to their implementations.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]HandlerFunc
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[string]HandlerFunc),
	}
}

// Register adds a handler to the registry.
// If a handler with the same name exists, it is overwritten.
func (r *Registry) Register(name string, fn HandlerFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[name] = fn
}

// Has reports whether a handler is registered under name.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.handlers[name]
	return ok
}

// Names returns the registered handler names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Execute looks up a handler by name and runs it.
// Returns an error wrapping domain.ErrUnknownHandler if the handler is not found.
func (r *Registry) Execute(ctx context.Context, name, arg, captured string) (string, error) {
	r.mu.RLock()
	fn, ok := r.handlers[name]
	r.mu.RUnlock()

	if !ok {
		return "", fmt.Errorf("%w: %s", domain.ErrUnknownHandler, name)
	}

	return fn(ctx, arg, captured)
}
