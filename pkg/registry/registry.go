// Package registry holds the ordered set of window handlers.
//
// Handlers are evaluated in registration order and the first whose matcher
// accepts a window wins. The registry is append-only and becomes read-only once
// sealed, which the dispatcher does before handling its first event, so the
// order seen by dispatch never changes for the lifetime of the process.
package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aretw0/warden/pkg/domain"
	"github.com/aretw0/warden/pkg/ports"
)

var (
	// ErrSealed is returned when registering after dispatch has started.
	ErrSealed = errors.New("registry sealed")

	// ErrDuplicateHandler is returned when a handler name is already registered.
	ErrDuplicateHandler = errors.New("duplicate handler")
)

// Env is what an action may touch while it runs.
type Env struct {
	Surface ports.Surface
	Session ports.Lifecycle
	Logger  *slog.Logger

	// Background hands long-running work to the worker pool so the dispatch
	// loop is not held up.
	Background func(name string, fn func(context.Context) error)
}

// Action reacts to a recognized window. It runs on the dispatch goroutine.
type Action func(ctx context.Context, env *Env, w domain.WindowSnapshot) error

// Handler pairs a recognition rule with its reaction.
type Handler struct {
	Name   string
	Match  Matcher
	Action Action
}

// Registry manages the ordered handler list.
type Registry struct {
	mu       sync.RWMutex
	handlers []Handler
	names    map[string]struct{}
	sealed   bool
}

// New creates a new empty registry.
func New() *Registry {
	return &Registry{
		names: make(map[string]struct{}),
	}
}

// Register appends handlers in order.
func (r *Registry) Register(handlers ...Handler) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed {
		return ErrSealed
	}
	for _, h := range handlers {
		if h.Name == "" || h.Action == nil {
			return fmt.Errorf("handler %q: name and action are required", h.Name)
		}
		if _, ok := r.names[h.Name]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateHandler, h.Name)
		}
		r.names[h.Name] = struct{}{}
		r.handlers = append(r.handlers, h)
	}
	return nil
}

// Seal makes the registry read-only. Sealing twice is harmless.
func (r *Registry) Seal() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sealed = true
}

// Sealed reports whether Seal was called.
func (r *Registry) Sealed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sealed
}

// Match returns the first handler whose matcher accepts w.
func (r *Registry) Match(w domain.WindowSnapshot) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, h := range r.handlers {
		if h.Match.Matches(w) {
			return h, true
		}
	}
	return Handler{}, false
}

// Handlers returns a copy of the handlers in evaluation order.
func (r *Registry) Handlers() []Handler {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Handler(nil), r.handlers...)
}

// Names returns handler names in evaluation order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.handlers))
	for i, h := range r.handlers {
		names[i] = h.Name
	}
	return names
}

// Len returns the number of registered handlers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handlers)
}
