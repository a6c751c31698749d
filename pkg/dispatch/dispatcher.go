// Package dispatch routes host window events to the first matching handler.
//
// A single goroutine consumes the event stream, so handlers never run
// concurrently with each other. A handler failure is logged and the loop moves
// on to the next event.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/aretw0/warden/internal/logging"
	"github.com/aretw0/warden/pkg/domain"
	"github.com/aretw0/warden/pkg/ports"
	"github.com/aretw0/warden/pkg/registry"
	"github.com/jonboulle/clockwork"
)

// DefaultBudget is how long an action may hold the dispatch loop before it is
// reported as slow.
const DefaultBudget = 2 * time.Second

// Dispatcher evaluates the registry for every shown window.
type Dispatcher struct {
	registry *registry.Registry
	surface  ports.Surface
	env      registry.Env
	budget   time.Duration
	hooks    domain.LifecycleHooks
	clock    clockwork.Clock
	logger   *slog.Logger
}

// Option configures the Dispatcher.
type Option func(*Dispatcher)

// WithLogger configures a logger for the Dispatcher and the actions it runs.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// WithBudget overrides DefaultBudget.
func WithBudget(budget time.Duration) Option {
	return func(d *Dispatcher) {
		d.budget = budget
	}
}

// WithLifecycleHooks registers match and error hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(d *Dispatcher) {
		d.hooks = hooks
	}
}

// WithClock sets the clock used to time actions.
func WithClock(c clockwork.Clock) Option {
	return func(d *Dispatcher) {
		d.clock = c
	}
}

// WithSession exposes the session machine to actions.
func WithSession(s ports.Lifecycle) Option {
	return func(d *Dispatcher) {
		d.env.Session = s
	}
}

// WithBackground lets actions hand slow work to a worker pool.
func WithBackground(fn func(name string, job func(context.Context) error)) Option {
	return func(d *Dispatcher) {
		d.env.Background = fn
	}
}

// New creates a dispatcher over reg and surface.
func New(reg *registry.Registry, surface ports.Surface, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		registry: reg,
		surface:  surface,
		budget:   DefaultBudget,
		clock:    clockwork.NewRealClock(),
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.env.Surface = surface
	d.env.Logger = d.logger
	if d.env.Background == nil {
		d.env.Background = func(name string, job func(context.Context) error) {
			go func() {
				if err := job(context.Background()); err != nil {
					d.logger.Warn("Background job failed", "job", name, "err", err)
				}
			}()
		}
	}
	return d
}

// Run seals the registry and handles events until the channel closes or ctx ends.
func (d *Dispatcher) Run(ctx context.Context, events <-chan domain.WindowEvent) error {
	d.registry.Seal()
	d.logger.Debug("Dispatcher started", "handlers", d.registry.Len())

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				d.logger.Debug("Window event stream closed")
				return nil
			}
			if ev.Kind != domain.WindowShown {
				continue
			}
			d.Handle(ctx, ev)
		}
	}
}

// Handle dispatches a single shown event. It never returns an error: misses
// and failures are logged.
func (d *Dispatcher) Handle(ctx context.Context, ev domain.WindowEvent) {
	snap, err := d.surface.Inspect(ctx, ev.Handle)
	if err != nil {
		if errors.Is(err, domain.ErrWindowGone) {
			d.logger.Debug("Window closed before inspection", "window", ev.Handle, "title", ev.Title)
			return
		}
		d.logger.Warn("Failed to inspect window", "window", ev.Handle, "title", ev.Title, "err", err)
		return
	}

	h, ok := d.match(snap)
	if !ok {
		d.logger.Debug("No handler for window", "window", snap.Handle, "title", snap.Title)
		if d.hooks.OnMiss != nil {
			d.hooks.OnMiss(ctx, domain.DispatchEvent{Window: snap.Handle, Title: snap.Title})
		}
		return
	}

	d.logger.Info("Handling window", "handler", h.Name, "title", snap.Title)
	start := d.clock.Now()
	err = d.invoke(ctx, h, snap)
	elapsed := d.clock.Since(start)

	event := domain.DispatchEvent{Window: snap.Handle, Title: snap.Title, Handler: h.Name, Duration: elapsed, Err: err}
	if d.hooks.OnMatch != nil {
		d.hooks.OnMatch(ctx, event)
	}
	if elapsed > d.budget {
		d.logger.Warn("Handler exceeded dispatch budget", "handler", h.Name, "elapsed", elapsed, "budget", d.budget)
	}
	if err != nil {
		d.logger.Error("Handler failed", "handler", h.Name, "title", snap.Title, "err", err)
		if d.hooks.OnActionError != nil {
			d.hooks.OnActionError(ctx, event)
		}
	}
}

// match looks up the handler for snap. A panicking matcher counts as a miss.
func (d *Dispatcher) match(snap domain.WindowSnapshot) (h registry.Handler, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("Handler matcher panicked", "window", snap.Handle, "title", snap.Title, "panic", r)
			h, ok = registry.Handler{}, false
		}
	}()
	return d.registry.Match(snap)
}

func (d *Dispatcher) invoke(ctx context.Context, h registry.Handler, snap domain.WindowSnapshot) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked: %v", r)
			d.logger.Debug("Handler panic stack", "handler", h.Name, "stack", string(debug.Stack()))
		}
	}()
	env := d.env
	env.Logger = d.logger.With("handler", h.Name)
	return h.Action(ctx, &env, snap)
}
