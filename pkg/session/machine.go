package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/warden/internal/logging"
	"github.com/aretw0/warden/pkg/domain"
	"github.com/aretw0/warden/pkg/ports"
	"github.com/jonboulle/clockwork"
)

// DefaultLockTTL bounds how long a crashed holder can block a transition elsewhere.
const DefaultLockTTL = 30 * time.Second

const exitRetryInterval = time.Second

// Machine orchestrates the host session.
type Machine struct {
	mode domain.Mode
	host ports.HostProcess

	mu      sync.Mutex
	state   domain.SessionState
	outcome domain.ExitCode
	done    chan struct{}

	locker   ports.DistributedLocker // Optional distributed locker
	lockTTL  time.Duration
	store    ports.StatusStore // Optional status publication
	instance string
	hooks    domain.LifecycleHooks
	clock    clockwork.Clock
	logger   *slog.Logger
}

// Option configures the Machine.
type Option func(*Machine)

// WithLocker enables distributed locking around transitions.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Machine) {
		m.locker = locker
	}
}

// WithLockTTL overrides DefaultLockTTL.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Machine) {
		m.lockTTL = ttl
	}
}

// WithStatusStore publishes every transition to store.
func WithStatusStore(store ports.StatusStore) Option {
	return func(m *Machine) {
		m.store = store
	}
}

// WithInstance names this controller in locks and the status store.
func WithInstance(name string) Option {
	return func(m *Machine) {
		m.instance = name
	}
}

// WithLifecycleHooks registers observability hooks. Hooks run while the
// transition lock is held and must not call back into the Machine.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(m *Machine) {
		m.hooks = hooks
	}
}

// WithClock sets the clock used to stamp transitions.
func WithClock(c clockwork.Clock) Option {
	return func(m *Machine) {
		m.clock = c
	}
}

// WithLogger configures a logger for the Machine.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Machine) {
		m.logger = logger
	}
}

// NewMachine creates a machine in the Starting phase. The mode is fixed for
// the lifetime of the machine.
func NewMachine(mode domain.Mode, host ports.HostProcess, opts ...Option) *Machine {
	m := &Machine{
		mode:     mode,
		host:     host,
		done:     make(chan struct{}),
		lockTTL:  DefaultLockTTL,
		instance: "default",
		clock:    clockwork.NewRealClock(),
		logger:   logging.NewNop(), // Default to no-op
	}
	for _, opt := range opts {
		opt(m)
	}
	m.state = domain.SessionState{Phase: domain.PhaseStarting, Mode: mode, Since: m.clock.Now()}
	return m
}

// Mode implements ports.Lifecycle.
func (m *Machine) Mode() domain.Mode {
	return m.mode
}

// Phase implements ports.Lifecycle.
func (m *Machine) Phase() domain.Phase {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Phase
}

// State returns a copy of the current state.
func (m *Machine) State() domain.SessionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshot()
}

// Done is closed when the machine reaches Stopped.
func (m *Machine) Done() <-chan struct{} {
	return m.done
}

// Outcome is the exit code implied by how the session ended.
// It is meaningful once Done is closed.
func (m *Machine) Outcome() domain.ExitCode {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.outcome
}

// Wait blocks until the machine stops or ctx ends.
func (m *Machine) Wait(ctx context.Context) (domain.ExitCode, error) {
	select {
	case <-m.done:
		return m.Outcome(), nil
	case <-ctx.Done():
		return domain.ExitUnexpected, ctx.Err()
	}
}

// SkipUnderFIX implements ports.Lifecycle.
func (m *Machine) SkipUnderFIX(name string) bool {
	if m.mode != domain.ModeFIX {
		return false
	}
	m.logger.Info("Setting ignored for FIX", "setting", name)
	return true
}

// Launch starts the host and moves Starting -> LoggingIn. A host that fails to
// start ends the session with ExitEntryPointNotFound.
func (m *Machine) Launch(ctx context.Context) error {
	return m.withLock(ctx, true, func(ctx context.Context) error {
		if m.state.Phase != domain.PhaseStarting {
			return fmt.Errorf("%w: launch from %s", domain.ErrInvalidTransition, m.state.Phase)
		}

		err := m.host.Launch(ctx)
		switch {
		case errors.Is(err, domain.ErrShutdownInProgress):
			// The host was already closing while it initialized.
			m.logger.Info("Host reported shutdown in progress during startup, exiting")
			m.outcome = domain.ExitOK
			m.transition(ctx, domain.PhaseStopped, &domain.StopRequest{
				Kind: domain.StopShutdown, Source: "host", Reason: "shutdown in progress", At: m.clock.Now(),
			})
			return nil
		case err != nil:
			m.outcome = domain.ExitEntryPointNotFound
			m.transition(ctx, domain.PhaseStopped, &domain.StopRequest{
				Kind: domain.StopShutdown, Source: "launch", Reason: err.Error(), At: m.clock.Now(),
			})
			return domain.Fatal(domain.ExitEntryPointNotFound, fmt.Errorf("launch host: %w", err))
		}

		m.transition(ctx, domain.PhaseLoggingIn, nil)
		go m.watch()
		return nil
	})
}

// Authenticated implements ports.Lifecycle: LoggingIn -> Running.
// Repeated notifications are no-ops.
func (m *Machine) Authenticated(ctx context.Context) error {
	return m.withLock(ctx, true, func(ctx context.Context) error {
		switch m.state.Phase {
		case domain.PhaseLoggingIn:
			m.state.Authenticated = true
			m.transition(ctx, domain.PhaseRunning, nil)
			return nil
		case domain.PhaseRunning:
			return nil
		case domain.PhaseShuttingDown, domain.PhaseStopped:
			m.logger.Debug("Login completed while stopping, ignoring")
			return nil
		}
		return fmt.Errorf("%w: authenticated from %s", domain.ErrInvalidTransition, m.state.Phase)
	})
}

// RequestStop implements ports.Lifecycle. The first request wins; later ones
// are accepted without effect.
func (m *Machine) RequestStop(ctx context.Context, req domain.StopRequest) error {
	if req.Kind == "" {
		req.Kind = domain.StopShutdown
	}
	if req.At.IsZero() {
		req.At = m.clock.Now()
	}

	return m.withLock(ctx, false, func(ctx context.Context) error {
		if m.state.Phase.Stopping() {
			m.logger.Info("Already stopping, ignoring request",
				"source", req.Source,
				"kind", req.Kind,
				"phase", m.state.Phase,
			)
			return nil
		}

		m.outcome = outcomeFor(req.Kind)
		if m.state.Phase == domain.PhaseStarting {
			// Nothing to stop yet.
			m.transition(ctx, domain.PhaseShuttingDown, &req)
			m.transition(ctx, domain.PhaseStopped, nil)
			return nil
		}

		m.transition(ctx, domain.PhaseShuttingDown, &req)
		err := m.host.RequestStop(ctx, req.Kind)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, domain.ErrShutdownInProgress), errors.Is(err, domain.ErrHostNotRunning):
			m.logger.Debug("Host already going down", "err", err)
			return nil
		}
		m.logger.Error("Host stop request failed", "kind", req.Kind, "err", err)
		return fmt.Errorf("request host stop: %w", err)
	})
}

// HostExited records the end of the host process. An exit the machine did not
// ask for passes through ShuttingDown with reason "host exited".
func (m *Machine) HostExited(ctx context.Context) error {
	return m.withLock(ctx, false, func(ctx context.Context) error {
		switch m.state.Phase {
		case domain.PhaseStopped:
			return nil
		case domain.PhaseShuttingDown:
			m.transition(ctx, domain.PhaseStopped, nil)
			return nil
		}

		m.logger.Warn("Host exited unexpectedly", "phase", m.state.Phase)
		m.outcome = domain.ExitUnexpected
		m.transition(ctx, domain.PhaseShuttingDown, &domain.StopRequest{
			Kind: domain.StopShutdown, Source: "host", Reason: "host exited", At: m.clock.Now(),
		})
		m.transition(ctx, domain.PhaseStopped, nil)
		return nil
	})
}

func (m *Machine) watch() {
	select {
	case <-m.host.Exited():
	case <-m.done:
		return
	}
	for {
		err := m.HostExited(context.Background())
		if err == nil {
			return
		}
		m.logger.Error("Failed to record host exit, retrying", "err", err)
		select {
		case <-m.clock.After(exitRetryInterval):
		case <-m.done:
			return
		}
	}
}

// transition must be called with m.mu held.
func (m *Machine) transition(ctx context.Context, to domain.Phase, stop *domain.StopRequest) {
	from := m.state.Phase
	now := m.clock.Now()
	m.state.Phase = to
	m.state.Since = now
	if stop != nil {
		m.state.Stop = stop
	}

	m.logger.Info("Session transition", "from", from, "to", to)

	ev := domain.TransitionEvent{From: from, To: to, Stop: stop, Timestamp: now}
	if m.store != nil {
		if err := m.store.Save(ctx, m.instance, m.snapshot()); err != nil {
			m.logger.Warn("Failed to publish session state", "err", err)
		}
		if err := m.store.Record(ctx, m.instance, ev); err != nil {
			m.logger.Warn("Failed to record transition", "err", err)
		}
	}
	if m.hooks.OnTransition != nil {
		m.hooks.OnTransition(ctx, ev)
	}
	if to == domain.PhaseStopped {
		close(m.done)
	}
}

func (m *Machine) snapshot() domain.SessionState {
	s := m.state
	if s.Stop != nil {
		stop := *s.Stop
		s.Stop = &stop
	}
	return s
}

// withLock executes fn while holding the transition lock. When required is
// false a locker outage is logged and fn still runs under the local mutex, so
// stops and host exits always complete.
func (m *Machine) withLock(ctx context.Context, required bool, fn func(context.Context) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, "session:"+m.instance, m.lockTTL)
		if err != nil {
			if required {
				return fmt.Errorf("failed to acquire distributed lock: %w", err)
			}
			m.logger.Warn("Distributed lock unavailable, continuing with local lock",
				"instance", m.instance,
				"err", err,
			)
			return fn(ctx)
		}
		defer func() {
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"instance", m.instance,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}

func outcomeFor(kind domain.StopKind) domain.ExitCode {
	switch kind {
	case domain.StopRestart:
		return domain.ExitRestartRequested
	case domain.StopColdRestart:
		return domain.ExitColdRestart
	}
	return domain.ExitOK
}
