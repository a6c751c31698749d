package configtask

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aretw0/warden/internal/logging"
	"github.com/aretw0/warden/pkg/automation"
	"github.com/aretw0/warden/pkg/domain"
	"github.com/aretw0/warden/pkg/ports"
	"github.com/aretw0/warden/pkg/workers"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// Runner executes configuration tasks on a worker pool.
type Runner struct {
	surface ports.Surface
	pool    workers.Submitter
	session ports.Lifecycle
	clock   clockwork.Clock
	logger  *slog.Logger

	onResult func(Result)

	// dialog serializes mutations; every task edits the same configuration window.
	dialog sync.Mutex
}

// Option configures the Runner.
type Option func(*Runner)

// WithSession enables FIX-mode skipping of API-only tasks.
func WithSession(s ports.Lifecycle) Option {
	return func(r *Runner) {
		r.session = s
	}
}

// WithClock sets the clock that paces retries.
func WithClock(c clockwork.Clock) Option {
	return func(r *Runner) {
		r.clock = c
	}
}

// WithLogger configures a logger for the Runner.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithOnResult registers a callback invoked once per finished task.
func WithOnResult(fn func(Result)) Option {
	return func(r *Runner) {
		r.onResult = fn
	}
}

// NewRunner creates a runner acting on surface.
func NewRunner(surface ports.Surface, pool workers.Submitter, opts ...Option) *Runner {
	r := &Runner{
		surface: surface,
		pool:    pool,
		clock:   clockwork.NewRealClock(),
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type attempt struct {
	task   Task
	handle *Handle
	n      int
	opened bool
}

// Submit schedules t and returns immediately.
func (r *Runner) Submit(ctx context.Context, t Task) *Handle {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Policy.Attempts <= 0 {
		t.Policy.Attempts = DefaultPolicy.Attempts
	}
	if t.Policy.Interval <= 0 {
		t.Policy.Interval = DefaultPolicy.Interval
	}
	h := newHandle(t.ID)

	if t.APIOnly && r.session != nil && r.session.SkipUnderFIX(t.Name) {
		r.finish(h, Result{ID: t.ID, Task: t.Name, Outcome: Skipped})
		return h
	}

	r.schedule(ctx, &attempt{task: t, handle: h, n: 1})
	return h
}

func (r *Runner) schedule(ctx context.Context, a *attempt) {
	ok := r.pool.Submit("configtask:"+a.task.Name, func(context.Context) error {
		r.run(ctx, a)
		return nil
	})
	if !ok {
		r.finish(a.handle, Result{ID: a.task.ID, Task: a.task.Name, Outcome: Failed, Attempts: a.n - 1, Err: errors.New("worker pool closed")})
	}
}

func (r *Runner) run(ctx context.Context, a *attempt) {
	t := a.task
	w, found := r.locate(ctx, t)
	if !found && !a.opened && t.Open != nil {
		if err := t.Open(ctx, r.surface); err != nil {
			r.logger.Debug("Could not open configuration window yet", "task", t.Name, "err", err)
		} else {
			a.opened = true
			w, found = r.locate(ctx, t)
		}
	}

	if found {
		outcome, err := r.apply(ctx, t, w)
		if !errors.Is(err, domain.ErrWindowGone) {
			r.finish(a.handle, Result{ID: t.ID, Task: t.Name, Outcome: outcome, Attempts: a.n, Err: err})
			return
		}
		r.logger.Debug("Configuration window closed mid-task, retrying", "task", t.Name)
	}

	if a.n >= t.Policy.Attempts {
		r.finish(a.handle, Result{
			ID: t.ID, Task: t.Name, Outcome: TimedOut, Attempts: a.n,
			Err: fmt.Errorf("window %s not found after %d attempts", t.Target, a.n),
		})
		return
	}

	a.n++
	r.clock.AfterFunc(t.Policy.Interval, func() { r.schedule(ctx, a) })
}

func (r *Runner) locate(ctx context.Context, t Task) (domain.WindowSnapshot, bool) {
	windows, err := r.surface.Windows(ctx)
	if err != nil {
		r.logger.Debug("Failed to list windows", "task", t.Name, "err", err)
		return domain.WindowSnapshot{}, false
	}
	for _, w := range windows {
		if t.Target.Matches(w) {
			return w, true
		}
	}
	return domain.WindowSnapshot{}, false
}

func (r *Runner) apply(ctx context.Context, t Task, snap domain.WindowSnapshot) (Outcome, error) {
	r.dialog.Lock()
	defer r.dialog.Unlock()

	win := automation.NewWindow(r.surface, snap.Handle)
	if len(t.Pages) > 0 {
		if err := win.SelectPath(ctx, t.Pages...); err != nil {
			return classify(err), err
		}
	}

	changed, err := t.Mutation(ctx, win)
	if err != nil {
		return classify(err), err
	}
	if !changed {
		return NoChange, nil
	}
	if !t.Commit.IsZero() {
		if _, err := win.Press(ctx, t.Commit); err != nil {
			return classify(err), fmt.Errorf("commit: %w", err)
		}
	}
	return Applied, nil
}

func classify(err error) Outcome {
	if errors.Is(err, domain.ErrControlNotFound) {
		return ControlMissing
	}
	return Failed
}

func (r *Runner) finish(h *Handle, res Result) {
	if !h.finish(res) {
		return
	}

	log := r.logger.With("task", res.Task, "id", res.ID, "attempts", res.Attempts)
	switch res.Outcome {
	case Applied:
		log.Info("Configuration applied")
	case NoChange:
		log.Info("Configuration already set, no change")
	case Skipped:
		log.Info("Configuration skipped")
	case ControlMissing:
		log.Warn("Configuration control not found", "err", res.Err)
	case TimedOut:
		log.Warn("Configuration window did not appear", "err", res.Err)
	default:
		log.Error("Configuration failed", "err", res.Err)
	}

	if r.onResult != nil {
		r.onResult(res)
	}
}
