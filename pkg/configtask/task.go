// Package configtask applies post-start settings to the host's configuration
// dialog.
//
// A task waits for its target window by re-arming a clock timer between
// attempts, so no goroutine sleeps or spins while the host is still loading.
// Missing controls and timeouts are reported, never fatal.
package configtask

import (
	"context"
	"sync"
	"time"

	"github.com/aretw0/warden/pkg/automation"
	"github.com/aretw0/warden/pkg/ports"
	"github.com/aretw0/warden/pkg/probe"
	"github.com/aretw0/warden/pkg/registry"
)

// Outcome is how a task ended.
type Outcome string

const (
	Applied        Outcome = "applied"
	NoChange       Outcome = "no_change"
	ControlMissing Outcome = "control_missing"
	TimedOut       Outcome = "timed_out"
	Failed         Outcome = "failed"
	Skipped        Outcome = "skipped"
)

// Policy bounds the wait for the target window.
type Policy struct {
	Interval time.Duration
	Attempts int
}

// DefaultPolicy polls once a second for a minute.
var DefaultPolicy = Policy{Interval: time.Second, Attempts: 60}

// Mutation changes controls in the located window. It reports whether
// anything changed.
type Mutation func(ctx context.Context, w *automation.Window) (bool, error)

// Task is a one-shot configuration change.
type Task struct {
	ID     string
	Name   string
	Target registry.Matcher

	// Open brings the target window up. It is retried on each attempt until
	// it succeeds once.
	Open func(ctx context.Context, s ports.Surface) error

	// Pages is the navigation path selected before mutating.
	Pages    []string
	Mutation Mutation

	// Commit is pressed after a mutation that changed something.
	Commit probe.Query
	Policy Policy

	// APIOnly tasks are skipped when the session runs in FIX mode. Every
	// built-in task sets it.
	APIOnly bool
}

// Result is the final report of a task.
type Result struct {
	ID       string
	Task     string
	Outcome  Outcome
	Attempts int
	Err      error
}

// Handle tracks a submitted task.
type Handle struct {
	id     string
	done   chan struct{}
	once   sync.Once
	result Result
}

func newHandle(id string) *Handle {
	return &Handle{id: id, done: make(chan struct{})}
}

// ID returns the task ID.
func (h *Handle) ID() string {
	return h.id
}

// Done is closed when the task has finished.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Result returns the final result. It is meaningful after Done is closed.
func (h *Handle) Result() Result {
	select {
	case <-h.done:
		return h.result
	default:
		return Result{ID: h.id}
	}
}

// Wait blocks until the task finishes or ctx ends.
func (h *Handle) Wait(ctx context.Context) (Result, error) {
	select {
	case <-h.done:
		return h.result, nil
	case <-ctx.Done():
		return Result{ID: h.id}, ctx.Err()
	}
}

func (h *Handle) finish(r Result) bool {
	finished := false
	h.once.Do(func() {
		h.result = r
		close(h.done)
		finished = true
	})
	return finished
}
