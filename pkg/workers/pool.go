// Package workers runs background jobs on a bounded errgroup.
//
// Timer callbacks and dialog handlers never do slow work inline; they submit it
// here. A failing or panicking job is logged and does not affect its siblings.
package workers

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"

	"github.com/aretw0/warden/internal/logging"
	"golang.org/x/sync/errgroup"
)

// DefaultLimit bounds concurrent jobs when no limit is configured.
const DefaultLimit = 8

// Submitter accepts background jobs.
type Submitter interface {
	Submit(name string, fn func(context.Context) error) bool
}

// Pool is a bounded set of goroutines sharing one base context.
type Pool struct {
	ctx    context.Context
	group  errgroup.Group
	logger *slog.Logger

	mu       sync.Mutex
	closed   bool
	overflow sync.WaitGroup

	onDone func(name string, err error)
}

// Option configures the Pool.
type Option func(*Pool)

// WithLogger configures a logger for job failures.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pool) {
		p.logger = logger
	}
}

// WithLimit bounds the number of concurrent jobs.
func WithLimit(n int) Option {
	return func(p *Pool) {
		p.group.SetLimit(n)
	}
}

// WithOnDone registers a callback invoked after every job.
func WithOnDone(fn func(name string, err error)) Option {
	return func(p *Pool) {
		p.onDone = fn
	}
}

// New creates a pool whose jobs receive ctx.
func New(ctx context.Context, opts ...Option) *Pool {
	p := &Pool{
		ctx:    ctx,
		logger: logging.NewNop(),
	}
	p.group.SetLimit(DefaultLimit)
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Submit schedules fn. It never blocks the caller: when the pool is saturated
// the job waits for a slot on its own goroutine. Submit returns false once the
// pool is closed.
func (p *Pool) Submit(name string, fn func(context.Context) error) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		p.logger.Warn("Worker pool closed, dropping job", "job", name)
		return false
	}

	job := p.wrap(name, fn)
	if !p.group.TryGo(job) {
		p.overflow.Add(1)
		go func() {
			defer p.overflow.Done()
			p.group.Go(job)
		}()
	}
	return true
}

// Close stops accepting jobs and waits for the running ones.
func (p *Pool) Close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	p.overflow.Wait()
	_ = p.group.Wait()
}

func (p *Pool) wrap(name string, fn func(context.Context) error) func() error {
	return func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic: %v", r)
				p.logger.Error("Background job panicked", "job", name, "panic", r, "stack", string(debug.Stack()))
			}
			if err != nil {
				p.logger.Warn("Background job failed", "job", name, "err", err)
			}
			if p.onDone != nil {
				p.onDone(name, err)
			}
		}()
		return fn(p.ctx)
	}
}
