package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/warden/internal/logging"
	"github.com/aretw0/warden/pkg/domain"
	"github.com/aretw0/warden/pkg/workers"
	"github.com/jonboulle/clockwork"
)

// Stopper receives the stop request when the armed trigger fires.
type Stopper interface {
	RequestStop(ctx context.Context, req domain.StopRequest) error
}

// Scheduler arms at most one timer for the earliest shutdown or cold restart.
type Scheduler struct {
	settings Settings
	stopper  Stopper
	pool     workers.Submitter
	clock    clockwork.Clock
	location *time.Location
	logger   *slog.Logger

	mu    sync.Mutex
	timer clockwork.Timer
	armed *domain.ScheduledTrigger
	fired chan domain.ScheduledTrigger
}

// Option configures the Scheduler.
type Option func(*Scheduler)

// WithClock sets the clock (a fake one in tests).
func WithClock(c clockwork.Clock) Option {
	return func(s *Scheduler) {
		s.clock = c
	}
}

// WithLocation evaluates specs in loc instead of the clock's local zone.
func WithLocation(loc *time.Location) Option {
	return func(s *Scheduler) {
		s.location = loc
	}
}

// WithLogger configures a logger for the Scheduler.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) {
		s.logger = logger
	}
}

// New creates a scheduler. Fired triggers are handed to pool, never run on the
// timer goroutine.
func New(settings Settings, stopper Stopper, pool workers.Submitter, opts ...Option) *Scheduler {
	s := &Scheduler{
		settings: settings,
		stopper:  stopper,
		pool:     pool,
		clock:    clockwork.NewRealClock(),
		location: time.Local,
		logger:   logging.NewNop(),
		fired:    make(chan domain.ScheduledTrigger, 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Scheduler) now() time.Time {
	return s.clock.Now().In(s.location)
}

// Arm computes the next trigger and starts its timer. It returns false when
// nothing is configured. Arming twice replaces the previous timer.
func (s *Scheduler) Arm(ctx context.Context) (domain.ScheduledTrigger, bool) {
	now := s.now()
	trigger, ok := Resolve(now, s.settings.Shutdown, s.settings.ColdRestart)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.timer != nil {
		s.timer.Stop()
		s.timer, s.armed = nil, nil
	}
	if kind, spec, ok := s.settings.HostTimer(); ok {
		if kind == domain.TriggerAutoRestart && !s.settings.AutoLogoff.IsZero() {
			s.logger.Info("Auto restart overrides auto logoff", "auto_restart", spec.String(), "auto_logoff", s.settings.AutoLogoff.String())
		}
	}
	if !ok {
		s.logger.Debug("No shutdown or cold restart scheduled")
		return domain.ScheduledTrigger{}, false
	}

	delay := trigger.FireAt.Sub(now)
	s.logger.Info("Scheduled lifecycle trigger",
		"kind", trigger.Kind,
		"fire_at", trigger.FireAt.Format(time.RFC3339),
		"in", delay.Round(time.Second),
	)
	s.armed = &trigger
	s.timer = s.clock.AfterFunc(delay, func() { s.fire(ctx, trigger) })
	return trigger, true
}

// Next returns the armed trigger, if any.
func (s *Scheduler) Next() (domain.ScheduledTrigger, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.armed == nil {
		return domain.ScheduledTrigger{}, false
	}
	return *s.armed, true
}

// Plan reports every configured trigger as seen now.
func (s *Scheduler) Plan() []domain.ScheduledTrigger {
	return s.settings.Plan(s.now())
}

// Fired delivers each trigger after its stop request has been submitted.
func (s *Scheduler) Fired() <-chan domain.ScheduledTrigger {
	return s.fired
}

// Stop disarms the pending timer.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer, s.armed = nil, nil
	}
}

func (s *Scheduler) fire(ctx context.Context, trigger domain.ScheduledTrigger) {
	s.mu.Lock()
	s.timer, s.armed = nil, nil
	s.mu.Unlock()

	s.logger.Info("Lifecycle trigger fired", "kind", trigger.Kind, "spec", trigger.Spec)
	s.pool.Submit(string(trigger.Kind), func(context.Context) error {
		err := s.stopper.RequestStop(ctx, domain.StopRequest{
			Kind:   trigger.StopKind(),
			Source: "schedule",
			Reason: fmt.Sprintf("%s at %s", trigger.Kind, trigger.Spec),
			At:     s.clock.Now(),
		})
		select {
		case s.fired <- trigger:
		default:
		}
		return err
	})
}
