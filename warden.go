package warden

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/warden/internal/logging"
	"github.com/aretw0/warden/internal/metrics"
	httpadapter "github.com/aretw0/warden/pkg/adapters/http"
	"github.com/aretw0/warden/pkg/adapters/memory"
	"github.com/aretw0/warden/pkg/command"
	"github.com/aretw0/warden/pkg/configtask"
	"github.com/aretw0/warden/pkg/dialogs"
	"github.com/aretw0/warden/pkg/dispatch"
	"github.com/aretw0/warden/pkg/domain"
	"github.com/aretw0/warden/pkg/ports"
	"github.com/aretw0/warden/pkg/registry"
	"github.com/aretw0/warden/pkg/schedule"
	"github.com/aretw0/warden/pkg/session"
	"github.com/aretw0/warden/pkg/workers"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"
)

// Host is everything the controller needs from the supervised application:
// its process, its windows and the stream of window notifications.
type Host interface {
	ports.HostProcess
	ports.Surface
	ports.WindowEvents
}

// Controller supervises one host session from launch to exit.
type Controller struct {
	host     Host
	mode     domain.Mode
	instance string
	handlers []registry.Handler
	schedule schedule.Settings
	tasks    configtask.Settings

	commandAddr     string
	commandListener net.Listener
	commandOpts     []command.Option
	httpAddr        string

	store    ports.StatusStore
	locker   ports.DistributedLocker
	hooks    domain.LifecycleHooks
	clock    clockwork.Clock
	location *time.Location
	budget   time.Duration
	limit    int
	logger   *slog.Logger

	registry   *registry.Registry
	machine    *session.Machine
	streams    *httpadapter.StreamManager
	pool       *workers.Pool
	scheduler  *schedule.Scheduler
	runner     *configtask.Runner
	dispatcher *dispatch.Dispatcher

	base   context.Context
	cancel context.CancelFunc
}

// Option configures the Controller.
type Option func(*Controller)

// WithLogger sets the logger shared by every component.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithClock sets the clock used by the session, scheduler and tasks.
func WithClock(clock clockwork.Clock) Option {
	return func(c *Controller) {
		c.clock = clock
	}
}

// WithLocation evaluates time specifications in loc. Defaults to time.Local.
func WithLocation(loc *time.Location) Option {
	return func(c *Controller) {
		c.location = loc
	}
}

// WithMode fixes the connection mode. Defaults to api.
func WithMode(mode domain.Mode) Option {
	return func(c *Controller) {
		c.mode = mode
	}
}

// WithInstance names the session in the status store and locks.
func WithInstance(name string) Option {
	return func(c *Controller) {
		c.instance = name
	}
}

// WithHandlers replaces the built-in dialog handlers. Order is dispatch order.
func WithHandlers(handlers ...registry.Handler) Option {
	return func(c *Controller) {
		c.handlers = handlers
	}
}

// WithSchedule sets the lifecycle triggers.
func WithSchedule(s schedule.Settings) Option {
	return func(c *Controller) {
		c.schedule = s
	}
}

// WithConfigTasks sets the configuration applied once the session is running.
func WithConfigTasks(s configtask.Settings) Option {
	return func(c *Controller) {
		c.tasks = s
	}
}

// WithCommandServer listens for control commands on addr.
func WithCommandServer(addr string, opts ...command.Option) Option {
	return func(c *Controller) {
		c.commandAddr = addr
		c.commandOpts = append(c.commandOpts, opts...)
	}
}

// WithCommandListener serves control commands on an existing listener.
func WithCommandListener(ln net.Listener, opts ...command.Option) Option {
	return func(c *Controller) {
		c.commandListener = ln
		c.commandOpts = append(c.commandOpts, opts...)
	}
}

// WithHTTP serves status, commands and metrics on addr.
func WithHTTP(addr string) Option {
	return func(c *Controller) {
		c.httpAddr = addr
	}
}

// WithStatusStore publishes state and history to store instead of memory.
func WithStatusStore(store ports.StatusStore) Option {
	return func(c *Controller) {
		c.store = store
	}
}

// WithLocker guards session transitions with a distributed lock.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(c *Controller) {
		c.locker = locker
	}
}

// WithLifecycleHooks adds hooks after the built-in metrics and stream hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(c *Controller) {
		c.hooks = hooks
	}
}

// WithDispatchBudget overrides dispatch.DefaultBudget.
func WithDispatchBudget(d time.Duration) Option {
	return func(c *Controller) {
		c.budget = d
	}
}

// WithWorkerLimit bounds concurrent background jobs.
func WithWorkerLimit(n int) Option {
	return func(c *Controller) {
		c.limit = n
	}
}

// New wires a controller around host. Nothing runs until Run.
func New(host Host, opts ...Option) (*Controller, error) {
	c := &Controller{
		host:     host,
		mode:     domain.ModeAPI,
		instance: "default",
		clock:    clockwork.NewRealClock(),
		location: time.Local,
		budget:   dispatch.DefaultBudget,
		limit:    workers.DefaultLimit,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.handlers == nil {
		c.handlers = dialogs.Default(dialogs.Settings{HostKind: domain.HostWorkstation})
	}
	if c.store == nil {
		c.store = memory.NewStore()
	}

	c.registry = registry.New()
	if err := c.registry.Register(c.handlers...); err != nil {
		return nil, fmt.Errorf("register handlers: %w", err)
	}

	c.base, c.cancel = context.WithCancel(context.Background())
	c.pool = workers.New(c.base,
		workers.WithLogger(c.logger.With("component", "workers")),
		workers.WithLimit(c.limit),
	)
	c.streams = httpadapter.NewStreamManager(httpadapter.WithStreamLogger(c.logger))

	hooks := metrics.Chain(metrics.Hooks(), c.streams.Hooks(), domain.LifecycleHooks{OnTransition: c.onTransition}, c.hooks)

	machineOpts := []session.Option{
		session.WithInstance(c.instance),
		session.WithStatusStore(c.store),
		session.WithLifecycleHooks(hooks),
		session.WithClock(c.clock),
		session.WithLogger(c.logger.With("component", "session")),
	}
	if c.locker != nil {
		machineOpts = append(machineOpts, session.WithLocker(c.locker))
	}
	c.machine = session.NewMachine(c.mode, host, machineOpts...)

	c.scheduler = schedule.New(c.schedule, c.machine, c.pool,
		schedule.WithClock(c.clock),
		schedule.WithLocation(c.location),
		schedule.WithLogger(c.logger.With("component", "schedule")),
	)
	c.runner = configtask.NewRunner(host, c.pool,
		configtask.WithSession(c.machine),
		configtask.WithClock(c.clock),
		configtask.WithLogger(c.logger.With("component", "configtask")),
		configtask.WithOnResult(func(r configtask.Result) {
			metrics.ConfigTasks.WithLabelValues(r.Task, string(r.Outcome)).Inc()
		}),
	)
	c.dispatcher = dispatch.New(c.registry, host,
		dispatch.WithLogger(c.logger.With("component", "dispatch")),
		dispatch.WithBudget(c.budget),
		dispatch.WithLifecycleHooks(hooks),
		dispatch.WithClock(c.clock),
		dispatch.WithSession(c.machine),
		dispatch.WithBackground(func(name string, job func(context.Context) error) {
			c.pool.Submit(name, job)
		}),
	)
	return c, nil
}

// onTransition runs under the session lock; it only hands work to the pool.
func (c *Controller) onTransition(ctx context.Context, ev domain.TransitionEvent) {
	if ev.To != domain.PhaseRunning {
		return
	}
	tasks := c.tasks.Tasks()
	if len(tasks) == 0 {
		return
	}
	c.pool.Submit("configtasks", func(context.Context) error {
		c.logger.Info("Applying configuration", "tasks", len(tasks))
		for _, t := range tasks {
			c.runner.Submit(c.base, t)
		}
		return nil
	})
}

// Run launches the host and supervises it until the session stops or ctx
// ends. The returned code tells a supervisor what to do next.
func (c *Controller) Run(ctx context.Context) (domain.ExitCode, error) {
	defer c.close()

	metrics.SetPhase(domain.PhaseStarting)
	if err := c.machine.Launch(ctx); err != nil {
		return domain.CodeOf(err), err
	}
	if c.machine.Phase() == domain.PhaseStopped {
		return c.machine.Outcome(), nil
	}

	// Dialogs raised while the host goes down still need answers, so dispatch
	// outlives ctx and ends with the session.
	dispatchCtx, stopDispatch := context.WithCancel(context.WithoutCancel(ctx))
	defer stopDispatch()

	events, err := c.host.Events(dispatchCtx)
	if err != nil {
		c.stopOnError(ctx, "window events unavailable")
		return domain.ExitUnexpected, fmt.Errorf("subscribe to window events: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	runCtx, stopServing := context.WithCancel(gctx)
	defer stopServing()

	g.Go(func() error {
		return c.dispatcher.Run(dispatchCtx, events)
	})
	if trigger, ok := c.scheduler.Arm(c.base); ok {
		c.logger.Info("Next lifecycle trigger", "kind", trigger.Kind, "at", trigger.FireAt)
	}
	g.Go(func() error {
		for {
			select {
			case <-runCtx.Done():
				return nil
			case t := <-c.scheduler.Fired():
				metrics.TriggersFired.WithLabelValues(string(t.Kind)).Inc()
			}
		}
	})
	if srv := c.commandServer(); srv != nil {
		g.Go(func() error {
			if c.commandListener != nil {
				return srv.Serve(runCtx, c.commandListener)
			}
			return srv.ListenAndServe(runCtx, c.commandAddr)
		})
	}
	if c.httpAddr != "" {
		g.Go(func() error {
			return httpadapter.Serve(runCtx, c.httpAddr, c.Handler(), c.logger.With("component", "http"))
		})
	}
	g.Go(func() error {
		select {
		case <-c.machine.Done():
		case <-runCtx.Done():
			c.stopOnError(ctx, "controller shutting down")
			<-c.machine.Done()
		}
		stopServing()
		stopDispatch()
		return nil
	})

	err = g.Wait()
	c.scheduler.Stop()
	if err != nil {
		return domain.CodeOf(err), err
	}
	return c.machine.Outcome(), nil
}

// stopOnError asks the host to go down when the controller itself can no
// longer supervise it.
func (c *Controller) stopOnError(ctx context.Context, reason string) {
	err := c.machine.RequestStop(context.WithoutCancel(ctx), domain.StopRequest{
		Kind:   domain.StopShutdown,
		Source: "controller",
		Reason: reason,
	})
	if err != nil {
		c.logger.Error("Failed to stop host", "err", err)
	}
}

func (c *Controller) commandServer() *command.Server {
	if c.commandAddr == "" && c.commandListener == nil {
		return nil
	}
	opts := append([]command.Option{command.WithLogger(c.logger.With("component", "command"))}, c.commandOpts...)
	return command.NewServer(c, opts...)
}

func (c *Controller) close() {
	c.scheduler.Stop()
	c.cancel()
	c.pool.Close()
}

// Execute carries out one control command. It implements command.Executor.
func (c *Controller) Execute(ctx context.Context, cmd domain.Command) (reply string, err error) {
	defer func() {
		result := "ok"
		if err != nil {
			result = "error"
		}
		metrics.Commands.WithLabelValues(string(cmd.Verb), result).Inc()
	}()

	switch cmd.Verb {
	case domain.VerbStop:
		return c.stop(ctx, domain.StopShutdown, "shutting down")
	case domain.VerbRestart:
		if cmd.Cold {
			return c.stop(ctx, domain.StopColdRestart, "cold restarting")
		}
		return c.stop(ctx, domain.StopRestart, "restarting")
	case domain.VerbEnableAPI:
		return c.enableAPI(ctx)
	case domain.VerbStatus:
		return c.summary(), nil
	case domain.VerbExit:
		return "bye", nil
	}
	return "", fmt.Errorf("%w: %s", domain.ErrUnknownCommand, cmd.Verb)
}

func (c *Controller) stop(ctx context.Context, kind domain.StopKind, reply string) (string, error) {
	if phase := c.machine.Phase(); phase.Stopping() {
		return "already " + strings.ReplaceAll(string(phase), "_", " "), nil
	}
	err := c.machine.RequestStop(ctx, domain.StopRequest{Kind: kind, Source: "command"})
	if err != nil {
		return "", err
	}
	return reply, nil
}

func (c *Controller) enableAPI(ctx context.Context) (string, error) {
	if c.machine.Phase().Stopping() {
		return "", domain.ErrShutdownInProgress
	}
	res, err := c.runner.Submit(ctx, c.tasks.EnableAPI()).Wait(ctx)
	if err != nil {
		return "", err
	}
	switch res.Outcome {
	case configtask.Applied:
		return "api enabled", nil
	case configtask.NoChange:
		return "api already enabled", nil
	case configtask.Skipped:
		return "", fmt.Errorf("%w: api settings do not apply in fix mode", domain.ErrInvalidSetting)
	}
	if res.Err != nil {
		return "", fmt.Errorf("enable api %s: %w", res.Outcome, res.Err)
	}
	return "", fmt.Errorf("enable api %s", res.Outcome)
}

func (c *Controller) summary() string {
	s := c.machine.State()
	parts := []string{
		"phase=" + string(s.Phase),
		"mode=" + string(s.Mode),
		fmt.Sprintf("authenticated=%t", s.Authenticated),
	}
	if next, ok := c.scheduler.Next(); ok {
		parts = append(parts, fmt.Sprintf("next=%s@%s", next.Kind, next.FireAt.In(c.location).Format(time.RFC3339)))
	}
	return strings.Join(parts, " ")
}

// Status reports the session state, the armed trigger and the handler order.
func (c *Controller) Status(ctx context.Context) (domain.Status, error) {
	status := domain.Status{
		Session:  c.machine.State(),
		Plan:     c.scheduler.Plan(),
		Handlers: c.registry.Names(),
	}
	if next, ok := c.scheduler.Next(); ok {
		status.Next = &next
	}
	return status, nil
}

// History returns up to limit recorded transitions, newest first.
func (c *Controller) History(ctx context.Context, limit int) ([]domain.TransitionEvent, error) {
	history, err := c.store.History(ctx, c.instance, limit)
	if err != nil && !errors.Is(err, domain.ErrStatusNotFound) {
		return nil, err
	}
	return history, nil
}

// Handlers returns the registered handlers in dispatch order.
func (c *Controller) Handlers() []registry.Handler {
	return c.registry.Handlers()
}

// State returns the current session state.
func (c *Controller) State() domain.SessionState {
	return c.machine.State()
}

// Done is closed once the session has stopped.
func (c *Controller) Done() <-chan struct{} {
	return c.machine.Done()
}

// Handler returns the HTTP surface of the controller.
func (c *Controller) Handler() http.Handler {
	return httpadapter.NewHandler(c,
		httpadapter.WithLogger(c.logger.With("component", "http")),
		httpadapter.WithStreams(c.streams),
	)
}
