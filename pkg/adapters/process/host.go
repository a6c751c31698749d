// Package process runs the host application as a child process and exposes
// its accessibility bridge, which the host speaks over its stdio.
package process

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"runtime"
	"sync"
	"syscall"

	"github.com/aretw0/warden/internal/logging"
	"github.com/aretw0/warden/pkg/adapters/bridge"
	"github.com/aretw0/warden/pkg/domain"
	"github.com/jonboulle/clockwork"
)

// Host implements ports.HostProcess for a local child process.
type Host struct {
	cfg    Config
	logger *slog.Logger
	clock  clockwork.Clock
	stderr io.Writer

	mu       sync.Mutex
	cmd      *exec.Cmd
	bridge   *bridge.Client
	stopping bool
	killer   clockwork.Timer
	waitErr  error
	exited   chan struct{}
}

// Option configures a Host.
type Option func(*Host)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Host) {
		h.logger = logger
	}
}

// WithClock sets the clock driving the kill timer.
func WithClock(c clockwork.Clock) Option {
	return func(h *Host) {
		h.clock = c
	}
}

// WithStderr redirects the host's stderr. Defaults to os.Stderr.
func WithStderr(w io.Writer) Option {
	return func(h *Host) {
		h.stderr = w
	}
}

// NewHost prepares a host; nothing runs until Launch.
func NewHost(cfg Config, opts ...Option) *Host {
	if cfg.Grace <= 0 {
		cfg.Grace = DefaultGrace
	}
	h := &Host{
		cfg:    cfg,
		logger: logging.NewNop(),
		clock:  clockwork.NewRealClock(),
		stderr: os.Stderr,
		exited: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Launch implements ports.HostProcess. The child outlives ctx; use RequestStop
// to end it.
func (h *Host) Launch(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cmd != nil {
		return fmt.Errorf("host already launched")
	}
	if h.cfg.Command == "" {
		return fmt.Errorf("no host command configured")
	}

	cmd := exec.Command(h.cfg.Command, h.cfg.Args...)
	cmd.Dir = h.cfg.Dir
	cmd.Env = os.Environ()
	for k, v := range h.cfg.Environment {
		cmd.Env = append(cmd.Env, k+"="+v)
	}
	cmd.Stderr = h.stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("host stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("host stdout: %w", err)
	}

	h.logger.Info("Launching host",
		"command", h.cfg.Command,
		"args", MaskArgs(h.cfg.Args, h.cfg.Secrets...),
	)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", h.cfg.Command, err)
	}

	h.cmd = cmd
	h.bridge = bridge.NewClient(stdout, stdin, bridge.WithLogger(h.logger), bridge.WithClock(h.clock))
	h.bridge.Start()
	go h.wait()
	return nil
}

func (h *Host) wait() {
	err := h.cmd.Wait()

	h.mu.Lock()
	h.waitErr = err
	if h.killer != nil {
		h.killer.Stop()
	}
	h.mu.Unlock()

	if err != nil {
		h.logger.Info("Host exited", "err", err)
	} else {
		h.logger.Info("Host exited")
	}
	close(h.exited)
}

// Bridge returns the accessibility bridge of the launched host, or nil before Launch.
func (h *Host) Bridge() *bridge.Client {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.bridge
}

// RequestStop implements ports.HostProcess. Restart kinds stop the host the
// same way; the supervisor reads the intent from warden's exit code.
func (h *Host) RequestStop(ctx context.Context, kind domain.StopKind) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.cmd == nil {
		return domain.ErrHostNotRunning
	}
	select {
	case <-h.exited:
		return domain.ErrHostNotRunning
	default:
	}
	if h.stopping {
		return domain.ErrShutdownInProgress
	}
	h.stopping = true

	h.logger.Info("Stopping host", "kind", kind, "grace", h.cfg.Grace)
	if err := terminate(h.cmd.Process); err != nil {
		h.logger.Warn("Terminate failed, killing host", "err", err)
		return h.cmd.Process.Kill()
	}
	proc := h.cmd.Process
	h.killer = h.clock.AfterFunc(h.cfg.Grace, func() {
		h.logger.Warn("Host did not exit within grace period, killing")
		_ = proc.Kill()
	})
	return nil
}

// Exited implements ports.HostProcess.
func (h *Host) Exited() <-chan struct{} {
	return h.exited
}

// Err returns the result of waiting on the process once it has exited.
func (h *Host) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.waitErr
}

func terminate(p *os.Process) error {
	if runtime.GOOS == "windows" {
		return p.Kill()
	}
	return p.Signal(syscall.SIGTERM)
}
