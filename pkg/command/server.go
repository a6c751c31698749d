package command

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/warden/internal/logging"
	"github.com/aretw0/warden/pkg/domain"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// Executor carries out a parsed command and returns the text after "OK".
type Executor interface {
	Execute(ctx context.Context, cmd domain.Command) (string, error)
}

// ExecutorFunc adapts a function to Executor.
type ExecutorFunc func(ctx context.Context, cmd domain.Command) (string, error)

// Execute implements Executor.
func (f ExecutorFunc) Execute(ctx context.Context, cmd domain.Command) (string, error) {
	return f(ctx, cmd)
}

const maxLine = 4096

// Server accepts control connections.
type Server struct {
	executor Executor
	logger   *slog.Logger

	allowed     []string
	prompt      string
	idleTimeout time.Duration
	limit       rate.Limit
	burst       int

	wg sync.WaitGroup
}

// Option configures the Server.
type Option func(*Server)

// WithLogger configures a logger for the Server.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithAllowedHosts restricts clients to the given IP addresses. Empty means
// loopback only.
func WithAllowedHosts(hosts ...string) Option {
	return func(s *Server) {
		s.allowed = hosts
	}
}

// WithPrompt sends a greeting line on connect.
func WithPrompt(prompt string) Option {
	return func(s *Server) {
		s.prompt = prompt
	}
}

// WithIdleTimeout closes connections that stay silent for d.
func WithIdleTimeout(d time.Duration) Option {
	return func(s *Server) {
		s.idleTimeout = d
	}
}

// WithRateLimit caps commands per second on each connection.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(s *Server) {
		s.limit = rate.Limit(perSecond)
		s.burst = burst
	}
}

// NewServer creates a server dispatching to exec.
func NewServer(exec Executor, opts ...Option) *Server {
	s := &Server{
		executor:    exec,
		logger:      logging.NewNop(),
		idleTimeout: 5 * time.Minute,
		limit:       rate.Limit(5),
		burst:       5,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListenAndServe binds addr and serves until ctx ends.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx ends. It closes ln and waits for
// open connections before returning.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.logger.Info("Command server listening", "address", ln.Addr().String())

	go func() {
		<-ctx.Done()
		ln.Close()
	}()
	defer s.wg.Wait()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("accept: %w", err)
		}

		if !s.permitted(conn.RemoteAddr()) {
			s.logger.Warn("Rejected command connection", "remote", conn.RemoteAddr().String())
			fmt.Fprintln(conn, "ERROR not allowed")
			conn.Close()
			continue
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.serveConn(ctx, conn)
		}()
	}
}

func (s *Server) permitted(addr net.Addr) bool {
	host, _, err := net.SplitHostPort(addr.String())
	if err != nil {
		return false
	}
	ip := net.ParseIP(host)
	if len(s.allowed) == 0 {
		return ip != nil && ip.IsLoopback()
	}
	for _, allowed := range s.allowed {
		if allowed == host || (ip != nil && ip.Equal(net.ParseIP(allowed))) {
			return true
		}
	}
	return false
}

func (s *Server) serveConn(ctx context.Context, conn net.Conn) {
	connCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		<-connCtx.Done()
		conn.Close()
	}()

	remote := conn.RemoteAddr().String()
	log := s.logger.With("remote", remote, "conn", uuid.NewString())
	log.Info("Command connection opened")
	defer log.Info("Command connection closed")

	limiter := rate.NewLimiter(s.limit, s.burst)
	writer := bufio.NewWriter(conn)
	reply := func(line string) bool {
		if _, err := writer.WriteString(line + "\n"); err != nil {
			return false
		}
		return writer.Flush() == nil
	}

	if s.prompt != "" && !reply(s.prompt) {
		return
	}

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 256), maxLine)
	for {
		if s.idleTimeout > 0 {
			_ = conn.SetReadDeadline(time.Now().Add(s.idleTimeout))
		}
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil && connCtx.Err() == nil {
				log.Debug("Command connection read ended", "err", err)
			}
			return
		}
		line, err := Sanitize(scanner.Text())
		if err != nil {
			log.Warn("Rejected command", "err", err)
			if !reply("ERROR " + err.Error()) {
				return
			}
			continue
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if err := limiter.Wait(connCtx); err != nil {
			return
		}

		cmd, err := Parse(line)
		if err != nil {
			log.Warn("Rejected command", "command", line, "err", err)
			if !reply("ERROR " + err.Error()) {
				return
			}
			continue
		}

		log.Info("Received command", "command", cmd.Raw)
		if cmd.Verb == domain.VerbExit {
			reply("OK bye")
			return
		}

		msg, err := s.executor.Execute(connCtx, cmd)
		if err != nil {
			log.Error("Command failed", "command", cmd.Raw, "err", err)
			if !reply("ERROR " + err.Error()) {
				return
			}
			continue
		}
		if !reply(strings.TrimSpace("OK " + msg)) {
			return
		}
	}
}
