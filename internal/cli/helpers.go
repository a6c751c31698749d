package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/aretw0/warden/internal/config"
	"github.com/aretw0/warden/internal/logging"
	"golang.org/x/term"
)

// SignalContext is cancelled on SIGINT or SIGTERM and remembers which signal
// arrived.
type SignalContext struct {
	context.Context
	Cancel context.CancelFunc

	mu  sync.Mutex
	sig os.Signal
}

// NewSignalContext works like signal.NotifyContext but exposes the signal.
func NewSignalContext(parent context.Context) *SignalContext {
	ctx, cancel := context.WithCancel(parent)
	sc := &SignalContext{Context: ctx, Cancel: cancel}

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
	go func() {
		defer signal.Stop(ch)
		select {
		case sig := <-ch:
			sc.mu.Lock()
			sc.sig = sig
			sc.mu.Unlock()
			cancel()
		case <-ctx.Done():
		}
	}()
	return sc
}

// Signal returns the signal that cancelled the context, or nil.
func (sc *SignalContext) Signal() os.Signal {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.sig
}

// createLogger builds the process logger from the log section. Debug forces
// debug level regardless of settings.
func createLogger(w io.Writer, cfg config.LogConfig, debug bool) (*slog.Logger, error) {
	level, err := logging.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	if debug {
		level = slog.LevelDebug
	}
	return logging.NewWithFormat(w, level, cfg.Format), nil
}

// printSystemMessage prints a standardized system message.
func printSystemMessage(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, ">>> %s\n", fmt.Sprintf(format, args...))
}

var errNoTerminal = errors.New("stdin is not a terminal")

// passwordReader reads a secret without echoing it.
type passwordReader func(prompt string) (string, error)

func terminalPassword(in *os.File, out io.Writer) passwordReader {
	return func(prompt string) (string, error) {
		fd := int(in.Fd())
		if !term.IsTerminal(fd) {
			return "", errNoTerminal
		}
		fmt.Fprint(out, prompt)
		secret, err := term.ReadPassword(fd)
		fmt.Fprintln(out)
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(secret), nil
	}
}

// completeCredentials asks for the password when a login id is configured
// without one. Without a terminal the login dialog is left for the operator.
func completeCredentials(cfg *config.Config, read passwordReader) error {
	if cfg.LoginID == "" || cfg.Password != "" || read == nil {
		return nil
	}
	secret, err := read(fmt.Sprintf("Password for %s: ", cfg.LoginID))
	if errors.Is(err, errNoTerminal) {
		return nil
	}
	if err != nil {
		return err
	}
	cfg.Password = secret
	return nil
}
