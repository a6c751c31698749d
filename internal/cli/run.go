package cli

import (
	"context"
	"io"
	"os"

	"github.com/aretw0/warden"
	"github.com/aretw0/warden/internal/config"
	"github.com/aretw0/warden/internal/presentation/tui"
	"github.com/aretw0/warden/pkg/domain"
)

// RunOptions contains the configuration for the run command.
type RunOptions struct {
	ConfigPath string
	// Set holds KEY=VALUE overrides applied after the environment, using the
	// same key names as WARDEN_* variables without the prefix.
	Set      []string
	Demo     bool
	Debug    bool
	Quiet    bool
	NoPrompt bool

	Stdin  *os.File
	Stdout io.Writer
	Stderr io.Writer
}

func (o *RunOptions) defaults() {
	if o.Stdin == nil {
		o.Stdin = os.Stdin
	}
	if o.Stdout == nil {
		o.Stdout = os.Stdout
	}
	if o.Stderr == nil {
		o.Stderr = os.Stderr
	}
}

// LoadConfig reads the settings file, the environment and the overrides, and
// validates the result.
func LoadConfig(path string, set []string) (*config.Config, error) {
	environ := os.Environ()
	for _, kv := range set {
		environ = append(environ, config.EnvPrefix+kv)
	}
	cfg, err := config.LoadWithEnv(path, environ)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Run supervises one host session and returns the process exit code.
func Run(ctx context.Context, opts RunOptions) (domain.ExitCode, error) {
	opts.defaults()

	cfg, err := LoadConfig(opts.ConfigPath, opts.Set)
	if err != nil {
		return domain.CodeOf(err), err
	}

	logger, err := createLogger(opts.Stderr, cfg.Log, opts.Debug)
	if err != nil {
		return domain.ExitInvalidSetting, err
	}
	for _, key := range cfg.Unused {
		logger.Warn("Ignoring unknown setting", "key", key)
	}

	if !opts.NoPrompt && !opts.Demo {
		if err := completeCredentials(cfg, terminalPassword(opts.Stdin, opts.Stderr)); err != nil {
			return domain.ExitUnexpected, err
		}
	}

	if !opts.Quiet {
		tui.PrintBanner(opts.Stdout, warden.Version)
	}

	host := createHost(cfg, logger, opts.Demo)
	ctrl, cleanup, err := createController(ctx, cfg, host, logger)
	defer cleanup()
	if err != nil {
		return domain.CodeOf(err), err
	}

	logger.Info("Starting session",
		"instance", cfg.Instance,
		"host", cfg.Kind(),
		"mode", cfg.Mode(),
		"command", cfg.CommandAddress(),
		"handlers", len(ctrl.Handlers()),
	)

	code, err := ctrl.Run(ctx)

	if !opts.Quiet {
		state := ctrl.State()
		reason := "host exited"
		if state.Stop != nil {
			reason = state.Stop.Source
			if state.Stop.Reason != "" {
				reason = state.Stop.Reason
			}
		}
		printSystemMessage(opts.Stdout, "Session ended (%s), exit code %d.", reason, code)
	}
	return code, err
}
