package cli

import (
	"context"
	"errors"
	"time"

	httpadapter "github.com/aretw0/warden/pkg/adapters/http"
	"github.com/aretw0/warden/pkg/command"
)

// SendOptions addresses a running controller.
type SendOptions struct {
	ConfigPath string
	Set        []string
	// Addr overrides the control channel address from the settings.
	Addr string
	// HTTPURL sends through the HTTP API instead of the control channel.
	HTTPURL string
	Timeout time.Duration
}

// Send delivers one command line and returns the reply text.
func Send(ctx context.Context, line string, opts SendOptions) (string, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	if opts.HTTPURL != "" {
		return httpadapter.NewClient(opts.HTTPURL, nil).Send(ctx, line)
	}

	cfg, err := LoadConfig(opts.ConfigPath, opts.Set)
	if err != nil {
		return "", err
	}
	addr := opts.Addr
	if addr == "" {
		addr = cfg.CommandAddress()
	}
	if addr == "" {
		return "", errors.New("control channel disabled (CommandServerPort=0); pass --addr or --http")
	}
	return command.Send(ctx, addr, line, cfg.CommandPrompt != "")
}
