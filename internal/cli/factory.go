package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/warden"
	"github.com/aretw0/warden/internal/config"
	"github.com/aretw0/warden/pkg/adapters/file"
	"github.com/aretw0/warden/pkg/adapters/memory"
	"github.com/aretw0/warden/pkg/adapters/process"
	redisadapter "github.com/aretw0/warden/pkg/adapters/redis"
	"github.com/aretw0/warden/pkg/command"
	"github.com/aretw0/warden/pkg/dialogs"
	"github.com/aretw0/warden/pkg/domain"
	"github.com/aretw0/warden/pkg/persistence/middleware"
	"github.com/aretw0/warden/pkg/ports"
)

// createHost returns the process host described by cfg, or an in-memory host
// that never shows a window when demo is set.
func createHost(cfg *config.Config, logger *slog.Logger, demo bool) warden.Host {
	if demo {
		return memory.NewHost()
	}
	hostCfg := cfg.Host
	hostCfg.Secrets = cfg.Secrets()
	return process.NewHost(hostCfg, process.WithLogger(logger))
}

// createController assembles a controller from cfg. The returned cleanup
// releases connections opened for it and must be called after Run.
func createController(ctx context.Context, cfg *config.Config, host warden.Host, logger *slog.Logger) (*warden.Controller, func(), error) {
	cleanup := func() {}

	sched, err := cfg.Schedule()
	if err != nil {
		return nil, cleanup, domain.Fatal(domain.ExitInvalidSetting, err)
	}

	opts := []warden.Option{
		warden.WithLogger(logger),
		warden.WithInstance(cfg.Instance),
		warden.WithMode(cfg.Mode()),
		warden.WithHandlers(dialogs.Default(cfg.Dialogs())...),
		warden.WithSchedule(sched),
		warden.WithConfigTasks(cfg.ConfigTasks(sched)),
		warden.WithDispatchBudget(cfg.DispatchBudget),
	}

	if addr := cfg.CommandAddress(); addr != "" {
		cmdOpts := []command.Option{
			command.WithLogger(logger),
			command.WithAllowedHosts(cfg.ControlFrom...),
		}
		if cfg.CommandPrompt != "" {
			cmdOpts = append(cmdOpts, command.WithPrompt(cfg.CommandPrompt))
		}
		opts = append(opts, warden.WithCommandServer(addr, cmdOpts...))
	}

	if cfg.HTTP.Address != "" {
		opts = append(opts, warden.WithHTTP(cfg.HTTP.Address))
	}

	var store ports.StatusStore
	switch {
	case cfg.Redis.Address != "":
		rs := redisadapter.New(cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB,
			redisadapter.WithPrefix(cfg.Redis.Prefix),
			redisadapter.WithTTL(cfg.Redis.TTL),
		)
		cleanup = func() { _ = rs.Client().Close() }
		if err := rs.Ping(ctx); err != nil {
			cleanup()
			return nil, func() {}, fmt.Errorf("connect to redis at %s: %w", cfg.Redis.Address, err)
		}
		logger.Info("Publishing status to redis", "address", cfg.Redis.Address, "prefix", cfg.Redis.Prefix)
		store = rs
		if cfg.Redis.Lock {
			opts = append(opts, warden.WithLocker(redisadapter.NewLocker(rs.Client(), cfg.Redis.Prefix)))
		}
	case cfg.StateDir != "":
		fs, err := file.New(cfg.StateDir)
		if err != nil {
			return nil, cleanup, err
		}
		logger.Info("Keeping status on disk", "dir", fs.Dir())
		store = fs
	}
	if store != nil {
		opts = append(opts, warden.WithStatusStore(middleware.Chain(store, middleware.NewSecretMask(cfg.Secrets()...))))
	}

	ctrl, err := warden.New(host, opts...)
	if err != nil {
		cleanup()
		return nil, func() {}, err
	}
	return ctrl, cleanup, nil
}
