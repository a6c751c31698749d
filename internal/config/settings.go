package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/aretw0/warden/internal/logging"
	"github.com/aretw0/warden/pkg/configtask"
	"github.com/aretw0/warden/pkg/dialogs"
	"github.com/aretw0/warden/pkg/domain"
	"github.com/aretw0/warden/pkg/schedule"
)

// Validate reports every invalid value at once as an ExitInvalidSetting error.
func (c *Config) Validate() error {
	var errs []error
	bad := func(key string, value any, why string) {
		errs = append(errs, fmt.Errorf("%w: %s=%v: %s", domain.ErrInvalidSetting, key, value, why))
	}

	switch c.Kind() {
	case domain.HostWorkstation, domain.HostGateway:
	default:
		bad("HostKind", c.HostKind, "want tws or gateway")
	}
	switch strings.ToLower(c.TradingMode) {
	case "", "live", "paper":
	default:
		bad("TradingMode", c.TradingMode, "want live or paper")
	}
	switch strings.ToLower(c.ExistingSession) {
	case dialogs.SessionPrimary, dialogs.SessionPrimaryOverride, dialogs.SessionSecondary, dialogs.SessionManual:
	default:
		bad("ExistingSessionDetectedAction", c.ExistingSession, "want primary, primaryoverride, secondary or manual")
	}
	switch strings.ToLower(c.IncomingConnection) {
	case dialogs.IncomingAccept, dialogs.IncomingReject, dialogs.IncomingManual:
	default:
		bad("AcceptIncomingConnectionAction", c.IncomingConnection, "want accept, reject or manual")
	}
	if c.APIPort < 0 || c.APIPort > 65535 {
		bad("OverrideTwsApiPort", c.APIPort, "out of range")
	}
	if c.CommandServerPort < 0 || c.CommandServerPort > 65535 {
		bad("CommandServerPort", c.CommandServerPort, "out of range")
	}
	if _, err := c.Schedule(); err != nil {
		errs = append(errs, fmt.Errorf("%w: %w", domain.ErrInvalidSetting, err))
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		bad("log.level", c.Log.Level, err.Error())
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		bad("log.format", c.Log.Format, "want text or json")
	}
	if c.Tasks.Attempts < 1 {
		bad("tasks.attempts", c.Tasks.Attempts, "must be positive")
	}

	if len(errs) > 0 {
		return domain.Fatal(domain.ExitInvalidSetting, errors.Join(errs...))
	}
	return nil
}

// Kind returns the host flavour.
func (c *Config) Kind() domain.HostKind {
	return domain.HostKind(strings.ToLower(c.HostKind))
}

// Mode returns the connection mode.
func (c *Config) Mode() domain.Mode {
	if c.FIX {
		return domain.ModeFIX
	}
	return domain.ModeAPI
}

// Schedule parses the four time specifications.
func (c *Config) Schedule() (schedule.Settings, error) {
	return schedule.ParseSettings(c.ClosedownAt, c.ColdRestartTime, c.AutoLogoffTime, c.AutoRestartTime)
}

// CommandAddress is the control channel listen address, or "" when disabled.
func (c *Config) CommandAddress() string {
	if c.CommandServerPort == 0 {
		return ""
	}
	return net.JoinHostPort(c.BindAddress, strconv.Itoa(c.CommandServerPort))
}

// Dialogs returns the settings for the built-in dialog handlers.
func (c *Config) Dialogs() dialogs.Settings {
	return dialogs.Settings{
		HostKind:                 c.Kind(),
		Credentials:              dialogs.Credentials{User: c.LoginID, Password: c.Password},
		TradingMode:              c.TradingMode,
		ExistingSession:          c.ExistingSession,
		IncomingConnection:       c.IncomingConnection,
		AllowBlindTrading:        c.AllowBlindTrading,
		AcceptNonBrokerageNotice: c.AcceptNonBrokerageNotice,
		DismissPasswordExpiry:    c.DismissPasswordExpiry,
		ReadOnlyLogin:            c.ReadOnlyLogin,
		ConfirmOrderIDReset:      c.ResetOrderIDs,
		SecondFactorDevice:       c.SecondFactorDevice,
	}
}

// ConfigTasks returns the settings for the built-in configuration tasks.
// The host timer follows schedule precedence: auto restart wins over auto logoff.
func (c *Config) ConfigTasks(sched schedule.Settings) configtask.Settings {
	s := configtask.Settings{
		HostKind:             c.Kind(),
		MainWindow:           dialogs.MainWindow(c.Kind()),
		ReadOnlyAPI:          c.ReadOnlyAPI,
		AllowLocalhostOnly:   c.LocalhostOnly,
		APIPort:              c.APIPort,
		MasterClientID:       c.MasterClientID,
		SendMarketDataInLots: c.SendMarketDataInLots,
		ResetOrderIDs:        c.ResetOrderIDs,
		Precautions:          c.Precautions,
		Policy:               configtask.Policy{Interval: c.Tasks.Interval, Attempts: c.Tasks.Attempts},
	}
	if kind, spec, ok := sched.HostTimer(); ok {
		s.HostTimerKind = kind
		s.HostTimerClock = spec.Clock()
	}
	return s
}

// Secrets lists values that must never appear in logs.
func (c *Config) Secrets() []string {
	if c.Password == "" {
		return nil
	}
	return []string{c.Password}
}
