package dialogs

import (
	"context"
	"fmt"
	"strings"

	"github.com/aretw0/warden/pkg/automation"
	"github.com/aretw0/warden/pkg/domain"
	"github.com/aretw0/warden/pkg/probe"
	"github.com/aretw0/warden/pkg/registry"
)

// Default returns the built-in handlers in dispatch order.
func Default(s Settings) []registry.Handler {
	return []registry.Handler{
		{
			Name:   "accept-incoming-connection",
			Match:  registry.Matcher{TitleContains: "Accept incoming connection"},
			Action: s.incomingConnection,
		},
		{
			Name:   "blind-trading-warning",
			Match:  registry.Matcher{TitleContains: "Warning", Text: []string{"blind trading"}},
			Action: s.blindTrading,
		},
		{
			Name:   "login",
			Match:  registry.Matcher{Title: "Login", Control: probe.Query{Role: domain.RolePassword}},
			Action: s.login(false),
		},
		{
			Name:   "gateway-login",
			Match:  registry.Matcher{TitlePrefix: "IBKR Gateway", Control: probe.Query{Role: domain.RolePassword}},
			Action: s.login(true),
		},
		{
			Name:   "main-window",
			Match:  MainWindow(domain.HostWorkstation),
			Action: authenticated,
		},
		{
			Name:   "gateway-main-window",
			Match:  MainWindow(domain.HostGateway),
			Action: authenticated,
		},
		{
			Name:   "newer-version",
			Match:  registry.Matcher{TitleContains: "Newer Version"},
			Action: press("No", "OK"),
		},
		{
			Name:   "not-currently-available",
			Match:  registry.Matcher{Text: []string{"not currently available"}},
			Action: press("OK"),
		},
		{
			Name:   "tip-of-the-day",
			Match:  registry.Matcher{Title: "Tip of the Day"},
			Action: closeWindow,
		},
		{
			Name:   "nse-compliance",
			Match:  registry.Matcher{Text: []string{"NSE Compliance"}},
			Action: closeWindow,
		},
		{
			Name:   "password-expiry",
			Match:  registry.Matcher{TitleContains: "Password Notice"},
			Action: s.passwordExpiry,
		},
		{
			Name:   "configuration-dialog",
			Match:  registry.Matcher{TitleContains: "Configuration", Control: probe.Query{Role: domain.RoleTree}},
			Action: note("Configuration dialog shown"),
		},
		{
			Name:   "existing-session",
			Match:  registry.Matcher{TitleContains: "Existing session detected"},
			Action: s.existingSession,
		},
		{
			Name:   "api-change-confirmation",
			Match:  registry.Matcher{TitleContains: "Confirm", Text: []string{"API configuration"}},
			Action: press("Yes", "OK"),
		},
		{
			Name:   "splash",
			Match:  registry.Matcher{TitlePrefix: "Starting application"},
			Action: note("Host is starting"),
		},
		{
			Name:   "second-factor-authentication",
			Match:  registry.Matcher{TitleContains: "Second Factor Authentication", Text: []string{"Enter Read Only"}},
			Action: s.secondFactor,
		},
		{
			Name:   "security-code",
			Match:  registry.Matcher{Text: []string{"Enter Read Only"}},
			Action: s.readOnlyOrManual,
		},
		{
			Name:   "relogin",
			Match:  registry.Matcher{TitleContains: "Re-login is required"},
			Action: press("Re-login"),
		},
		{
			Name:   "non-brokerage-account",
			Match:  registry.Matcher{Text: []string{"non-brokerage account"}},
			Action: s.nonBrokerage,
		},
		{
			Name:   "exit-confirmation",
			Match:  registry.Matcher{TitleContains: "Exit", Text: []string{"Are you sure you want to exit"}},
			Action: exitConfirmation,
		},
		{
			Name:   "trading-login-handoff",
			Match:  registry.Matcher{Text: []string{"Trading Login Handoff"}},
			Action: press("Continue"),
		},
		{
			Name:   "login-failed",
			Match:  registry.Matcher{TitleContains: "Login failed"},
			Action: loginFailed,
		},
		{
			Name:   "too-many-failed-logins",
			Match:  registry.Matcher{Text: []string{"Too many failed login attempts"}},
			Action: stopAfter("too many failed login attempts", "OK"),
		},
		{
			Name:   "shutdown-progress",
			Match:  registry.Matcher{TitleContains: "Shutdown progress"},
			Action: hostShuttingDown,
		},
		{
			Name:   "bid-ask-last-size-update",
			Match:  registry.Matcher{Text: []string{"Bid, Ask and Last Size Display Update"}},
			Action: acknowledge("I understand", "OK"),
		},
		{
			Name:   "login-error",
			Match:  registry.Matcher{TitleContains: "Login Error"},
			Action: loginFailed,
		},
		{
			Name:   "crypto-order-confirmation",
			Match:  registry.Matcher{Text: []string{"Crypto", "order"}},
			Action: press("Yes", "OK"),
		},
		{
			Name:   "auto-restart-confirmation",
			Match:  registry.Matcher{Text: []string{"automatic restart"}},
			Action: press("OK", "Yes"),
		},
		{
			Name:   "restart-confirmation",
			Match:  registry.Matcher{TitleContains: "Restart", Text: []string{"restart now"}},
			Action: press("OK", "Yes"),
		},
		{
			Name:   "reset-order-id-confirmation",
			Match:  registry.Matcher{Text: []string{"reset the API order ID sequence"}},
			Action: s.resetOrderIDs,
		},
		{
			Name:   "reconnect-data-or-account",
			Match:  registry.Matcher{Text: []string{"Reconnect"}, Control: probe.Button("Reconnect")},
			Action: press("Reconnect"),
		},
	}
}

func press(buttons ...string) registry.Action {
	return func(ctx context.Context, env *registry.Env, w domain.WindowSnapshot) error {
		_, err := automation.NewWindow(env.Surface, w.Handle).PressFirst(ctx, buttons...)
		return err
	}
}

// acknowledge ticks a checkbox before pressing a button.
func acknowledge(checkbox string, buttons ...string) registry.Action {
	return func(ctx context.Context, env *registry.Env, w domain.WindowSnapshot) error {
		win := automation.NewWindow(env.Surface, w.Handle)
		if win.Has(ctx, probe.Query{NamePrefix: checkbox, Role: domain.RoleCheckBox}) {
			if _, err := win.SetToggle(ctx, probe.Query{NamePrefix: checkbox, Role: domain.RoleCheckBox}, true); err != nil {
				return err
			}
		}
		_, err := win.PressFirst(ctx, buttons...)
		return err
	}
}

func closeWindow(ctx context.Context, env *registry.Env, w domain.WindowSnapshot) error {
	return automation.NewWindow(env.Surface, w.Handle).Close(ctx)
}

func note(msg string) registry.Action {
	return func(ctx context.Context, env *registry.Env, w domain.WindowSnapshot) error {
		env.Logger.Debug(msg, "title", w.Title)
		return nil
	}
}

func authenticated(ctx context.Context, env *registry.Env, w domain.WindowSnapshot) error {
	return env.Session.Authenticated(ctx)
}

func stopAfter(reason string, buttons ...string) registry.Action {
	return func(ctx context.Context, env *registry.Env, w domain.WindowSnapshot) error {
		env.Logger.Error("Host cannot continue", "reason", reason)
		if _, err := automation.NewWindow(env.Surface, w.Handle).PressFirst(ctx, buttons...); err != nil {
			env.Logger.Debug("Could not dismiss dialog", "err", err)
		}
		return env.Session.RequestStop(ctx, domain.StopRequest{Kind: domain.StopShutdown, Source: "dialog", Reason: reason})
	}
}

func hostShuttingDown(ctx context.Context, env *registry.Env, w domain.WindowSnapshot) error {
	env.Logger.Info("Host is shutting down on its own")
	return env.Session.RequestStop(ctx, domain.StopRequest{Kind: domain.StopShutdown, Source: "host", Reason: "shutdown in progress"})
}

func exitConfirmation(ctx context.Context, env *registry.Env, w domain.WindowSnapshot) error {
	if env.Session.Phase() != domain.PhaseShuttingDown {
		env.Logger.Info("Exit confirmation not requested by warden, leaving it for the user")
		return nil
	}
	_, err := automation.NewWindow(env.Surface, w.Handle).PressFirst(ctx, "Yes", "OK")
	return err
}

func loginFailed(ctx context.Context, env *registry.Env, w domain.WindowSnapshot) error {
	win := automation.NewWindow(env.Surface, w.Handle)
	var details []string
	probe.Walk(w.Controls, func(c domain.Control) bool {
		if c.Role == domain.RoleLabel && c.Text != "" {
			details = append(details, c.Text)
		}
		return true
	})
	env.Logger.Error("Login failed", "title", w.Title, "message", strings.Join(details, " "))
	_, err := win.PressFirst(ctx, "OK", "Close")
	return err
}

func (s Settings) login(gateway bool) registry.Action {
	return func(ctx context.Context, env *registry.Env, w domain.WindowSnapshot) error {
		win := automation.NewWindow(env.Surface, w.Handle)

		if gateway {
			api := "IB API"
			if env.Session != nil && env.Session.Mode() == domain.ModeFIX {
				api = "FIX CTCI"
			}
			if _, err := win.SetToggle(ctx, probe.Query{Name: api, Role: domain.RoleRadio}, true); err != nil {
				return fmt.Errorf("select %s: %w", api, err)
			}
		}

		if mode := tradingModeLabel(s.TradingMode); mode != "" {
			q := probe.Query{Name: mode, Role: domain.RoleRadio}
			if win.Has(ctx, q) {
				if _, err := win.SetToggle(ctx, q, true); err != nil {
					return fmt.Errorf("select %s: %w", mode, err)
				}
			}
		}

		if !s.Credentials.Complete() {
			env.Logger.Warn("No credentials configured, waiting for manual login")
			return nil
		}
		if _, err := win.TypeText(ctx, probe.Query{Name: "Username", Role: domain.RoleText}, s.Credentials.User); err != nil {
			return err
		}
		if _, err := win.TypeText(ctx, probe.Query{Role: domain.RolePassword}, s.Credentials.Password); err != nil {
			return err
		}
		env.Logger.Info("Logging in", "user", s.Credentials.User)
		_, err := win.PressFirst(ctx, "Log In", "Paper Log In")
		return err
	}
}

func tradingModeLabel(mode string) string {
	switch strings.ToLower(mode) {
	case "live":
		return "Live Trading"
	case "paper":
		return "Paper Trading"
	}
	return ""
}

func (s Settings) incomingConnection(ctx context.Context, env *registry.Env, w domain.WindowSnapshot) error {
	switch strings.ToLower(s.IncomingConnection) {
	case IncomingAccept:
		return press("Yes", "OK")(ctx, env, w)
	case IncomingReject:
		return press("No")(ctx, env, w)
	}
	env.Logger.Info("Incoming API connection left for manual decision")
	return nil
}

func (s Settings) blindTrading(ctx context.Context, env *registry.Env, w domain.WindowSnapshot) error {
	if !s.AllowBlindTrading {
		env.Logger.Info("Blind trading not allowed, leaving warning open")
		return nil
	}
	return acknowledge("Please do not show", "Yes")(ctx, env, w)
}

func (s Settings) passwordExpiry(ctx context.Context, env *registry.Env, w domain.WindowSnapshot) error {
	if !s.DismissPasswordExpiry {
		env.Logger.Warn("Password expiry notice shown")
		return nil
	}
	return press("OK", "Close")(ctx, env, w)
}

func (s Settings) existingSession(ctx context.Context, env *registry.Env, w domain.WindowSnapshot) error {
	switch strings.ToLower(s.ExistingSession) {
	case SessionPrimary, SessionPrimaryOverride:
		return press("Continue Login", "OK")(ctx, env, w)
	case SessionSecondary:
		if err := press("Cancel", "Exit Application")(ctx, env, w); err != nil {
			return err
		}
		return env.Session.RequestStop(ctx, domain.StopRequest{Kind: domain.StopShutdown, Source: "dialog", Reason: "existing session has priority"})
	}
	env.Logger.Info("Existing session detected, waiting for manual decision")
	return nil
}

func (s Settings) secondFactor(ctx context.Context, env *registry.Env, w domain.WindowSnapshot) error {
	win := automation.NewWindow(env.Surface, w.Handle)
	if s.ReadOnlyLogin {
		_, err := win.Press(ctx, probe.Button("Enter Read Only"))
		return err
	}
	if s.SecondFactorDevice != "" {
		q := probe.Query{Name: s.SecondFactorDevice, Role: domain.RoleListItem}
		if win.Has(ctx, q) {
			if _, err := win.Select(ctx, q); err != nil {
				return err
			}
			_, err := win.PressFirst(ctx, "OK", "Continue")
			return err
		}
	}
	env.Logger.Info("Waiting for second factor authentication")
	return nil
}

func (s Settings) readOnlyOrManual(ctx context.Context, env *registry.Env, w domain.WindowSnapshot) error {
	if !s.ReadOnlyLogin {
		env.Logger.Warn("Security code required, waiting for manual entry")
		return nil
	}
	_, err := automation.NewWindow(env.Surface, w.Handle).Press(ctx, probe.Button("Enter Read Only"))
	return err
}

func (s Settings) nonBrokerage(ctx context.Context, env *registry.Env, w domain.WindowSnapshot) error {
	if !s.AcceptNonBrokerageNotice {
		env.Logger.Info("Non-brokerage account notice left open")
		return nil
	}
	return press("I understand and accept", "OK")(ctx, env, w)
}

func (s Settings) resetOrderIDs(ctx context.Context, env *registry.Env, w domain.WindowSnapshot) error {
	if s.ConfirmOrderIDReset {
		return press("Yes", "OK")(ctx, env, w)
	}
	return press("No", "Cancel")(ctx, env, w)
}
