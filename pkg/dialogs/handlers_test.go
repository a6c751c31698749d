package dialogs_test

import (
	"context"
	"testing"

	"github.com/aretw0/warden/internal/logging"
	"github.com/aretw0/warden/pkg/adapters/memory"
	"github.com/aretw0/warden/pkg/dialogs"
	"github.com/aretw0/warden/pkg/domain"
	"github.com/aretw0/warden/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSession struct {
	mode          domain.Mode
	phase         domain.Phase
	authenticated int
	stops         []domain.StopRequest
}

func (f *fakeSession) Mode() domain.Mode   { return f.mode }
func (f *fakeSession) Phase() domain.Phase { return f.phase }

func (f *fakeSession) Authenticated(ctx context.Context) error {
	f.authenticated++
	f.phase = domain.PhaseRunning
	return nil
}

func (f *fakeSession) RequestStop(ctx context.Context, req domain.StopRequest) error {
	f.stops = append(f.stops, req)
	f.phase = domain.PhaseShuttingDown
	return nil
}

func (f *fakeSession) SkipUnderFIX(string) bool { return false }

type fixture struct {
	host    *memory.Host
	session *fakeSession
	reg     *registry.Registry
}

func newFixture(t *testing.T, s dialogs.Settings) *fixture {
	t.Helper()
	reg := registry.New()
	require.NoError(t, reg.Register(dialogs.Default(s)...))
	return &fixture{
		host:    memory.NewHost(),
		session: &fakeSession{mode: domain.ModeAPI, phase: domain.PhaseLoggingIn},
		reg:     reg,
	}
}

// show displays w and runs whichever handler recognizes it, returning its name.
func (f *fixture) show(t *testing.T, w domain.WindowSnapshot) string {
	t.Helper()
	f.host.Show(w)
	h, ok := f.reg.Match(w)
	if !ok {
		return ""
	}
	env := &registry.Env{Surface: f.host, Session: f.session, Logger: logging.NewNop()}
	require.NoError(t, h.Action(context.Background(), env, w))
	return h.Name
}

func (f *fixture) actions() []string {
	var out []string
	for _, a := range f.host.Actions() {
		out = append(out, a.String())
	}
	return out
}

func button(id, name string) domain.Control {
	return domain.Control{ID: id, Role: domain.RoleButton, Name: name, Enabled: true}
}

func label(text string) domain.Control {
	return domain.Control{ID: "msg", Role: domain.RoleLabel, Text: text, Enabled: true}
}

func loginWindow(title string, gateway bool) domain.WindowSnapshot {
	controls := []domain.Control{
		{ID: "live", Role: domain.RoleRadio, Name: "Live Trading", Selected: true, Enabled: true},
		{ID: "paper", Role: domain.RoleRadio, Name: "Paper Trading", Enabled: true},
		{ID: "user", Role: domain.RoleText, Name: "Username", Enabled: true},
		{ID: "pass", Role: domain.RolePassword, Name: "Password", Enabled: true},
		button("login", "Log In"),
	}
	if gateway {
		controls = append(controls,
			domain.Control{ID: "fix", Role: domain.RoleRadio, Name: "FIX CTCI", Enabled: true},
			domain.Control{ID: "api", Role: domain.RoleRadio, Name: "IB API", Selected: true, Enabled: true},
		)
	}
	return domain.WindowSnapshot{Handle: "login", Title: title, Controls: controls}
}

func TestDefault_NamesAreUnique(t *testing.T) {
	handlers := dialogs.Default(dialogs.Settings{})
	seen := map[string]bool{}
	for _, h := range handlers {
		assert.False(t, seen[h.Name], "duplicate %s", h.Name)
		assert.False(t, h.Match.IsZero(), "%s has no matcher", h.Name)
		seen[h.Name] = true
	}
}

func TestDefault_SecondFactorBeforeSecurityCode(t *testing.T) {
	var second, security int
	for i, h := range dialogs.Default(dialogs.Settings{}) {
		switch h.Name {
		case "second-factor-authentication":
			second = i
		case "security-code":
			security = i
		}
	}
	assert.Less(t, second, security)

	f := newFixture(t, dialogs.Settings{ReadOnlyLogin: true})
	name := f.show(t, domain.WindowSnapshot{
		Handle: "2fa",
		Title:  "Second Factor Authentication",
		Controls: []domain.Control{
			label("Select the device"),
			button("ro", "Enter Read Only"),
		},
	})
	assert.Equal(t, "second-factor-authentication", name)
	assert.Equal(t, []string{"press 2fa/ro"}, f.actions())
}

func TestLogin_Workstation(t *testing.T) {
	f := newFixture(t, dialogs.Settings{
		Credentials: dialogs.Credentials{User: "alice", Password: "secret"},
		TradingMode: "paper",
	})

	assert.Equal(t, "login", f.show(t, loginWindow("Login", false)))
	assert.Equal(t, []string{
		"toggle login/paper=true",
		"text login/user=alice",
		"text login/pass=secret",
		"press login/login",
	}, f.actions())
}

func TestLogin_GatewaySelectsFIX(t *testing.T) {
	f := newFixture(t, dialogs.Settings{
		HostKind:    domain.HostGateway,
		Credentials: dialogs.Credentials{User: "bob", Password: "pw"},
	})
	f.session.mode = domain.ModeFIX

	assert.Equal(t, "gateway-login", f.show(t, loginWindow("IBKR Gateway", true)))
	assert.Equal(t, "toggle login/fix=true", f.actions()[0])
}

func TestLogin_WithoutCredentialsLeavesWindowAlone(t *testing.T) {
	f := newFixture(t, dialogs.Settings{})
	f.show(t, loginWindow("Login", false))
	assert.Empty(t, f.actions())
	_, open := f.host.Window("login")
	assert.True(t, open)
}

func TestMainWindow_MarksAuthenticated(t *testing.T) {
	f := newFixture(t, dialogs.Settings{})
	name := f.show(t, domain.WindowSnapshot{
		Handle: "main",
		Title:  "alice Interactive Brokers",
		Controls: []domain.Control{
			{ID: "edit", Role: domain.RoleMenuItem, Name: "Edit", Enabled: true},
		},
	})
	assert.Equal(t, "main-window", name)
	assert.Equal(t, 1, f.session.authenticated)

	f = newFixture(t, dialogs.Settings{HostKind: domain.HostGateway})
	assert.Equal(t, "gateway-main-window", f.show(t, domain.WindowSnapshot{Handle: "gw", Title: "IBKR Gateway"}))
	assert.Equal(t, 1, f.session.authenticated)
}

func TestExitConfirmation_OnlyWhileShuttingDown(t *testing.T) {
	exit := domain.WindowSnapshot{
		Handle:   "exit",
		Title:    "Exit Session",
		Controls: []domain.Control{label("Are you sure you want to exit?"), button("yes", "Yes"), button("no", "No")},
	}

	f := newFixture(t, dialogs.Settings{})
	f.session.phase = domain.PhaseRunning
	assert.Equal(t, "exit-confirmation", f.show(t, exit))
	assert.Empty(t, f.actions())

	f = newFixture(t, dialogs.Settings{})
	f.session.phase = domain.PhaseShuttingDown
	f.show(t, exit)
	assert.Equal(t, []string{"press exit/yes"}, f.actions())
}

func TestTooManyFailedLogins_Stops(t *testing.T) {
	f := newFixture(t, dialogs.Settings{})
	name := f.show(t, domain.WindowSnapshot{
		Handle:   "fail",
		Title:    "Login",
		Controls: []domain.Control{label("Too many failed login attempts"), button("ok", "OK")},
	})
	assert.Equal(t, "too-many-failed-logins", name)
	require.Len(t, f.session.stops, 1)
	assert.Equal(t, domain.StopShutdown, f.session.stops[0].Kind)
	assert.Equal(t, "dialog", f.session.stops[0].Source)
}

func TestShutdownProgress_RequestsStop(t *testing.T) {
	f := newFixture(t, dialogs.Settings{})
	f.session.phase = domain.PhaseRunning
	f.show(t, domain.WindowSnapshot{Handle: "sd", Title: "Shutdown progress"})
	require.Len(t, f.session.stops, 1)
	assert.Equal(t, "host", f.session.stops[0].Source)
}

func TestSimpleDismissals(t *testing.T) {
	tests := []struct {
		name    string
		window  domain.WindowSnapshot
		handler string
		want    []string
	}{
		{
			name:    "tip of the day",
			window:  domain.WindowSnapshot{Handle: "tip", Title: "Tip of the Day"},
			handler: "tip-of-the-day",
			want:    []string{"close tip/"},
		},
		{
			name: "newer version",
			window: domain.WindowSnapshot{Handle: "nv", Title: "Newer Version Available",
				Controls: []domain.Control{button("ok", "OK")}},
			handler: "newer-version",
			want:    []string{"press nv/ok"},
		},
		{
			name: "bid ask last size",
			window: domain.WindowSnapshot{Handle: "bal", Title: "Information", Controls: []domain.Control{
				label("Bid, Ask and Last Size Display Update"),
				{ID: "ack", Role: domain.RoleCheckBox, Name: "I understand", Enabled: true},
				button("ok", "OK"),
			}},
			handler: "bid-ask-last-size-update",
			want:    []string{"toggle bal/ack=true", "press bal/ok"},
		},
		{
			name: "relogin",
			window: domain.WindowSnapshot{Handle: "re", Title: "Re-login is required",
				Controls: []domain.Control{button("go", "Re-login")}},
			handler: "relogin",
			want:    []string{"press re/go"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, dialogs.Settings{})
			assert.Equal(t, tt.handler, f.show(t, tt.window))
			assert.Equal(t, tt.want, f.actions())
		})
	}
}

func TestExistingSession_Policies(t *testing.T) {
	window := domain.WindowSnapshot{
		Handle: "es",
		Title:  "Existing session detected",
		Controls: []domain.Control{
			button("cont", "Continue Login"),
			button("cancel", "Cancel"),
		},
	}

	f := newFixture(t, dialogs.Settings{ExistingSession: dialogs.SessionPrimary})
	f.show(t, window)
	assert.Equal(t, []string{"press es/cont"}, f.actions())

	f = newFixture(t, dialogs.Settings{ExistingSession: dialogs.SessionSecondary})
	f.show(t, window)
	assert.Equal(t, []string{"press es/cancel"}, f.actions())
	assert.Len(t, f.session.stops, 1)

	f = newFixture(t, dialogs.Settings{ExistingSession: dialogs.SessionManual})
	f.show(t, window)
	assert.Empty(t, f.actions())
}
