package configtask

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/aretw0/warden/pkg/automation"
	"github.com/aretw0/warden/pkg/domain"
	"github.com/aretw0/warden/pkg/ports"
	"github.com/aretw0/warden/pkg/probe"
	"github.com/aretw0/warden/pkg/registry"
)

// Labels of the host's configuration dialog.
const (
	PageAPI         = "API"
	PageSettings    = "Settings"
	PagePrecautions = "Precautions"
	PageLockAndExit = "Lock and Exit"

	LabelEnableAPI       = "Enable ActiveX and Socket Clients"
	LabelReadOnlyAPI     = "Read-Only API"
	LabelLocalhostOnly   = "Allow connections from localhost only"
	LabelSocketPort      = "Socket port"
	LabelMasterClientID  = "Master API client ID"
	LabelMarketDataLots  = "Send market data in lots for US stocks for dual-mode API clients"
	LabelResetOrderIDs   = "Reset API order ID sequence"
	LabelAutoLogoff      = "Auto log off"
	LabelAutoRestart     = "Auto restart"
	LabelAutoLogoffTime  = "Auto log off time"
	LabelAutoRestartTime = "Auto restart time"
)

// ConfigDialog recognizes the host's configuration window.
var ConfigDialog = registry.Matcher{
	TitleContains: "Configuration",
	Control:       probe.Query{Role: domain.RoleTree},
}

var apply = probe.Button("Apply")

// Settings selects which built-in tasks to run. Nil pointers leave the host's
// current value alone.
type Settings struct {
	HostKind   domain.HostKind
	MainWindow registry.Matcher

	ReadOnlyAPI          *bool
	AllowLocalhostOnly   *bool
	APIPort              int
	MasterClientID       *int
	SendMarketDataInLots *bool
	ResetOrderIDs        bool

	// HostTimerKind is TriggerAutoLogoff or TriggerAutoRestart; HostTimerClock is HH:MM.
	HostTimerKind  domain.TriggerKind
	HostTimerClock string

	// Precautions maps precaution checkbox labels to their wanted state.
	Precautions map[string]bool

	Policy Policy
}

// OpenConfiguration returns an Open func that reaches the configuration
// dialog through the main window's menu.
func OpenConfiguration(kind domain.HostKind, mainWindow registry.Matcher) func(context.Context, ports.Surface) error {
	path := []string{"Edit", "Global Configuration..."}
	if kind == domain.HostGateway {
		path = []string{"Configure", "Settings"}
	}
	return func(ctx context.Context, s ports.Surface) error {
		windows, err := s.Windows(ctx)
		if err != nil {
			return err
		}
		for _, w := range windows {
			if !mainWindow.Matches(w) {
				continue
			}
			win := automation.NewWindow(s, w.Handle)
			for _, item := range path {
				if _, err := win.Press(ctx, probe.Query{Name: item, Role: domain.RoleMenuItem}); err != nil {
					return err
				}
			}
			return nil
		}
		return fmt.Errorf("%w: main window", domain.ErrWindowGone)
	}
}

func (s Settings) base(name string, pages ...string) Task {
	t := Task{
		Name:    name,
		Target:  ConfigDialog,
		Pages:   pages,
		Commit:  apply,
		Policy:  s.Policy,
		APIOnly: true,
	}
	if !s.MainWindow.IsZero() {
		t.Open = OpenConfiguration(s.HostKind, s.MainWindow)
	}
	return t
}

func toggle(label string, on bool) Mutation {
	return func(ctx context.Context, w *automation.Window) (bool, error) {
		res, err := w.SetToggle(ctx, probe.Named(label), on)
		return res.Changed, err
	}
}

func text(label, value string) Mutation {
	return func(ctx context.Context, w *automation.Window) (bool, error) {
		res, err := w.TypeText(ctx, probe.Named(label), value)
		return res.Changed, err
	}
}

// EnableAPI turns on socket clients.
func (s Settings) EnableAPI() Task {
	t := s.base("EnableAPI", PageAPI, PageSettings)
	t.Mutation = toggle(LabelEnableAPI, true)
	return t
}

// ReadOnly sets the read-only API flag.
func (s Settings) ReadOnly(on bool) Task {
	t := s.base("ReadOnlyApi", PageAPI, PageSettings)
	t.Mutation = toggle(LabelReadOnlyAPI, on)
	return t
}

// LocalhostOnly restricts API connections to localhost.
func (s Settings) LocalhostOnly(on bool) Task {
	t := s.base("AllowConnectionsFromLocalhostOnly", PageAPI, PageSettings)
	t.Mutation = toggle(LabelLocalhostOnly, on)
	return t
}

// Port overrides the API socket port.
func (s Settings) Port(port int) Task {
	t := s.base("OverrideTwsApiPort", PageAPI, PageSettings)
	t.Mutation = text(LabelSocketPort, strconv.Itoa(port))
	return t
}

// MasterClient overrides the master API client ID.
func (s Settings) MasterClient(id int) Task {
	t := s.base("OverrideTwsMasterClientID", PageAPI, PageSettings)
	t.Mutation = text(LabelMasterClientID, strconv.Itoa(id))
	return t
}

// MarketDataInLots sets the dual-mode market data option.
func (s Settings) MarketDataInLots(on bool) Task {
	t := s.base("SendMarketDataInLotsForUSstocks", PageAPI, PageSettings)
	t.Mutation = toggle(LabelMarketDataLots, on)
	return t
}

// ResetOrderIDSequence presses the reset button. The host shows a confirmation
// dialog that a dialog handler answers.
func (s Settings) ResetOrderIDSequence() Task {
	t := s.base("ResetOrderIdsAtStart", PageAPI, PageSettings)
	t.Commit = probe.Query{}
	t.Mutation = func(ctx context.Context, w *automation.Window) (bool, error) {
		res, err := w.Press(ctx, probe.Button(LabelResetOrderIDs))
		return res.Changed, err
	}
	return t
}

// HostTimer sets the host's own daily auto logoff or auto restart time.
func (s Settings) HostTimer(kind domain.TriggerKind, clock string) Task {
	radio, field, name := LabelAutoLogoff, LabelAutoLogoffTime, "AutoLogoffTime"
	if kind == domain.TriggerAutoRestart {
		radio, field, name = LabelAutoRestart, LabelAutoRestartTime, "AutoRestartTime"
	}
	t := s.base(name, PageLockAndExit)
	t.Mutation = func(ctx context.Context, w *automation.Window) (bool, error) {
		selected, err := w.SetToggle(ctx, probe.Query{Name: radio, Role: domain.RoleRadio}, true)
		if err != nil {
			return false, err
		}
		typed, err := w.TypeText(ctx, probe.Named(field), clock)
		if err != nil {
			return selected.Changed, err
		}
		return selected.Changed || typed.Changed, nil
	}
	return t
}

// Precaution sets one order precaution checkbox.
func (s Settings) Precaution(label string, on bool) Task {
	t := s.base("ApiPrecautions:"+label, PageAPI, PagePrecautions)
	t.Mutation = toggle(label, on)
	return t
}

// Tasks lists the tasks implied by the settings, in a stable order.
func (s Settings) Tasks() []Task {
	var tasks []Task
	if s.ReadOnlyAPI != nil {
		tasks = append(tasks, s.ReadOnly(*s.ReadOnlyAPI))
	}
	if s.AllowLocalhostOnly != nil {
		tasks = append(tasks, s.LocalhostOnly(*s.AllowLocalhostOnly))
	}
	if s.APIPort > 0 {
		tasks = append(tasks, s.Port(s.APIPort))
	}
	if s.MasterClientID != nil {
		tasks = append(tasks, s.MasterClient(*s.MasterClientID))
	}
	if s.SendMarketDataInLots != nil {
		tasks = append(tasks, s.MarketDataInLots(*s.SendMarketDataInLots))
	}
	if s.HostTimerKind != "" && s.HostTimerClock != "" {
		tasks = append(tasks, s.HostTimer(s.HostTimerKind, s.HostTimerClock))
	}
	labels := make([]string, 0, len(s.Precautions))
	for label := range s.Precautions {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	for _, label := range labels {
		tasks = append(tasks, s.Precaution(label, s.Precautions[label]))
	}
	if s.ResetOrderIDs {
		tasks = append(tasks, s.ResetOrderIDSequence())
	}
	return tasks
}
