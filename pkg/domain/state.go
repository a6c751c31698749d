package domain

import (
	"fmt"
	"strings"
	"time"
)

// Phase is the lifecycle position of the host session.
type Phase string

const (
	PhaseStarting     Phase = "starting"
	PhaseLoggingIn    Phase = "logging_in"
	PhaseRunning      Phase = "running"
	PhaseShuttingDown Phase = "shutting_down"
	PhaseStopped      Phase = "stopped"
)

// Stopping reports whether the phase is ShuttingDown or Stopped.
// Neither can be left except forward.
func (p Phase) Stopping() bool {
	return p == PhaseShuttingDown || p == PhaseStopped
}

// Mode is the connection mode chosen at startup. It never changes afterwards.
type Mode string

const (
	ModeAPI Mode = "api"
	ModeFIX Mode = "fix"
)

// ParseMode accepts "api" or "fix" in any case. Empty means api.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "api":
		return ModeAPI, nil
	case "fix":
		return ModeFIX, nil
	}
	return "", fmt.Errorf("%w: mode %q", ErrInvalidSetting, s)
}

// HostKind distinguishes the full trading workstation from the headless gateway.
type HostKind string

const (
	HostWorkstation HostKind = "tws"
	HostGateway     HostKind = "gateway"
)

// StopKind selects what happens after the host goes down.
type StopKind string

const (
	StopShutdown    StopKind = "stop"
	StopRestart     StopKind = "restart"
	StopColdRestart StopKind = "cold_restart"
)

// StopRequest carries the intent behind a transition to ShuttingDown.
type StopRequest struct {
	Kind   StopKind  `json:"kind"`
	Source string    `json:"source"`
	Reason string    `json:"reason,omitempty"`
	At     time.Time `json:"at"`
}

// SessionState is the externally visible state of the session machine.
type SessionState struct {
	Phase         Phase        `json:"phase"`
	Mode          Mode         `json:"mode"`
	Authenticated bool         `json:"authenticated"`
	Stop          *StopRequest `json:"stop,omitempty"`
	Since         time.Time    `json:"since"`
}

// Status is the report served by the STATUS command and the HTTP/MCP adapters.
type Status struct {
	Session  SessionState       `json:"session"`
	Next     *ScheduledTrigger  `json:"next,omitempty"`
	Plan     []ScheduledTrigger `json:"plan,omitempty"`
	Handlers []string           `json:"handlers,omitempty"`
}
