package domain

import "time"

// TriggerKind names the lifecycle action a scheduled trigger performs.
type TriggerKind string

const (
	TriggerShutdown    TriggerKind = "shutdown"
	TriggerColdRestart TriggerKind = "cold_restart"
	TriggerAutoLogoff  TriggerKind = "auto_logoff"
	TriggerAutoRestart TriggerKind = "auto_restart"
)

// Recurrence is how a time specification repeats.
type Recurrence string

const (
	Daily  Recurrence = "daily"
	Weekly Recurrence = "weekly"
)

// ScheduledTrigger is a resolved wall-clock instant. FireAt is strictly after
// the instant it was computed at.
type ScheduledTrigger struct {
	Kind       TriggerKind `json:"kind"`
	FireAt     time.Time   `json:"fire_at"`
	Recurrence Recurrence  `json:"recurrence"`
	Spec       string      `json:"spec"`
}

// StopKind maps a trigger to the stop it requests. AutoLogoff and AutoRestart
// are carried out by the host itself and map to the zero value.
func (t ScheduledTrigger) StopKind() StopKind {
	switch t.Kind {
	case TriggerShutdown:
		return StopShutdown
	case TriggerColdRestart:
		return StopColdRestart
	}
	return ""
}
