// Package metrics defines the Prometheus collectors exported by warden.
package metrics

import (
	"context"

	"github.com/aretw0/warden/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Dispatch metrics
var (
	// WindowsDispatched counts shown windows by result (matched/unmatched).
	WindowsDispatched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "warden_windows_dispatched_total",
			Help: "Shown windows processed by the dispatcher, by result",
		},
		[]string{"result"},
	)

	// HandlerMatches counts windows recognized per handler.
	HandlerMatches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "warden_handler_matches_total",
			Help: "Windows recognized per handler",
		},
		[]string{"handler"},
	)

	// HandlerErrors counts failed handler actions.
	HandlerErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "warden_handler_errors_total",
			Help: "Handler actions that returned an error or panicked",
		},
		[]string{"handler"},
	)

	// HandlerDuration tracks how long handler actions take.
	HandlerDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "warden_handler_duration_seconds",
			Help:    "Handler action duration in seconds",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2, 5},
		},
		[]string{"handler"},
	)
)

// Session metrics
var (
	// Transitions counts session transitions by target phase.
	Transitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "warden_session_transitions_total",
			Help: "Session transitions by target phase",
		},
		[]string{"to"},
	)

	// SessionPhase is 1 for the current phase and 0 for the others.
	SessionPhase = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "warden_session_phase",
			Help: "Current session phase (1 = active)",
		},
		[]string{"phase"},
	)
)

// Control metrics
var (
	// Commands counts control channel commands by verb and result.
	Commands = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "warden_commands_total",
			Help: "Control commands received, by verb and result",
		},
		[]string{"verb", "result"},
	)

	// ConfigTasks counts configuration task outcomes.
	ConfigTasks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "warden_config_tasks_total",
			Help: "Configuration task results by task and outcome",
		},
		[]string{"task", "outcome"},
	)

	// TriggersFired counts scheduled triggers that fired.
	TriggersFired = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "warden_triggers_fired_total",
			Help: "Scheduled triggers fired, by kind",
		},
		[]string{"kind"},
	)
)

var phases = []domain.Phase{
	domain.PhaseStarting,
	domain.PhaseLoggingIn,
	domain.PhaseRunning,
	domain.PhaseShuttingDown,
	domain.PhaseStopped,
}

// SetPhase moves the phase gauge to p.
func SetPhase(p domain.Phase) {
	for _, ph := range phases {
		v := 0.0
		if ph == p {
			v = 1
		}
		SessionPhase.WithLabelValues(string(ph)).Set(v)
	}
}

// Hooks returns lifecycle hooks feeding the collectors above. Use Chain to
// combine them with other hooks.
func Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTransition: func(_ context.Context, ev domain.TransitionEvent) {
			Transitions.WithLabelValues(string(ev.To)).Inc()
			SetPhase(ev.To)
		},
		OnMatch: func(_ context.Context, ev domain.DispatchEvent) {
			WindowsDispatched.WithLabelValues("matched").Inc()
			HandlerMatches.WithLabelValues(ev.Handler).Inc()
			HandlerDuration.WithLabelValues(ev.Handler).Observe(ev.Duration.Seconds())
		},
		OnMiss: func(context.Context, domain.DispatchEvent) {
			WindowsDispatched.WithLabelValues("unmatched").Inc()
		},
		OnActionError: func(_ context.Context, ev domain.DispatchEvent) {
			HandlerErrors.WithLabelValues(ev.Handler).Inc()
		},
	}
}

// Chain runs each hook set in order.
func Chain(sets ...domain.LifecycleHooks) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTransition: func(ctx context.Context, ev domain.TransitionEvent) {
			for _, s := range sets {
				if s.OnTransition != nil {
					s.OnTransition(ctx, ev)
				}
			}
		},
		OnMatch: func(ctx context.Context, ev domain.DispatchEvent) {
			for _, s := range sets {
				if s.OnMatch != nil {
					s.OnMatch(ctx, ev)
				}
			}
		},
		OnMiss: func(ctx context.Context, ev domain.DispatchEvent) {
			for _, s := range sets {
				if s.OnMiss != nil {
					s.OnMiss(ctx, ev)
				}
			}
		},
		OnActionError: func(ctx context.Context, ev domain.DispatchEvent) {
			for _, s := range sets {
				if s.OnActionError != nil {
					s.OnActionError(ctx, ev)
				}
			}
		},
	}
}
