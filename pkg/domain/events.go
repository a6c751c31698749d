package domain

import (
	"context"
	"time"
)

// TransitionEvent describes one accepted session transition.
type TransitionEvent struct {
	From      Phase        `json:"from"`
	To        Phase        `json:"to"`
	Stop      *StopRequest `json:"stop,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
}

// DispatchEvent describes the outcome of dispatching one window.
type DispatchEvent struct {
	Window   WindowHandle  `json:"window"`
	Title    string        `json:"title"`
	Handler  string        `json:"handler,omitempty"`
	Duration time.Duration `json:"duration"`
	Err      error         `json:"-"`
}

// LifecycleHooks defines callbacks for controller observability.
// Nil hooks are skipped.
type LifecycleHooks struct {
	OnTransition  func(context.Context, TransitionEvent)
	OnMatch       func(context.Context, DispatchEvent)
	OnMiss        func(context.Context, DispatchEvent)
	OnActionError func(context.Context, DispatchEvent)
}
