package ports

import (
	"context"

	"github.com/aretw0/warden/pkg/domain"
)

// StatusStore persists the observable session state so that operators and
// replicas can read it without talking to the controller.
type StatusStore interface {
	// Save replaces the current state for an instance.
	Save(ctx context.Context, instance string, state domain.SessionState) error

	// Load returns domain.ErrStatusNotFound if nothing was saved.
	Load(ctx context.Context, instance string) (domain.SessionState, error)

	// Record appends a transition to the instance history.
	Record(ctx context.Context, instance string, ev domain.TransitionEvent) error

	// History returns up to limit transitions, newest first.
	History(ctx context.Context, instance string, limit int) ([]domain.TransitionEvent, error)
}
