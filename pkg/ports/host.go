package ports

import (
	"context"

	"github.com/aretw0/warden/pkg/domain"
)

// HostProcess controls the lifetime of the host application.
type HostProcess interface {
	// Launch starts the host. It returns once the host is running.
	Launch(ctx context.Context) error

	// RequestStop asks the host to go down. Implementations return
	// domain.ErrShutdownInProgress when the host is already stopping.
	RequestStop(ctx context.Context, kind domain.StopKind) error

	// Exited is closed after the host process has terminated.
	Exited() <-chan struct{}
}

// Lifecycle is the part of the session machine visible to dialog handlers,
// configuration tasks and the scheduler.
type Lifecycle interface {
	Mode() domain.Mode
	Phase() domain.Phase
	Authenticated(ctx context.Context) error
	RequestStop(ctx context.Context, req domain.StopRequest) error

	// SkipUnderFIX logs and reports true when an API-only step must not run.
	SkipUnderFIX(name string) bool
}
