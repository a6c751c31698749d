package ports

import (
	"context"

	"github.com/aretw0/warden/pkg/domain"
)

// Surface is the accessibility view of the host's windows.
// Every mutation addresses a control by the ID found in a fresh snapshot;
// implementations return domain.ErrWindowGone when the window no longer exists.
type Surface interface {
	// Windows lists the currently visible top-level windows.
	Windows(ctx context.Context) ([]domain.WindowSnapshot, error)

	// Inspect takes a snapshot of a single window.
	Inspect(ctx context.Context, h domain.WindowHandle) (domain.WindowSnapshot, error)

	Toggle(ctx context.Context, h domain.WindowHandle, controlID string, on bool) error
	SetText(ctx context.Context, h domain.WindowHandle, controlID, text string) error
	Press(ctx context.Context, h domain.WindowHandle, controlID string) error
	Select(ctx context.Context, h domain.WindowHandle, controlID string) error
	Close(ctx context.Context, h domain.WindowHandle) error
}

// WindowEvents streams window notifications. The channel is closed when the
// source ends or ctx is canceled.
type WindowEvents interface {
	Events(ctx context.Context) (<-chan domain.WindowEvent, error)
}
