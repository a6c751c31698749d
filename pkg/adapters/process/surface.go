package process

import (
	"context"

	"github.com/aretw0/warden/pkg/adapters/bridge"
	"github.com/aretw0/warden/pkg/domain"
)

// The Host forwards ports.Surface and ports.WindowEvents to its bridge so the
// controller can hold one value for the whole host. Before Launch every call
// fails with domain.ErrHostNotRunning.

func (h *Host) live() (*bridge.Client, error) {
	if c := h.Bridge(); c != nil {
		return c, nil
	}
	return nil, domain.ErrHostNotRunning
}

// Events implements ports.WindowEvents.
func (h *Host) Events(ctx context.Context) (<-chan domain.WindowEvent, error) {
	c, err := h.live()
	if err != nil {
		return nil, err
	}
	return c.Events(ctx)
}

// Windows implements ports.Surface.
func (h *Host) Windows(ctx context.Context) ([]domain.WindowSnapshot, error) {
	c, err := h.live()
	if err != nil {
		return nil, err
	}
	return c.Windows(ctx)
}

// Inspect implements ports.Surface.
func (h *Host) Inspect(ctx context.Context, w domain.WindowHandle) (domain.WindowSnapshot, error) {
	c, err := h.live()
	if err != nil {
		return domain.WindowSnapshot{}, err
	}
	return c.Inspect(ctx, w)
}

// Toggle implements ports.Surface.
func (h *Host) Toggle(ctx context.Context, w domain.WindowHandle, controlID string, on bool) error {
	c, err := h.live()
	if err != nil {
		return err
	}
	return c.Toggle(ctx, w, controlID, on)
}

// SetText implements ports.Surface.
func (h *Host) SetText(ctx context.Context, w domain.WindowHandle, controlID, text string) error {
	c, err := h.live()
	if err != nil {
		return err
	}
	return c.SetText(ctx, w, controlID, text)
}

// Press implements ports.Surface.
func (h *Host) Press(ctx context.Context, w domain.WindowHandle, controlID string) error {
	c, err := h.live()
	if err != nil {
		return err
	}
	return c.Press(ctx, w, controlID)
}

// Select implements ports.Surface.
func (h *Host) Select(ctx context.Context, w domain.WindowHandle, controlID string) error {
	c, err := h.live()
	if err != nil {
		return err
	}
	return c.Select(ctx, w, controlID)
}

// Close implements ports.Surface.
func (h *Host) Close(ctx context.Context, w domain.WindowHandle) error {
	c, err := h.live()
	if err != nil {
		return err
	}
	return c.Close(ctx, w)
}
