// Package automation performs control-level actions on a live host window.
//
// Every action re-inspects the window and resolves its target afresh, so a
// control is never addressed through an ID cached from an earlier snapshot.
// Actions that find the control already in the requested state do nothing and
// report Changed=false.
package automation

import (
	"context"
	"fmt"

	"github.com/aretw0/warden/pkg/domain"
	"github.com/aretw0/warden/pkg/ports"
	"github.com/aretw0/warden/pkg/probe"
)

// Result describes the effect of an action.
type Result struct {
	Changed bool
}

// Window binds a surface to one window handle.
type Window struct {
	surface ports.Surface
	handle  domain.WindowHandle
}

// NewWindow returns an action target for h.
func NewWindow(s ports.Surface, h domain.WindowHandle) *Window {
	return &Window{surface: s, handle: h}
}

// Handle returns the bound window handle.
func (w *Window) Handle() domain.WindowHandle {
	return w.handle
}

// Snapshot inspects the live window.
func (w *Window) Snapshot(ctx context.Context) (domain.WindowSnapshot, error) {
	return w.surface.Inspect(ctx, w.handle)
}

// Find resolves q against a fresh snapshot.
func (w *Window) Find(ctx context.Context, q probe.Query) (domain.Control, error) {
	snap, err := w.surface.Inspect(ctx, w.handle)
	if err != nil {
		return domain.Control{}, err
	}
	c, ok := probe.Find(snap.Controls, q)
	if !ok {
		return domain.Control{}, fmt.Errorf("%w: %s in %q", domain.ErrControlNotFound, q, snap.Title)
	}
	return c, nil
}

// Has reports whether q resolves in the live window.
func (w *Window) Has(ctx context.Context, q probe.Query) bool {
	_, err := w.Find(ctx, q)
	return err == nil
}

// SetToggle drives a checkbox or radio button to the wanted state.
func (w *Window) SetToggle(ctx context.Context, q probe.Query, on bool) (Result, error) {
	c, err := w.Find(ctx, q)
	if err != nil {
		return Result{}, err
	}
	if !c.Toggleable() {
		return Result{}, fmt.Errorf("control %q is a %s, not a toggle", c.Name, c.Role)
	}
	if c.Selected == on {
		return Result{}, nil
	}
	if err := w.surface.Toggle(ctx, w.handle, c.ID, on); err != nil {
		return Result{}, fmt.Errorf("toggle %q: %w", c.Name, err)
	}
	return Result{Changed: true}, nil
}

// Press clicks a button.
func (w *Window) Press(ctx context.Context, q probe.Query) (Result, error) {
	c, err := w.Find(ctx, q)
	if err != nil {
		return Result{}, err
	}
	if !c.Enabled {
		return Result{}, fmt.Errorf("press %q: control disabled", c.Name)
	}
	if err := w.surface.Press(ctx, w.handle, c.ID); err != nil {
		return Result{}, fmt.Errorf("press %q: %w", c.Name, err)
	}
	return Result{Changed: true}, nil
}

// PressFirst presses the first of the given buttons that exists.
func (w *Window) PressFirst(ctx context.Context, names ...string) (Result, error) {
	for _, name := range names {
		if w.Has(ctx, probe.Button(name)) {
			return w.Press(ctx, probe.Button(name))
		}
	}
	return Result{}, fmt.Errorf("%w: none of %v", domain.ErrControlNotFound, names)
}

// TypeText replaces the contents of a text field.
func (w *Window) TypeText(ctx context.Context, q probe.Query, text string) (Result, error) {
	c, err := w.Find(ctx, q)
	if err != nil {
		return Result{}, err
	}
	if c.Text == text {
		return Result{}, nil
	}
	if err := w.surface.SetText(ctx, w.handle, c.ID, text); err != nil {
		return Result{}, fmt.Errorf("set text %q: %w", c.Name, err)
	}
	return Result{Changed: true}, nil
}

// Select activates an item (tree node, tab, list entry).
func (w *Window) Select(ctx context.Context, q probe.Query) (Result, error) {
	c, err := w.Find(ctx, q)
	if err != nil {
		return Result{}, err
	}
	if c.Selected {
		return Result{}, nil
	}
	if err := w.surface.Select(ctx, w.handle, c.ID); err != nil {
		return Result{}, fmt.Errorf("select %q: %w", c.Name, err)
	}
	return Result{Changed: true}, nil
}

// SelectPath walks a navigation path such as a settings tree ("API", "Settings"),
// re-inspecting after each step since selecting a node can reveal its children.
func (w *Window) SelectPath(ctx context.Context, path ...string) error {
	for _, name := range path {
		if _, err := w.Select(ctx, probe.Named(name)); err != nil {
			return err
		}
	}
	return nil
}

// Close dismisses the window.
func (w *Window) Close(ctx context.Context) error {
	return w.surface.Close(ctx, w.handle)
}
