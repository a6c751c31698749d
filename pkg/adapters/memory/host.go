// Package memory provides in-process implementations of the warden ports.
//
// Host is a scriptable stand-in for the real host application: tests (and the
// demo mode of the CLI) show windows on it, and it records every action the
// controller performs.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/aretw0/warden/pkg/domain"
	"github.com/jonboulle/clockwork"
)

// Action is one recorded mutation performed against the Host.
type Action struct {
	Op      string
	Window  domain.WindowHandle
	Control string
	Value   string
}

func (a Action) String() string {
	if a.Value == "" {
		return fmt.Sprintf("%s %s/%s", a.Op, a.Window, a.Control)
	}
	return fmt.Sprintf("%s %s/%s=%s", a.Op, a.Window, a.Control, a.Value)
}

// Host implements ports.HostProcess, ports.Surface and ports.WindowEvents.
type Host struct {
	mu       sync.Mutex
	windows  map[domain.WindowHandle]*domain.WindowSnapshot
	order    []domain.WindowHandle
	pinned   map[domain.WindowHandle]bool
	actions  []Action
	stops    []domain.StopKind
	launched bool
	stopping bool

	events   chan domain.WindowEvent
	exited   chan struct{}
	exitOnce sync.Once

	clock      clockwork.Clock
	launchErr  error
	exitOnStop bool
}

// HostOption configures the Host.
type HostOption func(*Host)

// WithClock sets the clock used to stamp windows and events.
func WithClock(c clockwork.Clock) HostOption {
	return func(h *Host) {
		h.clock = c
	}
}

// WithLaunchError makes Launch fail.
func WithLaunchError(err error) HostOption {
	return func(h *Host) {
		h.launchErr = err
	}
}

// WithExitOnStop controls whether RequestStop terminates the fake process (default true).
func WithExitOnStop(exit bool) HostOption {
	return func(h *Host) {
		h.exitOnStop = exit
	}
}

// NewHost creates an empty fake host.
func NewHost(opts ...HostOption) *Host {
	h := &Host{
		windows:    make(map[domain.WindowHandle]*domain.WindowSnapshot),
		pinned:     make(map[domain.WindowHandle]bool),
		events:     make(chan domain.WindowEvent, 256),
		exited:     make(chan struct{}),
		clock:      clockwork.NewRealClock(),
		exitOnStop: true,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Launch implements ports.HostProcess.
func (h *Host) Launch(ctx context.Context) error {
	if h.launchErr != nil {
		return h.launchErr
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.launched = true
	return nil
}

// RequestStop implements ports.HostProcess.
func (h *Host) RequestStop(ctx context.Context, kind domain.StopKind) error {
	h.mu.Lock()
	if !h.launched {
		h.mu.Unlock()
		return domain.ErrHostNotRunning
	}
	if h.stopping {
		h.mu.Unlock()
		return domain.ErrShutdownInProgress
	}
	h.stopping = true
	h.stops = append(h.stops, kind)
	exit := h.exitOnStop
	h.mu.Unlock()

	if exit {
		h.Exit()
	}
	return nil
}

// Exited implements ports.HostProcess.
func (h *Host) Exited() <-chan struct{} {
	return h.exited
}

// Exit simulates the host process terminating.
func (h *Host) Exit() {
	h.exitOnce.Do(func() { close(h.exited) })
}

// Stops returns the stop kinds requested so far.
func (h *Host) Stops() []domain.StopKind {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]domain.StopKind(nil), h.stops...)
}

// Actions returns the mutations performed so far.
func (h *Host) Actions() []Action {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Action(nil), h.actions...)
}

// Show adds a window and emits a shown event.
func (h *Host) Show(w domain.WindowSnapshot) {
	if w.ShownAt.IsZero() {
		w.ShownAt = h.clock.Now()
	}
	h.mu.Lock()
	if _, exists := h.windows[w.Handle]; !exists {
		h.order = append(h.order, w.Handle)
	}
	cp := cloneSnapshot(w)
	h.windows[w.Handle] = &cp
	h.mu.Unlock()

	h.events <- domain.WindowEvent{Kind: domain.WindowShown, Handle: w.Handle, Title: w.Title, At: w.ShownAt}
}

// Pin keeps a window open when its buttons are pressed.
func (h *Host) Pin(handle domain.WindowHandle) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pinned[handle] = true
}

// Hide removes a window and emits a closed event.
func (h *Host) Hide(handle domain.WindowHandle) {
	h.mu.Lock()
	removed := h.remove(handle)
	h.mu.Unlock()
	if removed {
		h.events <- domain.WindowEvent{Kind: domain.WindowClosed, Handle: handle, At: h.clock.Now()}
	}
}

// Window returns the current snapshot of a window, if it is still open.
func (h *Host) Window(handle domain.WindowHandle) (domain.WindowSnapshot, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	w, ok := h.windows[handle]
	if !ok {
		return domain.WindowSnapshot{}, false
	}
	return cloneSnapshot(*w), true
}

// Events implements ports.WindowEvents. Only one subscriber is supported.
func (h *Host) Events(ctx context.Context) (<-chan domain.WindowEvent, error) {
	out := make(chan domain.WindowEvent)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case ev := <-h.events:
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// Windows implements ports.Surface.
func (h *Host) Windows(ctx context.Context) ([]domain.WindowSnapshot, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]domain.WindowSnapshot, 0, len(h.order))
	for _, handle := range h.order {
		out = append(out, cloneSnapshot(*h.windows[handle]))
	}
	return out, nil
}

// Inspect implements ports.Surface.
func (h *Host) Inspect(ctx context.Context, handle domain.WindowHandle) (domain.WindowSnapshot, error) {
	w, ok := h.Window(handle)
	if !ok {
		return domain.WindowSnapshot{}, fmt.Errorf("%w: %s", domain.ErrWindowGone, handle)
	}
	return w, nil
}

// Toggle implements ports.Surface.
func (h *Host) Toggle(ctx context.Context, handle domain.WindowHandle, controlID string, on bool) error {
	return h.mutate(handle, Action{Op: "toggle", Window: handle, Control: controlID, Value: fmt.Sprint(on)}, func(w *domain.WindowSnapshot) bool {
		return setToggle(w.Controls, controlID, on)
	})
}

// SetText implements ports.Surface.
func (h *Host) SetText(ctx context.Context, handle domain.WindowHandle, controlID, text string) error {
	return h.mutate(handle, Action{Op: "text", Window: handle, Control: controlID, Value: text}, func(w *domain.WindowSnapshot) bool {
		return update(w.Controls, controlID, func(c *domain.Control) { c.Text = text })
	})
}

// Select implements ports.Surface.
func (h *Host) Select(ctx context.Context, handle domain.WindowHandle, controlID string) error {
	return h.mutate(handle, Action{Op: "select", Window: handle, Control: controlID}, func(w *domain.WindowSnapshot) bool {
		return selectItem(w.Controls, controlID)
	})
}

// Press implements ports.Surface. Pressing any button other than Apply closes
// an unpinned window, the way modal dialogs behave.
func (h *Host) Press(ctx context.Context, handle domain.WindowHandle, controlID string) error {
	var label string
	err := h.mutate(handle, Action{Op: "press", Window: handle, Control: controlID}, func(w *domain.WindowSnapshot) bool {
		return update(w.Controls, controlID, func(c *domain.Control) { label = c.Name })
	})
	if err != nil {
		return err
	}
	h.mu.Lock()
	closes := !h.pinned[handle] && label != "Apply"
	h.mu.Unlock()
	if closes {
		h.Hide(handle)
	}
	return nil
}

// Close implements ports.Surface.
func (h *Host) Close(ctx context.Context, handle domain.WindowHandle) error {
	h.mu.Lock()
	if _, ok := h.windows[handle]; !ok {
		h.mu.Unlock()
		return fmt.Errorf("%w: %s", domain.ErrWindowGone, handle)
	}
	h.actions = append(h.actions, Action{Op: "close", Window: handle})
	h.mu.Unlock()
	h.Hide(handle)
	return nil
}

func (h *Host) mutate(handle domain.WindowHandle, a Action, fn func(*domain.WindowSnapshot) bool) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	w, ok := h.windows[handle]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrWindowGone, handle)
	}
	if !fn(w) {
		return fmt.Errorf("%w: id %s", domain.ErrControlNotFound, a.Control)
	}
	h.actions = append(h.actions, a)
	return nil
}

func (h *Host) remove(handle domain.WindowHandle) bool {
	if _, ok := h.windows[handle]; !ok {
		return false
	}
	delete(h.windows, handle)
	for i, o := range h.order {
		if o == handle {
			h.order = append(h.order[:i], h.order[i+1:]...)
			break
		}
	}
	return true
}

func update(controls []domain.Control, id string, fn func(*domain.Control)) bool {
	for i := range controls {
		if controls[i].ID == id {
			fn(&controls[i])
			return true
		}
		if update(controls[i].Children, id, fn) {
			return true
		}
	}
	return false
}

// setToggle flips a checkbox, or selects a radio and clears its siblings.
func setToggle(controls []domain.Control, id string, on bool) bool {
	for i := range controls {
		if controls[i].ID == id {
			if controls[i].Role == domain.RoleRadio && on {
				for j := range controls {
					if controls[j].Role == domain.RoleRadio {
						controls[j].Selected = false
					}
				}
			}
			controls[i].Selected = on
			return true
		}
		if setToggle(controls[i].Children, id, on) {
			return true
		}
	}
	return false
}

// selectItem marks an item selected and clears same-role siblings (tabs, tree nodes).
func selectItem(controls []domain.Control, id string) bool {
	for i := range controls {
		if controls[i].ID == id {
			for j := range controls {
				if controls[j].Role == controls[i].Role {
					controls[j].Selected = false
				}
			}
			controls[i].Selected = true
			return true
		}
		if selectItem(controls[i].Children, id) {
			return true
		}
	}
	return false
}

func cloneSnapshot(w domain.WindowSnapshot) domain.WindowSnapshot {
	w.Controls = cloneControls(w.Controls)
	return w
}

func cloneControls(in []domain.Control) []domain.Control {
	if in == nil {
		return nil
	}
	out := make([]domain.Control, len(in))
	for i, c := range in {
		c.Children = cloneControls(c.Children)
		out[i] = c
	}
	return out
}
