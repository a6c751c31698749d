// Package bridge talks to the accessibility bridge that runs inside the host
// process. Both directions carry JSON lines: requests are answered by a reply
// with the same id, and window notifications arrive unsolicited in between.
package bridge

import (
	"errors"
	"fmt"

	"github.com/aretw0/warden/pkg/domain"
)

// Operations understood by the bridge.
const (
	OpWindows = "windows"
	OpInspect = "inspect"
	OpToggle  = "toggle"
	OpSetText = "set_text"
	OpPress   = "press"
	OpSelect  = "select"
	OpClose   = "close"
)

// Error codes the bridge attaches to failed replies.
const (
	CodeWindowGone      = "window_gone"
	CodeControlNotFound = "control_not_found"
)

// Request is one line written to the bridge.
type Request struct {
	ID      uint64              `json:"id"`
	Op      string              `json:"op"`
	Window  domain.WindowHandle `json:"window,omitempty"`
	Control string              `json:"control,omitempty"`
	On      *bool               `json:"on,omitempty"`
	Text    *string             `json:"text,omitempty"`
}

// Message is one line read from the bridge: a reply when ID is set,
// otherwise a window notification.
type Message struct {
	ID      uint64                  `json:"id,omitempty"`
	OK      bool                    `json:"ok,omitempty"`
	Error   string                  `json:"error,omitempty"`
	Code    string                  `json:"code,omitempty"`
	Window  *domain.WindowSnapshot  `json:"window,omitempty"`
	Windows []domain.WindowSnapshot `json:"windows,omitempty"`

	Event *domain.WindowEvent `json:"event,omitempty"`
}

func (m Message) err() error {
	if m.OK {
		return nil
	}
	msg := m.Error
	if msg == "" {
		msg = "request failed"
	}
	switch m.Code {
	case CodeWindowGone:
		return fmt.Errorf("%w: %s", domain.ErrWindowGone, msg)
	case CodeControlNotFound:
		return fmt.Errorf("%w: %s", domain.ErrControlNotFound, msg)
	}
	return errors.New(msg)
}
