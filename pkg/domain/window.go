package domain

import "time"

// WindowHandle identifies a live host window for the lifetime of that window.
type WindowHandle string

// Role classifies a control inside a window.
type Role string

const (
	RoleButton   Role = "button"
	RoleCheckBox Role = "checkbox"
	RoleRadio    Role = "radio"
	RoleText     Role = "text"
	RolePassword Role = "password"
	RoleLabel    Role = "label"
	RoleCombo    Role = "combo"
	RoleList     Role = "list"
	RoleListItem Role = "listitem"
	RoleTree     Role = "tree"
	RoleTreeItem Role = "treeitem"
	RoleTab      Role = "tab"
	RoleMenuItem Role = "menuitem"
	RolePanel    Role = "panel"
)

// Control is one node of a window's control tree.
type Control struct {
	ID       string    `json:"id"`
	Role     Role      `json:"role"`
	Name     string    `json:"name,omitempty"`
	Text     string    `json:"text,omitempty"`
	Selected bool      `json:"selected,omitempty"`
	Enabled  bool      `json:"enabled"`
	Children []Control `json:"children,omitempty"`
}

// Toggleable reports whether the control carries an on/off state.
func (c Control) Toggleable() bool {
	return c.Role == RoleCheckBox || c.Role == RoleRadio
}

// WindowSnapshot is the read-only view of a window handed to recognizers and actions.
type WindowSnapshot struct {
	Handle   WindowHandle `json:"handle"`
	Class    string       `json:"class,omitempty"`
	Title    string       `json:"title"`
	Controls []Control    `json:"controls,omitempty"`
	ShownAt  time.Time    `json:"shown_at"`
}

// WindowEventKind tells whether a window appeared or went away.
type WindowEventKind string

const (
	WindowShown  WindowEventKind = "shown"
	WindowClosed WindowEventKind = "closed"
)

// WindowEvent is emitted by the host observer for every top-level window change.
type WindowEvent struct {
	Kind   WindowEventKind `json:"kind"`
	Handle WindowHandle    `json:"handle"`
	Title  string          `json:"title,omitempty"`
	At     time.Time       `json:"at"`
}
