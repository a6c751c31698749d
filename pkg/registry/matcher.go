package registry

import (
	"strings"

	"github.com/aretw0/warden/pkg/domain"
	"github.com/aretw0/warden/pkg/probe"
)

// Matcher is a composite recognition key. Every non-empty field must hold.
// A zero Matcher matches nothing.
type Matcher struct {
	Class         string
	Title         string
	TitlePrefix   string
	TitleContains string

	// Text must appear in some control's name or text.
	Text []string

	// Control must resolve in the window's control tree.
	Control probe.Query

	// When is an extra predicate for signatures that need more than the above.
	When func(domain.WindowSnapshot) bool
}

// Matches evaluates the matcher against a snapshot.
func (m Matcher) Matches(w domain.WindowSnapshot) bool {
	if m.IsZero() {
		return false
	}
	if m.Class != "" && w.Class != m.Class {
		return false
	}
	if m.Title != "" && w.Title != m.Title {
		return false
	}
	if m.TitlePrefix != "" && !strings.HasPrefix(w.Title, m.TitlePrefix) {
		return false
	}
	if m.TitleContains != "" && !strings.Contains(w.Title, m.TitleContains) {
		return false
	}
	for _, text := range m.Text {
		if !probe.HasText(w.Controls, text) {
			return false
		}
	}
	if !m.Control.IsZero() {
		if _, ok := probe.Find(w.Controls, m.Control); !ok {
			return false
		}
	}
	if m.When != nil && !m.When(w) {
		return false
	}
	return true
}

// IsZero reports whether the matcher has no criteria.
func (m Matcher) IsZero() bool {
	return m.Class == "" && m.Title == "" && m.TitlePrefix == "" && m.TitleContains == "" &&
		len(m.Text) == 0 && m.Control.IsZero() && m.When == nil
}

// String renders the matcher for listings.
func (m Matcher) String() string {
	var parts []string
	if m.Class != "" {
		parts = append(parts, "class="+m.Class)
	}
	if m.Title != "" {
		parts = append(parts, "title="+m.Title)
	}
	if m.TitlePrefix != "" {
		parts = append(parts, "title^="+m.TitlePrefix)
	}
	if m.TitleContains != "" {
		parts = append(parts, "title~="+m.TitleContains)
	}
	for _, text := range m.Text {
		parts = append(parts, "text~="+text)
	}
	if !m.Control.IsZero() {
		parts = append(parts, "control("+m.Control.String()+")")
	}
	if m.When != nil {
		parts = append(parts, "custom")
	}
	return strings.Join(parts, " ")
}
