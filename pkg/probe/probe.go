// Package probe locates controls inside a window's control tree.
//
// Queries are evaluated depth-first in tree order and the first hit wins, which
// mirrors how the host lays out its dialogs: the control a human would see first
// is the one returned.
package probe

import (
	"strings"

	"github.com/aretw0/warden/pkg/domain"
)

// Query selects controls. Empty fields are ignored; a zero Query matches nothing.
type Query struct {
	Name         string
	NamePrefix   string
	Role         domain.Role
	Text         string
	TextContains string
}

// Named is shorthand for a query on the exact control name.
func Named(name string) Query {
	return Query{Name: name}
}

// Button matches a button by its label.
func Button(name string) Query {
	return Query{Name: name, Role: domain.RoleButton}
}

// IsZero reports whether the query has no criteria.
func (q Query) IsZero() bool {
	return q == Query{}
}

// Matches reports whether a single control satisfies every set criterion.
func (q Query) Matches(c domain.Control) bool {
	if q.IsZero() {
		return false
	}
	if q.Name != "" && c.Name != q.Name {
		return false
	}
	if q.NamePrefix != "" && !strings.HasPrefix(c.Name, q.NamePrefix) {
		return false
	}
	if q.Role != "" && c.Role != q.Role {
		return false
	}
	if q.Text != "" && c.Text != q.Text {
		return false
	}
	if q.TextContains != "" && !strings.Contains(c.Text, q.TextContains) {
		return false
	}
	return true
}

func (q Query) String() string {
	var parts []string
	if q.Role != "" {
		parts = append(parts, string(q.Role))
	}
	if q.Name != "" {
		parts = append(parts, "name="+q.Name)
	}
	if q.NamePrefix != "" {
		parts = append(parts, "name^="+q.NamePrefix)
	}
	if q.Text != "" {
		parts = append(parts, "text="+q.Text)
	}
	if q.TextContains != "" {
		parts = append(parts, "text~="+q.TextContains)
	}
	return strings.Join(parts, " ")
}

// Find returns the first control in depth-first order matching q.
func Find(controls []domain.Control, q Query) (domain.Control, bool) {
	var found domain.Control
	ok := false
	Walk(controls, func(c domain.Control) bool {
		if q.Matches(c) {
			found, ok = c, true
			return false
		}
		return true
	})
	return found, ok
}

// FindAll returns every matching control in depth-first order.
func FindAll(controls []domain.Control, q Query) []domain.Control {
	var out []domain.Control
	Walk(controls, func(c domain.Control) bool {
		if q.Matches(c) {
			out = append(out, c)
		}
		return true
	})
	return out
}

// HasText reports whether any control's name or text contains s.
// Dialogs that only differ by message body are recognized this way.
func HasText(controls []domain.Control, s string) bool {
	if s == "" {
		return false
	}
	hit := false
	Walk(controls, func(c domain.Control) bool {
		if strings.Contains(c.Text, s) || strings.Contains(c.Name, s) {
			hit = true
			return false
		}
		return true
	})
	return hit
}

// Walk visits controls depth-first until visit returns false.
func Walk(controls []domain.Control, visit func(domain.Control) bool) bool {
	for _, c := range controls {
		if !visit(c) {
			return false
		}
		if !Walk(c.Children, visit) {
			return false
		}
	}
	return true
}
