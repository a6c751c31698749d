package registry_test

import (
	"context"
	"testing"

	"github.com/aretw0/warden/pkg/domain"
	"github.com/aretw0/warden/pkg/probe"
	"github.com/aretw0/warden/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noop(context.Context, *registry.Env, domain.WindowSnapshot) error { return nil }

func TestRegistry_FirstMatchWins(t *testing.T) {
	r := registry.New()
	require.NoError(t, r.Register(
		registry.Handler{Name: "second-factor", Match: registry.Matcher{TitleContains: "Second Factor", Text: []string{"Enter Read Only"}}, Action: noop},
		registry.Handler{Name: "security-code", Match: registry.Matcher{Text: []string{"Enter Read Only"}}, Action: noop},
	))

	w := domain.WindowSnapshot{
		Title:    "Second Factor Authentication",
		Controls: []domain.Control{{Role: domain.RoleButton, Name: "Enter Read Only", Enabled: true}},
	}
	h, ok := r.Match(w)
	require.True(t, ok)
	assert.Equal(t, "second-factor", h.Name)

	w.Title = "Security Code Card Authentication"
	h, ok = r.Match(w)
	require.True(t, ok)
	assert.Equal(t, "security-code", h.Name)

	_, ok = r.Match(domain.WindowSnapshot{Title: "Untitled"})
	assert.False(t, ok)
}

func TestRegistry_RegisterErrors(t *testing.T) {
	r := registry.New()
	require.NoError(t, r.Register(registry.Handler{Name: "a", Match: registry.Matcher{Title: "A"}, Action: noop}))

	err := r.Register(registry.Handler{Name: "a", Match: registry.Matcher{Title: "B"}, Action: noop})
	assert.ErrorIs(t, err, registry.ErrDuplicateHandler)

	assert.Error(t, r.Register(registry.Handler{Name: "no-action"}))

	r.Seal()
	assert.True(t, r.Sealed())
	err = r.Register(registry.Handler{Name: "late", Match: registry.Matcher{Title: "C"}, Action: noop})
	assert.ErrorIs(t, err, registry.ErrSealed)
	assert.Equal(t, []string{"a"}, r.Names())
}

func TestMatcher(t *testing.T) {
	w := domain.WindowSnapshot{
		Class: "javax.swing.JDialog",
		Title: "Existing session detected",
		Controls: []domain.Control{
			{Role: domain.RoleLabel, Text: "You are already logged in elsewhere"},
			{Role: domain.RoleButton, Name: "Continue Login", Enabled: true},
		},
	}

	tests := []struct {
		name string
		m    registry.Matcher
		want bool
	}{
		{"zero matches nothing", registry.Matcher{}, false},
		{"exact title", registry.Matcher{Title: "Existing session detected"}, true},
		{"class mismatch", registry.Matcher{Class: "javax.swing.JFrame", Title: "Existing session detected"}, false},
		{"prefix", registry.Matcher{TitlePrefix: "Existing"}, true},
		{"all text must appear", registry.Matcher{Text: []string{"already logged in", "Exit Application"}}, false},
		{"control query", registry.Matcher{TitleContains: "session", Control: probe.Button("Continue Login")}, true},
		{"custom predicate", registry.Matcher{When: func(w domain.WindowSnapshot) bool { return len(w.Controls) == 3 }}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.m.Matches(w))
		})
	}
}
