package graph_test

import (
	"strings"
	"testing"

	"github.com/aretw0/warden/internal/presentation/graph"
	"github.com/aretw0/warden/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestLifecycle(t *testing.T) {
	out := graph.Lifecycle(nil)

	assert.True(t, strings.HasPrefix(out, "graph TD\n"))
	for _, want := range []string{
		`starting(("starting"))`,
		`stopped(("stopped"))`,
		`running["running"]`,
		`logging_in -- "main window" --> running`,
		`running -. "host exited" .-> shutting_down`,
	} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, "classDef")
}

func TestLifecycle_Overlay(t *testing.T) {
	history := []domain.TransitionEvent{
		{From: domain.PhaseLoggingIn, To: domain.PhaseRunning},
		{From: domain.PhaseStarting, To: domain.PhaseLoggingIn},
	}
	out := graph.Lifecycle(graph.OverlayFromHistory(domain.PhaseRunning, history))

	assert.Contains(t, out, "class starting visited;")
	assert.Contains(t, out, "class logging_in visited;")
	assert.Equal(t, 1, strings.Count(out, "class logging_in visited;"))
	assert.Contains(t, out, "class running current;")
	assert.NotContains(t, out, "class running visited;")
	assert.NotContains(t, out, "class stopped")
}
