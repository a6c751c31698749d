package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/warden/pkg/domain"
)

// Overlay marks the phases a session has been through.
type Overlay struct {
	Visited []domain.Phase
	Current domain.Phase
}

// OverlayFromHistory builds an overlay from transitions in any order.
func OverlayFromHistory(current domain.Phase, history []domain.TransitionEvent) *Overlay {
	o := &Overlay{Current: current}
	for _, ev := range history {
		o.Visited = append(o.Visited, ev.From, ev.To)
	}
	return o
}

type edge struct {
	from, to domain.Phase
	label    string
	abnormal bool
}

var lifecycle = []edge{
	{from: domain.PhaseStarting, to: domain.PhaseLoggingIn, label: "host launched"},
	{from: domain.PhaseStarting, to: domain.PhaseStopped, label: "launch failed", abnormal: true},
	{from: domain.PhaseStarting, to: domain.PhaseShuttingDown, label: "stop"},
	{from: domain.PhaseLoggingIn, to: domain.PhaseRunning, label: "main window"},
	{from: domain.PhaseLoggingIn, to: domain.PhaseShuttingDown, label: "stop"},
	{from: domain.PhaseRunning, to: domain.PhaseShuttingDown, label: "stop / restart"},
	{from: domain.PhaseLoggingIn, to: domain.PhaseShuttingDown, label: "host exited", abnormal: true},
	{from: domain.PhaseRunning, to: domain.PhaseShuttingDown, label: "host exited", abnormal: true},
	{from: domain.PhaseShuttingDown, to: domain.PhaseStopped, label: "host exited"},
}

// Lifecycle renders the session phase machine as a Mermaid flowchart.
// Start and end phases are circles; unrequested paths are dotted.
func Lifecycle(overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, p := range []domain.Phase{domain.PhaseStarting, domain.PhaseLoggingIn, domain.PhaseRunning, domain.PhaseShuttingDown, domain.PhaseStopped} {
		opener, closer := "[", "]"
		if p == domain.PhaseStarting || p == domain.PhaseStopped {
			opener, closer = "((", "))"
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", nodeID(p), opener, p, closer)
	}
	for _, e := range lifecycle {
		arrow := fmt.Sprintf("-- \"%s\" -->", e.label)
		if e.abnormal {
			arrow = fmt.Sprintf("-. \"%s\" .->", e.label)
		}
		fmt.Fprintf(&sb, "    %s %s %s\n", nodeID(e.from), arrow, nodeID(e.to))
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		seen := make(map[domain.Phase]bool)
		for _, p := range overlay.Visited {
			if p == "" || seen[p] || p == overlay.Current {
				continue
			}
			seen[p] = true
			fmt.Fprintf(&sb, "    class %s visited;\n", nodeID(p))
		}
		if overlay.Current != "" {
			fmt.Fprintf(&sb, "    class %s current;\n", nodeID(overlay.Current))
		}
	}
	return sb.String()
}

func nodeID(p domain.Phase) string {
	return strings.NewReplacer("-", "_", ".", "_", " ", "_").Replace(string(p))
}
