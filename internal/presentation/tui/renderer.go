package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/aretw0/warden/pkg/domain"
	"github.com/aretw0/warden/pkg/registry"
	"github.com/charmbracelet/glamour"
)

// NewRenderer returns a function that renders markdown for the terminal.
// The style follows the terminal background.
func NewRenderer() func(string) (string, error) {
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle())
	if err != nil {
		return func(markdown string) (string, error) { return markdown, nil }
	}
	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}

// HandlersMarkdown lists handlers as a table in dispatch order.
func HandlersMarkdown(handlers []registry.Handler) string {
	var sb strings.Builder
	sb.WriteString("# Window handlers\n\n")
	sb.WriteString("The first handler whose signature matches a window handles it.\n\n")
	sb.WriteString("| # | Handler | Signature |\n|---|---------|-----------|\n")
	for i, h := range handlers {
		fmt.Fprintf(&sb, "| %d | `%s` | %s |\n", i+1, h.Name, cell(h.Match.String()))
	}
	return sb.String()
}

// ScheduleMarkdown lists resolved triggers, soonest first.
func ScheduleMarkdown(plan []domain.ScheduledTrigger, loc *time.Location) string {
	var sb strings.Builder
	sb.WriteString("# Schedule\n\n")
	if len(plan) == 0 {
		sb.WriteString("Nothing scheduled.\n")
		return sb.String()
	}
	sb.WriteString("| Trigger | Spec | Repeats | Next |\n|---------|------|---------|------|\n")
	for _, t := range plan {
		fmt.Fprintf(&sb, "| %s | `%s` | %s | %s |\n", t.Kind, t.Spec, t.Recurrence, t.FireAt.In(loc).Format("Mon 2006-01-02 15:04 MST"))
	}
	return sb.String()
}

func cell(s string) string {
	if s == "" {
		return "-"
	}
	return strings.ReplaceAll(s, "|", "\\|")
}
