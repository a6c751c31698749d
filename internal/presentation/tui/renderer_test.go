package tui_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/aretw0/warden/internal/presentation/tui"
	"github.com/aretw0/warden/pkg/domain"
	"github.com/aretw0/warden/pkg/registry"
	"github.com/stretchr/testify/assert"
)

func noop(context.Context, *registry.Env, domain.WindowSnapshot) error { return nil }

func TestHandlersMarkdown(t *testing.T) {
	md := tui.HandlersMarkdown([]registry.Handler{
		{Name: "login", Match: registry.Matcher{Title: "Login"}, Action: noop},
		{Name: "tip", Match: registry.Matcher{TitleContains: "a|b"}, Action: noop},
	})

	assert.Contains(t, md, "| 1 | `login` | title=Login |")
	assert.Contains(t, md, "| 2 | `tip` | title~=a\\|b |")
}

func TestScheduleMarkdown(t *testing.T) {
	assert.Contains(t, tui.ScheduleMarkdown(nil, time.UTC), "Nothing scheduled.")

	at := time.Date(2024, 3, 8, 22, 0, 0, 0, time.UTC)
	md := tui.ScheduleMarkdown([]domain.ScheduledTrigger{
		{Kind: domain.TriggerColdRestart, FireAt: at, Recurrence: domain.Weekly, Spec: "Friday 22:00"},
	}, time.UTC)
	assert.Contains(t, md, "| cold_restart | `Friday 22:00` | weekly | Fri 2024-03-08 22:00 UTC |")
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	tui.PrintBanner(&buf, "v1.2.3")
	assert.Contains(t, buf.String(), "unattended session controller v1.2.3")
	assert.Contains(t, buf.String(), "|_|")
}
