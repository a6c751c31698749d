package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/aretw0/warden/internal/presentation/graph"
	"github.com/aretw0/warden/internal/presentation/tui"
	httpadapter "github.com/aretw0/warden/pkg/adapters/http"
	"github.com/aretw0/warden/pkg/dialogs"
	"golang.org/x/term"
)

// ReportOptions selects the settings a report is built from.
type ReportOptions struct {
	ConfigPath string
	Set        []string
	// Plain skips terminal styling even when Out is a terminal.
	Plain bool
	Now   time.Time
	Out   io.Writer
}

func (o *ReportOptions) defaults() {
	if o.Out == nil {
		o.Out = os.Stdout
	}
	if o.Now.IsZero() {
		o.Now = time.Now()
	}
}

// PrintSchedule lists the upcoming lifecycle triggers.
func PrintSchedule(opts ReportOptions) error {
	opts.defaults()
	cfg, err := LoadConfig(opts.ConfigPath, opts.Set)
	if err != nil {
		return err
	}
	sched, err := cfg.Schedule()
	if err != nil {
		return err
	}
	now := opts.Now
	return writeMarkdown(opts.Out, tui.ScheduleMarkdown(sched.Plan(now), now.Location()), opts.Plain)
}

// PrintHandlers lists the dialog handlers in dispatch order.
func PrintHandlers(opts ReportOptions) error {
	opts.defaults()
	cfg, err := LoadConfig(opts.ConfigPath, opts.Set)
	if err != nil {
		return err
	}
	return writeMarkdown(opts.Out, tui.HandlersMarkdown(dialogs.Default(cfg.Dialogs())), opts.Plain)
}

// PrintLifecycle writes the session lifecycle as a Mermaid graph. With a
// status URL the phases a running controller went through are highlighted.
func PrintLifecycle(ctx context.Context, w io.Writer, statusURL string) error {
	var overlay *graph.Overlay
	if statusURL != "" {
		client := httpadapter.NewClient(statusURL, nil)
		status, err := client.Status(ctx)
		if err != nil {
			return err
		}
		history, err := client.History(ctx, 100)
		if err != nil {
			return err
		}
		overlay = graph.OverlayFromHistory(status.Session.Phase, history)
	}
	_, err := fmt.Fprint(w, graph.Lifecycle(overlay))
	return err
}

func writeMarkdown(w io.Writer, md string, plain bool) error {
	if !plain && isTerminal(w) {
		out, err := tui.NewRenderer()(md)
		if err == nil {
			md = out
		}
	}
	_, err := io.WriteString(w, md)
	return err
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
