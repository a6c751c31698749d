package schedule

import (
	"fmt"
	"sort"
	"time"

	"github.com/aretw0/warden/pkg/domain"
)

// Settings are the time specifications driving the scheduler.
type Settings struct {
	Shutdown    Spec
	ColdRestart Spec
	AutoLogoff  Spec
	AutoRestart Spec
}

// ParseSettings parses all four specifications, reporting the first bad one.
func ParseSettings(shutdown, coldRestart, autoLogoff, autoRestart string) (Settings, error) {
	var s Settings
	var err error
	if s.Shutdown, err = ParseSpec(shutdown); err != nil {
		return Settings{}, err
	}
	if s.ColdRestart, err = ParseSpec(coldRestart); err != nil {
		return Settings{}, err
	}
	if s.AutoLogoff, err = ParseSpec(autoLogoff); err != nil {
		return Settings{}, err
	}
	if s.AutoRestart, err = ParseSpec(autoRestart); err != nil {
		return Settings{}, err
	}
	// The host's own timers run every day.
	if s.AutoLogoff.Recurrence() == domain.Weekly {
		return Settings{}, fmt.Errorf("%w: AutoLogoffTime %q takes no weekday", domain.ErrInvalidTimeSpec, autoLogoff)
	}
	if s.AutoRestart.Recurrence() == domain.Weekly {
		return Settings{}, fmt.Errorf("%w: AutoRestartTime %q takes no weekday", domain.ErrInvalidTimeSpec, autoRestart)
	}
	return s, nil
}

// Resolve picks the single trigger to arm: the earlier of shutdown and cold
// restart. Cold restart wins only when strictly earlier. ok is false when
// neither is configured.
func Resolve(now time.Time, shutdown, coldRestart Spec) (domain.ScheduledTrigger, bool) {
	switch {
	case shutdown.IsZero() && coldRestart.IsZero():
		return domain.ScheduledTrigger{}, false
	case coldRestart.IsZero():
		return shutdown.Trigger(domain.TriggerShutdown, now), true
	case shutdown.IsZero():
		return coldRestart.Trigger(domain.TriggerColdRestart, now), true
	}

	stop := shutdown.Trigger(domain.TriggerShutdown, now)
	cold := coldRestart.Trigger(domain.TriggerColdRestart, now)
	if cold.FireAt.Before(stop.FireAt) {
		return cold, true
	}
	return stop, true
}

// HostTimer returns the host-side timer setting to apply, if any. AutoRestart
// takes precedence over AutoLogoff since the host honours only one of them.
func (s Settings) HostTimer() (domain.TriggerKind, Spec, bool) {
	switch {
	case !s.AutoRestart.IsZero():
		return domain.TriggerAutoRestart, s.AutoRestart, true
	case !s.AutoLogoff.IsZero():
		return domain.TriggerAutoLogoff, s.AutoLogoff, true
	}
	return "", Spec{}, false
}

// Plan lists every configured trigger resolved at now, earliest first.
// It is used for reporting; only the Resolve result is armed.
func (s Settings) Plan(now time.Time) []domain.ScheduledTrigger {
	var plan []domain.ScheduledTrigger
	if !s.Shutdown.IsZero() {
		plan = append(plan, s.Shutdown.Trigger(domain.TriggerShutdown, now))
	}
	if !s.ColdRestart.IsZero() {
		plan = append(plan, s.ColdRestart.Trigger(domain.TriggerColdRestart, now))
	}
	if kind, spec, ok := s.HostTimer(); ok {
		plan = append(plan, spec.Trigger(kind, now))
	}
	sort.SliceStable(plan, func(i, j int) bool {
		return plan[i].FireAt.Before(plan[j].FireAt)
	})
	return plan
}
