// Package schedule turns "[Weekday ]HH:MM" settings into concrete instants and
// fires the earliest lifecycle trigger at the right wall-clock time.
package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/warden/pkg/domain"
)

// Spec is a parsed time specification. The zero Spec means "not configured".
type Spec struct {
	weekly  bool
	weekday time.Weekday
	hour    int
	minute  int
	raw     string
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// ParseSpec parses "HH:MM" (daily) or "<Weekday> HH:MM" (weekly). Weekdays are
// English, full or three-letter, in any case. An empty string yields the zero Spec.
func ParseSpec(s string) (Spec, error) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return Spec{}, nil
	}

	fields := strings.Fields(raw)
	spec := Spec{raw: raw}
	clock := fields[0]
	switch len(fields) {
	case 1:
	case 2:
		day, ok := lookupWeekday(fields[0])
		if !ok {
			return Spec{}, fmt.Errorf("%w: unknown weekday %q in %q", domain.ErrInvalidTimeSpec, fields[0], raw)
		}
		spec.weekly = true
		spec.weekday = day
		clock = fields[1]
	default:
		return Spec{}, fmt.Errorf("%w: %q", domain.ErrInvalidTimeSpec, raw)
	}

	hh, mm, ok := strings.Cut(clock, ":")
	if !ok || len(hh) == 0 || len(hh) > 2 || len(mm) != 2 {
		return Spec{}, fmt.Errorf("%w: expected HH:MM in %q", domain.ErrInvalidTimeSpec, raw)
	}
	hour, err := strconv.Atoi(hh)
	if err != nil || hour < 0 || hour > 23 {
		return Spec{}, fmt.Errorf("%w: hour out of range in %q", domain.ErrInvalidTimeSpec, raw)
	}
	minute, err := strconv.Atoi(mm)
	if err != nil || minute < 0 || minute > 59 {
		return Spec{}, fmt.Errorf("%w: minute out of range in %q", domain.ErrInvalidTimeSpec, raw)
	}
	spec.hour, spec.minute = hour, minute
	return spec, nil
}

// MustParseSpec is ParseSpec for literals.
func MustParseSpec(s string) Spec {
	spec, err := ParseSpec(s)
	if err != nil {
		panic(err)
	}
	return spec
}

func lookupWeekday(s string) (time.Weekday, bool) {
	s = strings.ToLower(s)
	if day, ok := weekdays[s]; ok {
		return day, true
	}
	if len(s) == 3 {
		for name, day := range weekdays {
			if strings.HasPrefix(name, s) {
				return day, true
			}
		}
	}
	return 0, false
}

// IsZero reports whether the spec is unset.
func (s Spec) IsZero() bool {
	return s.raw == ""
}

// Recurrence reports whether the spec repeats daily or weekly.
func (s Spec) Recurrence() domain.Recurrence {
	if s.weekly {
		return domain.Weekly
	}
	return domain.Daily
}

func (s Spec) String() string {
	return s.raw
}

// Clock renders the time of day as HH:MM.
func (s Spec) Clock() string {
	return fmt.Sprintf("%02d:%02d", s.hour, s.minute)
}

// Next returns the first instant strictly after now that matches the spec,
// in now's location, with seconds zeroed. Days are advanced by calendar date
// so the wall-clock time holds across DST changes.
func (s Spec) Next(now time.Time) time.Time {
	candidate := time.Date(now.Year(), now.Month(), now.Day(), s.hour, s.minute, 0, 0, now.Location())
	if !s.weekly {
		if !candidate.After(now) {
			candidate = candidate.AddDate(0, 0, 1)
		}
		return candidate
	}

	days := (int(s.weekday) - int(now.Weekday()) + 7) % 7
	candidate = candidate.AddDate(0, 0, days)
	if !candidate.After(now) {
		candidate = candidate.AddDate(0, 0, 7)
	}
	return candidate
}

// Trigger resolves the spec at now into a trigger of the given kind.
func (s Spec) Trigger(kind domain.TriggerKind, now time.Time) domain.ScheduledTrigger {
	return domain.ScheduledTrigger{
		Kind:       kind,
		FireAt:     s.Next(now),
		Recurrence: s.Recurrence(),
		Spec:       s.raw,
	}
}
