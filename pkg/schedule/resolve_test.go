package schedule_test

import (
	"testing"
	"time"

	"github.com/aretw0/warden/pkg/domain"
	"github.com/aretw0/warden/pkg/schedule"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	now := friday(12, 0)
	tests := []struct {
		name     string
		shutdown string
		cold     string
		wantKind domain.TriggerKind
		wantAt   time.Time
		wantOK   bool
	}{
		{"nothing configured", "", "", "", time.Time{}, false},
		{"shutdown only", "Friday 22:00", "", domain.TriggerShutdown, time.Date(2024, 3, 1, 22, 0, 0, 0, time.UTC), true},
		{"cold only", "", "Sunday 07:00", domain.TriggerColdRestart, time.Date(2024, 3, 3, 7, 0, 0, 0, time.UTC), true},
		{"cold strictly earlier wins", "Saturday 10:00", "Friday 23:00", domain.TriggerColdRestart, time.Date(2024, 3, 1, 23, 0, 0, 0, time.UTC), true},
		{"shutdown earlier wins", "13:00", "Sunday 07:00", domain.TriggerShutdown, time.Date(2024, 3, 1, 13, 0, 0, 0, time.UTC), true},
		{"tie goes to shutdown", "Friday 22:00", "22:00", domain.TriggerShutdown, time.Date(2024, 3, 1, 22, 0, 0, 0, time.UTC), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trigger, ok := schedule.Resolve(now, schedule.MustParseSpec(tt.shutdown), schedule.MustParseSpec(tt.cold))
			require.Equal(t, tt.wantOK, ok)
			if !ok {
				return
			}
			assert.Equal(t, tt.wantKind, trigger.Kind)
			assert.True(t, tt.wantAt.Equal(trigger.FireAt), "got %s", trigger.FireAt)
		})
	}
}

func TestSettings_HostTimerAndPlan(t *testing.T) {
	s, err := schedule.ParseSettings("Friday 22:00", "Sunday 07:00", "23:30", "")
	require.NoError(t, err)

	kind, spec, ok := s.HostTimer()
	require.True(t, ok)
	assert.Equal(t, domain.TriggerAutoLogoff, kind)
	assert.Equal(t, "23:30", spec.Clock())

	s.AutoRestart = schedule.MustParseSpec("23:45")
	kind, _, _ = s.HostTimer()
	assert.Equal(t, domain.TriggerAutoRestart, kind, "auto restart overrides auto logoff")

	plan := s.Plan(friday(12, 0))
	require.Len(t, plan, 3)
	assert.Equal(t, domain.TriggerShutdown, plan[0].Kind)
	assert.Equal(t, domain.TriggerAutoRestart, plan[1].Kind)
	assert.Equal(t, domain.TriggerColdRestart, plan[2].Kind)

	_, err = schedule.ParseSettings("", "", "", "25:00")
	assert.ErrorIs(t, err, domain.ErrInvalidTimeSpec)
}

func TestParseSettings_HostTimersAreDaily(t *testing.T) {
	_, err := schedule.ParseSettings("", "", "Friday 23:00", "")
	assert.ErrorIs(t, err, domain.ErrInvalidTimeSpec)
	assert.ErrorContains(t, err, "AutoLogoffTime")

	_, err = schedule.ParseSettings("", "", "", "Sun 23:45")
	assert.ErrorIs(t, err, domain.ErrInvalidTimeSpec)
	assert.ErrorContains(t, err, "AutoRestartTime")
}
