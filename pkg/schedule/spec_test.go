package schedule_test

import (
	"testing"
	"time"

	"github.com/aretw0/warden/pkg/domain"
	"github.com/aretw0/warden/pkg/schedule"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 2024-03-01 is a Friday.
func friday(hour, minute int) time.Time {
	return time.Date(2024, 3, 1, hour, minute, 30, 0, time.UTC)
}

func TestParseSpec(t *testing.T) {
	tests := []struct {
		in      string
		clock   string
		rec     domain.Recurrence
		wantErr bool
	}{
		{"22:00", "22:00", domain.Daily, false},
		{"7:05", "07:05", domain.Daily, false},
		{"Friday 22:00", "22:00", domain.Weekly, false},
		{"fri 22:00", "22:00", domain.Weekly, false},
		{"SUNDAY 07:30", "07:30", domain.Weekly, false},
		{"  Sat   23:59 ", "23:59", domain.Weekly, false},
		{"24:00", "", "", true},
		{"12:60", "", "", true},
		{"12", "", "", true},
		{"12:5", "", "", true},
		{"Fryday 10:00", "", "", true},
		{"Fr 10:00", "", "", true},
		{"Friday 10:00 UTC", "", "", true},
		{"ab:cd", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			spec, err := schedule.ParseSpec(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidTimeSpec)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.clock, spec.Clock())
			assert.Equal(t, tt.rec, spec.Recurrence())
		})
	}
}

func TestParseSpec_Empty(t *testing.T) {
	spec, err := schedule.ParseSpec("  ")
	require.NoError(t, err)
	assert.True(t, spec.IsZero())
}

func TestSpecNext(t *testing.T) {
	tests := []struct {
		name string
		spec string
		now  time.Time
		want time.Time
	}{
		{"weekly later today", "Friday 22:00", friday(21, 0), time.Date(2024, 3, 1, 22, 0, 0, 0, time.UTC)},
		{"weekly passed today", "Friday 22:00", friday(23, 0), time.Date(2024, 3, 8, 22, 0, 0, 0, time.UTC)},
		{"weekly same minute is not after", "Friday 22:00", time.Date(2024, 3, 1, 22, 0, 0, 0, time.UTC), time.Date(2024, 3, 8, 22, 0, 0, 0, time.UTC)},
		{"weekly from earlier in the week", "Friday 22:00", time.Date(2024, 2, 26, 10, 0, 0, 0, time.UTC), time.Date(2024, 3, 1, 22, 0, 0, 0, time.UTC)},
		{"weekly later in week", "Sun 07:00", friday(9, 0), time.Date(2024, 3, 3, 7, 0, 0, 0, time.UTC)},
		{"weekly earlier in week", "mon 07:00", friday(9, 0), time.Date(2024, 3, 4, 7, 0, 0, 0, time.UTC)},
		{"daily later today", "22:00", friday(21, 0), time.Date(2024, 3, 1, 22, 0, 0, 0, time.UTC)},
		{"daily passed today", "22:00", friday(23, 0), time.Date(2024, 3, 2, 22, 0, 0, 0, time.UTC)},
		{"daily crosses month", "06:00", time.Date(2024, 2, 29, 7, 0, 0, 0, time.UTC), time.Date(2024, 3, 1, 6, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := schedule.MustParseSpec(tt.spec).Next(tt.now)
			assert.True(t, tt.want.Equal(got), "want %s, got %s", tt.want, got)
			assert.True(t, got.After(tt.now))
			assert.Zero(t, got.Second())
		})
	}
}

func TestSpecNext_KeepsWallClockAcrossDST(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skip("tzdata not available")
	}
	// DST starts 2024-03-10 in New York.
	now := time.Date(2024, 3, 9, 23, 0, 0, 0, ny)
	got := schedule.MustParseSpec("22:00").Next(now)
	assert.Equal(t, 22, got.Hour())
	assert.Equal(t, 10, got.Day())
}
