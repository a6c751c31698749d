package schedule_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/warden/pkg/domain"
	"github.com/aretw0/warden/pkg/schedule"
	"github.com/aretw0/warden/pkg/workers"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingStopper struct {
	mu       sync.Mutex
	requests []domain.StopRequest
}

func (r *recordingStopper) RequestStop(ctx context.Context, req domain.StopRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = append(r.requests, req)
	return nil
}

func (r *recordingStopper) all() []domain.StopRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.StopRequest(nil), r.requests...)
}

func TestScheduler_FiresEarliestTrigger(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	clock := clockwork.NewFakeClockAt(friday(21, 0))
	pool := workers.New(ctx)
	defer pool.Close()
	stopper := &recordingStopper{}

	settings, err := schedule.ParseSettings("Saturday 10:00", "Friday 22:00", "", "")
	require.NoError(t, err)
	s := schedule.New(settings, stopper, pool, schedule.WithClock(clock), schedule.WithLocation(time.UTC))

	trigger, ok := s.Arm(ctx)
	require.True(t, ok)
	assert.Equal(t, domain.TriggerColdRestart, trigger.Kind)

	next, ok := s.Next()
	require.True(t, ok)
	assert.Equal(t, trigger, next)

	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	clock.Advance(58 * time.Minute)
	assert.Empty(t, stopper.all(), "not yet due")

	clock.Advance(2 * time.Minute)
	select {
	case fired := <-s.Fired():
		assert.Equal(t, domain.TriggerColdRestart, fired.Kind)
	case <-ctx.Done():
		t.Fatal("trigger did not fire")
	}

	reqs := stopper.all()
	require.Len(t, reqs, 1)
	assert.Equal(t, domain.StopColdRestart, reqs[0].Kind)
	assert.Equal(t, "schedule", reqs[0].Source)

	_, ok = s.Next()
	assert.False(t, ok)
}

func TestScheduler_StopDisarms(t *testing.T) {
	ctx := context.Background()
	clock := clockwork.NewFakeClockAt(friday(21, 0))
	pool := workers.New(ctx)
	defer pool.Close()
	stopper := &recordingStopper{}

	s := schedule.New(schedule.Settings{Shutdown: schedule.MustParseSpec("22:00")}, stopper, pool,
		schedule.WithClock(clock), schedule.WithLocation(time.UTC))
	_, ok := s.Arm(ctx)
	require.True(t, ok)

	s.Stop()
	clock.Advance(2 * time.Hour)
	assert.Empty(t, stopper.all())
}

func TestScheduler_NothingConfigured(t *testing.T) {
	s := schedule.New(schedule.Settings{}, &recordingStopper{}, workers.New(context.Background()))
	_, ok := s.Arm(context.Background())
	assert.False(t, ok)
	assert.Empty(t, s.Plan())
}
