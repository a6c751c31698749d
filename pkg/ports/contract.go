package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/warden/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunStatusStoreContract verifies that a StatusStore implementation honours
// the interface contract.
func RunStatusStoreContract(t *testing.T, store StatusStore) {
	ctx := context.Background()
	instance := "contract-" + time.Now().Format("20060102150405")
	since := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

	t.Run("Load Missing", func(t *testing.T) {
		_, err := store.Load(ctx, "missing-"+instance)
		assert.ErrorIs(t, err, domain.ErrStatusNotFound)
	})

	t.Run("Save and Load", func(t *testing.T) {
		state := domain.SessionState{
			Phase: domain.PhaseShuttingDown,
			Mode:  domain.ModeFIX,
			Stop:  &domain.StopRequest{Kind: domain.StopColdRestart, Source: "schedule", At: since},
			Since: since,
		}
		require.NoError(t, store.Save(ctx, instance, state))

		loaded, err := store.Load(ctx, instance)
		require.NoError(t, err)
		assert.Equal(t, domain.PhaseShuttingDown, loaded.Phase)
		assert.Equal(t, domain.ModeFIX, loaded.Mode)
		require.NotNil(t, loaded.Stop)
		assert.Equal(t, domain.StopColdRestart, loaded.Stop.Kind)
		assert.True(t, since.Equal(loaded.Since))
	})

	t.Run("Save Overwrites", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, instance, domain.SessionState{Phase: domain.PhaseStopped}))
		loaded, err := store.Load(ctx, instance)
		require.NoError(t, err)
		assert.Equal(t, domain.PhaseStopped, loaded.Phase)
	})

	t.Run("History Newest First", func(t *testing.T) {
		steps := []domain.Phase{domain.PhaseLoggingIn, domain.PhaseRunning, domain.PhaseShuttingDown}
		from := domain.PhaseStarting
		for i, to := range steps {
			ev := domain.TransitionEvent{From: from, To: to, Timestamp: since.Add(time.Duration(i) * time.Minute)}
			require.NoError(t, store.Record(ctx, instance, ev))
			from = to
		}

		history, err := store.History(ctx, instance, 2)
		require.NoError(t, err)
		require.Len(t, history, 2)
		assert.Equal(t, domain.PhaseShuttingDown, history[0].To)
		assert.Equal(t, domain.PhaseRunning, history[1].To)
	})
}
