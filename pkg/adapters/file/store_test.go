package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/warden/pkg/adapters/file"
	"github.com/aretw0/warden/pkg/domain"
	"github.com/aretw0/warden/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_Contract(t *testing.T) {
	store, err := file.New(t.TempDir())
	require.NoError(t, err)
	ports.RunStatusStoreContract(t, store)
}

func TestStore_SurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	first, err := file.New(dir)
	require.NoError(t, err)
	require.NoError(t, first.Save(ctx, "live", domain.SessionState{Phase: domain.PhaseRunning, Authenticated: true}))
	require.NoError(t, first.Record(ctx, "live", domain.TransitionEvent{From: domain.PhaseLoggingIn, To: domain.PhaseRunning}))

	second, err := file.New(dir)
	require.NoError(t, err)
	state, err := second.Load(ctx, "live")
	require.NoError(t, err)
	assert.True(t, state.Authenticated)

	history, err := second.History(ctx, "live", 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, domain.PhaseRunning, history[0].To)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), "tmp-", "temp files are cleaned up")
	}
}

func TestStore_EmptyHistory(t *testing.T) {
	store, err := file.New(t.TempDir())
	require.NoError(t, err)
	history, err := store.History(context.Background(), "nobody", 10)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestNew_UnusableDirectory(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0o600))

	_, err := file.New(filepath.Join(blocker, "state"))
	require.Error(t, err)
	assert.Equal(t, domain.ExitSettingsDirectory, domain.CodeOf(err))
}
