package process_test

import (
	"bytes"
	"context"
	"runtime"
	"testing"
	"time"

	"github.com/aretw0/warden/pkg/adapters/process"
	"github.com/aretw0/warden/pkg/domain"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func shell(t *testing.T, script string) process.Config {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
	return process.Config{Command: "sh", Args: []string{"-c", script}, Grace: time.Second}
}

func waitExit(t *testing.T, h *process.Host) {
	t.Helper()
	select {
	case <-h.Exited():
	case <-time.After(5 * time.Second):
		t.Fatal("host did not exit")
	}
}

func TestHost_LaunchBridgeAndStop(t *testing.T) {
	cfg := shell(t, `echo '{"event":{"kind":"shown","handle":"w1","title":"Login"}}'; exec sleep 30`)
	h := process.NewHost(cfg, process.WithStderr(&bytes.Buffer{}))

	ctx := context.Background()
	assert.ErrorIs(t, h.RequestStop(ctx, domain.StopShutdown), domain.ErrHostNotRunning)
	_, err := h.Events(ctx)
	assert.ErrorIs(t, err, domain.ErrHostNotRunning)
	_, err = h.Inspect(ctx, "w1")
	assert.ErrorIs(t, err, domain.ErrHostNotRunning)
	assert.Nil(t, h.Bridge())

	require.NoError(t, h.Launch(ctx))
	events, err := h.Events(ctx)
	require.NoError(t, err)

	select {
	case ev := <-events:
		assert.Equal(t, domain.WindowHandle("w1"), ev.Handle)
		assert.Equal(t, "Login", ev.Title)
	case <-time.After(5 * time.Second):
		t.Fatal("no window event from host")
	}

	require.NoError(t, h.RequestStop(ctx, domain.StopShutdown))
	assert.ErrorIs(t, h.RequestStop(ctx, domain.StopRestart), domain.ErrShutdownInProgress)
	waitExit(t, h)
	assert.Error(t, h.Err(), "terminated by signal")
}

func TestHost_KillAfterGrace(t *testing.T) {
	cfg := shell(t, `trap '' TERM; exec sleep 30`)
	clock := clockwork.NewFakeClock()
	h := process.NewHost(cfg, process.WithClock(clock))

	ctx := context.Background()
	require.NoError(t, h.Launch(ctx))
	// Give the shell time to install the trap before signalling.
	time.Sleep(200 * time.Millisecond)
	require.NoError(t, h.RequestStop(ctx, domain.StopShutdown))

	select {
	case <-h.Exited():
		t.Fatal("host should ignore SIGTERM")
	case <-time.After(300 * time.Millisecond):
	}

	clock.Advance(time.Second)
	waitExit(t, h)
}

func TestHost_LaunchFailure(t *testing.T) {
	h := process.NewHost(process.Config{Command: "/nonexistent/host-binary"})
	assert.Error(t, h.Launch(context.Background()))

	h = process.NewHost(process.Config{})
	assert.Error(t, h.Launch(context.Background()))
}
