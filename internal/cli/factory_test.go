package cli

import (
	"bytes"
	"context"
	"errors"
	"net"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/warden"
	"github.com/aretw0/warden/internal/config"
	"github.com/aretw0/warden/internal/logging"
	"github.com/aretw0/warden/pkg/adapters/memory"
	"github.com/aretw0/warden/pkg/adapters/process"
	"github.com/aretw0/warden/pkg/command"
	"github.com/aretw0/warden/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "warden.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfig(t *testing.T) {
	t.Run("Overrides win over the file", func(t *testing.T) {
		path := writeConfig(t, "ClosedownAt: \"22:00\"\nFIX: no\n")
		cfg, err := LoadConfig(path, []string{"FIX=yes", "LOG_LEVEL=debug"})
		require.NoError(t, err)
		assert.Equal(t, domain.ModeFIX, cfg.Mode())
		assert.Equal(t, "debug", cfg.Log.Level)
		assert.Equal(t, "22:00", cfg.ClosedownAt)
	})

	t.Run("Invalid values map to the settings exit code", func(t *testing.T) {
		_, err := LoadConfig("", []string{"ClosedownAt=25:00"})
		require.Error(t, err)
		assert.Equal(t, domain.ExitInvalidSetting, domain.CodeOf(err))
	})

	t.Run("Missing file maps to the settings directory exit code", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"), nil)
		require.Error(t, err)
		assert.Equal(t, domain.ExitSettingsDirectory, domain.CodeOf(err))
	})
}

func TestCompleteCredentials(t *testing.T) {
	t.Run("Prompts when only the login id is set", func(t *testing.T) {
		cfg := &config.Config{LoginID: "alice"}
		var asked string
		err := completeCredentials(cfg, func(prompt string) (string, error) {
			asked = prompt
			return "s3cret", nil
		})
		require.NoError(t, err)
		assert.Equal(t, "Password for alice: ", asked)
		assert.Equal(t, "s3cret", cfg.Password)
	})

	t.Run("Keeps a configured password", func(t *testing.T) {
		cfg := &config.Config{LoginID: "alice", Password: "kept"}
		err := completeCredentials(cfg, func(string) (string, error) {
			t.Fatal("unexpected prompt")
			return "", nil
		})
		require.NoError(t, err)
		assert.Equal(t, "kept", cfg.Password)
	})

	t.Run("No terminal leaves login to the operator", func(t *testing.T) {
		cfg := &config.Config{LoginID: "alice"}
		err := completeCredentials(cfg, func(string) (string, error) { return "", errNoTerminal })
		require.NoError(t, err)
		assert.Empty(t, cfg.Password)
	})

	t.Run("Read failures surface", func(t *testing.T) {
		cfg := &config.Config{LoginID: "alice"}
		err := completeCredentials(cfg, func(string) (string, error) { return "", errors.New("tty gone") })
		assert.Error(t, err)
	})
}

func TestCreateHost(t *testing.T) {
	cfg, err := LoadConfig("", []string{"IbPassword=hunter2"})
	require.NoError(t, err)

	_, ok := createHost(cfg, logging.NewNop(), true).(*memory.Host)
	assert.True(t, ok, "demo runs on the in-memory host")

	_, ok = createHost(cfg, logging.NewNop(), false).(*process.Host)
	assert.True(t, ok)
}

func TestCreateController(t *testing.T) {
	ctx := context.Background()

	t.Run("Wires handlers and schedule from settings", func(t *testing.T) {
		cfg, err := LoadConfig("", []string{"CommandServerPort=0", "ColdRestartTime=Sunday 07:00", "HostKind=gateway"})
		require.NoError(t, err)

		ctrl, cleanup, err := createController(ctx, cfg, memory.NewHost(), logging.NewNop())
		require.NoError(t, err)
		defer cleanup()

		status, err := ctrl.Status(ctx)
		require.NoError(t, err)
		require.Len(t, status.Plan, 1)
		assert.Equal(t, domain.TriggerColdRestart, status.Plan[0].Kind)
		assert.NotEmpty(t, status.Handlers)
	})

	t.Run("Publishes status to redis", func(t *testing.T) {
		mr := miniredis.RunT(t)
		cfg, err := LoadConfig("", []string{"CommandServerPort=0", "REDIS_ADDRESS=" + mr.Addr(), "REDIS_LOCK=yes", "Instance=paper"})
		require.NoError(t, err)

		host := memory.NewHost()
		ctrl, cleanup, err := createController(ctx, cfg, host, logging.NewNop())
		require.NoError(t, err)
		defer cleanup()

		runCtx, cancel := context.WithCancel(ctx)
		done := make(chan domain.ExitCode, 1)
		go func() {
			code, _ := ctrl.Run(runCtx)
			done <- code
		}()
		require.Eventually(t, func() bool {
			return ctrl.State().Phase == domain.PhaseLoggingIn
		}, 3*time.Second, 5*time.Millisecond)
		cancel()

		select {
		case code := <-done:
			assert.Equal(t, domain.ExitOK, code)
		case <-time.After(5 * time.Second):
			t.Fatal("controller did not stop")
		}
		assert.True(t, mr.Exists("warden:status:paper"))

		history, err := ctrl.History(ctx, 10)
		require.NoError(t, err)
		assert.Equal(t, domain.PhaseStopped, history[0].To)
	})

	t.Run("Keeps status on disk", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "state")
		cfg, err := LoadConfig("", []string{"CommandServerPort=0", "StateDir=" + dir})
		require.NoError(t, err)

		_, cleanup, err := createController(ctx, cfg, memory.NewHost(), logging.NewNop())
		require.NoError(t, err)
		defer cleanup()
		assert.DirExists(t, dir)
	})

	t.Run("Unusable state directory", func(t *testing.T) {
		blocker := filepath.Join(t.TempDir(), "blocker")
		require.NoError(t, os.WriteFile(blocker, nil, 0o600))
		cfg, err := LoadConfig("", []string{"CommandServerPort=0", "StateDir=" + filepath.Join(blocker, "state")})
		require.NoError(t, err)

		_, cleanup, err := createController(ctx, cfg, memory.NewHost(), logging.NewNop())
		defer cleanup()
		assert.Equal(t, domain.ExitSettingsDirectory, domain.CodeOf(err))
	})

	t.Run("Unreachable redis fails fast", func(t *testing.T) {
		mr := miniredis.RunT(t)
		addr := mr.Addr()
		mr.Close()

		cfg, err := LoadConfig("", []string{"CommandServerPort=0", "REDIS_ADDRESS=" + addr})
		require.NoError(t, err)

		_, cleanup, err := createController(ctx, cfg, memory.NewHost(), logging.NewNop())
		defer cleanup()
		assert.ErrorContains(t, err, "connect to redis")
	})
}

func TestRun(t *testing.T) {
	t.Run("Demo session stops on cancel", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
		defer cancel()

		var stdout, stderr bytes.Buffer
		code, err := Run(ctx, RunOptions{
			Set:    []string{"CommandServerPort=0"},
			Demo:   true,
			Stdout: &stdout,
			Stderr: &stderr,
		})
		require.NoError(t, err)
		assert.Equal(t, domain.ExitOK, code)
		assert.Contains(t, stdout.String(), warden.Version)
		assert.Contains(t, stdout.String(), ">>> Session ended (controller shutting down), exit code 0.")
		assert.Contains(t, stderr.String(), "Starting session")
	})

	t.Run("Invalid settings exit before launch", func(t *testing.T) {
		var stdout bytes.Buffer
		code, err := Run(context.Background(), RunOptions{
			Set:    []string{"HostKind=terminal"},
			Quiet:  true,
			Stdout: &stdout,
			Stderr: &stdout,
		})
		assert.Error(t, err)
		assert.Equal(t, domain.ExitInvalidSetting, code)
		assert.Empty(t, stdout.String())
	})

	t.Run("Missing entry point", func(t *testing.T) {
		var out bytes.Buffer
		code, err := Run(context.Background(), RunOptions{
			Set:      []string{"CommandServerPort=0", "HOST_COMMAND=" + filepath.Join(t.TempDir(), "missing")},
			Quiet:    true,
			NoPrompt: true,
			Stdout:   &out,
			Stderr:   &out,
		})
		assert.Error(t, err)
		assert.Equal(t, domain.ExitEntryPointNotFound, code)
	})
}

func TestReports(t *testing.T) {
	now := time.Date(2024, 3, 8, 12, 0, 0, 0, time.UTC)

	t.Run("Schedule", func(t *testing.T) {
		var out bytes.Buffer
		err := PrintSchedule(ReportOptions{Set: []string{"ClosedownAt=Friday 22:00"}, Now: now, Out: &out})
		require.NoError(t, err)
		assert.Contains(t, out.String(), "| shutdown | `Friday 22:00` | weekly | Fri 2024-03-08 22:00 UTC |")
	})

	t.Run("Handlers", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, PrintHandlers(ReportOptions{Out: &out}))
		assert.Contains(t, out.String(), "# Window handlers")
		assert.Contains(t, out.String(), "| 1 |")
	})

	t.Run("Lifecycle with live overlay", func(t *testing.T) {
		ctrl, err := warden.New(memory.NewHost())
		require.NoError(t, err)
		srv := httptest.NewServer(ctrl.Handler())
		defer srv.Close()

		var out bytes.Buffer
		require.NoError(t, PrintLifecycle(context.Background(), &out, srv.URL))
		assert.Contains(t, out.String(), "graph TD")
		assert.Contains(t, out.String(), "class starting current")
	})
}

func TestSend(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctrl, err := warden.New(memory.NewHost(), warden.WithCommandListener(ln, command.WithPrompt("warden ready")))
	require.NoError(t, err)
	srv := httptest.NewServer(ctrl.Handler())
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = ctrl.Run(ctx)
	}()
	require.Eventually(t, func() bool {
		return ctrl.State().Phase == domain.PhaseLoggingIn
	}, 3*time.Second, 5*time.Millisecond)

	t.Run("Control channel", func(t *testing.T) {
		reply, err := Send(ctx, "STATUS", SendOptions{
			Addr: ln.Addr().String(),
			Set:  []string{"CommandPrompt=warden ready"},
		})
		require.NoError(t, err)
		assert.Contains(t, reply, "phase=logging_in")
	})

	t.Run("HTTP", func(t *testing.T) {
		reply, err := Send(ctx, "STATUS", SendOptions{HTTPURL: srv.URL})
		require.NoError(t, err)
		assert.Contains(t, reply, "mode=api")
	})

	t.Run("Disabled channel", func(t *testing.T) {
		_, err := Send(ctx, "STATUS", SendOptions{Set: []string{"CommandServerPort=0"}})
		assert.ErrorContains(t, err, "control channel disabled")
	})

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("controller did not stop")
	}
}
