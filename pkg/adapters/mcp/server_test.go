package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aretw0/warden/pkg/domain"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	executed []domain.Command
	err      error
}

func (f *fakeBackend) Status(ctx context.Context) (domain.Status, error) {
	return domain.Status{
		Session:  domain.SessionState{Phase: domain.PhaseRunning, Mode: domain.ModeFIX},
		Handlers: []string{"login", "exit-confirmation"},
	}, f.err
}

func (f *fakeBackend) Execute(ctx context.Context, cmd domain.Command) (string, error) {
	f.executed = append(f.executed, cmd)
	if f.err != nil {
		return "", f.err
	}
	return "restarting", nil
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.Len(t, res.Content, 1)
	tc, ok := mcp.AsTextContent(res.Content[0])
	require.True(t, ok)
	return tc.Text
}

func TestSessionStatus(t *testing.T) {
	s := NewServer(&fakeBackend{}, "0.1.0")
	res, err := s.handleStatus(context.Background(), mcp.CallToolRequest{})
	require.NoError(t, err)
	assert.False(t, res.IsError)

	var status domain.Status
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &status))
	assert.Equal(t, domain.ModeFIX, status.Session.Mode)
}

func TestRestartSession(t *testing.T) {
	backend := &fakeBackend{}
	s := NewServer(backend, "0.1.0")

	req := mcp.CallToolRequest{}
	req.Params.Name = "restart_session"
	req.Params.Arguments = map[string]any{"cold": true}

	res, err := s.handleRestart(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "restarting", text(t, res))
	require.Len(t, backend.executed, 1)
	assert.Equal(t, domain.VerbRestart, backend.executed[0].Verb)
	assert.True(t, backend.executed[0].Cold)
}

func TestCommandErrorsBecomeToolErrors(t *testing.T) {
	backend := &fakeBackend{err: errors.New("host gone")}
	s := NewServer(backend, "0.1.0")

	res, err := s.command(domain.Command{Verb: domain.VerbStop})(context.Background(), mcp.CallToolRequest{})
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, text(t, res), "host gone")
}

func TestHandlersResource(t *testing.T) {
	s := NewServer(&fakeBackend{}, "0.1.0")
	contents, err := s.handleHandlers(context.Background(), mcp.ReadResourceRequest{})
	require.NoError(t, err)
	require.Len(t, contents, 1)

	tc, ok := contents[0].(mcp.TextResourceContents)
	require.True(t, ok)
	assert.Equal(t, HandlersURI, tc.URI)
	assert.JSONEq(t, `["login","exit-confirmation"]`, tc.Text)
}
