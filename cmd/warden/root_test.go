package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/aretw0/warden"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version"})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	require.NoError(t, rootCmd.Execute())
	assert.Equal(t, "warden version "+strings.TrimSpace(warden.Version)+"\n", out.String())
}

func TestCommandsRegistered(t *testing.T) {
	for _, name := range []string{"run", "send", "schedule", "handlers", "graph", "mcp", "version"} {
		cmd, _, err := rootCmd.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, cmd.Name())
	}
}
