package process

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskArgs(t *testing.T) {
	args := []string{"--user=alice", "--password=hunter2", "mode=paper", "hunter2", "token=abc"}
	got := MaskArgs(args, "hunter2")

	assert.Equal(t, []string{"--user=alice", "--password=***", "mode=paper", "***", "token=***"}, got)
	assert.Equal(t, "--password=hunter2", args[1], "input left untouched")
}
