package command_test

import (
	"testing"

	"github.com/aretw0/warden/pkg/command"
	"github.com/aretw0/warden/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		line    string
		verb    domain.Verb
		cold    bool
		wantErr bool
	}{
		{"STOP", domain.VerbStop, false, false},
		{"  stop  ", domain.VerbStop, false, false},
		{"RESTART", domain.VerbRestart, false, false},
		{"restart warm", domain.VerbRestart, false, false},
		{"RESTART COLD", domain.VerbRestart, true, false},
		{"EXIT", domain.VerbExit, false, false},
		{"ENABLEAPI", domain.VerbEnableAPI, false, false},
		{"status", domain.VerbStatus, false, false},
		{"RESTART LUKEWARM", "", false, true},
		{"RESTART COLD NOW", "", false, true},
		{"STOP NOW", "", false, true},
		{"RECONNECTDATA", "", false, true},
		{"", "", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			cmd, err := command.Parse(tt.line)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.verb, cmd.Verb)
			assert.Equal(t, tt.cold, cmd.Cold)
		})
	}
}

func TestParse_UnknownVerb(t *testing.T) {
	_, err := command.Parse("RELOAD")
	assert.ErrorIs(t, err, domain.ErrUnknownCommand)
}
