// Package command implements the line-oriented control channel.
//
// Clients connect over TCP and send one command per line. Each line is fully
// executed before the next one on the same connection is read, and every line
// gets exactly one reply starting with "OK" or "ERROR".
package command

import (
	"fmt"
	"strings"

	"github.com/aretw0/warden/pkg/domain"
)

// Parse turns one line into a command. Verbs are case-insensitive.
func Parse(line string) (domain.Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return domain.Command{}, fmt.Errorf("%w: empty line", domain.ErrUnknownCommand)
	}

	cmd := domain.Command{Verb: domain.Verb(strings.ToUpper(fields[0])), Raw: strings.TrimSpace(line)}
	args := fields[1:]

	switch cmd.Verb {
	case domain.VerbStop, domain.VerbExit, domain.VerbEnableAPI, domain.VerbStatus:
		if len(args) > 0 {
			return domain.Command{}, fmt.Errorf("%s takes no arguments", cmd.Verb)
		}
	case domain.VerbRestart:
		if len(args) > 1 {
			return domain.Command{}, fmt.Errorf("RESTART takes at most one argument")
		}
		if len(args) == 1 {
			switch strings.ToUpper(args[0]) {
			case "WARM":
			case "COLD":
				cmd.Cold = true
			default:
				return domain.Command{}, fmt.Errorf("RESTART mode must be WARM or COLD, got %q", args[0])
			}
		}
	default:
		return domain.Command{}, fmt.Errorf("%w: %s", domain.ErrUnknownCommand, fields[0])
	}
	return cmd, nil
}
