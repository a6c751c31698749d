package domain

// Verb is the first word of a control-channel line.
type Verb string

const (
	VerbStop      Verb = "STOP"
	VerbRestart   Verb = "RESTART"
	VerbExit      Verb = "EXIT"
	VerbEnableAPI Verb = "ENABLEAPI"
	VerbStatus    Verb = "STATUS"
)

// Command is a parsed control-channel line.
type Command struct {
	Verb Verb
	// Cold is only meaningful for RESTART.
	Cold bool
	Raw  string
}
