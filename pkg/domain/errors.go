package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTransition is returned when a session transition is not allowed from the current phase.
	ErrInvalidTransition = errors.New("invalid session transition")

	// ErrShutdownInProgress is reported by the host when it is already going down.
	// Callers treat it as success.
	ErrShutdownInProgress = errors.New("shutdown in progress")

	// ErrControlNotFound is returned when a probe finds no control matching the query.
	ErrControlNotFound = errors.New("control not found")

	// ErrWindowGone is returned when a window vanished between events and inspection.
	ErrWindowGone = errors.New("window gone")

	// ErrUnknownCommand is returned for control-channel lines with an unrecognized verb.
	ErrUnknownCommand = errors.New("unknown command")

	// ErrInvalidTimeSpec is returned for malformed "[Weekday ]HH:MM" values.
	ErrInvalidTimeSpec = errors.New("invalid time specification")

	// ErrInvalidSetting is returned for configuration values that cannot be used.
	ErrInvalidSetting = errors.New("invalid setting")

	// ErrHostNotRunning is returned when an operation needs a live host process.
	ErrHostNotRunning = errors.New("host not running")

	// ErrStatusNotFound is returned by status stores holding nothing for an instance.
	ErrStatusNotFound = errors.New("status not found")
)

// ExitCode is the process exit status warden reports to its supervisor.
type ExitCode int

const (
	ExitOK                 ExitCode = 0
	ExitUnexpected         ExitCode = 1
	ExitBadArguments       ExitCode = 2
	ExitInvalidSetting     ExitCode = 3
	ExitSettingsDirectory  ExitCode = 4
	ExitEntryPointNotFound ExitCode = 5
	ExitRestartRequested   ExitCode = 10
	ExitColdRestart        ExitCode = 11
)

// ExitError is a fatal error that maps to a specific process exit code.
type ExitError struct {
	Code ExitCode
	Err  error
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit %d: %v", e.Code, e.Err)
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// Fatal wraps err with an exit code.
func Fatal(code ExitCode, err error) error {
	if err == nil {
		return nil
	}
	return &ExitError{Code: code, Err: err}
}

// CodeOf extracts the exit code from err. Nil maps to ExitOK and any error
// without an ExitError in its chain maps to ExitUnexpected.
func CodeOf(err error) ExitCode {
	if err == nil {
		return ExitOK
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitUnexpected
}
