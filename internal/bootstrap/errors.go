package bootstrap

import (
	"errors"
	"fmt"
)

// Exit statuses reported by the command.
const (
	StatusConfig    = 1
	StatusDatabase  = 2
	StatusStatement = 3
	StatusMarker    = 4
)

// ExitError carries the process exit status for a failed step.
type ExitError struct {
	Status  int
	Message string
	Err     error
}

func (e ExitError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e ExitError) Unwrap() error {
	return e.Err
}

func errConfig(err error) error {
	return ExitError{Status: StatusConfig, Message: "configuration error", Err: err}
}

func errDatabase(err error) error {
	return ExitError{Status: StatusDatabase, Message: "database unavailable", Err: err}
}

func errStatement(err error) error {
	return ExitError{Status: StatusStatement, Message: "initialization failed", Err: err}
}

func errMarker(err error) error {
	return ExitError{Status: StatusMarker, Message: "marker file", Err: err}
}

// StatusOf maps an error to an exit status. Errors without one exit 1.
func StatusOf(err error) int {
	if err == nil {
		return 0
	}
	var exitErr ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Status
	}
	return 1
}
