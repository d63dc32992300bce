package main

import (
	"fmt"

	"github.com/aperturerobotics/go-vcpp-bridge/bridge"
)

// exitError carries a process exit status out of a command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err != nil {
		return e.err.Error()
	}
	return fmt.Sprintf("exit status %d", e.code)
}

func (e *exitError) Unwrap() error {
	return e.err
}

// failedStatus is the exit status for result codes that do not fit in an
// exit status byte.
const failedStatus = 255

// resultError turns a dispatch result into a command error. Result code
// zero is success; NotCalled exits with status 1.
func resultError(rc int32, err error) error {
	switch {
	case err != nil || rc == bridge.NotCalled:
		return &exitError{code: 1, err: err}
	case rc != 0:
		return &exitError{code: exitStatus(rc)}
	default:
		return nil
	}
}

// exitStatus maps a non-zero result code to a non-zero exit status.
// Codes outside 1..255 would be truncated by the OS, so they become
// failedStatus.
func exitStatus(rc int32) int {
	if rc > 0 && rc <= 255 {
		return int(rc)
	}
	return failedStatus
}
