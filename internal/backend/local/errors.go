package local

import (
	"fmt"
	"time"
)

// UnknownOptionError is returned for a task option the local backend does not understand.
type UnknownOptionError struct {
	Name string
}

func (err UnknownOptionError) Error() string {
	return fmt.Sprintf("unknown option %q, expected dir, timeout or env.<NAME>", err.Name)
}

// RunnableNotFoundError is returned when the command of a task cannot be found.
type RunnableNotFoundError struct {
	Err      error
	Runnable string
}

func (err RunnableNotFoundError) Error() string {
	return fmt.Sprintf("command %q not found: %v", err.Runnable, err.Err)
}

func (err RunnableNotFoundError) Unwrap() error {
	return err.Err
}

// ProcessError is the cause of a Failed signal for a process that exited with a non-zero code.
type ProcessError struct {
	Err      error
	Label    string
	ExitCode int
}

func (err ProcessError) Error() string {
	return fmt.Sprintf("task %s exited with code %d", err.Label, err.ExitCode)
}

func (err ProcessError) Unwrap() error {
	return err.Err
}

// TimeoutError is the cause of a Failed signal for a process that ran longer than its timeout.
type TimeoutError struct {
	Label   string
	Timeout time.Duration
}

func (err TimeoutError) Error() string {
	return fmt.Sprintf("task %s timed out after %s", err.Label, err.Timeout)
}
