// Package errors wraps errors with stack traces and carries exit codes up to main.
// It re-exports the helpers of the standard errors package so callers need a single import.
package errors

import (
	"errors"
	"fmt"
	"strings"

	goerrors "github.com/go-errors/errors"
	"github.com/urfave/cli/v2"
)

// New returns val as an error with a stack trace. Errors already carrying one are returned unchanged.
func New(val any) error {
	if val == nil {
		return nil
	}

	if err, ok := val.(error); ok && hasStack(err) {
		return err
	}

	return goerrors.Wrap(val, 1)
}

// Errorf is fmt.Errorf with a stack trace, unless one of the wrapped errors already carries one.
func Errorf(format string, vals ...any) error {
	err := fmt.Errorf(format, vals...) //nolint:err113
	if hasStack(err) {
		return err
	}

	return goerrors.Wrap(err, 1)
}

// As is errors.As.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// Is is errors.Is.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// Join is errors.Join.
func Join(errs ...error) error {
	return errors.Join(errs...)
}

// ErrorWithExitCode sets the exit code of the process when it reaches main.
type ErrorWithExitCode struct {
	Err      error
	ExitCode int
}

func (err ErrorWithExitCode) Error() string {
	return err.Err.Error()
}

func (err ErrorWithExitCode) Unwrap() error {
	return err.Err
}

// ExitCode returns the exit code carried by the error chain, or 1 if the error is not nil and carries none.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}

	var withCode ErrorWithExitCode
	if errors.As(err, &withCode) {
		return withCode.ExitCode
	}

	return 1
}

// ErrorStack returns the stack traces recorded in err, one per joined error.
func ErrorStack(err error) string {
	var stacks []string

	for _, err := range flatten(err) {
		var goErr *goerrors.Error
		if errors.As(err, &goErr) {
			stacks = append(stacks, goErr.ErrorStack())
		}
	}

	return strings.Join(stacks, "\n")
}

// Recover turns a panic into an error passed to onPanic. It must be deferred.
func Recover(onPanic func(cause error)) {
	rec := recover()
	if rec == nil {
		return
	}

	err, ok := rec.(error)
	if !ok {
		err = fmt.Errorf("panic: %v", rec) //nolint:err113
	}

	onPanic(goerrors.Wrap(err, 2))
}

// WithPanicHandling returns the panics of a command action as errors.
func WithPanicHandling(action cli.ActionFunc) cli.ActionFunc {
	return func(ctx *cli.Context) (err error) {
		defer Recover(func(cause error) {
			err = cause
		})

		return action(ctx)
	}
}

func hasStack(err error) bool {
	var goErr *goerrors.Error

	return errors.As(err, &goErr)
}

// flatten returns the leaves of the joined errors in err.
func flatten(err error) []error {
	for cur := err; cur != nil; cur = errors.Unwrap(cur) {
		if joined, ok := cur.(interface{ Unwrap() []error }); ok {
			var errs []error

			for _, inner := range joined.Unwrap() {
				errs = append(errs, flatten(inner)...)
			}

			return errs
		}
	}

	return []error{err}
}
