package errors_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gruntwork-io/taskgrunt/internal/errors"
)

type labelError struct {
	Label string
}

func (err labelError) Error() string {
	return "task " + err.Label
}

func TestNewAddsStackTraceOnce(t *testing.T) {
	t.Parallel()

	assert.NoError(t, errors.New(nil))

	err := errors.New(labelError{Label: "build"})
	require.Error(t, err)
	assert.Same(t, err, errors.New(err))

	var target labelError
	require.ErrorAs(t, err, &target)
	assert.Equal(t, "build", target.Label)
	assert.Contains(t, errors.ErrorStack(err), "errors_test.go")
}

func TestErrorf(t *testing.T) {
	t.Parallel()

	err := errors.Errorf("running %s: %w", "build", context.Canceled)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, "running build: context canceled", err.Error())
	assert.NotEmpty(t, errors.ErrorStack(err))

	wrapped := errors.Errorf("run: %w", err)
	assert.Equal(t, errors.ErrorStack(err), errors.ErrorStack(wrapped))
}

func TestExitCode(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0, errors.ExitCode(nil))
	assert.Equal(t, 1, errors.ExitCode(errors.New("boom")))
	assert.Equal(t, 3, errors.ExitCode(fmt.Errorf("wrapped: %w", errors.ErrorWithExitCode{Err: errors.New("boom"), ExitCode: 3})))
}

func TestMultiError(t *testing.T) {
	t.Parallel()

	var errs *errors.MultiError
	require.NoError(t, errs.ErrorOrNil())
	require.NoError(t, (&errors.MultiError{}).ErrorOrNil())

	errs = errs.Append(errors.New("first"), nil, errors.New("second\ndetails"))

	err := errs.ErrorOrNil()
	require.Error(t, err)
	assert.Len(t, errs.Unwrap(), 2)
	assert.Equal(t, "2 errors occurred:\n* first\n* second\n  details", err.Error())

	single := (&errors.MultiError{}).Append(errors.New("only"))
	assert.Equal(t, "only", single.Error())
}

func TestErrorStackOfJoinedErrors(t *testing.T) {
	t.Parallel()

	first := errors.New("first")
	second := errors.New("second")
	plain := fmt.Errorf("plain")

	joined := errors.Join(first, plain, second)

	stack := errors.ErrorStack(joined)
	assert.Contains(t, stack, "first")
	assert.Contains(t, stack, "second")
	assert.Equal(t, 2, strings.Count(stack, "*errors.errorString "))
	assert.Empty(t, errors.ErrorStack(nil))
}

func TestRecover(t *testing.T) {
	t.Parallel()

	var recovered error

	func() {
		defer errors.Recover(func(cause error) { recovered = cause })

		panic("boom")
	}()

	require.Error(t, recovered)
	assert.Contains(t, recovered.Error(), "boom")
}
