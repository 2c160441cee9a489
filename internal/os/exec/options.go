package exec

import (
	"io"

	"github.com/gruntwork-io/taskgrunt/pkg/log"
)

// Option is type for passing options to the Cmd.
type Option func(*Cmd)

// WithLogger sets Logger to the Cmd.
func WithLogger(logger log.Logger) Option {
	return func(cmd *Cmd) {
		cmd.logger = logger
	}
}

// WithDir sets the working directory of the command.
func WithDir(dir string) Option {
	return func(cmd *Cmd) {
		cmd.Dir = dir
	}
}

// WithEnv sets the environment of the command. Nil keeps the environment of the current process.
func WithEnv(env []string) Option {
	return func(cmd *Cmd) {
		cmd.Env = env
	}
}

// WithStdout sets the standard output of the command.
func WithStdout(w io.Writer) Option {
	return func(cmd *Cmd) {
		cmd.Stdout = w
	}
}

// WithStderr sets the standard error of the command.
func WithStderr(w io.Writer) Option {
	return func(cmd *Cmd) {
		cmd.Stderr = w
	}
}
