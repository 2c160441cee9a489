// Package exec runs external commands. It wraps exec.Cmd with signal forwarding and a logger.
package exec

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/gruntwork-io/taskgrunt/internal/errors"
	"github.com/gruntwork-io/taskgrunt/internal/os/signal"
	"github.com/gruntwork-io/taskgrunt/pkg/log"
)

// Cmd is a command type.
type Cmd struct {
	*exec.Cmd

	interruptSignal os.Signal
	logger          log.Logger
	filename        string
}

// Command returns the `Cmd` struct to execute the named program with
// the given arguments. The standard streams are inherited from the current process.
func Command(name string, args ...string) *Cmd {
	cmd := &Cmd{
		Cmd:             exec.Command(name, args...),
		logger:          log.Default(),
		filename:        filepath.Base(name),
		interruptSignal: signal.InterruptSignal,
	}

	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	return cmd
}

// Configure sets options to the `Cmd`.
func (cmd *Cmd) Configure(opts ...Option) {
	for _, opt := range opts {
		opt(cmd)
	}
}

// Start starts the specified command but does not wait for it to complete.
func (cmd *Cmd) Start() error {
	if err := cmd.Cmd.Start(); err != nil {
		return errors.New(err)
	}

	return nil
}

// RegisterGracefullyShutdown sends the interrupt signal to the command once ctx is done.
// If the context was cancelled because the process received a signal, that signal is forwarded instead.
// The returned function stops watching the context and must be called once the command exits.
func (cmd *Cmd) RegisterGracefullyShutdown(ctx context.Context) func() {
	ctxShutdown, cancelShutdown := context.WithCancel(context.Background())

	go func() {
		select {
		case <-ctxShutdown.Done():
		case <-ctx.Done():
			if sig := signal.FromContext(ctx); sig != nil {
				cmd.SendSignal(sig)

				return
			}

			cmd.Interrupt()
		}
	}()

	return cancelShutdown
}

// Interrupt sends the interrupt signal to the command, or kills it on platforms without one.
func (cmd *Cmd) Interrupt() {
	if cmd.interruptSignal == nil {
		cmd.Kill()
		return
	}

	cmd.SendSignal(cmd.interruptSignal)
}

// Kill kills the executed command.
func (cmd *Cmd) Kill() {
	if cmd.Process == nil {
		return
	}

	if err := cmd.Process.Kill(); err != nil {
		cmd.logger.Debugf("Failed to kill %s: %v", cmd.filename, err)
	}
}

// SendSignal sends the given `sig` to the executed command.
func (cmd *Cmd) SendSignal(sig os.Signal) {
	if cmd.Process == nil {
		return
	}

	cmd.logger.Debugf("%s signal is forwarded to %s", cases.Title(language.English).String(sig.String()), cmd.filename)

	if err := cmd.Process.Signal(sig); err != nil {
		cmd.logger.Debugf("Failed to forward signal %s to %s: %v", sig, cmd.filename, err)
	}
}

// GetExitCode returns the exit code of a command. If the error does not
// implement ExitCode(), the error is returned along with a zero code.
func GetExitCode(err error) (int, error) {
	var exitErr interface{ ExitCode() int }

	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}

	return 0, err
}
