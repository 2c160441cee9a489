// Package local implements a backend that runs every task as a child process of the scheduler.
// The process inherits the standard streams; its output is never captured.
package local

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gruntwork-io/taskgrunt/internal/backend"
	"github.com/gruntwork-io/taskgrunt/internal/errors"
	"github.com/gruntwork-io/taskgrunt/internal/os/exec"
	"github.com/gruntwork-io/taskgrunt/internal/os/signal"
	"github.com/gruntwork-io/taskgrunt/internal/task"
	"github.com/gruntwork-io/taskgrunt/pkg/log"
	"github.com/gruntwork-io/taskgrunt/telemetry"

	osexec "os/exec"
)

// Backend runs each task as a local process.
type Backend struct {
	logger log.Logger
	stdout io.Writer
	stderr io.Writer
}

// Option configures the Backend.
type Option func(*Backend)

// WithLogger sets the logger used for process lifecycle messages.
func WithLogger(logger log.Logger) Option {
	return func(b *Backend) {
		b.logger = logger
	}
}

// WithOutput redirects the standard streams of the child processes.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(b *Backend) {
		b.stdout = stdout
		b.stderr = stderr
	}
}

// New returns a local process backend.
func New(opts ...Option) *Backend {
	b := &Backend{
		logger: log.Default(),
		stdout: os.Stdout,
		stderr: os.Stderr,
	}

	for _, opt := range opts {
		opt(b)
	}

	return b
}

type processHandle struct {
	*backend.Emitter

	// ctx is the dispatching context. When it was cancelled by a signal, Cancel forwards that signal.
	ctx       context.Context
	cmd       *exec.Cmd
	cancelled atomic.Bool
}

// Execute implements backend.Backend. The runnable is a command name looked up in PATH, or a path to an
// executable, relative to the `dir` option when one is given.
func (b *Backend) Execute(ctx context.Context, desc *task.Descriptor) (backend.Handle, error) {
	opts, err := ParseProcessOptions(desc.Options)
	if err != nil {
		return nil, err
	}

	path, err := resolveRunnable(desc.Runnable, opts.Dir)
	if err != nil {
		return nil, err
	}

	logger := b.logger.WithField(log.FieldKeyTask, desc.Label)

	env := opts.Environ(os.Environ())

	if traceParent := telemetry.TraceParentFromContext(ctx); traceParent != "" {
		if env == nil {
			env = os.Environ()
		}

		env = append(env, telemetry.TraceParentEnvName+"="+traceParent)
	}

	cmd := exec.Command(path, desc.Args...)
	cmd.Stdin = nil
	cmd.Configure(
		exec.WithLogger(logger),
		exec.WithDir(opts.Dir),
		exec.WithEnv(env),
		exec.WithStdout(b.stdout),
		exec.WithStderr(b.stderr),
	)

	hdl := &processHandle{
		Emitter: backend.NewEmitter(desc.Label),
		ctx:     ctx,
		cmd:     cmd,
	}

	// The process outlives the dispatching context; the scheduler stops it through Cancel.
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	if opts.Timeout > 0 {
		runCtx, cancel = context.WithTimeout(context.WithoutCancel(ctx), opts.Timeout)
	}

	metrics := backend.Metrics{StartedAt: time.Now()}

	if err := cmd.Start(); err != nil {
		cancel()

		metrics.EndedAt = time.Now()
		hdl.Fail(err, metrics)
		hdl.Close()

		return hdl, nil
	}

	logger.Debugf("Started %s (pid %d)", path, cmd.Process.Pid)

	stopShutdown := cmd.RegisterGracefullyShutdown(runCtx)

	go func() {
		defer cancel()
		defer hdl.Close()

		err := cmd.Wait()

		stopShutdown()

		metrics.EndedAt = time.Now()
		metrics.ExitCode, _ = exec.GetExitCode(err)

		if hdl.cancelled.Load() {
			hdl.Ack()
			hdl.Fail(context.Canceled, metrics)

			return
		}

		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			hdl.Fail(errors.New(TimeoutError{Label: desc.Label, Timeout: opts.Timeout}), metrics)
			return
		}

		if err != nil {
			hdl.Fail(errors.New(ProcessError{Label: desc.Label, ExitCode: metrics.ExitCode, Err: err}), metrics)
			return
		}

		hdl.Complete(metrics)
	}()

	return hdl, nil
}

// Cancel implements backend.Backend. The process receives the signal that interrupted the run, or the
// interrupt signal when the run was stopped for another reason.
func (b *Backend) Cancel(handle backend.Handle) {
	hdl, ok := handle.(*processHandle)
	if !ok || hdl.Terminated() {
		return
	}

	if hdl.cancelled.Swap(true) {
		return
	}

	if sig := signal.FromContext(hdl.ctx); sig != nil {
		go hdl.cmd.SendSignal(sig)
		return
	}

	go hdl.cmd.Interrupt()
}

func resolveRunnable(runnable, dir string) (string, error) {
	if runnable == "" {
		return "", errors.New(RunnableNotFoundError{Runnable: runnable, Err: errors.New("empty command")})
	}

	if !strings.ContainsRune(runnable, filepath.Separator) && !strings.ContainsRune(runnable, '/') {
		path, err := osexec.LookPath(runnable)
		if err != nil {
			return "", errors.New(RunnableNotFoundError{Runnable: runnable, Err: err})
		}

		return path, nil
	}

	path := runnable
	if !filepath.IsAbs(path) && dir != "" {
		path = filepath.Join(dir, path)
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", errors.New(RunnableNotFoundError{Runnable: runnable, Err: err})
	}

	if info.IsDir() {
		return "", errors.New(RunnableNotFoundError{Runnable: runnable, Err: errors.Errorf("%s is a directory", path)})
	}

	return filepath.Abs(path)
}
