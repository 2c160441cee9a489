package run

import (
	"context"
	"fmt"

	"github.com/gofrs/flock"

	"github.com/gruntwork-io/taskgrunt/cli/commands/common"
	"github.com/gruntwork-io/taskgrunt/internal/backend"
	"github.com/gruntwork-io/taskgrunt/internal/backend/local"
	"github.com/gruntwork-io/taskgrunt/internal/distributed"
	"github.com/gruntwork-io/taskgrunt/internal/errors"
	"github.com/gruntwork-io/taskgrunt/internal/report"
	"github.com/gruntwork-io/taskgrunt/internal/scheduler"
	"github.com/gruntwork-io/taskgrunt/internal/task"
	"github.com/gruntwork-io/taskgrunt/options"
	"github.com/gruntwork-io/taskgrunt/telemetry"
)

// LockHeldError is returned when another run holds the lock file.
type LockHeldError struct {
	Path string
}

func (err LockHeldError) Error() string {
	return fmt.Sprintf("lock file %s is held by another run", err.Path)
}

// Run loads the catalog and schedules its tasks.
func Run(ctx context.Context, opts *options.TaskgruntOptions, version string) error {
	if opts.LockFile != "" {
		unlock, err := acquireLock(opts.LockFile)
		if err != nil {
			return err
		}
		defer unlock()
	}

	descs, err := common.LoadCatalog(ctx, opts)
	if err != nil {
		return err
	}

	tlm, err := common.NewTelemeter(ctx, opts, version)
	if err != nil {
		return err
	}

	defer func() {
		if shutdownErr := tlm.Shutdown(context.WithoutCancel(ctx)); shutdownErr != nil {
			opts.Logger.Warnf("Failed to flush telemetry: %v", shutdownErr)
		}
	}()

	ctx = telemetry.ContextWithTelemeter(ctx, tlm)

	b, stop, err := newBackend(ctx, opts, descs)
	if err != nil {
		return err
	}
	defer stop()

	reportOpts := []report.Option{report.WithFormat(report.Format(opts.ReportFormat))}
	if opts.DisableColor {
		reportOpts = append(reportOpts, report.WithDisableColor())
	}

	if opts.SummaryPerTask {
		reportOpts = append(reportOpts, report.WithShowTaskLevelSummary())
	}

	rep := report.NewReport(reportOpts...)

	// The run span is the parent of the task spans and of the spans of the local child processes.
	runErr := tlm.Collect(ctx, "run_command", map[string]any{"backend": opts.Backend, "tasks": len(descs)}, func(ctx context.Context) error {
		s := scheduler.New(
			scheduler.WithBackend(b),
			slotsOption(opts),
			scheduler.WithLogger(opts.Logger),
			scheduler.WithValidation(!opts.NoValidation),
			scheduler.WithObservers(
				scheduler.NewLogObserver(opts.Logger),
				rep,
				telemetry.NewObserver(ctx),
			),
		)

		opts.Logger.Debugf("Running %d tasks with the %s backend, %d slots", len(descs), opts.Backend, s.Capacity())

		_, err := s.Run(ctx, descs)

		return err
	})

	if err := rep.WriteSummary(opts.Writer); err != nil {
		opts.Logger.Warnf("Failed to write the run summary: %v", err)
	}

	if opts.ReportFile != "" {
		if err := rep.WriteToFile(opts.ReportFile); err != nil {
			return errors.Join(runErr, err)
		}

		opts.Logger.Debugf("Report written to %s", opts.ReportFile)
	}

	return runErr
}

// slotsOption sizes the slot pool. Unless the parallelism is given explicitly, the distributed backend
// gets one slot per worker.
func slotsOption(opts *options.TaskgruntOptions) scheduler.Option {
	if opts.Backend == options.BackendDistributed && !opts.ExplicitParallelism {
		return scheduler.WithCapacity(opts.WorkerCount)
	}

	return scheduler.WithParallelism(opts.Parallelism)
}

// newBackend returns the backend selected in opts and a function releasing it.
func newBackend(ctx context.Context, opts *options.TaskgruntOptions, descs []*task.Descriptor) (backend.Backend, func(), error) {
	if opts.Backend != options.BackendDistributed {
		return local.New(local.WithLogger(opts.Logger), local.WithOutput(opts.Writer, opts.ErrWriter)), func() {}, nil
	}

	s, err := common.OpenStore(ctx, opts)
	if err != nil {
		return nil, nil, err
	}

	if err := distributed.Reset(ctx, s); err != nil {
		s.Close() //nolint:errcheck
		return nil, nil, err
	}

	b := distributed.NewBackend(s,
		distributed.WithBackendPollInterval(opts.PollInterval),
		distributed.WithBackendLogger(opts.Logger),
	)

	if opts.Store != options.StoreMemory {
		return b, func() { s.Close() }, nil //nolint:errcheck
	}

	// Nothing outside this process can reach a memory store, so the workers run here.
	pool := common.StartWorkers(ctx, opts, s, descs)

	return b, func() {
		if err := pool.Stop(); err != nil {
			opts.Logger.Warnf("Workers stopped with errors: %v", err)
		}

		s.Close() //nolint:errcheck
	}, nil
}

func acquireLock(path string) (func(), error) {
	lock := flock.New(path)

	locked, err := lock.TryLock()
	if err != nil {
		return nil, errors.New(err)
	}

	if !locked {
		return nil, errors.New(LockHeldError{Path: path})
	}

	return func() { lock.Unlock() }, nil //nolint:errcheck
}
