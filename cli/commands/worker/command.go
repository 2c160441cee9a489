// Package worker provides the `worker` command, which runs distributed workers consuming the store.
package worker

import (
	"context"

	"github.com/urfave/cli/v2"

	"github.com/gruntwork-io/taskgrunt/cli/commands/common"
	"github.com/gruntwork-io/taskgrunt/cli/flags"
	"github.com/gruntwork-io/taskgrunt/internal/errors"
	"github.com/gruntwork-io/taskgrunt/options"
)

const CommandName = "worker"

// NewCommand returns the worker command.
func NewCommand(opts *options.TaskgruntOptions) *cli.Command {
	cmdFlags := []cli.Flag{
		flags.NewCatalogFlag(opts),
		&cli.BoolFlag{
			Name:        flags.DrainFlagName,
			EnvVars:     flags.Prefix{flags.TgPrefix}.EnvVars(flags.DrainFlagName),
			Usage:       "Exit once the todo list is found empty instead of polling until interrupted.",
			Destination: &opts.Drain,
		},
	}
	cmdFlags = append(cmdFlags, flags.NewStoreFlags(opts)...)
	cmdFlags = append(cmdFlags, flags.NewPollFlags(opts)...)

	return &cli.Command{
		Name:      CommandName,
		Usage:     "Run workers popping tasks from the store and running them as local processes.",
		UsageText: "taskgrunt worker --catalog <path> [--workers N] [--drain]",
		Description: `Every worker waits for the ready gate, pops a label from the todo list and runs the task of the
catalog with that label. A task whose dependencies are not done yet goes back to the tail of the list.
Every worker must load the same catalog as the filler or the coordinator.`,
		Flags: cmdFlags,
		Action: errors.WithPanicHandling(func(cliCtx *cli.Context) error {
			return Run(cliCtx.Context, opts)
		}),
	}
}

// Run starts the workers and waits for them to return.
func Run(ctx context.Context, opts *options.TaskgruntOptions) error {
	descs, err := common.LoadCatalog(ctx, opts)
	if err != nil {
		return err
	}

	s, err := common.OpenStore(ctx, opts)
	if err != nil {
		return err
	}
	defer s.Close() //nolint:errcheck

	opts.Logger.Infof("Starting %d workers", opts.WorkerCount)

	return common.StartWorkers(ctx, opts, s, descs).Wait()
}
