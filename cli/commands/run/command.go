// Package run provides the `run` command, which schedules every task of a catalog.
package run

import (
	"github.com/urfave/cli/v2"

	"github.com/gruntwork-io/taskgrunt/cli/flags"
	"github.com/gruntwork-io/taskgrunt/internal/errors"
	"github.com/gruntwork-io/taskgrunt/options"
)

const CommandName = "run"

// NewCommand returns the run command.
func NewCommand(opts *options.TaskgruntOptions) *cli.Command {
	cmdFlags := []cli.Flag{flags.NewCatalogFlag(opts)}
	cmdFlags = append(cmdFlags, flags.NewRunFlags(opts)...)
	cmdFlags = append(cmdFlags, flags.NewStoreFlags(opts)...)
	cmdFlags = append(cmdFlags, flags.NewPollFlags(opts)...)
	cmdFlags = append(cmdFlags, flags.NewTelemetryFlags(opts)...)

	return &cli.Command{
		Name:      CommandName,
		Usage:     "Run every task of a catalog, each one after its dependencies.",
		UsageText: "taskgrunt run --catalog <path> [options]",
		Description: `Loads the catalog, checks the dependency graph and dispatches the tasks to the selected backend.

With the local backend every task runs as a child process. With the distributed backend the tasks are
queued in the store and run by 'taskgrunt worker' processes; with '--store memory' the workers run in
process.

With the distributed backend the run keeps one task in flight per worker (--workers), unless
--parallelism is given.

The command exits with 1 on the first task failure, when the remaining tasks can never become ready,
or when tasks lost by the backend leave queued tasks unable to run.`,
		Flags: cmdFlags,
		Action: errors.WithPanicHandling(func(cliCtx *cli.Context) error {
			opts.ExplicitParallelism = cliCtx.IsSet(flags.ParallelismFlagName)

			return Run(cliCtx.Context, opts, cliCtx.App.Version)
		}),
	}
}
