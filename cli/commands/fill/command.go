// Package fill provides the `fill` command, which queues the tasks of a catalog for distributed workers.
package fill

import (
	"context"

	"github.com/urfave/cli/v2"

	"github.com/gruntwork-io/taskgrunt/cli/commands/common"
	"github.com/gruntwork-io/taskgrunt/cli/flags"
	"github.com/gruntwork-io/taskgrunt/internal/distributed"
	"github.com/gruntwork-io/taskgrunt/internal/errors"
	"github.com/gruntwork-io/taskgrunt/internal/scheduler"
	"github.com/gruntwork-io/taskgrunt/options"
)

const (
	CommandName = "fill"

	ResetFlagName = "reset"
)

// NewCommand returns the fill command.
func NewCommand(opts *options.TaskgruntOptions) *cli.Command {
	var reset bool

	cmdFlags := []cli.Flag{
		flags.NewCatalogFlag(opts),
		&cli.BoolFlag{
			Name:        ResetFlagName,
			EnvVars:     flags.Prefix{flags.TgPrefix}.EnvVars(ResetFlagName),
			Usage:       "Clear the lists of a previous run first.",
			Destination: &reset,
		},
	}
	cmdFlags = append(cmdFlags, flags.NewStoreFlags(opts)...)

	return &cli.Command{
		Name:      CommandName,
		Usage:     "Queue every task of a catalog in the store and open the ready gate.",
		UsageText: "taskgrunt fill --catalog <path> [--reset]",
		Flags:     cmdFlags,
		Action: errors.WithPanicHandling(func(cliCtx *cli.Context) error {
			return Run(cliCtx.Context, opts, reset)
		}),
	}
}

// Run queues the catalog. Workers started with the same catalog pick the tasks up once the gate opens.
func Run(ctx context.Context, opts *options.TaskgruntOptions, reset bool) error {
	descs, err := common.LoadCatalog(ctx, opts)
	if err != nil {
		return err
	}

	if err := scheduler.Validate(descs); err != nil {
		return err
	}

	s, err := common.OpenStore(ctx, opts)
	if err != nil {
		return err
	}
	defer s.Close() //nolint:errcheck

	if reset {
		if err := distributed.Reset(ctx, s); err != nil {
			return err
		}
	}

	if err := distributed.Fill(ctx, s, descs); err != nil {
		return err
	}

	opts.Logger.Infof("Queued %d tasks", len(descs))

	return nil
}
