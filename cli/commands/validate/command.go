// Package validate provides the `validate` command, which checks a catalog without running it.
package validate

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/gruntwork-io/taskgrunt/cli/commands/common"
	"github.com/gruntwork-io/taskgrunt/cli/flags"
	"github.com/gruntwork-io/taskgrunt/internal/errors"
	"github.com/gruntwork-io/taskgrunt/internal/queue"
	"github.com/gruntwork-io/taskgrunt/internal/scheduler"
	"github.com/gruntwork-io/taskgrunt/options"
)

const CommandName = "validate"

// NewCommand returns the validate command.
func NewCommand(opts *options.TaskgruntOptions) *cli.Command {
	return &cli.Command{
		Name:      CommandName,
		Usage:     "Check the catalog and print the tasks in an order respecting their dependencies.",
		UsageText: "taskgrunt validate --catalog <path>",
		Flags:     []cli.Flag{flags.NewCatalogFlag(opts)},
		Action: errors.WithPanicHandling(func(cliCtx *cli.Context) error {
			return Run(cliCtx.Context, opts)
		}),
	}
}

// Run loads and validates the catalog, then prints one line per task.
func Run(ctx context.Context, opts *options.TaskgruntOptions) error {
	descs, err := common.LoadCatalog(ctx, opts)
	if err != nil {
		return err
	}

	if err := scheduler.Validate(descs); err != nil {
		return err
	}

	for _, desc := range queue.RunOrder(descs) {
		line := desc.Label
		if desc.HasDeps() {
			line += " <- " + strings.Join(desc.Deps, ", ")
		}

		if _, err := fmt.Fprintln(opts.Writer, line); err != nil {
			return errors.New(err)
		}
	}

	return nil
}
