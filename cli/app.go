// Package cli assembles the taskgrunt command line application.
package cli

import (
	"context"

	"github.com/urfave/cli/v2"

	"github.com/gruntwork-io/taskgrunt/cli/commands/fill"
	"github.com/gruntwork-io/taskgrunt/cli/commands/run"
	"github.com/gruntwork-io/taskgrunt/cli/commands/validate"
	"github.com/gruntwork-io/taskgrunt/cli/commands/worker"
	"github.com/gruntwork-io/taskgrunt/cli/flags"
	"github.com/gruntwork-io/taskgrunt/internal/os/signal"
	"github.com/gruntwork-io/taskgrunt/options"
	"github.com/gruntwork-io/taskgrunt/pkg/log"
)

// Version is set at build time with `-ldflags "-X github.com/gruntwork-io/taskgrunt/cli.Version=<version>"`.
var Version = "dev"

// App is the taskgrunt CLI app.
type App struct {
	*cli.App
}

// NewApp creates the taskgrunt CLI app.
func NewApp(opts *options.TaskgruntOptions) *App {
	app := cli.NewApp()
	app.Name = "taskgrunt"
	app.Usage = "Run tasks in parallel, each one after the tasks it depends on."
	app.UsageText = "taskgrunt <command> [options]"
	app.Version = Version
	app.Writer = opts.Writer
	app.ErrWriter = opts.ErrWriter
	app.Flags = flags.NewGlobalFlags(opts)
	app.Commands = NewCommands(opts)
	app.Before = beforeAction(opts)
	// Errors are reported by main, the default handler calls os.Exit.
	app.ExitErrHandler = func(*cli.Context, error) {}

	return &App{App: app}
}

// NewCommands returns the taskgrunt commands.
func NewCommands(opts *options.TaskgruntOptions) []*cli.Command {
	cmds := []*cli.Command{
		run.NewCommand(opts),
		validate.NewCommand(opts),
		fill.NewCommand(opts),
		worker.NewCommand(opts),
	}

	// Command flags are only parsed once the command starts, so the options are checked there.
	for _, cmd := range cmds {
		cmd.Before = func(*cli.Context) error {
			return opts.Validate()
		}
	}

	return cmds
}

// RunContext runs the app with ctx cancelled on interrupt signals.
func (app *App) RunContext(ctx context.Context, args []string) error {
	ctx, cancel := signal.NotifyContext(ctx)
	defer cancel()

	return app.App.RunContext(ctx, args)
}

func beforeAction(opts *options.TaskgruntOptions) cli.BeforeFunc {
	return func(cliCtx *cli.Context) error {
		level, err := log.ParseLevel(cliCtx.String(flags.LogLevelFlagName))
		if err != nil {
			return err
		}

		opts.LogLevel = level
		opts.ConfigureLogger()
		opts.Logger.Debugf("taskgrunt version: %s", cliCtx.App.Version)

		return nil
	}
}
