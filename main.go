package main

import (
	"context"
	"os"

	"github.com/gruntwork-io/taskgrunt/cli"
	"github.com/gruntwork-io/taskgrunt/internal/errors"
	"github.com/gruntwork-io/taskgrunt/options"
)

// The main entrypoint for taskgrunt
func main() {
	opts := options.NewTaskgruntOptions()

	defer errors.Recover(checkForErrorsAndExit(opts))

	app := cli.NewApp(opts)
	err := app.RunContext(context.Background(), os.Args)

	checkForErrorsAndExit(opts)(err)
}

// If there is an error, display it in the console and exit with a non-zero exit code. Otherwise, exit 0.
func checkForErrorsAndExit(opts *options.TaskgruntOptions) func(error) {
	return func(err error) {
		if err == nil {
			os.Exit(0)
		}

		// the logger is rebuilt once the flags are parsed
		logger := opts.Logger

		logger.Error(err.Error())

		if errStack := errors.ErrorStack(err); errStack != "" {
			logger.Trace(errStack)
		}

		os.Exit(errors.ExitCode(err))
	}
}
