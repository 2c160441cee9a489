// Package flags provides the taskgrunt command flags. Every flag can also be set by a `TG_` environment variable.
package flags

import (
	"github.com/urfave/cli/v2"

	"github.com/gruntwork-io/taskgrunt/options"
	"github.com/gruntwork-io/taskgrunt/pkg/log"
)

const (
	CatalogFlagName = "catalog"

	// Logs related flags.

	LogLevelFlagName  = "log-level"
	LogFormatFlagName = "log-format"
	NoColorFlagName   = "no-color"

	// Scheduling related flags.

	BackendFlagName        = "backend"
	ParallelismFlagName    = "parallelism"
	NoValidationFlagName   = "no-validation"
	LockFileFlagName       = "lock-file"
	ReportFileFlagName     = "report-file"
	ReportFormatFlagName   = "report-format"
	SummaryPerTaskFlagName = "summary-per-task"

	// Distributed mode flags.

	StoreFlagName         = "store"
	RedisAddrFlagName     = "redis-addr"
	RedisPasswordFlagName = "redis-password"
	RedisDBFlagName       = "redis-db"
	PollIntervalFlagName  = "poll-interval"
	WorkersFlagName       = "workers"
	DrainFlagName         = "drain"

	// Telemetry flags.

	TelemetryTraceExporterFlagName     = "telemetry-trace-exporter"
	TelemetryTraceHTTPEndpointFlagName = "telemetry-trace-exporter-http-endpoint"
	TelemetryMetricExporterFlagName    = "telemetry-metric-exporter"
	TelemetryInsecureFlagName          = "telemetry-insecure-endpoint"
)

var tgPrefix = Prefix{TgPrefix}

// NewGlobalFlags returns the flags accepted before any command.
func NewGlobalFlags(opts *options.TaskgruntOptions) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    LogLevelFlagName,
			EnvVars: tgPrefix.EnvVars(LogLevelFlagName),
			Usage:   "Sets the logging level. Supported levels: " + log.AllLevels.String() + ".",
			Value:   opts.LogLevel.String(),
		},
		&cli.StringFlag{
			Name:        LogFormatFlagName,
			EnvVars:     tgPrefix.EnvVars(LogFormatFlagName),
			Usage:       "Sets the log format: text or json.",
			Value:       opts.LogFormat,
			Destination: &opts.LogFormat,
		},
		&cli.BoolFlag{
			Name:        NoColorFlagName,
			EnvVars:     tgPrefix.EnvVars(NoColorFlagName),
			Usage:       "Disables colors in logs and in the run summary.",
			Destination: &opts.DisableColor,
		},
	}
}

// NewCatalogFlag returns the flag selecting the task catalog.
func NewCatalogFlag(opts *options.TaskgruntOptions) cli.Flag {
	return &cli.StringFlag{
		Name:        CatalogFlagName,
		Aliases:     []string{"c"},
		EnvVars:     tgPrefix.EnvVars(CatalogFlagName),
		Usage:       "Path to a task file (.hcl, .yaml, .yml) or a directory of task files.",
		Required:    true,
		Destination: &opts.CatalogPath,
	}
}

// NewStoreFlags returns the flags selecting the store of the distributed mode.
func NewStoreFlags(opts *options.TaskgruntOptions) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        StoreFlagName,
			EnvVars:     tgPrefix.EnvVars(StoreFlagName),
			Usage:       "Store shared by the coordinator and the workers: redis or memory.",
			Value:       opts.Store,
			Destination: &opts.Store,
		},
		&cli.StringFlag{
			Name:        RedisAddrFlagName,
			EnvVars:     tgPrefix.EnvVars(RedisAddrFlagName),
			Usage:       "Address of the Redis server.",
			Value:       opts.RedisAddr,
			Destination: &opts.RedisAddr,
		},
		&cli.StringFlag{
			Name:        RedisPasswordFlagName,
			EnvVars:     tgPrefix.EnvVars(RedisPasswordFlagName),
			Usage:       "Password of the Redis server.",
			Destination: &opts.RedisPassword,
		},
		&cli.IntFlag{
			Name:        RedisDBFlagName,
			EnvVars:     tgPrefix.EnvVars(RedisDBFlagName),
			Usage:       "Redis database number.",
			Destination: &opts.RedisDB,
		},
	}
}

// NewPollFlags returns the flags tuning the store pollers.
func NewPollFlags(opts *options.TaskgruntOptions) []cli.Flag {
	return []cli.Flag{
		&cli.DurationFlag{
			Name:        PollIntervalFlagName,
			EnvVars:     tgPrefix.EnvVars(PollIntervalFlagName),
			Usage:       "Average pause between two polls of the store.",
			Value:       opts.PollInterval,
			Destination: &opts.PollInterval,
		},
		&cli.IntFlag{
			Name:        WorkersFlagName,
			EnvVars:     tgPrefix.EnvVars(WorkersFlagName),
			Usage:       "Number of workers polling the store.",
			Value:       opts.WorkerCount,
			Destination: &opts.WorkerCount,
		},
	}
}

// NewRunFlags returns the flags of the run command.
func NewRunFlags(opts *options.TaskgruntOptions) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        BackendFlagName,
			EnvVars:     tgPrefix.EnvVars(BackendFlagName),
			Usage:       "Execution backend: local or distributed.",
			Value:       opts.Backend,
			Destination: &opts.Backend,
		},
		&cli.IntFlag{
			Name:        ParallelismFlagName,
			EnvVars:     tgPrefix.EnvVars(ParallelismFlagName),
			Usage:       "Units of parallelism available. One is reserved for the scheduler itself. Defaults to the worker count with the distributed backend.",
			Value:       opts.Parallelism,
			Destination: &opts.Parallelism,
		},
		&cli.BoolFlag{
			Name:        NoValidationFlagName,
			EnvVars:     tgPrefix.EnvVars(NoValidationFlagName),
			Usage:       "Skip the dependency checks done before the first dispatch.",
			Destination: &opts.NoValidation,
		},
		&cli.StringFlag{
			Name:        LockFileFlagName,
			EnvVars:     tgPrefix.EnvVars(LockFileFlagName),
			Usage:       "Hold an exclusive lock on this file during the run.",
			Destination: &opts.LockFile,
		},
		&cli.StringFlag{
			Name:        ReportFileFlagName,
			EnvVars:     tgPrefix.EnvVars(ReportFileFlagName),
			Usage:       "Write a report of every task to this file.",
			Destination: &opts.ReportFile,
		},
		&cli.StringFlag{
			Name:        ReportFormatFlagName,
			EnvVars:     tgPrefix.EnvVars(ReportFormatFlagName),
			Usage:       "Format of the report file: csv or json.",
			Value:       opts.ReportFormat,
			Destination: &opts.ReportFormat,
		},
		&cli.BoolFlag{
			Name:        SummaryPerTaskFlagName,
			EnvVars:     tgPrefix.EnvVars(SummaryPerTaskFlagName),
			Usage:       "List every task with its duration in the run summary.",
			Destination: &opts.SummaryPerTask,
		},
	}
}

// NewTelemetryFlags returns the flags configuring the exporters.
func NewTelemetryFlags(opts *options.TaskgruntOptions) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        TelemetryTraceExporterFlagName,
			EnvVars:     tgPrefix.EnvVars(TelemetryTraceExporterFlagName),
			Usage:       "Trace exporter: none, console, otlpHttp, otlpGrpc or http.",
			Destination: &opts.TelemetryTraceExporter,
		},
		&cli.StringFlag{
			Name:        TelemetryTraceHTTPEndpointFlagName,
			EnvVars:     tgPrefix.EnvVars(TelemetryTraceHTTPEndpointFlagName),
			Usage:       "Endpoint of the http trace exporter.",
			Destination: &opts.TelemetryTraceHTTPEndpoint,
		},
		&cli.StringFlag{
			Name:        TelemetryMetricExporterFlagName,
			EnvVars:     tgPrefix.EnvVars(TelemetryMetricExporterFlagName),
			Usage:       "Metric exporter: none, console, otlpHttp or grpcHttp.",
			Destination: &opts.TelemetryMetricExporter,
		},
		&cli.BoolFlag{
			Name:        TelemetryInsecureFlagName,
			EnvVars:     tgPrefix.EnvVars(TelemetryInsecureFlagName),
			Usage:       "Use plain connections to the telemetry endpoints.",
			Destination: &opts.TelemetryInsecure,
		},
		&cli.StringFlag{
			Name:        "traceparent",
			EnvVars:     []string{"TRACEPARENT"},
			Usage:       "Continue the trace of a parent process.",
			Hidden:      true,
			Destination: &opts.TraceParent,
		},
	}
}
