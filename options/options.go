// Package options provides a set of options that configure the behavior of the taskgrunt program.
package options

import (
	"io"
	"os"
	"runtime"
	"time"

	"github.com/mitchellh/go-homedir"

	"github.com/gruntwork-io/taskgrunt/internal/errors"
	"github.com/gruntwork-io/taskgrunt/pkg/log"
)

const (
	BackendLocal       = "local"
	BackendDistributed = "distributed"

	StoreRedis  = "redis"
	StoreMemory = "memory"

	LogFormatText = "text"
	LogFormatJSON = "json"

	ReportFormatCSV  = "csv"
	ReportFormatJSON = "json"

	DefaultRedisAddr = "localhost:6379"

	// DefaultPollInterval is the base delay between two polls of the distributed store.
	// Workers add up to half of it as jitter in both directions.
	DefaultPollInterval = time.Second

	DefaultWorkerCount = 1

	defaultLogLevel = log.InfoLevel
)

// TaskgruntOptions represents options that configure the behavior of the taskgrunt program.
type TaskgruntOptions struct {
	Writer    io.Writer
	ErrWriter io.Writer
	Logger    log.Logger

	// CatalogPath is a task file (.hcl, .yaml, .yml) or a directory holding one task per file.
	CatalogPath string
	// Backend selects the execution backend used by `run`.
	Backend string
	// Store selects the store of the distributed backend. With the memory store, `run` starts
	// WorkerCount workers in process.
	Store string

	LogLevel  log.Level
	LogFormat string

	ReportFile   string
	ReportFormat string

	LockFile string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	TelemetryTraceExporter     string
	TelemetryTraceHTTPEndpoint string
	TelemetryMetricExporter    string
	TraceParent                string
	TelemetryInsecure          bool

	// Parallelism is the number of units of parallelism available to the scheduler.
	// One of them is reserved for the coordinating loop.
	Parallelism  int
	PollInterval time.Duration
	WorkerCount  int
	// ExplicitParallelism is set when --parallelism was given. Otherwise the distributed backend
	// sizes its slots from WorkerCount.
	ExplicitParallelism bool

	// NoValidation disables the eager validation of the dependency graph.
	NoValidation bool
	DisableColor bool
	// SummaryPerTask lists every task with its duration in the run summary.
	SummaryPerTask bool
	// Drain stops workers as soon as `todo` is empty.
	Drain bool
}

// NewTaskgruntOptions returns options with default values writing to stdout and stderr.
func NewTaskgruntOptions() *TaskgruntOptions {
	return NewTaskgruntOptionsWithWriters(os.Stdout, os.Stderr)
}

// NewTaskgruntOptionsWithWriters returns options with default values using the given writers.
func NewTaskgruntOptionsWithWriters(stdout, stderr io.Writer) *TaskgruntOptions {
	return &TaskgruntOptions{
		Writer:       stdout,
		ErrWriter:    stderr,
		Logger:       log.New(log.WithOutput(stderr), log.WithLevel(defaultLogLevel)),
		Backend:      BackendLocal,
		Store:        StoreRedis,
		LogLevel:     defaultLogLevel,
		LogFormat:    LogFormatText,
		ReportFormat: ReportFormatCSV,
		RedisAddr:    DefaultRedisAddr,
		Parallelism:  runtime.NumCPU(),
		PollInterval: DefaultPollInterval,
		WorkerCount:  DefaultWorkerCount,
	}
}

// ConfigureLogger rebuilds the logger from LogLevel, LogFormat and DisableColor.
func (opts *TaskgruntOptions) ConfigureLogger() {
	var formatter log.Formatter = log.NewJSONFormatter()

	if opts.LogFormat != LogFormatJSON {
		text := log.NewTextFormatter()
		if opts.DisableColor || !log.IsTerminal(opts.ErrWriter) {
			text.DisableColors()
		}

		formatter = text
	}

	opts.Logger = log.New(
		log.WithOutput(opts.ErrWriter),
		log.WithLevel(opts.LogLevel),
		log.WithFormatter(formatter),
	)
}

// Validate checks the options for values that can never work.
func (opts *TaskgruntOptions) Validate() error {
	switch opts.Backend {
	case BackendLocal, BackendDistributed:
	default:
		return errors.Errorf("unsupported backend %q, supported backends: %s, %s", opts.Backend, BackendLocal, BackendDistributed)
	}

	switch opts.Store {
	case StoreRedis, StoreMemory:
	default:
		return errors.Errorf("unsupported store %q, supported stores: %s, %s", opts.Store, StoreRedis, StoreMemory)
	}

	switch opts.ReportFormat {
	case ReportFormatCSV, ReportFormatJSON:
	default:
		return errors.Errorf("unsupported report format %q, supported formats: %s, %s", opts.ReportFormat, ReportFormatCSV, ReportFormatJSON)
	}

	if opts.Parallelism <= 0 {
		return errors.Errorf("parallelism must be a positive number, got %d", opts.Parallelism)
	}

	if opts.WorkerCount <= 0 {
		return errors.Errorf("worker count must be a positive number, got %d", opts.WorkerCount)
	}

	return nil
}

// ResolveCatalogPath expands a leading `~` in the catalog path.
func (opts *TaskgruntOptions) ResolveCatalogPath() (string, error) {
	if opts.CatalogPath == "" {
		return "", errors.New("catalog path is not set")
	}

	path, err := homedir.Expand(opts.CatalogPath)
	if err != nil {
		return "", errors.New(err)
	}

	return path, nil
}
