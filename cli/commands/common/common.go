// Package common holds the helpers shared by the taskgrunt commands.
package common

import (
	"context"
	"fmt"

	"github.com/gruntwork-io/taskgrunt/internal/backend/local"
	"github.com/gruntwork-io/taskgrunt/internal/catalog"
	"github.com/gruntwork-io/taskgrunt/internal/distributed"
	"github.com/gruntwork-io/taskgrunt/internal/errors"
	"github.com/gruntwork-io/taskgrunt/internal/store"
	"github.com/gruntwork-io/taskgrunt/internal/store/memstore"
	"github.com/gruntwork-io/taskgrunt/internal/store/redisstore"
	"github.com/gruntwork-io/taskgrunt/internal/task"
	"github.com/gruntwork-io/taskgrunt/internal/worker"
	"github.com/gruntwork-io/taskgrunt/options"
	"github.com/gruntwork-io/taskgrunt/telemetry"
)

const appName = "taskgrunt"

// LoadCatalog loads the descriptors of the catalog configured in opts.
func LoadCatalog(ctx context.Context, opts *options.TaskgruntOptions) ([]*task.Descriptor, error) {
	path, err := opts.ResolveCatalogPath()
	if err != nil {
		return nil, err
	}

	cat, err := catalog.FromPath(path)
	if err != nil {
		return nil, err
	}

	descs, err := cat.Load(ctx)
	if err != nil {
		return nil, err
	}

	opts.Logger.Debugf("Loaded %d tasks from %s", len(descs), path)

	return descs, nil
}

// OpenStore connects to the store configured in opts.
func OpenStore(ctx context.Context, opts *options.TaskgruntOptions) (store.Store, error) {
	switch opts.Store {
	case options.StoreMemory:
		return memstore.New(), nil
	case options.StoreRedis:
		s, err := redisstore.New(ctx, redisstore.Options{
			Addr:     opts.RedisAddr,
			Password: opts.RedisPassword,
			DB:       opts.RedisDB,
		})
		if err != nil {
			return nil, err
		}

		return s, nil
	}

	return nil, errors.Errorf("unsupported store %q", opts.Store)
}

// NewTelemeter creates the telemeter configured in opts.
func NewTelemeter(ctx context.Context, opts *options.TaskgruntOptions, version string) (*telemetry.Telemeter, error) {
	return telemetry.NewTelemeter(ctx, appName, version, opts.ErrWriter, &telemetry.Options{
		TraceExporter:                  opts.TelemetryTraceExporter,
		TraceExporterHTTPEndpoint:      opts.TelemetryTraceHTTPEndpoint,
		TraceParent:                    opts.TraceParent,
		MetricExporter:                 opts.TelemetryMetricExporter,
		TraceExporterInsecureEndpoint:  opts.TelemetryInsecure,
		MetricExporterInsecureEndpoint: opts.TelemetryInsecure,
	})
}

// StartWorkers starts opts.WorkerCount distributed workers running tasks as local processes.
// Stop the returned pool to end them.
func StartWorkers(ctx context.Context, opts *options.TaskgruntOptions, s store.Store, descs []*task.Descriptor) *worker.Pool {
	pool := worker.NewWorkerPool(ctx, opts.WorkerCount)
	b := local.New(local.WithLogger(opts.Logger), local.WithOutput(opts.Writer, opts.ErrWriter))

	for i := range opts.WorkerCount {
		w := distributed.NewWorker(s, b, descs,
			distributed.WithPollInterval(opts.PollInterval),
			distributed.WithDrain(opts.Drain),
			distributed.WithWorkerLogger(opts.Logger),
			distributed.WithWorkerID(fmt.Sprintf("worker-%d", i+1)),
		)

		pool.Submit(w.Run)
	}

	return pool
}
