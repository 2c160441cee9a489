package telemetry

import (
	"context"
	"io"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/gruntwork-io/taskgrunt/internal/errors"
)

const (
	noneMetricsExporterType     metricsExporterType = "none"
	consoleMetricsExporterType  metricsExporterType = "console"
	otlpHTTPMetricsExporterType metricsExporterType = "otlpHttp"
	grpcHTTPMetricsExporterType metricsExporterType = "grpcHttp"

	readerInterval = time.Second
)

type metricsExporterType string

// Meter records counters and histograms on its own provider. NewMeter also registers it as the global provider.
type Meter struct {
	metric.Meter
	provider *sdkmetric.MeterProvider
}

// NewMeter creates and configures the metrics collection. It returns nil when no exporter is configured.
func NewMeter(ctx context.Context, appName, appVersion string, writer io.Writer, opts *Options) (*Meter, error) {
	exporter, err := NewMetricsExporter(ctx, writer, opts)
	if err != nil {
		return nil, err
	}

	if exporter == nil {
		return nil, nil
	}

	meter, err := newMeter(appName, appVersion, sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(readerInterval)))
	if err != nil {
		return nil, err
	}

	otel.SetMeterProvider(meter.provider)

	return meter, nil
}

func newMeter(appName, appVersion string, reader sdkmetric.Reader) (*Meter, error) {
	res, err := newResource(appName, appVersion)
	if err != nil {
		return nil, err
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(reader),
	)

	return &Meter{
		Meter:    provider.Meter(appName),
		provider: provider,
	}, nil
}

// NewMetricsExporter creates a new exporter based on the telemetry options.
func NewMetricsExporter(ctx context.Context, writer io.Writer, opts *Options) (sdkmetric.Exporter, error) {
	exporterType := metricsExporterType(opts.MetricExporter)
	if exporterType == "" {
		exporterType = noneMetricsExporterType
	}

	switch exporterType {
	case otlpHTTPMetricsExporterType:
		var config []otlpmetrichttp.Option
		if opts.MetricExporterInsecureEndpoint {
			config = append(config, otlpmetrichttp.WithInsecure())
		}

		return otlpmetrichttp.New(ctx, config...)
	case grpcHTTPMetricsExporterType:
		var config []otlpmetricgrpc.Option
		if opts.MetricExporterInsecureEndpoint {
			config = append(config, otlpmetricgrpc.WithInsecure())
		}

		return otlpmetricgrpc.New(ctx, config...)
	case consoleMetricsExporterType:
		return stdoutmetric.New(stdoutmetric.WithWriter(writer))
	case noneMetricsExporterType:
		return nil, nil
	}

	return nil, errors.New(UnknownExporterError{Kind: "metric", Name: opts.MetricExporter})
}

// Count adds value to the counter name.
func (meter *Meter) Count(ctx context.Context, name string, value int64, attrs map[string]any) {
	if meter == nil || meter.provider == nil || value == 0 {
		return
	}

	counter, err := meter.Int64Counter(CleanMetricName(name + "_count"))
	if err != nil {
		return
	}

	counter.Add(ctx, value, metric.WithAttributes(attributes(attrs)...))
}

// Record records a duration in milliseconds to the histogram name.
func (meter *Meter) Record(ctx context.Context, name string, duration time.Duration, attrs map[string]any) {
	if meter == nil || meter.provider == nil {
		return
	}

	histogram, err := meter.Int64Histogram(CleanMetricName(name+"_duration"), metric.WithUnit("ms"))
	if err != nil {
		return
	}

	histogram.Record(ctx, duration.Milliseconds(), metric.WithAttributes(attributes(attrs)...))
}

// Time measures the duration of fn in the histogram name and counts its successes and errors.
func (meter *Meter) Time(ctx context.Context, name string, attrs map[string]any, fn func(childCtx context.Context) error) error {
	if meter == nil || meter.provider == nil {
		return fn(ctx)
	}

	started := time.Now()
	err := fn(ctx)

	meter.Record(ctx, name, time.Since(started), attrs)

	if err != nil {
		meter.Count(ctx, name+"_errors", 1, attrs)
	} else {
		meter.Count(ctx, name+"_success", 1, attrs)
	}

	return err
}

// Shutdown flushes and stops the provider.
func (meter *Meter) Shutdown(ctx context.Context) error {
	if meter == nil || meter.provider == nil {
		return nil
	}

	return errors.New(meter.provider.Shutdown(ctx))
}
