package telemetry

import (
	"context"
	"io"

	"github.com/gruntwork-io/taskgrunt/internal/errors"
)

// Telemeter bundles the tracer and the meter. Either may be nil, in which case the calls pass through.
type Telemeter struct {
	*Tracer
	*Meter
}

// NewTelemeter creates the tracer and the meter configured by opts.
func NewTelemeter(ctx context.Context, appName, appVersion string, writer io.Writer, opts *Options) (*Telemeter, error) {
	tracer, err := NewTracer(ctx, appName, appVersion, writer, opts)
	if err != nil {
		return nil, err
	}

	meter, err := NewMeter(ctx, appName, appVersion, writer, opts)
	if err != nil {
		return nil, err
	}

	return &Telemeter{Tracer: tracer, Meter: meter}, nil
}

// Enabled returns true if at least one exporter is configured.
func (tlm *Telemeter) Enabled() bool {
	return tlm != nil && (tlm.Tracer != nil || tlm.Meter != nil)
}

// Collect runs fn inside a span named name and records its duration and outcome under the same name.
func (tlm *Telemeter) Collect(ctx context.Context, name string, attrs map[string]any, fn func(childCtx context.Context) error) error {
	if tlm == nil {
		return fn(ctx)
	}

	return tlm.Tracer.Trace(ctx, name, attrs, func(ctx context.Context) error {
		return tlm.Meter.Time(ctx, name, attrs, fn)
	})
}

// Shutdown flushes and stops both providers.
func (tlm *Telemeter) Shutdown(ctx context.Context) error {
	if tlm == nil {
		return nil
	}

	errs := &errors.MultiError{}

	if err := tlm.Tracer.Shutdown(ctx); err != nil {
		errs = errs.Append(err)
	}

	if err := tlm.Meter.Shutdown(ctx); err != nil {
		errs = errs.Append(err)
	}

	return errs.ErrorOrNil()
}
