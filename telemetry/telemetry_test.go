package telemetry

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/gruntwork-io/taskgrunt/internal/errors"
	"github.com/gruntwork-io/taskgrunt/internal/scheduler"
	"github.com/gruntwork-io/taskgrunt/internal/task"
)

func TestNewTraceExporter(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name      string
		opts      Options
		expectNil bool
		expectErr bool
	}{
		{name: "default", opts: Options{}, expectNil: true},
		{name: "none", opts: Options{TraceExporter: "none"}, expectNil: true},
		{name: "console", opts: Options{TraceExporter: "console"}},
		{name: "otlp http", opts: Options{TraceExporter: "otlpHttp", TraceExporterInsecureEndpoint: true}},
		{name: "otlp grpc", opts: Options{TraceExporter: "otlpGrpc"}},
		{name: "http", opts: Options{TraceExporter: "http", TraceExporterHTTPEndpoint: "localhost:4318"}},
		{name: "http without endpoint", opts: Options{TraceExporter: "http"}, expectErr: true},
		{name: "unknown", opts: Options{TraceExporter: "zipkin"}, expectErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			exporter, err := NewTraceExporter(context.Background(), io.Discard, &tc.opts)
			if tc.expectErr {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)

			if tc.expectNil {
				assert.Nil(t, exporter)
				return
			}

			assert.NotNil(t, exporter)
		})
	}
}

func TestNewMetricsExporter(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name      string
		exporter  string
		expectNil bool
		expectErr bool
	}{
		{name: "none", exporter: "none", expectNil: true},
		{name: "console", exporter: "console"},
		{name: "otlp http", exporter: "otlpHttp"},
		{name: "grpc", exporter: "grpcHttp"},
		{name: "unknown", exporter: "statsd", expectErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			exporter, err := NewMetricsExporter(context.Background(), io.Discard, &Options{MetricExporter: tc.exporter})
			if tc.expectErr {
				var unknownErr UnknownExporterError
				require.ErrorAs(t, err, &unknownErr)
				assert.Equal(t, "metric", unknownErr.Kind)

				return
			}

			require.NoError(t, err)

			if tc.expectNil {
				assert.Nil(t, exporter)
				return
			}

			assert.NotNil(t, exporter)
		})
	}
}

func TestNewTelemeterDisabled(t *testing.T) {
	t.Parallel()

	tlm, err := NewTelemeter(context.Background(), "taskgrunt", "test", io.Discard, &Options{})
	require.NoError(t, err)
	assert.False(t, tlm.Enabled())

	called := false
	err = tlm.Collect(context.Background(), "noop", nil, func(context.Context) error {
		called = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, called)
	require.NoError(t, tlm.Shutdown(context.Background()))
}

func TestTraceParent(t *testing.T) {
	t.Parallel()

	exporter := tracetest.NewInMemoryExporter()

	tracer, err := newTracer(exporter, "taskgrunt", "test", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01", sdktrace.WithSyncer(exporter))
	require.NoError(t, err)

	err = tracer.Trace(context.Background(), "child", map[string]any{"n": 1}, func(ctx context.Context) error {
		assert.Contains(t, TraceParentFromContext(ctx), "-4bf92f3577b34da6a3ce929d0e0e4736-")

		return nil
	})
	require.NoError(t, err)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", spans[0].SpanContext.TraceID().String())
	assert.Equal(t, "00f067aa0ba902b7", spans[0].Parent.SpanID().String())

	_, err = newTracer(exporter, "taskgrunt", "test", "not-a-traceparent", sdktrace.WithSyncer(exporter))
	require.Error(t, err)

	assert.Empty(t, TraceParentFromContext(context.Background()))
}

func TestCollect(t *testing.T) {
	t.Parallel()

	spanExporter := tracetest.NewInMemoryExporter()
	tracer, err := newTracer(spanExporter, "taskgrunt", "test", "", sdktrace.WithSyncer(spanExporter))
	require.NoError(t, err)

	reader := sdkmetric.NewManualReader()
	meter, err := newMeter("taskgrunt", "test", reader)
	require.NoError(t, err)

	tlm := &Telemeter{Tracer: tracer, Meter: meter}
	boom := errors.New("boom")

	err = tlm.Collect(context.Background(), "run_command", map[string]any{"backend": "local"}, func(ctx context.Context) error {
		assert.NotEmpty(t, TraceParentFromContext(ctx))
		return boom
	})
	require.ErrorIs(t, err, boom)

	spans := spanExporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "run_command", spans[0].Name)

	var data metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &data))

	names := map[string]bool{}

	for _, scope := range data.ScopeMetrics {
		for _, m := range scope.Metrics {
			names[m.Name] = true
		}
	}

	assert.True(t, names["run_command_duration"])
	assert.True(t, names["run_command_errors_count"])
}

func TestTelemeterFromContext(t *testing.T) {
	t.Parallel()

	assert.False(t, TelemeterFromContext(context.Background()).Enabled())

	tlm := &Telemeter{Tracer: &Tracer{}}
	assert.Same(t, tlm, TelemeterFromContext(ContextWithTelemeter(context.Background(), tlm)))
}

func TestObserver(t *testing.T) {
	t.Parallel()

	spanExporter := tracetest.NewInMemoryExporter()
	tracer, err := newTracer(spanExporter, "taskgrunt", "test", "", sdktrace.WithSyncer(spanExporter))
	require.NoError(t, err)

	reader := sdkmetric.NewManualReader()
	meter, err := newMeter("taskgrunt", "test", reader)
	require.NoError(t, err)

	obs := NewObserver(ContextWithTelemeter(context.Background(), &Telemeter{Tracer: tracer, Meter: meter}))

	now := time.Now()
	a := task.NewRecord(&task.Descriptor{Label: "a", Runnable: "echo"})
	a.DispatchedAt = now
	a.CompletedAt = now.Add(20 * time.Millisecond)
	b := task.NewRecord(&task.Descriptor{Label: "b", Runnable: "false"})
	boom := errors.New("boom")

	for _, ev := range []scheduler.Event{
		{Kind: scheduler.RunStarted, RunID: "run", Total: 2},
		{Kind: scheduler.TaskDispatched, RunID: "run", Record: a},
		{Kind: scheduler.TaskDispatched, RunID: "run", Record: b},
		{Kind: scheduler.TaskCompleted, RunID: "run", Record: a},
		{Kind: scheduler.TaskFailed, RunID: "run", Record: b, Err: boom},
		{Kind: scheduler.RunFinished, RunID: "run", Err: boom},
	} {
		obs.Observe(ev)
	}

	spans := spanExporter.GetSpans()
	require.Len(t, spans, 3)

	byTask := map[string]tracetest.SpanStub{}
	var run tracetest.SpanStub

	for _, span := range spans {
		if span.Name == runSpanName {
			run = span
			continue
		}

		for _, attr := range span.Attributes {
			if attr.Key == "task" {
				byTask[attr.Value.AsString()] = span
			}
		}
	}

	require.Equal(t, runSpanName, run.Name)
	assert.Equal(t, codes.Error, run.Status.Code)
	require.Contains(t, byTask, "a")
	require.Contains(t, byTask, "b")
	assert.Equal(t, run.SpanContext.SpanID(), byTask["a"].Parent.SpanID())
	assert.Equal(t, codes.Error, byTask["b"].Status.Code)
	assert.NotEqual(t, codes.Error, byTask["a"].Status.Code)

	var data metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &data))

	names := map[string]bool{}

	for _, scope := range data.ScopeMetrics {
		for _, m := range scope.Metrics {
			names[m.Name] = true
		}
	}

	assert.True(t, names["tasks_task_completed_count"])
	assert.True(t, names["tasks_task_failed_count"])
	assert.True(t, names["task_run_duration"])
	assert.True(t, names["runs_failed_count"])
}

func TestCleanMetricName(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "Normal case", input: "metricName_1.2-3/4", expected: "metricName_1.2-3/4"},
		{name: "Starts with invalid characters", input: "!@#metricName", expected: "metricName"},
		{name: "Ends with invalid characters", input: "metricName!@#", expected: "metricName"},
		{name: "Only invalid characters", input: "!@#$%^&*()", expected: ""},
		{name: "Empty string", input: "", expected: ""},
		{name: "Multiple replacements", input: "metric!@#Name", expected: "metric_Name"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.expected, CleanMetricName(tc.input))
		})
	}
}
