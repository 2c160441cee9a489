package telemetry

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/gruntwork-io/taskgrunt/internal/scheduler"
)

const (
	runSpanName  = "taskgrunt_run"
	taskSpanName = "taskgrunt_task"

	metricTasks      = "tasks"
	metricTaskRun    = "task_run"
	metricRunsFailed = "runs_failed"
)

// Observer turns scheduler lifecycle events into spans and metrics: one span per run, one child span per
// dispatched task, a counter per task outcome and a histogram of task durations.
type Observer struct {
	ctx     context.Context
	tlm     *Telemeter
	runCtx  context.Context
	runSpan trace.Span
	spans   map[string]trace.Span
	mu      sync.Mutex
}

// NewObserver returns an observer reporting to the telemeter of ctx. Spans are children of the span in ctx, if any.
func NewObserver(ctx context.Context) *Observer {
	return &Observer{
		ctx:   ctx,
		tlm:   TelemeterFromContext(ctx),
		spans: make(map[string]trace.Span),
	}
}

// Observe implements scheduler.Observer.
func (obs *Observer) Observe(ev scheduler.Event) {
	if !obs.tlm.Enabled() {
		return
	}

	obs.mu.Lock()
	defer obs.mu.Unlock()

	switch ev.Kind {
	case scheduler.RunStarted:
		obs.startRun(ev)
	case scheduler.RunFinished:
		obs.finishRun(ev)
	case scheduler.TaskDispatched:
		obs.startTask(ev)
	case scheduler.TaskCompleted, scheduler.TaskFailed, scheduler.TaskLost, scheduler.TaskCancelled:
		obs.endTask(ev)
	case scheduler.TaskWaiting, scheduler.TaskReleased:
		obs.tlm.Count(obs.context(), metricTasks+"_"+ev.Kind.String(), 1, nil)
	}
}

func (obs *Observer) context() context.Context {
	if obs.runCtx != nil {
		return obs.runCtx
	}

	return obs.ctx
}

func (obs *Observer) startRun(ev scheduler.Event) {
	obs.runCtx = obs.ctx
	obs.runSpan = nil

	if obs.tlm.Tracer == nil {
		return
	}

	obs.runCtx, obs.runSpan = obs.tlm.openSpan(obs.ctx, runSpanName, map[string]any{ //nolint:spancheck
		"run_id": ev.RunID,
		"tasks":  ev.Total,
	})
}

func (obs *Observer) finishRun(ev scheduler.Event) {
	ctx := obs.context()

	for label, span := range obs.spans {
		span.End()
		delete(obs.spans, label)
	}

	if ev.Err != nil {
		obs.tlm.Count(ctx, metricRunsFailed, 1, map[string]any{"run_id": ev.RunID})
	}

	if obs.runSpan == nil {
		return
	}

	if ev.Err != nil {
		obs.runSpan.RecordError(ev.Err)
		obs.runSpan.SetStatus(codes.Error, ev.Err.Error())
	}

	obs.runSpan.End()
	obs.runSpan = nil
	obs.runCtx = nil
}

func (obs *Observer) startTask(ev scheduler.Event) {
	if obs.tlm.Tracer == nil {
		return
	}

	_, span := obs.tlm.openSpan(obs.context(), taskSpanName, taskAttrs(ev)) //nolint:spancheck
	obs.spans[ev.Label()] = span
}

func (obs *Observer) endTask(ev scheduler.Event) {
	ctx := obs.context()
	attrs := taskAttrs(ev)

	obs.tlm.Count(ctx, metricTasks+"_"+ev.Kind.String(), 1, attrs)

	if ev.Kind == scheduler.TaskCompleted {
		obs.tlm.Record(ctx, metricTaskRun, ev.Record.Duration(), attrs)
	}

	span, ok := obs.spans[ev.Label()]
	if !ok {
		return
	}

	if ev.Kind == scheduler.TaskCancelled {
		span.AddEvent("cancellation requested")
	}

	if ev.Err != nil {
		span.RecordError(ev.Err)
		span.SetStatus(codes.Error, ev.Err.Error())
	}

	span.SetAttributes(attributes(map[string]any{"outcome": ev.Kind.String()})...)
	span.End()
	delete(obs.spans, ev.Label())
}

func taskAttrs(ev scheduler.Event) map[string]any {
	return map[string]any{
		"run_id":   ev.RunID,
		"task":     ev.Label(),
		"runnable": ev.Record.Descriptor.Runnable,
	}
}
