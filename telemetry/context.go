package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/trace"
)

// TraceParentEnvName is the variable that hands the current span to child processes.
const TraceParentEnvName = "TRACEPARENT"

type telemeterKey struct{}

// ContextWithTelemeter returns a copy of ctx carrying tlm.
func ContextWithTelemeter(ctx context.Context, tlm *Telemeter) context.Context {
	return context.WithValue(ctx, telemeterKey{}, tlm)
}

// TelemeterFromContext returns the telemeter stored in ctx, or a disabled one.
func TelemeterFromContext(ctx context.Context) *Telemeter {
	if tlm, ok := ctx.Value(telemeterKey{}).(*Telemeter); ok && tlm != nil {
		return tlm
	}

	return &Telemeter{}
}

// TraceParentFromContext formats the span in ctx as a W3C traceparent, or returns "" when ctx has no valid span.
func TraceParentFromContext(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return ""
	}

	return fmt.Sprintf("00-%s-%s-%s", sc.TraceID(), sc.SpanID(), sc.TraceFlags())
}
