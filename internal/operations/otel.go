package operations

import (
	"context"
	"time"

	"charmcli/internal/infrastructure"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	TracerName = "charmcli.operations"
)

// Tracer provides OpenTelemetry instrumentation for pipeline runs
type Tracer struct {
	tracer  trace.Tracer
	metrics *infrastructure.PipelineMetrics
}

// NewTracer creates a tracer on the global provider. metrics may be nil.
func NewTracer(metrics *infrastructure.PipelineMetrics) *Tracer {
	return &Tracer{
		tracer:  otel.Tracer(TracerName),
		metrics: metrics,
	}
}

// Metrics returns the pipeline instruments, which may be nil
func (t *Tracer) Metrics() *infrastructure.PipelineMetrics {
	if t == nil {
		return nil
	}
	return t.metrics
}

// TraceRun creates a span for a whole run
func (t *Tracer) TraceRun(ctx context.Context, runID, step string, participants int) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "pipeline.run",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("run.id", runID),
			attribute.String("run.step", step),
			attribute.Int("run.participants", participants),
		),
	)
}

// TraceStep creates a span for a single step attempt
func (t *Tracer) TraceStep(ctx context.Context, runID, stepID string, attempt int) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "pipeline.step."+stepID,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("run.id", runID),
			attribute.String("step.id", stepID),
			attribute.Int("step.attempt", attempt),
		),
	)
}

// EndStep closes a step span and records the step metrics
func (t *Tracer) EndStep(ctx context.Context, span trace.Span, stepID string, duration time.Duration, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.SetAttributes(attribute.Float64("step.duration_seconds", duration.Seconds()))
	span.End()

	t.metrics.RecordStep(ctx, stepID, duration, err == nil)
}

// EndRun closes a run span
func (t *Tracer) EndRun(span trace.Span, state *RunState) {
	status := state.GetStatus()
	span.SetAttributes(attribute.String("run.status", string(status)))
	if state.Error != nil {
		span.RecordError(state.Error)
		span.SetStatus(codes.Error, state.Error.Error())
	}
	span.End()
}
