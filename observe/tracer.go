package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// Operation describes an instrumented evaluator call site.
type Operation struct {
	Name  string // Operation name (required), e.g. "evaluate"
	Route string // Originating route or command (optional)
}

// SpanName returns the deterministic span name for this operation.
// Format: fib.<name>
func (o Operation) SpanName() string {
	return "fib." + o.Name
}

// Validate checks the operation metadata.
func (o Operation) Validate() error {
	if o.Name == "" {
		return ErrMissingOperationName
	}
	return nil
}

func (o Operation) attributes() []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String("fib.operation", o.Name),
	}
	if o.Route != "" {
		attrs = append(attrs, attribute.String("fib.route", o.Route))
	}
	return attrs
}

// Tracer wraps OpenTelemetry tracing with evaluation span management.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: EndSpan must be best-effort and must not panic.
type Tracer interface {
	// StartSpan starts a new span for evaluating index n.
	StartSpan(ctx context.Context, op Operation, n int) (context.Context, trace.Span)

	// EndSpan ends the span, recording any error.
	EndSpan(span trace.Span, err error)
}

// tracerImpl is the concrete implementation of Tracer.
type tracerImpl struct {
	tracer trace.Tracer
}

// NewTracer creates a new Tracer wrapping the given OpenTelemetry tracer.
func NewTracer(t trace.Tracer) Tracer {
	return &tracerImpl{tracer: t}
}

// StartSpan starts a new span with operation metadata as attributes.
func (t *tracerImpl) StartSpan(ctx context.Context, op Operation, n int) (context.Context, trace.Span) {
	attrs := append(op.attributes(),
		attribute.Int("fib.n", n),
		attribute.Bool("fib.error", false), // Will be updated in EndSpan if error
	)

	return t.tracer.Start(ctx, op.SpanName(),
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// EndSpan ends the span and records the error status if present.
func (t *tracerImpl) EndSpan(span trace.Span, err error) {
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.Bool("fib.error", true))
		span.RecordError(err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// noopTracer is a tracer that does nothing.
type noopTracer struct {
	noop trace.Tracer
}

func newNoopTracer() Tracer {
	return &noopTracer{
		noop: tracenoop.NewTracerProvider().Tracer("noop"),
	}
}

func (t *noopTracer) StartSpan(ctx context.Context, op Operation, _ int) (context.Context, trace.Span) {
	return t.noop.Start(ctx, op.SpanName())
}

func (t *noopTracer) EndSpan(span trace.Span, _ error) {
	span.End()
}
