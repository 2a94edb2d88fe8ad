package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/trace"
)

// Span is an in-progress operation being recorded by a [Recorder].
type Span struct {
	span trace.Span
	end  func()
}

// StartSpan starts a new span and records the start of an operation.
//
// The span decrements the "operations.in_flight" metric when it ends.
func (r *Recorder) StartSpan(
	ctx context.Context,
	name string,
	attrs ...Attr,
) (context.Context, *Span) {
	op := String("operation", name)

	r.operationCount(ctx, 1, op)
	r.operationsInFlightCount(ctx, 1, op)

	ctx, s := r.tracer.Start(
		ctx,
		name,
		trace.WithAttributes(asAttrKeyValues(attrs)...),
	)

	return ctx, &Span{
		span: s,
		end: func() {
			r.operationsInFlightCount(ctx, -1, op)
		},
	}
}

// SetAttributes sets attributes on the span.
func (s *Span) SetAttributes(attrs ...Attr) {
	s.span.SetAttributes(asAttrKeyValues(attrs)...)
}

// End completes the span.
func (s *Span) End() {
	if s.end != nil {
		s.end()
		s.end = nil
	}
	s.span.End()
}
