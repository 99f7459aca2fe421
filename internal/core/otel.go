package core

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const otelInstrumentation = "helixcanvas/internal/core"

// OTelTracer forwards service spans to an OpenTelemetry tracer provider.
type OTelTracer struct {
	tracer trace.Tracer
}

// NewOTelTracer returns a Tracer backed by provider.
func NewOTelTracer(provider trace.TracerProvider) *OTelTracer {
	return &OTelTracer{tracer: provider.Tracer(otelInstrumentation)}
}

// Start implements Tracer.
func (t *OTelTracer) Start(ctx context.Context, operation string) (context.Context, TraceSpan) {
	ctx, span := t.tracer.Start(ctx, "core."+operation,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.String("helixcanvas.operation", operation)),
	)
	return ctx, otelSpan{span: span}
}

type otelSpan struct {
	span trace.Span
}

func (s otelSpan) End(err error) {
	if err != nil {
		s.span.RecordError(err)
		s.span.SetStatus(codes.Error, err.Error())
	} else {
		s.span.SetStatus(codes.Ok, "")
	}
	s.span.End()
}
