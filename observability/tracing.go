package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/xraph/logrelay"

// Tracer provides OpenTelemetry tracing for deliveries. A nil *Tracer is
// valid and starts no spans.
type Tracer struct {
	tracer trace.Tracer
}

// NewTracer creates a tracer from the global provider.
func NewTracer() *Tracer {
	return NewTracerFromProvider(otel.GetTracerProvider())
}

// NewTracerFromProvider creates a tracer from tp.
func NewTracerFromProvider(tp trace.TracerProvider) *Tracer {
	return &Tracer{tracer: tp.Tracer(tracerName)}
}

// StartDeliverySpan starts the span covering every attempt for one message.
func (t *Tracer) StartDeliverySpan(ctx context.Context, messageID string) (context.Context, trace.Span) {
	if t == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return t.tracer.Start(ctx, "logrelay.delivery",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("logrelay.message_id", messageID)),
	)
}

// EndDeliverySpan ends a delivery span with result attributes. A non-empty
// errMsg marks the span as failed.
func (t *Tracer) EndDeliverySpan(span trace.Span, attempts, statusCode int, errMsg string) {
	if t == nil || span == nil {
		return
	}
	span.SetAttributes(
		attribute.Int("logrelay.attempts", attempts),
		attribute.Int("http.status_code", statusCode),
	)
	if errMsg != "" {
		span.SetAttributes(attribute.String("logrelay.error", errMsg))
		span.SetStatus(codes.Error, errMsg)
	}
	span.End()
}
