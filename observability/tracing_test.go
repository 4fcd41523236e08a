package observability

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestDeliverySpan(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	tr := NewTracerFromProvider(tp)

	_, span := tr.StartDeliverySpan(context.Background(), "msg_123")
	tr.EndDeliverySpan(span, 3, 0, "connection refused")

	ended := rec.Ended()
	if len(ended) != 1 {
		t.Fatalf("expected 1 span, got %d", len(ended))
	}
	s := ended[0]
	if s.Name() != "logrelay.delivery" {
		t.Fatalf("unexpected span name %q", s.Name())
	}
	if s.Status().Code != codes.Error {
		t.Fatalf("expected error status, got %v", s.Status().Code)
	}

	attrs := map[string]any{}
	for _, kv := range s.Attributes() {
		attrs[string(kv.Key)] = kv.Value.AsInterface()
	}
	if attrs["logrelay.message_id"] != "msg_123" {
		t.Fatalf("message id attribute: %v", attrs["logrelay.message_id"])
	}
	if attrs["logrelay.attempts"] != int64(3) {
		t.Fatalf("attempts attribute: %v", attrs["logrelay.attempts"])
	}
}

func TestNilTracerIsNoop(t *testing.T) {
	var tr *Tracer
	ctx, span := tr.StartDeliverySpan(context.Background(), "msg_1")
	if ctx == nil || span == nil {
		t.Fatal("nil tracer should return usable values")
	}
	tr.EndDeliverySpan(span, 1, 200, "")
}
