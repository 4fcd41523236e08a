// Package scope captures the enclosing context of an event: the named scope
// that was active when the event was recorded and the fields captured when
// that scope was entered.
//
// Two sources are consulted. An explicit scope attached with With wins.
// Otherwise the active OpenTelemetry span is used when it is an SDK span
// whose name and attributes can be read.
package scope

import (
	"context"
	"slices"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"github.com/xraph/logrelay/event"
)

// Scope is an immutable snapshot of an enclosing context.
type Scope struct {
	Name   string
	Fields []event.Field
}

type ctxKey struct{}

// With returns a copy of ctx carrying a scope named name. The fields are
// copied; later changes to the caller's slice are not observed.
func With(ctx context.Context, name string, fields ...event.Field) context.Context {
	sc := &Scope{Name: name, Fields: slices.Clone(fields)}
	return context.WithValue(ctx, ctxKey{}, sc)
}

// FromContext resolves the scope active in ctx.
// Returns nil and false when no readable scope is present.
func FromContext(ctx context.Context) (*Scope, bool) {
	if ctx == nil {
		return nil, false
	}
	if sc, ok := ctx.Value(ctxKey{}).(*Scope); ok && sc != nil {
		return sc, true
	}
	return fromSpan(trace.SpanFromContext(ctx))
}

// fromSpan snapshots an SDK span. Non-recording and foreign spans carry no
// readable name or attributes and yield no scope.
func fromSpan(span trace.Span) (*Scope, bool) {
	ro, ok := span.(sdktrace.ReadOnlySpan)
	if !ok {
		return nil, false
	}

	attrs := ro.Attributes()
	fields := make([]event.Field, 0, len(attrs))
	for _, kv := range attrs {
		fields = append(fields, event.Field{Key: string(kv.Key), Value: kv.Value.AsInterface()})
	}
	return &Scope{Name: ro.Name(), Fields: fields}, true
}
