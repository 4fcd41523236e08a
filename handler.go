package logrelay

import (
	"context"
	"log/slog"
	"runtime"

	"github.com/xraph/logrelay/event"
)

// TargetKey is the attribute key that sets an event's target.
const TargetKey = "target"

// Target returns an attribute that sets the target of a record, for example
// logger.Error("charge failed", logrelay.Target("billing::charge")).
func Target(name string) slog.Attr {
	return slog.String(TargetKey, name)
}

// Handler returns an slog.Handler that captures records into f.
func (f *Forwarder) Handler() slog.Handler {
	return &handler{f: f}
}

type handler struct {
	f      *Forwarder
	target string
	attrs  []event.Field
	prefix string
}

func (h *handler) Enabled(_ context.Context, level slog.Level) bool {
	return h.f.Enabled(event.FromSlog(level))
}

// Handle builds an event from r and captures it. It always returns nil.
func (h *handler) Handle(ctx context.Context, r slog.Record) error {
	evt := &event.Event{
		Time:   r.Time,
		Level:  event.FromSlog(r.Level),
		Target: h.target,
		Fields: make([]event.Field, 0, 1+len(h.attrs)+r.NumAttrs()),
	}
	if r.Message != "" {
		evt.Fields = append(evt.Fields, event.F(event.KeyMessage, r.Message))
	}
	evt.Fields = append(evt.Fields, h.attrs...)
	r.Attrs(func(a slog.Attr) bool {
		evt.Fields = appendAttr(evt.Fields, &evt.Target, h.prefix, a)
		return true
	})

	if r.PC != 0 {
		frame, _ := runtime.CallersFrames([]uintptr{r.PC}).Next()
		evt.File = frame.File
		evt.Line = frame.Line
	}
	if evt.Target == "" {
		evt.Target = h.f.config.DefaultTarget
	}

	h.f.Capture(ctx, evt)
	return nil
}

func (h *handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	h2 := h.clone()
	for _, a := range attrs {
		h2.attrs = appendAttr(h2.attrs, &h2.target, h2.prefix, a)
	}
	return h2
}

func (h *handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	h2 := h.clone()
	h2.prefix = h.prefix + name + "."
	return h2
}

func (h *handler) clone() *handler {
	return &handler{
		f:      h.f,
		target: h.target,
		attrs:  append([]event.Field(nil), h.attrs...),
		prefix: h.prefix,
	}
}

// appendAttr flattens a into fields. Group members get "group." key
// prefixes. An ungrouped string attribute named TargetKey sets *target
// instead of becoming a field.
func appendAttr(fields []event.Field, target *string, prefix string, a slog.Attr) []event.Field {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return fields
	}

	if a.Value.Kind() == slog.KindGroup {
		group := a.Value.Group()
		if len(group) == 0 {
			return fields
		}
		inner := prefix
		if a.Key != "" {
			inner = prefix + a.Key + "."
		}
		for _, ga := range group {
			fields = appendAttr(fields, target, inner, ga)
		}
		return fields
	}

	if prefix == "" && a.Key == TargetKey && a.Value.Kind() == slog.KindString {
		*target = a.Value.String()
		return fields
	}
	return append(fields, event.F(prefix+a.Key, a.Value.Any()))
}
