package payload_test

import (
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/xraph/logrelay/payload"
)

type named string

func (n named) String() string { return "name:" + string(n) }

func TestRender(t *testing.T) {
	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	tests := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, "null"},
		{"string", "plain", "plain"},
		{"error", errors.New("broken"), "broken"},
		{"int", 42, "42"},
		{"int64", int64(-7), "-7"},
		{"uint64", uint64(9), "9"},
		{"float", 1.5, "1.5"},
		{"bool", true, "true"},
		{"duration", 1500 * time.Millisecond, "1.5s"},
		{"time", ts, "2026-01-02T03:04:05Z"},
		{"bytes", []byte("raw"), "raw"},
		{"stringer", named("x"), "name:x"},
		{"slog string", slog.StringValue("v"), "v"},
		{"slog int", slog.IntValue(3), "3"},
		{"slog group", slog.GroupValue(slog.Int("a", 1), slog.String("b", "x")), `{"a":1,"b":"x"}`},
		{"map", map[string]int{"k": 1}, `{"k":1}`},
		{"slice", []string{"a", "b"}, `["a","b"]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := payload.Render(tt.in); got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRenderRecoversFromPanics(t *testing.T) {
	got := payload.Render(panicky{})
	if !strings.HasPrefix(got, "!PANIC(") {
		t.Fatalf("got %q", got)
	}

	var nilErr *customErr
	got = payload.Render(error(nilErr))
	if !strings.HasPrefix(got, "!PANIC(") {
		t.Fatalf("got %q", got)
	}
}

func TestRenderUnencodable(t *testing.T) {
	got := payload.Render(badJSON{})
	if got != `"{}"` {
		t.Fatalf("got %q", got)
	}
}
