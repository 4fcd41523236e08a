// Package jsonl turns slog JSON log lines into events.
package jsonl

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/xraph/logrelay/event"
)

// ErrNotObject is returned for lines that are not a JSON object.
var ErrNotObject = errors.New("jsonl: line is not a JSON object")

// Keys with special meaning in a line. Everything else becomes a field.
const (
	KeyTime   = "time"
	KeyLevel  = "level"
	KeyMsg    = "msg"
	KeySource = "source"
	KeyTarget = "target"
	KeyLogger = "logger"
)

// Parse decodes one slog JSON line. Field order follows the line; a missing
// level means info.
func Parse(line []byte) (*event.Event, error) {
	dec := json.NewDecoder(bytes.NewReader(line))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotObject, err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, ErrNotObject
	}

	evt := &event.Event{Level: event.LevelInfo}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("jsonl: read key: %w", err)
		}
		key, _ := tok.(string)

		var raw any
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("jsonl: decode %q: %w", key, err)
		}
		raw = normalize(raw)

		if !apply(evt, key, raw) {
			evt.Fields = append(evt.Fields, event.F(key, raw))
		}
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("jsonl: unterminated object: %w", err)
	}
	return evt, nil
}

// apply handles the well-known keys and reports whether key was consumed.
func apply(evt *event.Event, key string, v any) bool {
	switch key {
	case KeyTime:
		s, ok := v.(string)
		if !ok {
			return false
		}
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return false
		}
		evt.Time = t
		return true

	case KeyLevel:
		s, ok := v.(string)
		if !ok {
			return false
		}
		l, ok := parseLevel(s)
		if !ok {
			return false
		}
		evt.Level = l
		return true

	case KeyMsg:
		if s, ok := v.(string); ok && s == "" {
			return true
		}
		evt.Fields = append(evt.Fields, event.F(event.KeyMessage, v))
		return true

	case KeySource:
		src, ok := v.(map[string]any)
		if !ok {
			return false
		}
		if file, ok := src["file"].(string); ok {
			evt.File = file
		}
		if line, ok := src["line"].(int64); ok {
			evt.Line = int(line)
		}
		return true

	case KeyTarget, KeyLogger:
		s, ok := v.(string)
		if !ok || evt.Target != "" {
			return false
		}
		evt.Target = s
		return true
	}
	return false
}

// parseLevel accepts slog level text ("INFO", "DEBUG-4", "ERROR+2") and the
// plain names understood by event.ParseLevel.
func parseLevel(s string) (event.Level, bool) {
	if l, err := event.ParseLevel(s); err == nil {
		return l, true
	}
	var sl slog.Level
	if err := sl.UnmarshalText([]byte(strings.ToUpper(s))); err == nil {
		return event.FromSlog(sl), true
	}
	return 0, false
}

// normalize converts json.Number to int64 or float64, recursively.
func normalize(v any) any {
	switch x := v.(type) {
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i
		}
		if f, err := x.Float64(); err == nil {
			return f
		}
		return x.String()
	case map[string]any:
		for k, e := range x {
			x[k] = normalize(e)
		}
		return x
	case []any:
		for i, e := range x {
			x[i] = normalize(e)
		}
		return x
	default:
		return v
	}
}
