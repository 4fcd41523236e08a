// Package event defines the diagnostic record captured from the host
// application before it is filtered and formatted for delivery.
package event

import "time"

// Well-known field keys consulted when extracting the message heading.
const (
	KeyMessage = "message"
	KeyError   = "error"
)

// Field is one key/value pair attached to an event. Values may be strings,
// numbers, booleans, errors, slog values or arbitrary structured data.
type Field struct {
	Key   string
	Value any
}

// F is shorthand for constructing a Field.
func F(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// Event is a point-in-time diagnostic record.
type Event struct {
	// Time is when the record was produced. Zero means unknown.
	Time time.Time

	// Target is the logical source name (module, subsystem, logger name).
	Target string

	// Level is the record severity.
	Level Level

	// Fields holds the record's fields in insertion order. Duplicate keys
	// are allowed and kept. The message text, when present, is the
	// "message" field.
	Fields []Field

	// File and Line locate the call site. Empty/zero when unknown.
	File string
	Line int
}

// Lookup returns the value of the first field named key.
func (e *Event) Lookup(key string) (any, bool) {
	for _, f := range e.Fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}
