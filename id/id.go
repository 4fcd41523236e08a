// Package id provides message identifiers. They are TypeIDs with the "msg"
// prefix (for example "msg_01h455vb4pex5vsknk084sn02q") and never appear in
// a webhook body; they tie worker diagnostics back to the captured event.
package id

import (
	"errors"
	"fmt"
	"log/slog"

	"go.jetify.com/typeid/v2"
)

// MessagePrefix is the TypeID prefix of message IDs.
const MessagePrefix = "msg"

// ErrInvalidID is returned when a string is not a message ID.
var ErrInvalidID = errors.New("id: invalid message id")

// ID identifies one formatted message. The zero value is the nil ID.
type ID struct {
	tid typeid.TypeID
	set bool
}

// NewMessageID returns a new, time-ordered message ID.
func NewMessageID() ID {
	tid, err := typeid.Generate(MessagePrefix)
	if err != nil {
		// The prefix is a valid constant; generation only fails on a broken
		// entropy source.
		panic(fmt.Sprintf("id: generate: %v", err))
	}
	return ID{tid: tid, set: true}
}

// Parse reads a message ID from its string form.
func Parse(s string) (ID, error) {
	tid, err := typeid.Parse(s)
	if err != nil {
		return ID{}, fmt.Errorf("%w: %q: %w", ErrInvalidID, s, err)
	}
	if tid.Prefix() != MessagePrefix {
		return ID{}, fmt.Errorf("%w: %q has prefix %q", ErrInvalidID, s, tid.Prefix())
	}
	return ID{tid: tid, set: true}, nil
}

// String returns the TypeID text, or "" for the nil ID.
func (i ID) String() string {
	if !i.set {
		return ""
	}
	return i.tid.String()
}

// IsNil reports whether i is the zero value.
func (i ID) IsNil() bool { return !i.set }

// LogValue renders the ID as its string form in structured logs.
func (i ID) LogValue() slog.Value {
	return slog.StringValue(i.String())
}
