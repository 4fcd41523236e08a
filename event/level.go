package event

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// ErrInvalidLevel is returned when a severity string cannot be parsed.
var ErrInvalidLevel = errors.New("event: invalid level")

// Level is the ordered severity of an event. Higher values are more severe.
type Level int

// Severity levels, least to most severe.
const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
)

var levelNames = [...]string{"TRACE", "DEBUG", "INFO", "WARN", "ERROR"}

var levelEmoji = [...]string{
	":mag:",
	":bug:",
	":information_source:",
	":warning:",
	":x:",
}

var levelColor = [...]int{
	0x1abc9c,
	0x1abc9c,
	0x57f287,
	0xe67e22,
	0xed4245,
}

// Valid reports whether l is one of the five defined levels.
func (l Level) Valid() bool {
	return l >= LevelTrace && l <= LevelError
}

// String returns the upper-case level name.
func (l Level) String() string {
	if !l.Valid() {
		return fmt.Sprintf("LEVEL(%d)", int(l))
	}
	return levelNames[l]
}

// Emoji returns the chat glyph shown in the embed title.
func (l Level) Emoji() string {
	if !l.Valid() {
		return ""
	}
	return levelEmoji[l]
}

// Color returns the embed side-bar color.
func (l Level) Color() int {
	if !l.Valid() {
		return 0
	}
	return levelColor[l]
}

// ParseLevel converts a level name ("trace", "debug", "info", "warn",
// "warning", "error") to a Level. Matching is case-insensitive.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return LevelTrace, nil
	case "debug":
		return LevelDebug, nil
	case "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidLevel, s)
	}
}

// FromSlog maps an slog level onto the five-level scale. Levels below
// slog.LevelDebug are treated as trace.
func FromSlog(l slog.Level) Level {
	switch {
	case l < slog.LevelDebug:
		return LevelTrace
	case l < slog.LevelInfo:
		return LevelDebug
	case l < slog.LevelWarn:
		return LevelInfo
	case l < slog.LevelError:
		return LevelWarn
	default:
		return LevelError
	}
}

// Slog returns the slog level corresponding to l. Trace maps to
// slog.LevelDebug-4.
func (l Level) Slog() slog.Level {
	switch l {
	case LevelTrace:
		return slog.LevelDebug - 4
	case LevelDebug:
		return slog.LevelDebug
	case LevelInfo:
		return slog.LevelInfo
	case LevelWarn:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}
