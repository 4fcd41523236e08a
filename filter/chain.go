package filter

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/xraph/logrelay/event"
)

// Reason explains the outcome of evaluating a Chain.
type Reason int

// Evaluation outcomes.
const (
	Accepted Reason = iota
	RejectedTarget
	RejectedMessage
	RejectedField
	RejectedLevel
)

// String returns a short label suitable for logs and metric labels.
func (r Reason) String() string {
	switch r {
	case Accepted:
		return "accepted"
	case RejectedTarget:
		return "target"
	case RejectedMessage:
		return "message"
	case RejectedField:
		return "field"
	case RejectedLevel:
		return "level"
	default:
		return fmt.Sprintf("reason(%d)", int(r))
	}
}

// Config enumerates every optional rule group. The zero value accepts
// everything.
type Config struct {
	// Target rules are matched against the event target.
	Target []Rule

	// Message rules are matched against the event heading.
	Message []Rule

	// FieldKey rules are matched against each candidate field key. A single
	// rejecting key rejects the whole event.
	FieldKey []Rule

	// ExcludeFields hides fields whose key matches any pattern. Hidden fields
	// are neither filtered on nor rendered.
	ExcludeFields []string

	// MinLevel is the least severe level forwarded ("trace" … "error").
	// Empty means no threshold; "off" rejects every event.
	MinLevel string
}

// Chain is a compiled, immutable filter configuration.
type Chain struct {
	target   *Group
	message  *Group
	fieldKey *Group
	exclude  []*regexp.Regexp

	hasMin   bool
	off      bool
	minLevel event.Level
}

// New compiles cfg into a Chain. Pattern and level errors surface here,
// never during evaluation.
func New(cfg Config) (*Chain, error) {
	var (
		c   Chain
		err error
	)
	if c.target, err = Compile(cfg.Target); err != nil {
		return nil, fmt.Errorf("target filter: %w", err)
	}
	if c.message, err = Compile(cfg.Message); err != nil {
		return nil, fmt.Errorf("message filter: %w", err)
	}
	if c.fieldKey, err = Compile(cfg.FieldKey); err != nil {
		return nil, fmt.Errorf("field filter: %w", err)
	}
	if c.exclude, err = compilePatterns(cfg.ExcludeFields); err != nil {
		return nil, fmt.Errorf("field exclusion: %w", err)
	}

	switch lvl := strings.TrimSpace(cfg.MinLevel); {
	case lvl == "":
	case strings.EqualFold(lvl, "off"):
		c.hasMin, c.off = true, true
	default:
		parsed, perr := event.ParseLevel(lvl)
		if perr != nil {
			return nil, fmt.Errorf("level filter: %w", perr)
		}
		c.hasMin, c.minLevel = true, parsed
	}
	return &c, nil
}

// Check evaluates evt against every group in order (target, message, field
// key, level) and returns the first rejection, or Accepted. heading is the
// text matched by message rules and headingKey the field it came from; that
// field is not subject to field-key rules.
func (c *Chain) Check(evt *event.Event, heading, headingKey string) Reason {
	if c == nil {
		return Accepted
	}
	if c.target.Rejects(evt.Target) {
		return RejectedTarget
	}
	if c.message.Rejects(heading) {
		return RejectedMessage
	}
	if c.fieldKey != nil {
		for _, f := range evt.Fields {
			if f.Key == headingKey || c.Excluded(f.Key) {
				continue
			}
			if c.fieldKey.Rejects(f.Key) {
				return RejectedField
			}
		}
	}
	if !c.LevelEnabled(evt.Level) {
		return RejectedLevel
	}
	return Accepted
}

// Accepts reports whether evt passes every group. The heading is derived
// from the event's message or error field.
func (c *Chain) Accepts(evt *event.Event) bool {
	heading, key := evt.Heading()
	if key == "" {
		heading = FallbackHeading
	}
	return c.Check(evt, heading, key) == Accepted
}

// FallbackHeading is the heading used for events with neither a string
// message nor a string error.
const FallbackHeading = "No message"

// Excluded reports whether a field key is hidden by an exclusion pattern.
func (c *Chain) Excluded(key string) bool {
	if c == nil {
		return false
	}
	for _, re := range c.exclude {
		if re.MatchString(key) {
			return true
		}
	}
	return false
}

// LevelEnabled reports whether events at level l pass the threshold.
func (c *Chain) LevelEnabled(l event.Level) bool {
	if c == nil || !c.hasMin {
		return true
	}
	if c.off {
		return false
	}
	return l >= c.minLevel
}
