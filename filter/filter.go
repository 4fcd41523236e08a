// Package filter decides which events are forwarded.
//
// A Chain holds independently evaluated rule groups: by target, by message,
// by field key, and a minimum level. Every group must accept an event for it
// to be forwarded; the first rejecting group short-circuits. Field exclusion
// patterns do not reject events, they only hide matching fields from the
// formatted output.
//
// Rules are compiled once at construction. After that a Chain is read-only
// and safe for concurrent use.
package filter

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrInvalidPattern is returned when a rule pattern fails to compile.
var ErrInvalidPattern = errors.New("filter: invalid pattern")

// Polarity selects how a rule's match result is interpreted.
type Polarity int

const (
	// Subtractive rejects a candidate unless the pattern matches.
	Subtractive Polarity = iota

	// Additive rejects a candidate if the pattern matches.
	Additive
)

// String returns the polarity name.
func (p Polarity) String() string {
	switch p {
	case Subtractive:
		return "subtractive"
	case Additive:
		return "additive"
	default:
		return fmt.Sprintf("polarity(%d)", int(p))
	}
}

// ParsePolarity parses "subtractive" or "additive" (case-insensitive).
// The aliases "include"/"exclude" are accepted as well.
func ParsePolarity(s string) (Polarity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "subtractive", "include":
		return Subtractive, nil
	case "additive", "exclude":
		return Additive, nil
	default:
		return 0, fmt.Errorf("filter: invalid polarity %q", s)
	}
}

// Rule is an uncompiled filter rule.
type Rule struct {
	Polarity Polarity
	Pattern  string
}

// Include returns a subtractive rule: candidates must match pattern.
func Include(pattern string) Rule { return Rule{Polarity: Subtractive, Pattern: pattern} }

// Exclude returns an additive rule: candidates matching pattern are rejected.
func Exclude(pattern string) Rule { return Rule{Polarity: Additive, Pattern: pattern} }

type compiledRule struct {
	polarity Polarity
	re       *regexp.Regexp
}

func (r compiledRule) rejects(s string) bool {
	matched := r.re.MatchString(s)
	if r.polarity == Additive {
		return matched
	}
	return !matched
}

// Group is an ordered set of compiled rules. A nil or empty Group never
// rejects.
type Group struct {
	rules []compiledRule
}

// Compile compiles rules into a Group. Returns nil for an empty rule set.
func Compile(rules []Rule) (*Group, error) {
	if len(rules) == 0 {
		return nil, nil //nolint:nilnil // an absent group is represented by nil
	}

	g := &Group{rules: make([]compiledRule, 0, len(rules))}
	for _, r := range rules {
		if r.Polarity != Subtractive && r.Polarity != Additive {
			return nil, fmt.Errorf("%w: %q: unknown polarity %d", ErrInvalidPattern, r.Pattern, int(r.Polarity))
		}
		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %w", ErrInvalidPattern, r.Pattern, err)
		}
		g.rules = append(g.rules, compiledRule{polarity: r.Polarity, re: re})
	}
	return g, nil
}

// Rejects reports whether any rule in the group rejects s.
func (g *Group) Rejects(s string) bool {
	if g == nil {
		return false
	}
	for _, r := range g.rules {
		if r.rejects(s) {
			return true
		}
	}
	return false
}

// Len returns the number of rules in the group.
func (g *Group) Len() int {
	if g == nil {
		return 0
	}
	return len(g.rules)
}

// compilePatterns compiles plain patterns used for field exclusion.
func compilePatterns(patterns []string) ([]*regexp.Regexp, error) {
	if len(patterns) == 0 {
		return nil, nil
	}
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %w", ErrInvalidPattern, p, err)
		}
		out = append(out, re)
	}
	return out, nil
}
