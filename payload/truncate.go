package payload

import (
	"strings"
	"unicode/utf8"
)

// Ellipsis marks the point where text was cut.
const Ellipsis = "…"

// Truncate shortens s to at most limit characters (runes). When s is cut
// the last kept character is replaced by Ellipsis, so the result still fits
// in limit. Multi-byte characters are never split.
func Truncate(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= limit {
		return s
	}

	var b strings.Builder
	b.Grow(limit * 2)
	n := 0
	for _, r := range s {
		if n == limit-1 {
			break
		}
		b.WriteRune(r)
		n++
	}
	b.WriteString(Ellipsis)
	return b.String()
}

// Chunk splits s into successive pieces of at most size characters each.
// Concatenating the pieces yields s exactly; the number of pieces is
// ceil(runes(s)/size). An empty s yields no pieces.
func Chunk(s string, size int) []string {
	if s == "" {
		return nil
	}
	if size <= 0 {
		return []string{s}
	}

	chunks := make([]string, 0, utf8.RuneCountInString(s)/size+1)
	start, n := 0, 0
	for i := range s {
		if n == size {
			chunks = append(chunks, s[start:i])
			start, n = i, 0
		}
		n++
	}
	return append(chunks, s[start:])
}

func runeLen(s string) int { return utf8.RuneCountInString(s) }
