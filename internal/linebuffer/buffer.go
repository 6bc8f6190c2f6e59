// Package linebuffer holds the last successful watched-command output split
// into header and body lines, with ANSI styling preserved verbatim for the
// renderer.
package linebuffer

import "strings"

// Line is an owned, immutable string as emitted by the watched command.
// Lines are never mutated after capture.
type Line struct {
	Raw string
}

// Buffer is the last successful watched-command output. H (len of Header) is
// a startup-fixed configuration value; if the watched command emits fewer
// than H lines total, Body is empty and Header is truncated.
type Buffer struct {
	Header []Line
	Body   []Line
}

// Parse splits output on "\n", stripping a single trailing newline, and
// assigns the first headerLines items to Header and the remainder to Body.
// An empty capture yields an empty Buffer.
func Parse(output []byte, headerLines int) Buffer {
	text := string(output)
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return Buffer{}
	}

	raw := strings.Split(text, "\n")
	lines := make([]Line, len(raw))
	for i, r := range raw {
		lines[i] = Line{Raw: r}
	}

	if headerLines <= 0 {
		return Buffer{Body: lines}
	}
	if headerLines >= len(lines) {
		return Buffer{Header: lines}
	}
	return Buffer{Header: lines[:headerLines], Body: lines[headerLines:]}
}

// Len returns the number of body lines, the only dimension SelectionModel
// indexes into.
func (b Buffer) Len() int {
	return len(b.Body)
}
