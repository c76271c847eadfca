// Package asmfile implements the command buffer described in §3 and §9:
// an append-only sequence of assembly-instruction lines with a pending
// label prefix, plus the writer that flushes it to the fixed output
// file named by configuration.
package asmfile

import (
	"fmt"
	"os"
	"strings"
)

// Buffer accumulates assembly lines in the order they must appear in
// the output. A pending prefix, once set, attaches to the next line
// appended and is then cleared.
type Buffer struct {
	lines  []string
	prefix string
	hasPfx bool
}

// New returns an empty buffer.
func New() *Buffer {
	return &Buffer{}
}

// Push appends a line, consuming any pending prefix. format/args follow
// fmt.Sprintf conventions.
func (b *Buffer) Push(format string, args ...any) {
	line := fmt.Sprintf(format, args...)
	if b.hasPfx {
		line = b.prefix + " " + line
		b.hasPfx = false
		b.prefix = ""
	}
	b.lines = append(b.lines, line)
}

// Comment appends a ": text" line, byte for byte the same as Push but
// named for readability at call sites that emit block comments.
func (b *Buffer) Comment(text string) {
	b.Push(": %s", text)
}

// SetPrefix sets the pending label prefix for the next appended line.
// If a prefix is already pending, a no-op (movw R0 R0) is pushed first
// so the earlier label is not lost.
func (b *Buffer) SetPrefix(label string) {
	if b.hasPfx {
		b.PushUseless()
	}
	b.prefix = label
	b.hasPfx = true
}

// PushUseless appends a forced no-op instruction, consuming any pending
// prefix exactly like Push would.
func (b *Buffer) PushUseless() {
	b.Push("movw R0 R0")
}

// HasPendingPrefix reports whether a label prefix is still waiting for
// an instruction to attach to.
func (b *Buffer) HasPendingPrefix() bool {
	return b.hasPfx
}

// Append copies every line of other onto b, in order; a prefix pending
// on b attaches to the first copied line. If other has a pending prefix
// of its own, it is propagated onto b rather than lost.
func (b *Buffer) Append(other *Buffer) {
	for _, line := range other.lines {
		b.Push("%s", line)
	}
	if other.hasPfx {
		b.SetPrefix(other.prefix)
	}
}

// Lines returns the accumulated lines. It does not flush a pending
// prefix; callers that need every label attached must not leave one
// dangling before calling Lines.
func (b *Buffer) Lines() []string {
	return b.lines
}

// Len reports the number of lines currently buffered.
func (b *Buffer) Len() int {
	return len(b.lines)
}

// String renders the buffer as the final assembly text, one
// instruction per line, newline-terminated.
func (b *Buffer) String() string {
	var s strings.Builder
	for _, line := range b.lines {
		s.WriteString(line)
		s.WriteByte('\n')
	}
	return s.String()
}

// WriteFile writes the buffer's text to path, truncating any existing
// file. The output file name itself is fixed by configuration, not by
// this package.
func (b *Buffer) WriteFile(path string) error {
	return os.WriteFile(path, []byte(b.String()), 0o644)
}
