// Package compilerrors implements the compiler's diagnostic taxonomy and the
// caret-pointer source formatting used to report them.
package compilerrors

import (
	"fmt"
	"strings"

	"github.com/arete/yaslc/pkg/token"
	"golang.org/x/text/width"
)

// Kind classifies a Diagnostic per the error taxonomy.
type Kind int

const (
	IO Kind = iota
	Lexical
	Syntactic
	Semantic
	Internal
)

func (k Kind) String() string {
	switch k {
	case IO:
		return "I/O error"
	case Lexical:
		return "lexical error"
	case Syntactic:
		return "syntax error"
	case Semantic:
		return "semantic error"
	case Internal:
		return "internal error"
	default:
		return "error"
	}
}

// Diagnostic is a single compiler error with enough context to render a
// caret-pointer excerpt of the offending source line.
type Diagnostic struct {
	Kind       Kind
	Message    string
	File       string
	Pos        token.Position
	SourceLine string
}

// New builds a Diagnostic. sourceLine may be empty when no source context is
// available (e.g. an I/O error that precedes scanning).
func New(kind Kind, pos token.Position, file, sourceLine, format string, args ...any) *Diagnostic {
	return &Diagnostic{
		Kind:       kind,
		Message:    fmt.Sprintf(format, args...),
		File:       file,
		Pos:        pos,
		SourceLine: sourceLine,
	}
}

func (d *Diagnostic) Error() string {
	if d.Pos.IsValid() {
		return fmt.Sprintf("%s: %s at %s", d.Kind, d.Message, d.Pos)
	}
	return fmt.Sprintf("%s: %s", d.Kind, d.Message)
}

// Format renders the diagnostic as a multi-line human-readable report: a
// header naming the file and position, the source line (when known), and a
// caret pointing at the offending column.
func (d *Diagnostic) Format(color bool) string {
	var b strings.Builder

	header := fmt.Sprintf("%s: %s", d.Kind, d.Message)
	if d.File != "" && d.Pos.IsValid() {
		header = fmt.Sprintf("%s in %s:%s", d.Kind, d.File, d.Pos)
	} else if d.Pos.IsValid() {
		header = fmt.Sprintf("%s at %s: %s", d.Kind, d.Pos, d.Message)
	}

	if color {
		b.WriteString("\x1b[31m")
	}
	b.WriteString(header)
	if color {
		b.WriteString("\x1b[0m")
	}
	b.WriteByte('\n')

	if d.SourceLine != "" && d.Pos.IsValid() {
		fmt.Fprintf(&b, "%4d | %s\n", d.Pos.Line, d.SourceLine)
		b.WriteString("     | ")
		b.WriteString(caret(d.SourceLine, d.Pos.Column))
		b.WriteByte('\n')
	}

	return b.String()
}

// caret returns a run of spaces followed by a ^ positioned under column,
// measuring display width so full-width characters earlier on the line
// don't throw the caret off.
func caret(line string, column int) string {
	if column < 1 {
		column = 1
	}
	runes := []rune(line)
	if column-1 > len(runes) {
		column = len(runes) + 1
	}

	var w int
	for _, r := range runes[:column-1] {
		w += width.RuneWidth(r)
	}
	return strings.Repeat(" ", w) + "^"
}

// List is an ordered collection of diagnostics, as accumulated by the
// scanner (which keeps going after a Lexical error) or by a single fatal
// error from any other stage.
type List []*Diagnostic

// HasFatal reports whether the list contains any non-Lexical diagnostic,
// which per the propagation rule in §7 must terminate compilation.
func (l List) HasFatal() bool {
	for _, d := range l {
		if d.Kind != Lexical {
			return true
		}
	}
	return false
}

// Format renders every diagnostic in the list, numbering them when there is
// more than one.
func (l List) Format(color bool) string {
	if len(l) == 0 {
		return ""
	}
	if len(l) == 1 {
		return l[0].Format(color)
	}

	var b strings.Builder
	for i, d := range l {
		fmt.Fprintf(&b, "[Error %d of %d]\n", i+1, len(l))
		b.WriteString(d.Format(color))
		if i != len(l)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}
