// Package lexer implements the DFA-based scanner described in §4.1: it turns
// source text into a finite stream of positioned tokens, recovering from
// unrecognized characters instead of aborting so that downstream stages can
// still locate the error.
package lexer

import (
	"strings"
	"unicode"

	"github.com/arete/yaslc/internal/compilerrors"
	"github.com/arete/yaslc/internal/tracelog"
	"github.com/arete/yaslc/pkg/token"
)

// Option configures a Lexer at construction time, in place of the
// process-wide mutable verbosity flag the original implementation used.
type Option func(*Lexer)

// WithSource attaches the source file name used in diagnostics.
func WithSource(name string) Option {
	return func(l *Lexer) { l.file = name }
}

// WithTracing routes a structured trace event for every accepted token.
func WithTracing(sink *tracelog.Sink) Option {
	return func(l *Lexer) { l.trace = sink }
}

// CommentChars names the four characters that open/close a block comment
// and form a line comment, per §3's "four comment/whitespace characters":
// the block comment's opening and closing delimiter, and the two
// characters (by default identical) that together form the line-comment
// marker. Overriding these lets an embedding toolchain reuse this scanner
// for a dialect with different comment syntax without touching the DFA.
type CommentChars struct {
	BlockOpen  rune
	BlockClose rune
	LineChar1  rune
	LineChar2  rune
}

// DefaultCommentChars is the spec-mandated `{ … }` and `// …` syntax.
var DefaultCommentChars = CommentChars{BlockOpen: '{', BlockClose: '}', LineChar1: '/', LineChar2: '/'}

// WithCommentChars overrides the block- and line-comment delimiters; the
// zero value is never passed through the default, so callers must supply
// all four fields (config.Load already fills unset ones from the default).
func WithCommentChars(cc CommentChars) Option {
	return func(l *Lexer) { l.comment = cc }
}

// Lexer scans a single source file into tokens.
type Lexer struct {
	src    []rune
	pos    int
	line   int
	column int

	file    string
	trace   *tracelog.Sink
	comment CommentChars
	diags   compilerrors.List
}

// New returns a Lexer positioned at the start of src.
func New(src string, opts ...Option) *Lexer {
	l := &Lexer{
		src:     []rune(src),
		pos:     0,
		line:    1,
		column:  1,
		trace:   tracelog.Discard,
		comment: DefaultCommentChars,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Diagnostics returns the lexical errors accumulated so far.
func (l *Lexer) Diagnostics() compilerrors.List {
	return l.diags
}

// State is an opaque checkpoint returned by SaveState and consumed by
// RestoreState, used for lookahead that must not permanently consume input.
type State struct {
	pos, line, column int
}

// SaveState captures the lexer's current cursor.
func (l *Lexer) SaveState() State {
	return State{pos: l.pos, line: l.line, column: l.column}
}

// RestoreState rewinds the lexer to a previously captured cursor.
func (l *Lexer) RestoreState(s State) {
	l.pos, l.line, l.column = s.pos, s.line, s.column
}

// Peek returns the (n+1)th token from the current position without
// consuming it; Peek(0) is equivalent to a non-destructive NextToken.
func (l *Lexer) Peek(n int) token.Token {
	save := l.SaveState()
	diagsLen := len(l.diags)

	var tok token.Token
	for i := 0; i <= n; i++ {
		tok = l.NextToken()
	}

	l.diags = l.diags[:diagsLen]
	l.RestoreState(save)
	return tok
}

// ScanAll runs the scanner to completion and returns every token, including
// the terminating EOF, along with any lexical diagnostics accumulated along
// the way. Per §5, scanning always fully precedes parsing.
func ScanAll(src string, opts ...Option) ([]token.Token, compilerrors.List) {
	l := New(src, opts...)
	var tokens []token.Token
	for {
		tok := l.NextToken()
		tokens = append(tokens, tok)
		if tok.Type == token.EOF {
			break
		}
	}
	return tokens, l.Diagnostics()
}

func (l *Lexer) cur() rune {
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

func (l *Lexer) peekRune(offset int) rune {
	idx := l.pos + offset
	if idx >= len(l.src) {
		return 0
	}
	return l.src[idx]
}

func (l *Lexer) advance() rune {
	if l.pos >= len(l.src) {
		return 0
	}
	c := l.src[l.pos]
	l.pos++
	if c == '\n' {
		l.line++
		l.column = 1
	} else {
		l.column++
	}
	return c
}

// skipTrivia skips whitespace and both comment syntaxes; neither comment
// syntax nests, matching §8's boundary cases. The comment delimiters
// themselves come from l.comment, which defaults to `{ … }` and `// …`
// but may be overridden via WithCommentChars.
func (l *Lexer) skipTrivia() {
	for {
		switch c := l.cur(); {
		case c == 0:
			return
		case c == ' ' || c == '\r' || c == '\n':
			l.advance()
		case c == l.comment.BlockOpen:
			l.skipCurlyComment()
		case c == l.comment.LineChar1 && l.peekRune(1) == l.comment.LineChar2:
			l.advance()
			l.advance()
			for l.cur() != 0 && l.cur() != '\n' {
				l.advance()
			}
		default:
			return
		}
	}
}

func (l *Lexer) skipCurlyComment() {
	start := token.Position{Line: l.line, Column: l.column}
	l.advance() // consume the block-comment opener
	for {
		c := l.cur()
		if c == 0 {
			l.addDiagnostic(compilerrors.Lexical, start, "unterminated block comment")
			return
		}
		l.advance()
		if c == l.comment.BlockClose {
			return
		}
	}
}

// NextToken scans and returns the next token, advancing the cursor past it.
// Unrecognized characters produce an Invalid token and an accumulated
// diagnostic rather than aborting.
func (l *Lexer) NextToken() token.Token {
	l.skipTrivia()

	pos := token.Position{Line: l.line, Column: l.column}
	c := l.cur()

	var tok token.Token
	switch {
	case c == 0:
		tok = token.Token{Type: token.EOF, Pos: pos}
	case isLetter(c):
		tok = l.scanIdentifier(pos)
	case c == '0':
		l.advance()
		tok = token.Token{Type: token.Number, Lexeme: "0", Pos: pos}
	case isDigit(c):
		tok = l.scanNumber(pos)
	case c == '"':
		tok = l.scanString(pos)
	case c == '.':
		l.advance()
		tok = token.Token{Type: token.Period, Lexeme: ".", Pos: pos}
	case c == ';':
		l.advance()
		tok = token.Token{Type: token.Semicolon, Lexeme: ";", Pos: pos}
	case c == ',':
		l.advance()
		tok = token.Token{Type: token.Comma, Lexeme: ",", Pos: pos}
	case c == ':':
		l.advance()
		tok = token.Token{Type: token.Colon, Lexeme: ":", Pos: pos}
	case c == '(':
		l.advance()
		tok = token.Token{Type: token.LeftParen, Lexeme: "(", Pos: pos}
	case c == ')':
		l.advance()
		tok = token.Token{Type: token.RightParen, Lexeme: ")", Pos: pos}
	case c == '+':
		l.advance()
		tok = token.Token{Type: token.Plus, Lexeme: "+", Pos: pos}
	case c == '-':
		l.advance()
		tok = token.Token{Type: token.Minus, Lexeme: "-", Pos: pos}
	case c == '*':
		l.advance()
		tok = token.Token{Type: token.Star, Lexeme: "*", Pos: pos}
	case c == '>':
		tok = l.scanGreater(pos)
	case c == '<':
		tok = l.scanLess(pos)
	case c == '=':
		tok = l.scanEqual(pos)
	default:
		l.advance()
		l.addDiagnostic(compilerrors.Lexical, pos, "unrecognized character %q (ASCII %d)", c, c)
		tok = token.Token{Type: token.Invalid, Lexeme: string(c), Pos: pos}
	}

	l.trace.Trace("lexer", "token", map[string]any{
		"type":   tok.Type.String(),
		"lexeme": tok.Lexeme,
		"pos":    tok.Pos.String(),
	})
	return tok
}

func (l *Lexer) scanIdentifier(pos token.Position) token.Token {
	var b strings.Builder
	for isLetter(l.cur()) || isDigit(l.cur()) {
		b.WriteRune(l.advance())
	}
	lexeme := b.String()
	typ := token.LookupIdent(strings.ToLower(lexeme))
	return token.Token{Type: typ, Lexeme: lexeme, Pos: pos}
}

func (l *Lexer) scanNumber(pos token.Position) token.Token {
	var b strings.Builder
	for isDigit(l.cur()) {
		b.WriteRune(l.advance())
	}
	return token.Token{Type: token.Number, Lexeme: b.String(), Pos: pos}
}

func (l *Lexer) scanString(pos token.Position) token.Token {
	var b strings.Builder
	b.WriteRune(l.advance()) // opening quote
	for {
		c := l.cur()
		if c == 0 {
			l.addDiagnostic(compilerrors.Lexical, pos, "unterminated string literal")
			return token.Token{Type: token.Invalid, Lexeme: b.String(), Pos: pos}
		}
		b.WriteRune(l.advance())
		if c == '"' {
			break
		}
	}
	return token.Token{Type: token.String, Lexeme: b.String(), Pos: pos}
}

func (l *Lexer) scanGreater(pos token.Position) token.Token {
	l.advance()
	if l.cur() == '=' {
		l.advance()
		return token.Token{Type: token.GreaterEqual, Lexeme: ">=", Pos: pos}
	}
	return token.Token{Type: token.Greater, Lexeme: ">", Pos: pos}
}

func (l *Lexer) scanLess(pos token.Position) token.Token {
	l.advance()
	switch l.cur() {
	case '=':
		l.advance()
		return token.Token{Type: token.LessEqual, Lexeme: "<=", Pos: pos}
	case '>':
		l.advance()
		return token.Token{Type: token.NotEqual, Lexeme: "<>", Pos: pos}
	default:
		return token.Token{Type: token.Less, Lexeme: "<", Pos: pos}
	}
}

// scanEqual implements the `=`Seen state: a lone '=' is the Assign operator
// (the assignment operator's source lexeme is a single '='; spec §8's
// Pascal-flavored example programs write it as ":=" for readability, but the
// DFA in §4.1 and the reference implementation it follows both drive
// assignment off a single equals sign reached via this state).
func (l *Lexer) scanEqual(pos token.Position) token.Token {
	l.advance()
	if l.cur() == '=' {
		l.advance()
		return token.Token{Type: token.Equal, Lexeme: "==", Pos: pos}
	}
	return token.Token{Type: token.Assign, Lexeme: "=", Pos: pos}
}

func (l *Lexer) addDiagnostic(kind compilerrors.Kind, pos token.Position, format string, args ...any) {
	l.diags = append(l.diags, compilerrors.New(kind, pos, l.file, "", format, args...))
}

func isLetter(c rune) bool {
	return unicode.IsLetter(c) && c < unicode.MaxASCII
}

func isDigit(c rune) bool {
	return c >= '0' && c <= '9'
}
