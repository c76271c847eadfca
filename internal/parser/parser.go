// Package parser implements the recursive-descent driver described in
// §4.3: it walks the YASL grammar token by token, binding symbols via
// internal/symtab, delegating expression runs to internal/evalexpr, and
// assembling the final program via internal/asmfile.
package parser

import (
	"fmt"

	"github.com/arete/yaslc/internal/asmfile"
	"github.com/arete/yaslc/internal/compilerrors"
	"github.com/arete/yaslc/internal/evalexpr"
	"github.com/arete/yaslc/internal/symtab"
	"github.com/arete/yaslc/internal/tracelog"
	"github.com/arete/yaslc/pkg/token"
)

// Option configures a Parser at construction time.
type Option func(*Parser)

// WithSource attaches the source file name used in diagnostics.
func WithSource(name string) Option {
	return func(p *Parser) { p.file = name }
}

// WithTracing routes the parser's structured trace events to sink. The
// parser emits a single event, on entering the program rule; the other
// productions are not traced.
func WithTracing(sink *tracelog.Sink) Option {
	return func(p *Parser) { p.trace = sink }
}

// Parser drives the grammar over a finite token slice produced by a
// prior, already-completed scan.
type Parser struct {
	toks []token.Token
	pos  int

	table *symtab.Table
	decls *asmfile.Buffer // global const/var initializers
	procs *asmfile.Buffer // procedure bodies, in declaration order
	nDecl int             // count of global declarations, for addw #(4N) SP

	file  string
	trace *tracelog.Sink
}

// New returns a Parser over toks (normally the full output of a prior
// lexer.ScanAll, EOF token included).
func New(toks []token.Token, opts ...Option) *Parser {
	p := &Parser{
		toks:  toks,
		table: symtab.New(),
		decls: asmfile.New(),
		procs: asmfile.New(),
		trace: tracelog.Discard,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Parser) errorf(pos token.Position, kind compilerrors.Kind, format string, args ...any) error {
	return compilerrors.New(kind, pos, p.file, "", format, args...)
}

// cur returns the next token without consuming it.
func (p *Parser) cur() token.Token {
	if p.pos >= len(p.toks) {
		return token.Token{Type: token.EOF}
	}
	return p.toks[p.pos]
}

// advance consumes and returns the next token.
func (p *Parser) advance() token.Token {
	t := p.cur()
	if p.pos < len(p.toks) {
		p.pos++
	}
	return t
}

func (p *Parser) check(tt token.Type) bool {
	return p.cur().Type == tt
}

// expect consumes the next token if it has type tt, or returns a
// syntax error naming what was found instead.
func (p *Parser) expect(tt token.Type) (token.Token, error) {
	t := p.cur()
	if t.Type != tt {
		return token.Token{}, p.errorf(t.Pos, compilerrors.Syntactic, "expected %s but found %s", tt, t)
	}
	return p.advance(), nil
}

// Parse runs the grammar from its start symbol and returns the final
// assembled program text.
func (p *Parser) Parse() (string, error) {
	p.trace.Trace("parser", "enter", map[string]any{"rule": "program"})

	if _, err := p.expect(token.Program); err != nil {
		return "", err
	}
	nameTok, err := p.expect(token.Identifier)
	if err != nil {
		return "", err
	}
	if _, err := p.expect(token.Semicolon); err != nil {
		return "", err
	}

	mainBody := asmfile.New()
	if err := p.block(mainBody); err != nil {
		return "", err
	}

	if _, err := p.expect(token.Period); err != nil {
		return "", err
	}
	if _, err := p.expect(token.EOF); err != nil {
		return "", err
	}

	return p.assemble(nameTok.Lexeme, mainBody), nil
}

// assemble lays out the final program per the fixed prelude order:
// comment, $junk reservation, global initializers, procedure bodies,
// $main entry, stack reservation, the mainblock body, and the trailing
// wait-for-key/end.
func (p *Parser) assemble(programName string, mainBody *asmfile.Buffer) string {
	out := asmfile.New()
	out.Comment(fmt.Sprintf("program %s", programName))
	out.SetPrefix("$junk")
	out.Push("#1")
	out.Append(p.decls)
	out.Append(p.procs)
	out.SetPrefix("$main")
	out.Push("movw SP R0")
	out.Push("addw #%d SP", 4*p.nDecl)
	out.Append(mainBody)
	out.Push("inb $junk")
	out.Push("end")
	return out.String()
}

// block implements: consts vars procs 'begin' statements 'end'. out is
// the buffer code for this block is appended to; for the mainblock it
// is the top-level body, for a procedure it is that procedure's own
// buffer.
func (p *Parser) block(out *asmfile.Buffer) error {
	isMain := p.table.CurrentProc() == "mainblock"

	if err := p.consts(out, isMain); err != nil {
		return err
	}
	if err := p.vars(out, isMain); err != nil {
		return err
	}
	if err := p.procs_(); err != nil {
		return err
	}

	if _, err := p.expect(token.Begin); err != nil {
		return err
	}
	if err := p.statements(out); err != nil {
		return err
	}
	if _, err := p.expect(token.End); err != nil {
		return err
	}

	if !isMain {
		out.Push("ret")
	}
	return nil
}

func (p *Parser) consts(out *asmfile.Buffer, isMain bool) error {
	for p.check(token.Const) {
		if err := p.constDecl(out, isMain); err != nil {
			return err
		}
	}
	return nil
}

func (p *Parser) constDecl(out *asmfile.Buffer, isMain bool) error {
	p.advance() // 'const'
	idTok, err := p.expect(token.Identifier)
	if err != nil {
		return err
	}
	if _, err := p.expect(token.Assign); err != nil {
		return err
	}
	numTok, err := p.expect(token.Number)
	if err != nil {
		return err
	}
	if _, err := p.expect(token.Semicolon); err != nil {
		return err
	}

	sym, err := p.table.Add(idTok.Lexeme, symtab.Constant, symtab.Int)
	if err != nil {
		return p.errorf(idTok.Pos, compilerrors.Semantic, "%s", err)
	}

	line := fmt.Sprintf("movw #%s %s", numTok.Lexeme, sym.Home())
	if isMain {
		p.decls.Push("%s", line)
		p.nDecl++
	} else {
		out.Push("%s", line)
	}
	return nil
}

func (p *Parser) vars(out *asmfile.Buffer, isMain bool) error {
	for p.check(token.Var) {
		if err := p.varDecl(out, isMain); err != nil {
			return err
		}
	}
	return nil
}

func (p *Parser) varDecl(out *asmfile.Buffer, isMain bool) error {
	p.advance() // 'var'
	idTok, err := p.expect(token.Identifier)
	if err != nil {
		return err
	}
	if _, err := p.expect(token.Colon); err != nil {
		return err
	}
	vt, err := p.valueType()
	if err != nil {
		return err
	}
	if _, err := p.expect(token.Semicolon); err != nil {
		return err
	}

	sym, err := p.table.Add(idTok.Lexeme, symtab.Variable, vt)
	if err != nil {
		return p.errorf(idTok.Pos, compilerrors.Semantic, "%s", err)
	}

	line := fmt.Sprintf("movw #0 %s", sym.Home())
	if isMain {
		p.decls.Push("%s", line)
		p.nDecl++
	} else {
		out.Push("%s", line)
	}
	return nil
}

func (p *Parser) valueType() (symtab.ValueType, error) {
	t := p.cur()
	switch t.Type {
	case token.Int:
		p.advance()
		return symtab.Int, nil
	case token.Boolean:
		p.advance()
		return symtab.Bool, nil
	default:
		return 0, p.errorf(t.Pos, compilerrors.Syntactic, "expected a type but found %s", t)
	}
}

// procs_ parses zero or more procedure declarations. Named with a
// trailing underscore to avoid colliding with the procs buffer field.
func (p *Parser) procs_() error {
	for p.check(token.Proc) {
		if err := p.procOne(); err != nil {
			return err
		}
	}
	return nil
}

func (p *Parser) procOne() error {
	p.advance() // 'proc'
	idTok, err := p.expect(token.Identifier)
	if err != nil {
		return err
	}
	label := idTok.Lexeme

	if _, err := p.table.Add(label, symtab.Procedure, symtab.Int); err != nil {
		return p.errorf(idTok.Pos, compilerrors.Semantic, "%s", err)
	}

	p.table.EnterProc(label)

	if err := p.paramList(); err != nil {
		p.table.Exit()
		return err
	}
	if _, err := p.expect(token.Semicolon); err != nil {
		p.table.Exit()
		return err
	}

	procBody := asmfile.New()
	procBody.SetPrefix("$" + label)
	if err := p.block(procBody); err != nil {
		p.table.Exit()
		return err
	}
	p.procs.Append(procBody)

	if err := p.table.Exit(); err != nil {
		return p.errorf(idTok.Pos, compilerrors.Internal, "%s", err)
	}

	if _, err := p.expect(token.Semicolon); err != nil {
		return err
	}
	return nil
}

func (p *Parser) paramList() error {
	if !p.check(token.LeftParen) {
		return nil
	}
	p.advance()
	for {
		idTok, err := p.expect(token.Identifier)
		if err != nil {
			return err
		}
		if _, err := p.expect(token.Colon); err != nil {
			return err
		}
		vt, err := p.valueType()
		if err != nil {
			return err
		}
		if _, err := p.table.Add(idTok.Lexeme, symtab.Variable, vt); err != nil {
			return p.errorf(idTok.Pos, compilerrors.Semantic, "%s", err)
		}
		if !p.check(token.Comma) {
			break
		}
		p.advance()
	}
	_, err := p.expect(token.RightParen)
	return err
}

func (p *Parser) statements(out *asmfile.Buffer) error {
	if err := p.statement(out); err != nil {
		return err
	}
	for p.check(token.Semicolon) {
		p.advance()
		if err := p.statement(out); err != nil {
			return err
		}
	}
	return nil
}

func (p *Parser) statement(out *asmfile.Buffer) error {
	t := p.cur()
	switch t.Type {
	case token.If:
		return p.ifStatement(out)
	case token.While:
		return p.whileStatement(out)
	case token.Begin:
		p.advance()
		return p.followBegin(out)
	case token.Identifier:
		p.advance()
		return p.followID(out, t)
	case token.Prompt:
		p.advance()
		return p.promptStatement(out)
	case token.Print:
		p.advance()
		return p.printStatement(out)
	default:
		return p.errorf(t.Pos, compilerrors.Syntactic, "unexpected token %s at start of statement", t)
	}
}

func (p *Parser) followBegin(out *asmfile.Buffer) error {
	if p.check(token.End) {
		p.advance()
		return nil
	}
	if err := p.statements(out); err != nil {
		return err
	}
	_, err := p.expect(token.End)
	return err
}

// ifStatement emits the guard comparison, a branch to the else label,
// the then-branch, a jump past the else-branch, and sets the pending
// labels the branches target.
func (p *Parser) ifStatement(out *asmfile.Buffer) error {
	p.advance() // 'if'
	n := p.table.MintIfLabel()

	guard, err := p.expression(out)
	if err != nil {
		return err
	}
	out.Push("cmpw #0 %s", guard.Home())
	out.Push("beq $if_else%d", n)

	if _, err := p.expect(token.Then); err != nil {
		return err
	}
	if err := p.statement(out); err != nil {
		return err
	}
	out.Push("jmp $end_if%d", n)

	out.SetPrefix(fmt.Sprintf("$if_else%d", n))
	if p.check(token.Else) {
		p.advance()
		if err := p.statement(out); err != nil {
			return err
		}
	}
	out.SetPrefix(fmt.Sprintf("$end_if%d", n))
	return nil
}

// whileStatement sets the loop-top label before evaluating the guard,
// so the first guard instruction carries it.
func (p *Parser) whileStatement(out *asmfile.Buffer) error {
	p.advance() // 'while'
	n := p.table.MintWhileLabel()
	out.SetPrefix(fmt.Sprintf("$b_while%d", n))

	guard, err := p.expression(out)
	if err != nil {
		return err
	}
	out.Push("cmpw #0 %s", guard.Home())
	out.Push("beq $e_while%d", n)

	if _, err := p.expect(token.Do); err != nil {
		return err
	}
	if err := p.statement(out); err != nil {
		return err
	}
	out.Push("jmp $b_while%d", n)
	out.SetPrefix(fmt.Sprintf("$e_while%d", n))
	return nil
}

// followID implements: ID ':=' expr | ID '(' expr follow_expr ')' | ID.
// idTok is the identifier already consumed by the caller.
func (p *Parser) followID(out *asmfile.Buffer, idTok token.Token) error {
	if p.check(token.Assign) {
		p.advance()
		sym, ok := p.table.Lookup(idTok.Lexeme)
		if !ok {
			return p.errorf(idTok.Pos, compilerrors.Semantic, "undeclared identifier %q", idTok.Lexeme)
		}
		if sym.Kind == symtab.Constant {
			return p.errorf(idTok.Pos, compilerrors.Semantic, "cannot assign to constant %q", idTok.Lexeme)
		}
		if sym.Kind == symtab.Procedure {
			return p.errorf(idTok.Pos, compilerrors.Semantic, "cannot assign to procedure %q", idTok.Lexeme)
		}

		rhs, err := p.expression(out)
		if err != nil {
			return err
		}
		if rhs.ValueType != sym.ValueType {
			return p.errorf(idTok.Pos, compilerrors.Semantic, "cannot assign a %s to %q, which is %s", rhs.ValueType, idTok.Lexeme, sym.ValueType)
		}
		out.Push("movw +0@R1 %s", sym.Home())
		return nil
	}

	if p.check(token.LeftParen) {
		p.advance()
		if !p.check(token.RightParen) {
			if _, err := p.expression(out); err != nil {
				return err
			}
			for p.check(token.Comma) {
				p.advance()
				if _, err := p.expression(out); err != nil {
					return err
				}
			}
		}
		if _, err := p.expect(token.RightParen); err != nil {
			return err
		}
	}

	// A procedure call: the #0 frame size is a placeholder, since
	// argument marshalling is out of scope (see spec §1 Non-goals).
	out.Push("call #0 $%s", idTok.Lexeme)
	return nil
}

func (p *Parser) promptStatement(out *asmfile.Buffer) error {
	strTok, err := p.expect(token.String)
	if err != nil {
		return err
	}
	emitPrintedString(out, strTok.Lexeme)

	if p.check(token.Comma) {
		p.advance()
		idTok, err := p.expect(token.Identifier)
		if err != nil {
			return err
		}
		sym, ok := p.table.Lookup(idTok.Lexeme)
		if !ok {
			return p.errorf(idTok.Pos, compilerrors.Semantic, "undeclared identifier %q", idTok.Lexeme)
		}
		out.Push("inw %s", sym.Home())
		return nil
	}

	out.Push("inb $junk")
	return nil
}

func (p *Parser) printStatement(out *asmfile.Buffer) error {
	if p.check(token.String) {
		strTok := p.advance()
		emitPrintedString(out, strTok.Lexeme)
		return nil
	}

	result, err := p.expression(out)
	if err != nil {
		return err
	}
	out.Push("outw %s", result.Home())
	out.Push("outb #10")
	return nil
}

// emitPrintedString pushes one outb per inner character of a quoted
// string lexeme (the surrounding quotes are stripped), followed by a
// trailing newline.
func emitPrintedString(out *asmfile.Buffer, lexeme string) {
	inner := lexeme
	if len(inner) >= 2 {
		inner = inner[1 : len(inner)-1]
	}
	for _, c := range inner {
		out.Push("outb #%d", c)
	}
	out.Push("outb #10")
}

// exprStops are the token types that end an expression's token run; the
// parser never consumes the terminator itself, leaving it for the
// calling production to expect.
var exprStops = map[token.Type]bool{
	token.Semicolon:  true,
	token.Then:       true,
	token.Do:         true,
	token.End:        true,
	token.RightParen: true,
	token.Else:       true,
	token.Comma:      true,
}

// expression collects tokens up to (not including) a stop token, emits
// the R1 scratch-base setup, and delegates reduction to evalexpr.
func (p *Parser) expression(out *asmfile.Buffer) (symtab.Symbol, error) {
	var toks []token.Token
	for {
		t := p.cur()
		if t.Type == token.EOF || exprStops[t.Type] {
			break
		}
		toks = append(toks, p.advance())
	}

	out.Push("movw SP R1")
	result, exprBuf, err := evalexpr.Evaluate(toks, p.table)
	if err != nil {
		pos := token.Position{}
		if len(toks) > 0 {
			pos = toks[0].Pos
		}
		return symtab.Symbol{}, p.errorf(pos, compilerrors.Semantic, "%s", err)
	}
	out.Append(exprBuf)
	p.table.ResetOffset()
	return result, nil
}
