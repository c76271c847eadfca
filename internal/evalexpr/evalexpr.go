// Package evalexpr implements the expression evaluator described in
// §4.4: it takes the flat run of tokens the parser collects for one
// expression, converts it from infix to postfix by operator precedence,
// and reduces the postfix stream to a single result symbol while
// emitting arithmetic, relational, and short-circuit boolean code.
package evalexpr

import (
	"fmt"
	"strconv"

	"github.com/arete/yaslc/internal/asmfile"
	"github.com/arete/yaslc/internal/symtab"
	"github.com/arete/yaslc/pkg/token"
)

type atomKind int

const (
	kindOperand atomKind = iota
	kindOperator
)

// atom is one element of the infix/postfix stream: either an operand
// (a variable reference or a literal lexeme) or an operator.
type atom struct {
	kind    atomKind
	op      token.Type
	lexeme  string
	isIdent bool
}

// precedence returns the binding strength of an operator token; higher
// binds tighter. and/or are lowest, */div/mod highest.
func precedence(op token.Type) int {
	switch op {
	case token.And, token.Or:
		return 0
	case token.Equal, token.NotEqual:
		return 1
	case token.Less, token.LessEqual, token.Greater, token.GreaterEqual:
		return 2
	case token.Plus, token.Minus:
		return 3
	case token.Star, token.Div, token.Mod:
		return 4
	default:
		return -1
	}
}

func isOperator(t token.Type) bool {
	return precedence(t) >= 0
}

// Evaluate reduces toks (an expression's token run, with no trailing
// delimiter) against table, appending the emitted instructions to a
// fresh buffer and returning the symbol holding the result.
func Evaluate(toks []token.Token, table *symtab.Table) (symtab.Symbol, *asmfile.Buffer, error) {
	buf := asmfile.New()

	atoms, err := tokensToAtoms(toks)
	if err != nil {
		return symtab.Symbol{}, nil, err
	}
	if len(atoms) == 0 {
		return symtab.Symbol{}, nil, fmt.Errorf("empty expression")
	}

	postfix := toPostfix(atoms)

	result, err := reduce(postfix, table, buf)
	if err != nil {
		return symtab.Symbol{}, nil, err
	}

	if result.Home() != "+0@R1" {
		buf.Push("movw %s +0@R1", result.Home())
	}

	return result, buf, nil
}

func tokensToAtoms(toks []token.Token) ([]atom, error) {
	atoms := make([]atom, 0, len(toks))
	for _, tk := range toks {
		switch {
		case tk.Type == token.Number || tk.Type == token.True || tk.Type == token.False:
			atoms = append(atoms, atom{kind: kindOperand, lexeme: literalLexeme(tk)})
		case tk.Type == token.Identifier:
			atoms = append(atoms, atom{kind: kindOperand, lexeme: tk.Lexeme, isIdent: true})
		case isOperator(tk.Type):
			atoms = append(atoms, atom{kind: kindOperator, op: tk.Type})
		default:
			return nil, fmt.Errorf("invalid token %s in expression", tk)
		}
	}
	return atoms, nil
}

func literalLexeme(tk token.Token) string {
	if tk.Type == token.True {
		return "true"
	}
	if tk.Type == token.False {
		return "false"
	}
	return tk.Lexeme
}

// toPostfix runs a standard shunting-yard pass: operands go straight to
// output, operators pop everything of equal-or-higher precedence first
// (all operators here are left-associative), then push themselves.
func toPostfix(atoms []atom) []atom {
	out := make([]atom, 0, len(atoms))
	var opStack []atom

	for _, a := range atoms {
		if a.kind != kindOperator {
			out = append(out, a)
			continue
		}
		for len(opStack) > 0 && precedence(opStack[len(opStack)-1].op) >= precedence(a.op) {
			out = append(out, opStack[len(opStack)-1])
			opStack = opStack[:len(opStack)-1]
		}
		opStack = append(opStack, a)
	}
	for len(opStack) > 0 {
		out = append(out, opStack[len(opStack)-1])
		opStack = opStack[:len(opStack)-1]
	}
	return out
}

// literalValueType classifies a literal lexeme as Int or Bool, the way
// the reference implementation's type_for_string helper does.
func literalValueType(lexeme string) (symtab.ValueType, error) {
	if lexeme == "true" || lexeme == "false" {
		return symtab.Bool, nil
	}
	if _, err := strconv.Atoi(lexeme); err == nil {
		return symtab.Int, nil
	}
	return 0, fmt.Errorf("unable to determine the type of literal %q", lexeme)
}

// materialize turns an operand atom into a real symbol: a variable
// reference is looked up, a literal is minted into a fresh temp and
// initialized with a movw.
func materialize(a atom, table *symtab.Table, buf *asmfile.Buffer) (symtab.Symbol, error) {
	if a.isIdent {
		sym, ok := table.Lookup(a.lexeme)
		if !ok {
			return symtab.Symbol{}, fmt.Errorf("undeclared identifier %q", a.lexeme)
		}
		if sym.Kind == symtab.Procedure {
			return symtab.Symbol{}, fmt.Errorf("cannot use procedure %q as a value", a.lexeme)
		}
		return sym, nil
	}

	vt, err := literalValueType(a.lexeme)
	if err != nil {
		return symtab.Symbol{}, err
	}
	temp := table.MintTemp(vt)
	buf.Push("movw #%s %s", a.lexeme, temp.Home())
	return temp, nil
}

// reduce walks the postfix atom list left to right with a symbol stack,
// materializing operands on demand and folding operators as they occur.
func reduce(postfix []atom, table *symtab.Table, buf *asmfile.Buffer) (symtab.Symbol, error) {
	var stack []symtab.Symbol

	for _, a := range postfix {
		if a.kind == kindOperand {
			sym, err := materialize(a, table, buf)
			if err != nil {
				return symtab.Symbol{}, err
			}
			stack = append(stack, sym)
			continue
		}

		if len(stack) < 2 {
			return symtab.Symbol{}, fmt.Errorf("operator %s is missing an operand", a.op)
		}
		e2 := stack[len(stack)-1]
		e1 := stack[len(stack)-2]
		stack = stack[:len(stack)-2]

		dest, err := applyOperator(a.op, e1, e2, table, buf)
		if err != nil {
			return symtab.Symbol{}, err
		}
		stack = append(stack, dest)
	}

	if len(stack) != 1 {
		return symtab.Symbol{}, fmt.Errorf("expression did not reduce to a single value")
	}
	return stack[0], nil
}

// destFor returns the symbol an operator's result should be written
// into: e1 itself if it is already a temp (so we don't burn another
// one), otherwise a freshly minted temp initialized from e1.
func destFor(e1 symtab.Symbol, table *symtab.Table, buf *asmfile.Buffer) symtab.Symbol {
	if e1.IsTemp() {
		return e1
	}
	temp := table.MintTemp(e1.ValueType)
	buf.Push("movw %s %s", e1.Home(), temp.Home())
	return temp
}

func applyOperator(op token.Type, e1, e2 symtab.Symbol, table *symtab.Table, buf *asmfile.Buffer) (symtab.Symbol, error) {
	switch op {
	case token.Plus, token.Minus, token.Star, token.Div:
		if e1.ValueType != e2.ValueType {
			return symtab.Symbol{}, fmt.Errorf("operands of arithmetic operator have different types")
		}
		dest := destFor(e1, table, buf)
		buf.Push("%s %s %s", arithMnemonic(op), e2.Home(), dest.Home())
		return dest, nil

	case token.Mod:
		if e1.ValueType != e2.ValueType {
			return symtab.Symbol{}, fmt.Errorf("operands of mod have different types")
		}
		t1 := destFor(e1, table, buf)
		t2 := table.MintTemp(e2.ValueType)
		buf.Push("divw %s %s", e2.Home(), t1.Home())
		buf.Push("mulw %s %s", e2.Home(), t1.Home())
		buf.Push("movw %s %s", e1.Home(), t2.Home())
		buf.Push("subw %s %s", t1.Home(), t2.Home())
		buf.Push("movw %s %s", t2.Home(), t1.Home())
		return t1, nil

	case token.Less, token.LessEqual, token.Greater, token.GreaterEqual, token.Equal, token.NotEqual:
		if e1.ValueType != e2.ValueType {
			return symtab.Symbol{}, fmt.Errorf("operands of comparison have different types")
		}
		if (op == token.Equal || op == token.NotEqual) && (e1.ValueType == symtab.Bool || e2.ValueType == symtab.Bool) {
			return symtab.Symbol{}, fmt.Errorf("== and <> require integer operands, not boolean")
		}
		dest := destFor(e1, table, buf)
		n := table.MintBoolLabel()
		buf.Push("cmpw %s %s", e1.Home(), e2.Home())
		buf.Push("%s $b_true%d", branchMnemonic(op), n)
		buf.Push("movw #0 %s", dest.Home())
		buf.Push("jmp $b_end%d", n)
		buf.SetPrefix(fmt.Sprintf("$b_true%d", n))
		buf.Push("movw #1 %s", dest.Home())
		buf.SetPrefix(fmt.Sprintf("$b_end%d", n))
		table.Refine(dest.Identifier, symtab.Bool)
		dest.ValueType = symtab.Bool
		return dest, nil

	case token.And, token.Or:
		if e1.ValueType != symtab.Bool || e2.ValueType != symtab.Bool {
			return symtab.Symbol{}, fmt.Errorf("and/or require boolean operands")
		}
		o1, o2 := "#1", "#0"
		if op == token.Or {
			o1, o2 = "#0", "#1"
		}
		dest := destFor(e1, table, buf)
		n := table.MintBoolLabel()
		buf.Push("cmpw %s %s", e1.Home(), o1)
		buf.Push("bneq $b_else%d", n)
		buf.Push("cmpw %s %s", e2.Home(), o1)
		buf.Push("bneq $b_else%d", n)
		buf.Push("movw %s %s", o1, dest.Home())
		buf.Push("jmp $b_end%d", n)
		buf.SetPrefix(fmt.Sprintf("$b_else%d", n))
		buf.Push("movw %s %s", o2, dest.Home())
		buf.SetPrefix(fmt.Sprintf("$b_end%d", n))
		table.Refine(dest.Identifier, symtab.Bool)
		dest.ValueType = symtab.Bool
		return dest, nil

	default:
		return symtab.Symbol{}, fmt.Errorf("unrecognized operator %s in expression", op)
	}
}

func arithMnemonic(op token.Type) string {
	switch op {
	case token.Plus:
		return "addw"
	case token.Minus:
		return "subw"
	case token.Star:
		return "mulw"
	case token.Div:
		return "divw"
	default:
		panic("arithMnemonic: not an arithmetic operator")
	}
}

func branchMnemonic(op token.Type) string {
	switch op {
	case token.Greater:
		return "bgtr"
	case token.GreaterEqual:
		return "bgeq"
	case token.Equal:
		return "beq"
	case token.NotEqual:
		return "bneq"
	case token.LessEqual:
		return "bleq"
	case token.Less:
		return "blss"
	default:
		panic("branchMnemonic: not a comparison operator")
	}
}
