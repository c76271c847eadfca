// Package symtab implements the nested symbol table described in §4.2: a
// stack of lexical scopes that allocates stack offsets and mints the
// globally-unique temporaries and labels the parser and expression
// evaluator need.
package symtab

import "fmt"

// ValueType is the value type of a non-procedure symbol.
type ValueType int

const (
	Int ValueType = iota
	Bool
)

func (t ValueType) String() string {
	if t == Bool {
		return "boolean"
	}
	return "int"
}

// Kind classifies a Symbol.
type Kind int

const (
	Variable Kind = iota
	Constant
	Procedure
)

// Base names the register an offset-based home is relative to.
type Base int

const (
	// BaseR0 is the global scope's activation-record base.
	BaseR0 Base = iota
	// BaseFP is a procedure scope's frame-relative base.
	BaseFP
	// BaseR1 is the expression-scratch base; every temp minted by
	// MintTemp lives here regardless of the enclosing scope, per the
	// uniform addressing rule.
	BaseR1
)

func (b Base) String() string {
	switch b {
	case BaseFP:
		return "FP"
	case BaseR1:
		return "R1"
	default:
		return "R0"
	}
}

// Symbol is a binding in a scope. A symbol whose Identifier begins with
// '$' is a compiler-generated temporary.
type Symbol struct {
	Identifier string
	Kind       Kind
	ValueType  ValueType
	Offset     int
	Base       Base
	Label      string // non-empty for Procedure symbols only
}

// IsTemp reports whether the symbol is a compiler-generated temporary.
func (s Symbol) IsTemp() bool {
	return len(s.Identifier) > 0 && s.Identifier[0] == '$'
}

// Home renders the symbol's assembly operand: +offset@Rbase for ordinary
// symbols, or its label for a procedure.
func (s Symbol) Home() string {
	if s.Kind == Procedure {
		return "$" + s.Label
	}
	return fmt.Sprintf("+%d@%s", s.Offset, s.Base)
}

// scope is one entry in the owned stack of scopes; never a parent
// pointer, per the value-held-stack model this table is built around.
type scope struct {
	symbols    []Symbol // most recently added first
	nextOffset int
	base       Base
	proc       string // enclosing procedure label, or "mainblock"
}

// counters are threaded through every scope transition so that minted
// names stay unique across the whole program, not just within one scope.
type counters struct {
	nextTemp  int
	nextIf    int
	nextWhile int
	nextBool  int
}

// Table is a stack of lexical scopes.
type Table struct {
	scopes []*scope
	counters
	// tempOffset is the next R1 scratch offset MintTemp will hand out.
	// It is independent of every scope's own nextOffset: temporaries
	// live in their own expression-scratch space, not interleaved with
	// declared locals, and ResetOffset rewinds only this counter once
	// an expression's temporaries stop being live.
	tempOffset int
}

// New returns a table with a single global scope based at R0.
func New() *Table {
	return &Table{
		scopes: []*scope{{base: BaseR0, proc: "mainblock"}},
	}
}

func (t *Table) top() *scope {
	return t.scopes[len(t.scopes)-1]
}

// Add binds name in the current scope. It reports an error if name is
// already bound in that scope (shadowing across scopes is permitted;
// redeclaration within one scope is not).
func (t *Table) Add(name string, kind Kind, vt ValueType) (Symbol, error) {
	s := t.top()
	for _, existing := range s.symbols {
		if existing.Identifier == name {
			return Symbol{}, fmt.Errorf("duplicate identifier %q", name)
		}
	}

	sym := Symbol{Identifier: name, Kind: kind, ValueType: vt, Base: s.base}
	if kind != Procedure {
		sym.Offset = s.nextOffset
		s.nextOffset += 4
	} else {
		sym.Label = name
	}

	s.symbols = append([]Symbol{sym}, s.symbols...)
	return sym, nil
}

// Lookup searches the current scope, then each enclosing scope in turn.
func (t *Table) Lookup(name string) (Symbol, bool) {
	for i := len(t.scopes) - 1; i >= 0; i-- {
		for _, sym := range t.scopes[i].symbols {
			if sym.Identifier == name {
				return sym, true
			}
		}
	}
	return Symbol{}, false
}

// Refine updates a temporary's value type in place (Int promoted to Bool
// once a relational or boolean result lands in it), searching outward
// from the current scope the same way Lookup does.
func (t *Table) Refine(name string, vt ValueType) {
	for i := len(t.scopes) - 1; i >= 0; i-- {
		s := t.scopes[i]
		for j := range s.symbols {
			if s.symbols[j].Identifier == name {
				s.symbols[j].ValueType = vt
				return
			}
		}
	}
}

// Enter pushes a new scope, inheriting the caller's minting counters and
// offset position so expression temporaries never collide with locals.
func (t *Table) Enter() {
	parent := t.top()
	t.scopes = append(t.scopes, &scope{
		nextOffset: parent.nextOffset,
		base:       parent.base,
		proc:       parent.proc,
	})
}

// EnterProc pushes a new procedure scope: the local offset allocator
// resets to 0 and the base switches to FP, so procedure-local storage is
// frame-relative rather than continuing the caller's global offsets.
func (t *Table) EnterProc(label string) {
	t.scopes = append(t.scopes, &scope{
		nextOffset: 0,
		base:       BaseFP,
		proc:       label,
	})
}

// Exit pops the current scope. It is an error to pop the outermost one.
func (t *Table) Exit() error {
	if len(t.scopes) == 1 {
		return fmt.Errorf("cannot exit outermost scope")
	}
	t.scopes = t.scopes[:len(t.scopes)-1]
	return nil
}

// MintTemp allocates a fresh $n symbol at the current expression-scratch
// offset with the given value type. Temporaries always resolve to R1,
// regardless of the enclosing scope's base register, per the uniform
// addressing rule. Temporaries are real symbols with homes, not a
// separate bookkeeping structure.
func (t *Table) MintTemp(vt ValueType) Symbol {
	s := t.top()
	name := fmt.Sprintf("$%d", t.nextTemp)
	t.nextTemp++

	sym := Symbol{Identifier: name, Kind: Variable, ValueType: vt, Base: BaseR1, Offset: t.tempOffset}
	t.tempOffset += 4
	s.symbols = append([]Symbol{sym}, s.symbols...)
	return sym
}

// MintIfLabel returns the next if/else label number.
func (t *Table) MintIfLabel() int {
	n := t.nextIf
	t.nextIf++
	return n
}

// MintWhileLabel returns the next while-loop label number.
func (t *Table) MintWhileLabel() int {
	n := t.nextWhile
	t.nextWhile++
	return n
}

// MintBoolLabel returns the next short-circuit/relational label number.
func (t *Table) MintBoolLabel() int {
	n := t.nextBool
	t.nextBool++
	return n
}

// CurrentProc returns the innermost enclosing procedure's label, or the
// sentinel "mainblock" at the outermost scope.
func (t *Table) CurrentProc() string {
	return t.top().proc
}

// ResetOffset rewinds the expression-scratch offset allocator to 0, once
// an expression has been fully reduced and its temporaries are no longer
// live. It does not affect symbols already allocated, nor any scope's
// local offset allocator.
func (t *Table) ResetOffset() {
	t.tempOffset = 0
}
