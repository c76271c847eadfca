package evalexpr

import (
	"strings"
	"testing"

	"github.com/arete/yaslc/internal/symtab"
	"github.com/arete/yaslc/pkg/token"
)

func num(n string) token.Token   { return token.Token{Type: token.Number, Lexeme: n} }
func ident(n string) token.Token { return token.Token{Type: token.Identifier, Lexeme: n} }
func op(t token.Type, lexeme string) token.Token {
	return token.Token{Type: t, Lexeme: lexeme}
}

func TestBareLiteralMintsAndReturnsFirstTemp(t *testing.T) {
	table := symtab.New()
	result, buf, err := Evaluate([]token.Token{num("42")}, table)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if result.Home() != "+0@R1" {
		t.Errorf("result home = %q, want +0@R1", result.Home())
	}
	want := "movw #42 +0@R1\n"
	if buf.String() != want {
		t.Errorf("buf = %q, want %q (no extra trailing movw since already at +0@R1)", buf.String(), want)
	}
}

func TestBareVariableReturnsBindingWithoutExtraMovw(t *testing.T) {
	table := symtab.New()
	table.Add("a", symtab.Variable, symtab.Int)

	result, buf, err := Evaluate([]token.Token{ident("a")}, table)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if result.Identifier != "a" {
		t.Errorf("result = %+v, want binding for a", result)
	}
	if len(buf.Lines()) != 1 {
		t.Fatalf("expected exactly the trailing relocation movw, got %v", buf.Lines())
	}
	if buf.Lines()[0] != "movw +0@R0 +0@R1" {
		t.Errorf("line = %q", buf.Lines()[0])
	}
}

func TestAdditionEmitsAddw(t *testing.T) {
	table := symtab.New()
	toks := []token.Token{num("2"), op(token.Plus, "+"), num("3")}
	_, buf, err := Evaluate(toks, table)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	joined := strings.Join(buf.Lines(), "\n")
	if !strings.Contains(joined, "addw") {
		t.Errorf("expected an addw instruction, got %q", joined)
	}
}

func TestPrecedenceMultiplicationBeforeAddition(t *testing.T) {
	// 2 + 3 * 4 must multiply first, so mulw appears before the final addw.
	table := symtab.New()
	toks := []token.Token{num("2"), op(token.Plus, "+"), num("3"), op(token.Star, "*"), num("4")}
	_, buf, err := Evaluate(toks, table)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	lines := buf.Lines()
	mulIdx, addIdx := -1, -1
	for i, l := range lines {
		if strings.HasPrefix(l, "mulw") && mulIdx == -1 {
			mulIdx = i
		}
		if strings.HasPrefix(l, "addw") && addIdx == -1 {
			addIdx = i
		}
	}
	if mulIdx == -1 || addIdx == -1 || mulIdx > addIdx {
		t.Errorf("expected mulw before addw, got %v", lines)
	}
}

func TestLeftAssociativeSubtractionReducesLeftToRight(t *testing.T) {
	// 10 - 3 - 2 must evaluate as (10 - 3) - 2, i.e. two subw in sequence
	// that each depend on the previous result, not the other way around.
	table := symtab.New()
	toks := []token.Token{num("10"), op(token.Minus, "-"), num("3"), op(token.Minus, "-"), num("2")}
	_, buf, err := Evaluate(toks, table)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	var subs []string
	for _, l := range buf.Lines() {
		if strings.HasPrefix(l, "subw") {
			subs = append(subs, l)
		}
	}
	if len(subs) != 2 {
		t.Fatalf("expected exactly two subw instructions, got %v", buf.Lines())
	}
	// 10 is in +0@R1, 3 in +4@R1, 2 in +8@R1: both subtractions must
	// accumulate into the temp holding 10.
	if subs[0] != "subw +4@R1 +0@R1" || subs[1] != "subw +8@R1 +0@R1" {
		t.Fatalf("subw sequence = %v, want [subw +4@R1 +0@R1, subw +8@R1 +0@R1] in\n%v", subs, buf.Lines())
	}
}

func TestModEmitsFiveInstructionSequence(t *testing.T) {
	table := symtab.New()
	toks := []token.Token{num("7"), op(token.Mod, "mod"), num("3")}
	_, buf, err := Evaluate(toks, table)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	mnemonics := []string{}
	for _, l := range buf.Lines() {
		mnemonics = append(mnemonics, strings.Fields(l)[0])
	}
	// Both literals materialize first (movw, movw), then the five-instruction
	// mod sequence: divw mulw movw subw movw.
	want := []string{"movw", "movw", "divw", "mulw", "movw", "subw", "movw"}
	if len(mnemonics) != len(want) {
		t.Fatalf("mnemonics = %v, want %v", mnemonics, want)
	}
	for i := range want {
		if mnemonics[i] != want[i] {
			t.Fatalf("mnemonics = %v, want %v", mnemonics, want)
		}
	}
}

func TestComparisonEmitsBranchAndBoolLabels(t *testing.T) {
	table := symtab.New()
	toks := []token.Token{num("1"), op(token.Less, "<"), num("2")}
	result, buf, err := Evaluate(toks, table)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if result.ValueType != symtab.Bool {
		t.Errorf("comparison result type = %v, want Bool", result.ValueType)
	}
	joined := strings.Join(buf.Lines(), "\n")
	for _, want := range []string{"cmpw", "blss $b_true0", "$b_true0 movw #1"} {
		if !strings.Contains(joined, want) {
			t.Errorf("expected %q in\n%s", want, joined)
		}
	}
	if !buf.HasPendingPrefix() {
		t.Errorf("expected the trailing $b_end0 label to remain pending for the caller to attach")
	}
}

func TestEqualityRejectsBooleanOperands(t *testing.T) {
	table := symtab.New()
	table.Add("flag", symtab.Variable, symtab.Bool)
	toks := []token.Token{ident("flag"), op(token.Equal, "=="), token.Token{Type: token.True, Lexeme: "true"}}
	if _, _, err := Evaluate(toks, table); err == nil {
		t.Fatalf("expected == on boolean operands to be rejected")
	}
}

func TestAndRequiresBooleanOperands(t *testing.T) {
	table := symtab.New()
	toks := []token.Token{num("1"), op(token.And, "and"), num("0")}
	if _, _, err := Evaluate(toks, table); err == nil {
		t.Fatalf("expected 'and' on integer operands to be rejected")
	}
}

func TestAndEmitsElseAndEndLabels(t *testing.T) {
	table := symtab.New()
	toks := []token.Token{
		token.Token{Type: token.True, Lexeme: "true"},
		op(token.And, "and"),
		token.Token{Type: token.False, Lexeme: "false"},
	}
	_, buf, err := Evaluate(toks, table)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	joined := strings.Join(buf.Lines(), "\n")
	for _, want := range []string{"bneq $b_else0", "$b_else0 movw"} {
		if !strings.Contains(joined, want) {
			t.Errorf("expected %q in\n%s", want, joined)
		}
	}
	if !buf.HasPendingPrefix() {
		t.Errorf("expected the trailing $b_end0 label to remain pending for the caller to attach")
	}
}

func TestArithmeticTypeMismatchIsRejected(t *testing.T) {
	table := symtab.New()
	toks := []token.Token{
		num("1"),
		op(token.Plus, "+"),
		token.Token{Type: token.True, Lexeme: "true"},
	}
	if _, _, err := Evaluate(toks, table); err == nil {
		t.Fatalf("expected type mismatch to be rejected")
	}
}

func TestUndeclaredIdentifierIsRejected(t *testing.T) {
	table := symtab.New()
	if _, _, err := Evaluate([]token.Token{ident("missing")}, table); err == nil {
		t.Fatalf("expected undeclared identifier error")
	}
}

func TestProcedureCannotBeUsedAsValue(t *testing.T) {
	table := symtab.New()
	table.Add("greet", symtab.Procedure, symtab.Int)
	if _, _, err := Evaluate([]token.Token{ident("greet")}, table); err == nil {
		t.Fatalf("expected procedure-as-value to be rejected")
	}
}
