package token

import "testing"

func TestPositionString(t *testing.T) {
	cases := []struct {
		pos  Position
		want string
	}{
		{Position{Line: 1, Column: 1}, "1:1"},
		{Position{Line: 12, Column: 4}, "12:4"},
		{Position{}, "-"},
	}

	for _, c := range cases {
		if got := c.pos.String(); got != c.want {
			t.Errorf("Position{%d,%d}.String() = %q, want %q", c.pos.Line, c.pos.Column, got, c.want)
		}
	}
}

func TestPositionIsValid(t *testing.T) {
	if (Position{}).IsValid() {
		t.Errorf("zero Position should not be valid")
	}
	if !(Position{Line: 1, Column: 1}).IsValid() {
		t.Errorf("Position{1,1} should be valid")
	}
}

func TestLookupIdentKeywords(t *testing.T) {
	cases := map[string]Type{
		"program": Program,
		"const":   Const,
		"var":     Var,
		"proc":    Proc,
		"begin":   Begin,
		"end":     End,
		"if":      If,
		"then":    Then,
		"else":    Else,
		"while":   While,
		"do":      Do,
		"print":   Print,
		"prompt":  Prompt,
		"true":    True,
		"false":   False,
		"int":     Int,
		"boolean": Boolean,
		"div":     Div,
		"mod":     Mod,
		"and":     And,
		"or":      Or,
		"not":     Not,
	}

	for lexeme, want := range cases {
		if got := LookupIdent(lexeme); got != want {
			t.Errorf("LookupIdent(%q) = %v, want %v", lexeme, got, want)
		}
	}
}

func TestLookupIdentNonKeyword(t *testing.T) {
	for _, id := range []string{"x", "Program", "PROC", "counter1"} {
		if got := LookupIdent(id); got != Identifier {
			t.Errorf("LookupIdent(%q) = %v, want Identifier", id, got)
		}
	}
}

func TestTokenIsType(t *testing.T) {
	tok := Token{Type: Number, Lexeme: "42", Pos: Position{Line: 1, Column: 1}}
	if !tok.IsType(Number) {
		t.Errorf("expected token to be Number")
	}
	if tok.IsType(Identifier) {
		t.Errorf("did not expect token to be Identifier")
	}
}

func TestTokenString(t *testing.T) {
	tok := Token{Type: Identifier, Lexeme: "x", Pos: Position{Line: 3, Column: 5}}
	want := `IDENTIFIER("x") at 3:5`
	if got := tok.String(); got != want {
		t.Errorf("Token.String() = %q, want %q", got, want)
	}

	eof := Token{Type: EOF, Pos: Position{Line: 10, Column: 1}}
	if got := eof.String(); got != "EOF at 10:1" {
		t.Errorf("EOF token String() = %q", got)
	}
}
