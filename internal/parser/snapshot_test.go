package parser

import (
	"testing"

	"github.com/gkampitakis/go-snaps/snaps"

	"github.com/arete/yaslc/internal/lexer"
)

// TestEndToEndScenariosMatchSnapshot pins the exact assembly text for the
// worked end-to-end scenarios against golden snapshots, complementing the
// ordering-only assertions above with full-output regression coverage.
func TestEndToEndScenariosMatchSnapshot(t *testing.T) {
	scenarios := []struct {
		name string
		src  string
	}{
		{
			name: "hello",
			src:  `program p; begin print "Hi" end.`,
		},
		{
			name: "const_and_add",
			src:  `program p; const a = 2; var b : int; begin b = a + 3 end.`,
		},
		{
			name: "mod",
			src:  `program p; var x : int; var y : int; var z : int; begin z = x mod y end.`,
		},
		{
			name: "if_else",
			src: `program p; var a : int; var b : int;
begin
  if a == b then print "Y" else print "N"
end.`,
		},
		{
			name: "while",
			src: `program p; var a : int;
begin
  while a < 10 do a = a + 1
end.`,
		},
	}

	for _, s := range scenarios {
		t.Run(s.name, func(t *testing.T) {
			out := parse(t, s.src)
			snaps.MatchSnapshot(t, out)
		})
	}
}

func TestDuplicateDeclarationErrorMatchesSnapshot(t *testing.T) {
	toks, diags := lexer.ScanAll(`program p; var a : int; var a : int; begin end.`)
	if diags.HasFatal() {
		t.Fatalf("lexer diagnostics: %s", diags.Format(false))
	}
	_, err := New(toks).Parse()
	if err == nil {
		t.Fatalf("expected an error for redeclaring a in the same scope")
	}
	snaps.MatchSnapshot(t, err.Error())
}
