package tracelog

import (
	"bytes"
	"strings"
	"testing"

	"github.com/tidwall/gjson"
)

func TestDiscardSinkEmitsNothing(t *testing.T) {
	var buf bytes.Buffer
	s := New(&buf, false)
	s.Trace("lexer", "token", map[string]any{"lexeme": "x"})

	if buf.Len() != 0 {
		t.Errorf("expected disabled sink to write nothing, got %q", buf.String())
	}
}

func TestNilSinkIsSafe(t *testing.T) {
	var s *Sink
	s.Trace("lexer", "token", nil)
	if s.Enabled() {
		t.Errorf("nil sink should never report enabled")
	}
}

func TestEnabledSinkEmitsStructuredLine(t *testing.T) {
	var buf bytes.Buffer
	s := New(&buf, true)
	s.Trace("parser", "enter-block", map[string]any{"proc": "mainblock"})

	line := strings.TrimSpace(buf.String())
	if !gjson.Valid(line) {
		t.Fatalf("expected valid JSON line, got %q", line)
	}
	if got := gjson.Get(line, "component").String(); got != "parser" {
		t.Errorf("component = %q, want parser", got)
	}
	if got := gjson.Get(line, "event").String(); got != "enter-block" {
		t.Errorf("event = %q, want enter-block", got)
	}
	if got := gjson.Get(line, "fields.proc").String(); got != "mainblock" {
		t.Errorf("fields.proc = %q, want mainblock", got)
	}
}
