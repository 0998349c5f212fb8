package race

import "testing"

func TestNewPassageSplitsLines(t *testing.T) {
	p := NewPassage("def f():\n    return 1")
	if p.Len() != 2 {
		t.Fatalf("expected 2 lines, got %d", p.Len())
	}
	if p.Line(1) != "    return 1" {
		t.Fatalf("original form must keep indentation, got %q", p.Line(1))
	}
	if p.Target(1) != "return 1" {
		t.Fatalf("typing target must strip leading whitespace, got %q", p.Target(1))
	}
}

func TestPassageOutOfRange(t *testing.T) {
	p := NewPassage("one")
	if p.Line(1) != "" || p.Target(1) != "" {
		t.Fatalf("out-of-range access must return empty strings")
	}
	if p.Line(-1) != "" || p.Target(-1) != "" {
		t.Fatalf("negative index must return empty strings")
	}
}

func TestPassageTabIndentation(t *testing.T) {
	p := NewPassage("\t\treturn nil")
	if p.Target(0) != "return nil" {
		t.Fatalf("tabs must be stripped from the target, got %q", p.Target(0))
	}
}

func TestPassageChars(t *testing.T) {
	text := "ab\ncd"
	if got := NewPassage(text).Chars(); got != len(text) {
		t.Fatalf("Chars = %d, want %d", got, len(text))
	}
}
