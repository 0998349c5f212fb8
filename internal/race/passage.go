// Package race implements the typing-race core: passage handling,
// keystroke validation, performance metrics, timing, and the per-race
// session state machine.
package race

import "strings"

// FallbackSnippet is used when the snippet server is unreachable.
const FallbackSnippet = `func randomSnippet(w http.ResponseWriter, r *http.Request) {
    snippet, err := snippets.Random(r.Context())
    if err != nil {
        http.Error(w, err.Error(), http.StatusInternalServerError)
        return
    }
    writeJSON(w, snippet)
}`

// Passage is the full multi-line text to be typed in one race. It is
// immutable once built.
type Passage struct {
	lines   []string
	targets []string
	chars   int
}

// NewPassage splits snippet text into lines. The typing target of each
// line is the line with leading whitespace stripped; indentation is not
// required to be typed.
func NewPassage(text string) *Passage {
	lines := strings.Split(text, "\n")
	targets := make([]string, len(lines))
	for i, line := range lines {
		targets[i] = strings.TrimLeft(line, " \t")
	}
	return &Passage{lines: lines, targets: targets, chars: len(text)}
}

// Len returns the number of lines.
func (p *Passage) Len() int {
	return len(p.lines)
}

// Line returns the original form of the line at index, or "" when the
// index is out of range.
func (p *Passage) Line(index int) string {
	if index < 0 || index >= len(p.lines) {
		return ""
	}
	return p.lines[index]
}

// Target returns the typing target of the line at index, or "" when the
// index is out of range.
func (p *Passage) Target(index int) string {
	if index < 0 || index >= len(p.targets) {
		return ""
	}
	return p.targets[index]
}

// Chars returns the total character count of the passage text.
func (p *Passage) Chars() int {
	return p.chars
}
