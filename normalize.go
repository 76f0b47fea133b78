package schemaedit

import (
	"strings"
)

// NormalizeNewlines replaces every CRLF pair with a single LF.
func NormalizeNewlines(s string) string {
	return strings.ReplaceAll(s, "\r\n", "\n")
}

// StripTrailingWhitespace normalizes newlines and removes trailing spaces and tabs from every line.
func StripTrailingWhitespace(s string) string {
	lines := strings.Split(NormalizeNewlines(s), "\n")
	for i, ln := range lines {
		lines[i] = strings.TrimRight(ln, " \t")
	}
	return strings.Join(lines, "\n")
}

// lineSet is a document split on LF. The terminating newline of the last line is tracked
// separately so that splicing never adds or drops it by accident.
type lineSet struct {
	text  []string
	final bool // input ended with "\n"
}

func splitLines(s string) lineSet {
	if s == "" {
		return lineSet{}
	}
	text := strings.Split(s, "\n")
	final := text[len(text)-1] == ""
	if final {
		text = text[:len(text)-1]
	}
	return lineSet{text: text, final: final}
}

func (l lineSet) String() string {
	s := strings.Join(l.text, "\n")
	if l.final && len(l.text) > 0 {
		s += "\n"
	}
	return s
}

// insert returns a copy of l with add spliced in before line at.
// Inserting at the end terminates the previous last line.
func (l lineSet) insert(at int, add ...string) lineSet {
	out := make([]string, 0, len(l.text)+len(add))
	out = append(out, l.text[:at]...)
	out = append(out, add...)
	out = append(out, l.text[at:]...)
	final := l.final
	if at == len(l.text) {
		final = true
	}
	return lineSet{text: out, final: final}
}

// replace returns a copy of l with line i set to s.
func (l lineSet) replace(i int, s string) lineSet {
	out := append([]string(nil), l.text...)
	out[i] = s
	return lineSet{text: out, final: l.final}
}

// lastContent returns the index just past the last line in [start,end) that is not
// trailing trivia (blank lines or column-0 comments). Returns start when there is none.
func (l lineSet) lastContent(start, end int) int {
	c := end
	for c > start && isTrailingTrivia(l.text[c-1]) {
		c--
	}
	return c
}
