package schemaedit

import (
	"regexp"
	"strings"
	"unicode"
)

var listMarkerRe = regexp.MustCompile(`^([ \t]*)-(?:[ \t]+|$)`)

// MinIndent returns the smallest count of leading spaces/tabs over the non-blank lines of block,
// or 0 when every line is blank.
func MinIndent(block string) int {
	least := -1
	for _, ln := range strings.Split(NormalizeNewlines(block), "\n") {
		if isBlank(ln) {
			continue
		}
		n := len(leadingWhitespace(ln))
		if least < 0 || n < least {
			least = n
		}
	}
	if least < 0 {
		return 0
	}
	return least
}

// DetectListIndent returns the leading whitespace of the list marker on the first
// non-blank, non-comment line of body. When that line is not a list item the indent is "".
// ok is false when body has no such line, in which case the caller picks a default.
func DetectListIndent(body string) (indent string, ok bool) {
	for _, ln := range strings.Split(NormalizeNewlines(body), "\n") {
		if isBlankOrComment(ln) {
			continue
		}
		if m := listMarkerRe.FindStringSubmatch(ln); m != nil {
			return m[1], true
		}
		return "", true
	}
	return "", false
}

// Reindent re-bases block so its least indented line starts with indent.
// Relative indentation between lines is kept; blank lines become empty and
// trailing whitespace (including trailing newlines) is dropped.
func Reindent(block, indent string) string {
	normalized := strings.TrimRightFunc(StripTrailingWhitespace(block), unicode.IsSpace)
	if normalized == "" {
		return ""
	}
	dedent := MinIndent(normalized)

	lines := strings.Split(normalized, "\n")
	for i, ln := range lines {
		if isBlank(ln) {
			lines[i] = ""
			continue
		}
		lines[i] = indent + ln[dedent:]
	}
	return strings.Join(lines, "\n")
}

func leadingWhitespace(ln string) string {
	return ln[:len(ln)-len(strings.TrimLeft(ln, " \t"))]
}

func isBlank(ln string) bool {
	return strings.TrimSpace(ln) == ""
}

func isBlankOrComment(ln string) bool {
	t := strings.TrimSpace(ln)
	return len(t) == 0 || t[0] == '#'
}

// isTrailingTrivia reports lines that belong to whatever follows rather than to the
// block they trail: blank lines and comments starting at column 0.
func isTrailingTrivia(ln string) bool {
	return isBlank(ln) || strings.HasPrefix(ln, "#")
}
