package schemaedit

import (
	"strings"
)

const (
	// ArtifactsKey is the top-level key holding the artifact list.
	ArtifactsKey = "artifacts"

	defaultIndent = "  "
)

// EnsureArtifactBlock inserts block as a new entry of the top-level artifacts list.
//
// The document is returned unchanged (newlines normalized) when any line anywhere in it is
// already an entry line for id. A missing artifacts key is appended at the end of the
// document. Otherwise block is re-indented to the list indentation used by the existing
// entries and placed after the last of them; every other line is left as it was.
func EnsureArtifactBlock(doc, id, block string) string {
	s := NormalizeNewlines(doc)
	l := splitLines(s)
	if hasEntry(l, id) {
		return s
	}
	block = trimLeadingBlankLines(NormalizeNewlines(block))

	kb, ok := findKeyBlock(l, ArtifactsKey)
	if !ok {
		return appendKeyBlock(l, ArtifactsKey, Reindent(block, defaultIndent)).String()
	}

	// Trailing blank lines and column-0 comments stay with the next key.
	at := l.lastContent(kb.body.start, kb.body.end)

	indent := defaultIndent
	if at > kb.body.start {
		body := strings.Join(l.text[kb.body.start:at], "\n")
		if detected, ok := DetectListIndent(body); ok {
			indent = detected
		}
	}

	add := strings.Split(Reindent(block, indent), "\n")
	if at > kb.body.start {
		add = append([]string{""}, add...)
	}
	if at < len(l.text) && !isBlank(l.text[at]) {
		add = append(add, "")
	}
	return l.insert(at, add...).String()
}

// appendKeyBlock adds "key:" followed by body at the end of the document, separated from
// existing content by a blank line.
func appendKeyBlock(l lineSet, key, body string) lineSet {
	var add []string
	if n := len(l.text); n > 0 && !isBlank(l.text[n-1]) {
		add = append(add, "")
	}
	add = append(add, key+":")
	if body != "" {
		add = append(add, strings.Split(body, "\n")...)
	}
	return l.insert(len(l.text), add...)
}

// trimLeadingBlankLines drops blank lines before the first content line of block, keeping
// that line's indentation.
func trimLeadingBlankLines(block string) string {
	for block != "" {
		ln, rest, _ := strings.Cut(block, "\n")
		if !isBlank(ln) {
			break
		}
		block = rest
	}
	return block
}
