package schemaedit

import (
	"regexp"
)

var (
	// topLevelKeyRe matches a mapping key at column 0. Comments, list markers and
	// document markers never start a top-level key.
	topLevelKeyRe = regexp.MustCompile(`^[^\s#-][\w-]*[ \t]*:`)
	// entryStartRe matches the first line of any list entry identified by id.
	entryStartRe = regexp.MustCompile(`^[ \t]*-[ \t]*id:`)
	// entryPrefixRe captures everything before "id:" on an entry line.
	entryPrefixRe = regexp.MustCompile(`^([ \t]*-[ \t]*)id:`)
)

// span is a half-open range of line indices.
type span struct {
	start, end int
}

// keyBlock locates a top-level key line ("key:" with nothing but an optional comment after
// it) and its body, which runs until the next top-level key or the end of the document.
type keyBlock struct {
	header int
	body   span
}

func keyHeaderRe(key string) *regexp.Regexp {
	return regexp.MustCompile(`^` + regexp.QuoteMeta(key) + `:[ \t]*(?:#.*)?$`)
}

func entryLineRe(id string) *regexp.Regexp {
	return regexp.MustCompile(`^[ \t]*-[ \t]*id:[ \t]*` + regexp.QuoteMeta(id) + `[ \t]*$`)
}

func findKeyBlock(l lineSet, key string) (keyBlock, bool) {
	re := keyHeaderRe(key)
	for i, ln := range l.text {
		if !re.MatchString(ln) {
			continue
		}
		end := len(l.text)
		for j := i + 1; j < len(l.text); j++ {
			if topLevelKeyRe.MatchString(l.text[j]) {
				end = j
				break
			}
		}
		return keyBlock{header: i, body: span{start: i + 1, end: end}}, true
	}
	return keyBlock{}, false
}

// findEntry returns the span of the first entry whose id line names id. The span starts at
// the id line and ends before the next entry line (any id), the next top-level key, or EOF.
func findEntry(l lineSet, id string) (span, bool) {
	re := entryLineRe(id)
	for i, ln := range l.text {
		if !re.MatchString(ln) {
			continue
		}
		end := len(l.text)
		for j := i + 1; j < len(l.text); j++ {
			if entryStartRe.MatchString(l.text[j]) || topLevelKeyRe.MatchString(l.text[j]) {
				end = j
				break
			}
		}
		return span{start: i, end: end}, true
	}
	return span{}, false
}

// hasEntry reports whether any line of the document is an entry line for id.
func hasEntry(l lineSet, id string) bool {
	re := entryLineRe(id)
	for _, ln := range l.text {
		if re.MatchString(ln) {
			return true
		}
	}
	return false
}
