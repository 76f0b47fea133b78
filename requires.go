package schemaedit

import (
	"regexp"
	"strings"
)

// RequiresField is the nested list field listing an artifact's dependencies.
const RequiresField = "requires"

var (
	requiresHeaderRe = regexp.MustCompile(`^[ \t]*` + RequiresField + `:[ \t]*(?:#.*)?$`)
	requiresFlowRe   = regexp.MustCompile(`^([ \t]*` + RequiresField + `:[ \t]*)\[([^\]]*)\](.*)$`)
	requiresAnyRe    = regexp.MustCompile(`^[ \t]*` + RequiresField + `:`)
	// requiresItemRe captures the marker indent and the item value, without a trailing comment.
	requiresItemRe = regexp.MustCompile(`^([ \t]*)-(?:[ \t]+([^#]*?))?[ \t]*(?:#.*)?$`)
)

// EnsureArtifactRequires appends requireID to the requires list of the entry identified by id.
//
// Nothing changes when the entry does not exist or when its requires list already holds
// requireID. Only a requires line at the entry's own field indentation counts as the field, so
// text inside block scalars and nested mappings is ignored. An entry without the field gets one
// after its last line; a block list gets a new item after its last item; a flow list
// ("requires: [a]") is extended in place. Only lines of the located entry are touched.
func EnsureArtifactRequires(doc, id, requireID string) string {
	s := NormalizeNewlines(doc)
	l := splitLines(s)

	entry, ok := findEntry(l, id)
	if !ok {
		return s
	}

	fieldIndent, ok := entryFields(l, entry)
	if !ok {
		fieldIndent = entryFieldIndent(l.text[entry.start])
	}

	for i := entry.start + 1; i < entry.end; i++ {
		ln := l.text[i]
		if leadingWhitespace(ln) != fieldIndent || !requiresAnyRe.MatchString(ln) {
			continue
		}
		if requiresHeaderRe.MatchString(ln) {
			out, changed := appendRequiresItem(l, i, entry.end, fieldIndent, requireID)
			if !changed {
				return s
			}
			return out.String()
		}
		if m := requiresFlowRe.FindStringSubmatch(ln); m != nil {
			items, changed := appendFlowItem(m[2], requireID)
			if !changed {
				return s
			}
			return l.replace(i, m[1]+"["+items+"]"+m[3]).String()
		}
		// A scalar requires value is not a list we know how to extend.
		return s
	}

	at := l.lastContent(entry.start+1, entry.end)
	return l.insert(at,
		fieldIndent+RequiresField+":",
		fieldIndent+"  - "+requireID,
	).String()
}

// entryFields returns the indentation of the entry's own fields: the shallowest non-blank,
// non-comment line after the id line. Block scalar text and nested mappings are always deeper.
func entryFields(l lineSet, entry span) (string, bool) {
	indent, found := "", false
	for _, ln := range l.text[entry.start+1 : entry.end] {
		if isBlankOrComment(ln) {
			continue
		}
		if ws := leadingWhitespace(ln); !found || len(ws) < len(indent) {
			indent, found = ws, true
		}
	}
	return indent, found
}

// appendRequiresItem adds requireID after the run of list items that directly follows the
// requires header at line header, unless the run already holds it. Indented comments inside
// the run are skipped. New items copy the marker indent of the first existing item.
func appendRequiresItem(l lineSet, header, end int, fieldIndent, requireID string) (lineSet, bool) {
	last := header
	itemIndent := fieldIndent + "  "
	for j := header + 1; j < end; j++ {
		ln := l.text[j]
		if !isBlank(ln) && isBlankOrComment(ln) && len(leadingWhitespace(ln)) > len(fieldIndent) {
			continue
		}
		m := requiresItemRe.FindStringSubmatch(ln)
		if m == nil || !strings.HasPrefix(m[1], fieldIndent) {
			break
		}
		if strings.Trim(m[2], `"'`) == requireID {
			return l, false
		}
		if last == header {
			itemIndent = m[1]
		}
		last = j
	}
	return l.insert(last+1, itemIndent+"- "+requireID), true
}

// appendFlowItem appends requireID to the body of a flow sequence unless an item with that
// value (quoted or not) is already there.
func appendFlowItem(body, requireID string) (string, bool) {
	var items []string
	for _, raw := range strings.Split(body, ",") {
		item := strings.TrimSpace(raw)
		if item == "" {
			continue
		}
		if strings.Trim(item, `"'`) == requireID {
			return body, false
		}
		items = append(items, item)
	}
	items = append(items, requireID)
	return strings.Join(items, ", "), true
}

// entryFieldIndent returns the indentation fields of an entry line up with when the entry has
// none yet: the width of the "- " prefix, so "  - id: x" gives four spaces. Tabs are kept.
func entryFieldIndent(entryLine string) string {
	m := entryPrefixRe.FindStringSubmatch(entryLine)
	if m == nil {
		return defaultIndent + defaultIndent
	}
	return strings.Map(func(r rune) rune {
		if r == '\t' {
			return r
		}
		return ' '
	}, m[1])
}
