package schemaedit

import (
	"regexp"
	"strings"
)

var schemaLineRe = regexp.MustCompile(`(?m)^schema:[ \t]*.*$`)

// SetDefaultSchema points a project config document at schema name. The first top-level
// "schema:" line is rewritten; when there is none the line is prepended, followed by a blank line.
func SetDefaultSchema(config, name string) string {
	s := NormalizeNewlines(config)
	line := "schema: " + name
	if loc := schemaLineRe.FindStringIndex(s); loc != nil {
		return s[:loc[0]] + line + s[loc[1]:]
	}
	if strings.TrimSpace(s) == "" {
		return line + "\n"
	}
	return line + "\n\n" + s
}
