// Package schemaedit edits workflow schema documents in place without parsing them.
//
// Every edit is a pure function from document text to document text. Structure (top-level
// keys, "- id:" list entries, nested "requires:" lists) is recognised line by line, new lines
// are spliced in at the located position, and every other line is returned byte for byte.
// Each edit is idempotent: applying it to its own output changes nothing.
package schemaedit
