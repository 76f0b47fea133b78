package schemaedit

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/pmezard/go-difflib/difflib"
	"gopkg.in/yaml.v3"
)

func unifiedDiff(before, after string) string {
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(before),
		B:        difflib.SplitLines(after),
		FromFile: "before",
		ToFile:   "after",
		Context:  1,
	})
	if err != nil {
		return "diff error: " + err.Error()
	}
	return diff
}

// diffStats counts added and removed lines of a unified diff, ignoring file headers.
func diffStats(diff string) (adds, removes int) {
	for _, ln := range strings.Split(diff, "\n") {
		switch {
		case strings.HasPrefix(ln, "+++"), strings.HasPrefix(ln, "---"):
		case strings.HasPrefix(ln, "+"):
			adds++
		case strings.HasPrefix(ln, "-"):
			removes++
		}
	}
	return adds, removes
}

// requireOnlyAdditions fails unless after is before plus added lines.
func requireOnlyAdditions(t *testing.T, before, after string) int {
	t.Helper()
	diff := unifiedDiff(before, after)
	adds, removes := diffStats(diff)
	if removes != 0 {
		t.Fatalf("expected no removed lines, got %d:\n%s", removes, diff)
	}
	return adds
}

func countLeadingSpaces(line string) int {
	return len(line) - len(strings.TrimLeft(line, " "))
}

func lineContaining(s, substr string) string {
	for _, ln := range strings.Split(s, "\n") {
		if strings.Contains(ln, substr) {
			return ln
		}
	}
	return ""
}

func countMatching(s, want string) int {
	n := 0
	for _, ln := range strings.Split(s, "\n") {
		if strings.TrimSpace(ln) == want {
			n++
		}
	}
	return n
}

// yamlToJSON decodes YAML text into its JSON form for semantic comparisons.
func yamlToJSON(t *testing.T, s string) []byte {
	t.Helper()
	var v any
	if err := yaml.Unmarshal([]byte(s), &v); err != nil {
		t.Fatalf("yaml unmarshal: %v\n%s", err, s)
	}
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("json marshal: %v", err)
	}
	return b
}
