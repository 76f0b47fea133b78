// Package assets holds the artifact snippets and markdown templates installed into a
// forked schema.
package assets

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"
	"unicode"

	gyaml "github.com/goccy/go-yaml"

	"github.com/kevinwang15/schemaedit"
)

//go:embed snippets/*.yaml templates/*.md
var files embed.FS

// EvidenceDirPlaceholder is replaced in snippets by the configured evidence directory.
const EvidenceDirPlaceholder = "{{EVIDENCE_DIR}}"

var (
	ErrSnippetShape = errors.New("snippet must be a list with exactly one artifact")
	ErrSnippetID    = errors.New("snippet id mismatch")
)

// Artifact ties a schema artifact id to its snippet and template.
type Artifact struct {
	ID       string
	Snippet  string
	Template string
}

var (
	TestPlan     = Artifact{ID: "test-plan", Snippet: "test-plan.artifact.yaml", Template: "test-plan.md"}
	TestCards    = Artifact{ID: "test-cards", Snippet: "test-cards.artifact.yaml", Template: "test-cards.md"}
	TestEvidence = Artifact{ID: "test-evidence", Snippet: "test-evidence.artifact.yaml", Template: "test-evidence.md"}
)

// Artifacts returns the artifacts to install, in insertion order.
func Artifacts(withEvidence bool) []Artifact {
	if withEvidence {
		return []Artifact{TestPlan, TestCards, TestEvidence}
	}
	return []Artifact{TestPlan}
}

// LoadSnippet returns the named snippet with the evidence directory substituted and
// trailing whitespace removed.
func LoadSnippet(name, evidenceDir string) (string, error) {
	raw, err := files.ReadFile(path.Join("snippets", name))
	if err != nil {
		return "", fmt.Errorf("assets: read snippet %s: %w", name, err)
	}
	text := schemaedit.NormalizeNewlines(string(raw))
	text = strings.ReplaceAll(text, EvidenceDirPlaceholder, evidenceDir)
	return strings.TrimRightFunc(text, unicode.IsSpace), nil
}

// CheckSnippet decodes text and requires it to be a single-entry list whose id is wantID.
// A snippet that fails here would be inserted again on every run.
func CheckSnippet(text, wantID string) error {
	var entries []map[string]any
	if err := gyaml.Unmarshal([]byte(text), &entries); err != nil {
		return fmt.Errorf("%w: %w", ErrSnippetShape, err)
	}
	if len(entries) != 1 {
		return fmt.Errorf("%w: found %d entries", ErrSnippetShape, len(entries))
	}
	id, _ := entries[0]["id"].(string)
	if id != wantID {
		return fmt.Errorf("%w: got %q, want %q", ErrSnippetID, id, wantID)
	}
	return nil
}

// Templates reads markdown templates by file name.
type Templates struct {
	fsys fs.FS
}

// EmbeddedTemplates returns the templates shipped with the binary.
func EmbeddedTemplates() Templates {
	sub, err := fs.Sub(files, "templates")
	if err != nil {
		panic(err) // the embed pattern guarantees the directory
	}
	return Templates{fsys: sub}
}

// DirTemplates reads templates from dir instead.
func DirTemplates(dir string) Templates {
	return Templates{fsys: os.DirFS(dir)}
}

// Read returns the template text with newlines normalized.
func (t Templates) Read(name string) (string, error) {
	b, err := fs.ReadFile(t.fsys, name)
	if err != nil {
		return "", fmt.Errorf("assets: read template %s: %w", name, err)
	}
	return schemaedit.NormalizeNewlines(string(b)), nil
}
