package schemaedit

import (
	"encoding/json"
	"strings"
	"testing"

	jsonpatch "github.com/evanphx/json-patch/v5"
)

const testPlanSnippet = `- id: test-plan
  generates: evidence/test_plan.md
  description: Test plan for the change
  template: test-plan.md
  requires:
    - specs`

const specDrivenSchema = `name: spec-driven
version: 1
description: Default OpenSpec workflow

# artifacts are generated in dependency order
artifacts:
  - id: proposal
    generates: proposal.md
    template: proposal.md
    instruction: |
      Write the proposal.

      Keep it short.
    requires: []

  - id: specs
    generates: "specs/**/*.md"
    requires:
      - proposal

  - id: tasks
    generates: tasks.md
    requires:
      - specs

apply:
  requires: [tasks]
  tracks: tasks.md
`

func TestEnsureArtifactBlockAppendsAfterLastEntry(t *testing.T) {
	out := EnsureArtifactBlock(specDrivenSchema, "test-plan", testPlanSnippet)

	want := strings.Replace(specDrivenSchema, `      - specs

apply:`, `      - specs

  - id: test-plan
    generates: evidence/test_plan.md
    description: Test plan for the change
    template: test-plan.md
    requires:
      - specs

apply:`, 1)
	if out != want {
		t.Fatalf("unexpected output:\n%s", unifiedDiff(want, out))
	}
	if adds := requireOnlyAdditions(t, specDrivenSchema, out); adds != 7 {
		t.Fatalf("expected 7 added lines, got %d:\n%s", adds, unifiedDiff(specDrivenSchema, out))
	}
}

func TestEnsureArtifactBlockIsIdempotent(t *testing.T) {
	once := EnsureArtifactBlock(specDrivenSchema, "test-plan", testPlanSnippet)
	twice := EnsureArtifactBlock(once, "test-plan", testPlanSnippet)
	if once != twice {
		t.Fatalf("second application changed the document:\n%s", unifiedDiff(once, twice))
	}
	if n := countMatching(twice, "- id: test-plan"); n != 1 {
		t.Fatalf("expected exactly one test-plan entry, got %d", n)
	}
}

func TestEnsureArtifactBlockExistingIDAnywhereIsNoop(t *testing.T) {
	// The id check spans the whole document, not only the artifacts list.
	in := "artifacts:\n  - id: a\nextras:\n  - id: test-plan\n"
	if out := EnsureArtifactBlock(in, "test-plan", testPlanSnippet); out != in {
		t.Fatalf("expected no change, got:\n%s", out)
	}
}

func TestEnsureArtifactBlockIDIsMatchedLiterally(t *testing.T) {
	in := "artifacts:\n  - id: testXplan\n"
	out := EnsureArtifactBlock(in, "test.plan", "- id: test.plan")
	if !strings.Contains(out, "  - id: test.plan\n") {
		t.Fatalf("expected test.plan to be inserted, got:\n%s", out)
	}
	// A longer id sharing the prefix does not count as present.
	in = "artifacts:\n  - id: test-plan-v2\n"
	out = EnsureArtifactBlock(in, "test-plan", "- id: test-plan")
	if countMatching(out, "- id: test-plan") != 1 {
		t.Fatalf("expected test-plan to be inserted next to test-plan-v2, got:\n%s", out)
	}
}

func TestEnsureArtifactBlockMatchesFourSpaceListIndent(t *testing.T) {
	in := "artifacts:\n    - id: proposal\n      generates: proposal.md\nrules: {}\n"
	out := EnsureArtifactBlock(in, "test-plan", testPlanSnippet)

	ln := lineContaining(out, "- id: test-plan")
	if got := countLeadingSpaces(ln); got != 4 {
		t.Fatalf("expected list marker at 4 spaces, got %d in %q:\n%s", got, ln, out)
	}
	if got := countLeadingSpaces(lineContaining(out, "generates: evidence")); got != 6 {
		t.Fatalf("expected nested field at 6 spaces, got %d:\n%s", got, out)
	}
	if !strings.HasSuffix(out, "\n        - specs\n\nrules: {}\n") {
		t.Fatalf("expected block before rules with a blank separator, got:\n%s", out)
	}
}

func TestEnsureArtifactBlockIndentlessList(t *testing.T) {
	in := "artifacts:\n- id: proposal\n  generates: proposal.md\n"
	out := EnsureArtifactBlock(in, "test-plan", testPlanSnippet)
	want := in + "\n" + testPlanSnippet + "\n"
	if out != want {
		t.Fatalf("unexpected output:\n%s", unifiedDiff(want, out))
	}
	rep, err := Verify(out)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !rep.Has("test-plan") || !rep.Has("proposal") {
		t.Fatalf("expected both artifacts in %+v", rep.Artifacts)
	}
}

func TestEnsureArtifactBlockCreatesMissingSection(t *testing.T) {
	in := "name: custom\nversion: 1\n"
	block := "      - id: test-plan\n        generates: plan.md\n"
	out := EnsureArtifactBlock(in, "test-plan", block)
	want := "name: custom\nversion: 1\n\nartifacts:\n  - id: test-plan\n    generates: plan.md\n"
	if out != want {
		t.Fatalf("unexpected output:\n%s", unifiedDiff(want, out))
	}
}

func TestEnsureArtifactBlockCreatesSectionWithoutFinalNewline(t *testing.T) {
	out := EnsureArtifactBlock("name: custom", "a", "- id: a")
	if want := "name: custom\n\nartifacts:\n  - id: a\n"; out != want {
		t.Fatalf("got %q, want %q", out, want)
	}
}

func TestEnsureArtifactBlockEmptyDocument(t *testing.T) {
	out := EnsureArtifactBlock("", "a", "- id: a")
	if want := "artifacts:\n  - id: a\n"; out != want {
		t.Fatalf("got %q, want %q", out, want)
	}
}

func TestEnsureArtifactBlockEmptySectionUsesDefaultIndent(t *testing.T) {
	in := "artifacts:\napply:\n  tracks: tasks.md\n"
	out := EnsureArtifactBlock(in, "a", "- id: a\n  x: 1")
	want := "artifacts:\n  - id: a\n    x: 1\n\napply:\n  tracks: tasks.md\n"
	if out != want {
		t.Fatalf("unexpected output:\n%s", unifiedDiff(want, out))
	}
}

func TestEnsureArtifactBlockKeepsTrailingCommentWithNextKey(t *testing.T) {
	in := "artifacts:\n  - id: a\n\n# apply phase\napply:\n  tracks: tasks.md\n"
	out := EnsureArtifactBlock(in, "b", "- id: b")
	want := "artifacts:\n  - id: a\n\n  - id: b\n\n# apply phase\napply:\n  tracks: tasks.md\n"
	if out != want {
		t.Fatalf("unexpected output:\n%s", unifiedDiff(want, out))
	}
}

func TestEnsureArtifactBlockHeaderWithComment(t *testing.T) {
	in := "artifacts: # ordered\n  - id: a\n"
	out := EnsureArtifactBlock(in, "b", "- id: b")
	if want := "artifacts: # ordered\n  - id: a\n\n  - id: b\n"; out != want {
		t.Fatalf("got %q, want %q", out, want)
	}
}

func TestEnsureArtifactBlockNormalizesCRLF(t *testing.T) {
	in := "artifacts:\r\n  - id: a\r\n"
	out := EnsureArtifactBlock(in, "b", "- id: b\r\n  x: 1\r\n")
	if strings.Contains(out, "\r") {
		t.Fatalf("expected LF-only output, got %q", out)
	}
	if want := "artifacts:\n  - id: a\n\n  - id: b\n    x: 1\n"; out != want {
		t.Fatalf("got %q, want %q", out, want)
	}
}

func TestEnsureArtifactBlockOnlyArtifactsChangeSemantically(t *testing.T) {
	out := EnsureArtifactBlock(specDrivenSchema, "test-plan", testPlanSnippet)

	patch, err := jsonpatch.CreateMergePatch(yamlToJSON(t, specDrivenSchema), yamlToJSON(t, out))
	if err != nil {
		t.Fatalf("CreateMergePatch: %v", err)
	}
	var touched map[string]any
	if err := json.Unmarshal(patch, &touched); err != nil {
		t.Fatalf("decode merge patch: %v", err)
	}
	var keys []string
	for k := range touched {
		keys = append(keys, k)
	}
	if len(keys) != 1 || keys[0] != "artifacts" {
		t.Fatalf("expected merge patch to touch only artifacts, touched %v: %s", keys, patch)
	}

	// Applying the patch to the original reproduces the edited document.
	merged, err := jsonpatch.MergePatch(yamlToJSON(t, specDrivenSchema), patch)
	if err != nil {
		t.Fatalf("MergePatch: %v", err)
	}
	if !jsonpatch.Equal(merged, yamlToJSON(t, out)) {
		t.Fatalf("merge patch round trip differs:\n%s\n%s", merged, yamlToJSON(t, out))
	}
}

func TestEnsureArtifactBlockSequence(t *testing.T) {
	doc := specDrivenSchema
	for _, id := range []string{"test-plan", "test-cards", "test-evidence"} {
		doc = EnsureArtifactBlock(doc, id, "- id: "+id+"\n  generates: evidence/"+id+".md")
	}
	rep, err := Verify(doc)
	if err != nil {
		t.Fatalf("Verify: %v\n%s", err, doc)
	}
	var ids []string
	for _, a := range rep.Artifacts {
		ids = append(ids, a.ID)
	}
	if got := strings.Join(ids, ","); got != "proposal,specs,tasks,test-plan,test-cards,test-evidence" {
		t.Fatalf("unexpected artifact order %s", got)
	}
	if len(rep.Duplicates) != 0 {
		t.Fatalf("unexpected duplicates %v", rep.Duplicates)
	}
}

func TestEnsureArtifactBlockDropsLeadingBlankLines(t *testing.T) {
	in := "artifacts:\n  - id: a\n"
	out := EnsureArtifactBlock(in, "b", "\n\n- id: b\n")
	if want := "artifacts:\n  - id: a\n\n  - id: b\n"; out != want {
		t.Fatalf("got %q, want %q", out, want)
	}
}

func TestEnsureArtifactBlockAfterBlockScalar(t *testing.T) {
	// The last entry ends in a block scalar whose text looks like list items.
	in := "artifacts:\n  - id: a\n    instruction: |\n      Steps:\n\n      - requires: none\n      - id: ghost\napply:\n  tracks: tasks.md\n"
	out := EnsureArtifactBlock(in, "b", "- id: b\n  requires:\n    - a")
	want := "artifacts:\n  - id: a\n    instruction: |\n      Steps:\n\n      - requires: none\n      - id: ghost\n\n  - id: b\n    requires:\n      - a\n\napply:\n  tracks: tasks.md\n"
	if out != want {
		t.Fatalf("unexpected output:\n%s", unifiedDiff(want, out))
	}
	rep, err := Verify(out)
	if err != nil {
		t.Fatalf("Verify: %v\n%s", err, out)
	}
	if len(rep.Artifacts) != 2 || !rep.Has("b") || rep.Has("ghost") {
		t.Fatalf("unexpected artifacts %+v", rep.Artifacts)
	}
}
