package bootstrap

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/kevinwang15/schemaedit"
)

var testingHeadingRe = regexp.MustCompile(`(?m)^##[ \t]+3\.[ \t]+Testing\b`)

// EnsureTestingSection appends a "## 3. Testing" checklist to a tasks template unless the
// template already has that heading. The checklist points at the test cards when evidence
// artifacts are installed, and at the test plan otherwise.
func EnsureTestingSection(tasks, evidenceDir string, withEvidence bool) (string, bool) {
	s := schemaedit.NormalizeNewlines(tasks)
	if testingHeadingRe.MatchString(s) {
		return s, false
	}

	first := fmt.Sprintf("Implement tests based on %s/test_plan.md (offline + deterministic)", evidenceDir)
	if withEvidence {
		first = fmt.Sprintf("Implement tests from %s/test_cards.md (offline + deterministic)", evidenceDir)
	}
	section := strings.Join([]string{
		"",
		"",
		"## 3. Testing",
		"",
		"- [ ] 3.1 " + first,
		"- [ ] 3.2 Add/Update fixtures & mocks (no external network)",
		"- [ ] 3.3 Run TEST_CMD and capture coverage before/after evidence",
		"",
	}, "\n")
	return strings.TrimRightFunc(s, unicode.IsSpace) + section, true
}
