package schemaedit

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

var (
	// ErrNotMapping is returned by Verify when the document root is not a mapping.
	ErrNotMapping = errors.New("schemaedit: top-level YAML is not a mapping")
	// ErrDuplicateKey is returned by Verify when a top-level key appears twice. yaml.v3 only
	// rejects duplicates when decoding into Go values, not into a Node tree.
	ErrDuplicateKey = errors.New("schemaedit: duplicate top-level key")
)

// Artifact is one entry of the artifacts list as seen by a real YAML parser.
type Artifact struct {
	ID       string
	Requires []string
	Line     int
}

// Report summarizes the artifacts list of a parsed schema document.
type Report struct {
	Artifacts  []Artifact
	Duplicates []string
}

// Has reports whether an artifact with the given id exists.
func (r Report) Has(id string) bool {
	_, ok := r.find(id)
	return ok
}

// Requires returns the requires list of the first artifact with the given id.
func (r Report) Requires(id string) []string {
	a, _ := r.find(id)
	return a.Requires
}

func (r Report) find(id string) (Artifact, bool) {
	for _, a := range r.Artifacts {
		if a.ID == id {
			return a, true
		}
	}
	return Artifact{}, false
}

// Verify parses doc with yaml.v3 and collects the artifacts list. The patchers never parse;
// this is the check callers run on their output before persisting it.
func Verify(doc string) (Report, error) {
	var root yaml.Node
	if err := yaml.Unmarshal([]byte(NormalizeNewlines(doc)), &root); err != nil {
		return Report{}, fmt.Errorf("schemaedit: failed to parse YAML: %w", err)
	}
	if root.Kind == 0 || (root.Kind == yaml.DocumentNode && len(root.Content) == 0) {
		// empty document
		return Report{}, nil
	}
	if root.Kind != yaml.DocumentNode || root.Content[0].Kind != yaml.MappingNode {
		return Report{}, ErrNotMapping
	}

	var rep Report
	top := root.Content[0]
	keys := map[string]int{}
	for i := 0; i+1 < len(top.Content); i += 2 {
		k := top.Content[i]
		if first, ok := keys[k.Value]; ok {
			return Report{}, fmt.Errorf("%w %q on line %d (first on line %d)", ErrDuplicateKey, k.Value, k.Line, first)
		}
		keys[k.Value] = k.Line
	}
	for i := 0; i+1 < len(top.Content); i += 2 {
		if top.Content[i].Value != ArtifactsKey {
			continue
		}
		seq := top.Content[i+1]
		if seq.Kind != yaml.SequenceNode {
			continue
		}
		seen := map[string]bool{}
		for _, item := range seq.Content {
			a, ok := artifactFromNode(item)
			if !ok {
				continue
			}
			if seen[a.ID] {
				rep.Duplicates = append(rep.Duplicates, a.ID)
			}
			seen[a.ID] = true
			rep.Artifacts = append(rep.Artifacts, a)
		}
	}
	return rep, nil
}

func artifactFromNode(n *yaml.Node) (Artifact, bool) {
	if n.Kind != yaml.MappingNode {
		return Artifact{}, false
	}
	a := Artifact{Line: n.Line}
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i], n.Content[i+1]
		switch k.Value {
		case "id":
			a.ID = v.Value
		case RequiresField:
			if v.Kind != yaml.SequenceNode {
				continue
			}
			for _, req := range v.Content {
				if req.Kind == yaml.ScalarNode {
					a.Requires = append(a.Requires, req.Value)
				}
			}
		}
	}
	return a, a.ID != ""
}
