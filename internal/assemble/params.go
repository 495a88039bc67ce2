// Package assemble implements the Prompt Assembler (C3): it composes an
// edge's persona, its template, a deterministic JSON context block drawn
// from the current world-state, and output-schema instructions into the
// single prompt text handed to the Agent Runtime.
package assemble

import (
	"encoding/json"
	"sort"

	"github.com/dpopsuev/icl/pkg/ontology"
)

// ContextArtifact is one produced artifact's payload as injected into a
// prompt's context block — the Assembler's read accessor never reaches
// into the Store directly, it's handed exactly what CurrentInstance
// returned.
type ContextArtifact struct {
	ArtifactTypeID string          `json:"artifactTypeId"`
	Payload        json.RawMessage `json:"payload"`
}

// Params is the struct text/template substitutes into an edge's template
// file, grouped the way the teacher's TemplateParams groups context by
// concern (envelope, failure, workspace, history, taxonomy...).
type Params struct {
	IterationID string
	EdgeID      string
	SourceKind  string
	TargetKind  string
	VerbID      string
	AttemptNumber int
	Feedback      string // prior Verification feedback, set only on a retry attempt
	Goal          string // the iteration's overall goal, surfaced to every prompt

	Context       []ContextArtifact // sorted by ArtifactTypeID, spec.md §8 determinism
	ContextJSON   string            // pre-marshaled context block for direct template injection
	OutputSchema  string            // pretty-printed JSON schema text for the target kind, if any
}

// SortContext orders a context slice by ArtifactTypeID so repeated
// assembly of the same world-state produces byte-identical prompts.
func SortContext(items []ContextArtifact) []ContextArtifact {
	out := make([]ContextArtifact, len(items))
	copy(out, items)
	sort.Slice(out, func(i, j int) bool { return out[i].ArtifactTypeID < out[j].ArtifactTypeID })
	return out
}

// MarshalContext renders items as a deterministic JSON array for
// inclusion in a prompt body.
func MarshalContext(items []ContextArtifact) (string, error) {
	sorted := SortContext(items)
	body, err := json.MarshalIndent(sorted, "", "  ")
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// RenderOutputSchema pretty-prints kind's JSON schema for embedding in a
// prompt's output-format instructions, reusing the same schema document
// the Store validates against rather than a second renderer.
func RenderOutputSchema(kind ontology.ArtifactType) (string, error) {
	if len(kind.Schema) == 0 {
		return "", nil
	}
	var v any
	if err := json.Unmarshal(kind.Schema, &v); err != nil {
		return "", err
	}
	body, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(body), nil
}
