// Package ontology loads and validates the declarative knowledge graph that
// drives the engine: artifact types (nouns), verbs (relationship labels),
// and the relationships (edges) connecting them.
package ontology

import "encoding/json"

// Category classifies an ArtifactType. Agent kinds are actors, not
// artifacts, and never carry persisted instances.
type Category string

const (
	CategoryAgent    Category = "Agent"
	CategoryDocument Category = "Document"
	CategoryCode     Category = "Code"
	CategoryOther    Category = "Other"
)

// VerbType classifies a Verb and gates which scheduling rule applies to
// edges labeled with it.
type VerbType string

const (
	VerbCreation     VerbType = "Creation"
	VerbVerification VerbType = "Verification"
	VerbRefinement   VerbType = "Refinement"
	VerbContext      VerbType = "Context"
	VerbDependency   VerbType = "Dependency"
)

// QualityMetric names a single scored check against an artifact, with a
// target score on the 0..100 scale used in ontology documents (when an
// edge's loop has no passThreshold, the engine averages the targets and
// normalizes the result to 0..1 to use as the threshold).
type QualityMetric struct {
	Name   string  `json:"name"`
	Target float64 `json:"target"`
}

// ArtifactType is a node class in the ontology: either an Agent (an actor)
// or a non-Agent artifact kind that can have persisted instances.
type ArtifactType struct {
	ID             string          `json:"id"`
	Category       Category        `json:"category"`
	Schema         json.RawMessage `json:"schema,omitempty"`
	QualityMetrics []QualityMetric `json:"qualityMetrics,omitempty"`
}

// LoopPolicy bounds a Verification/Refinement edge's retry behavior.
type LoopPolicy struct {
	MaxRetries    int     `json:"maxRetries,omitempty"`
	PassThreshold float64 `json:"passThreshold,omitempty"`
}

// ModelOverride selects which external AI CLI tool and model an edge's
// agent dispatch should use, overriding the run's default.
type ModelOverride struct {
	Tool  string `json:"tool"`
	Model string `json:"model"`
}

// Verb is an edge label, typed by VerbType, with an optional loop policy
// and model override that apply to every edge using this verb. An edge's
// inline Relationship.Type.Loop replaces the loop policy; the model
// override cannot be replaced per edge.
type Verb struct {
	ID       string         `json:"id"`
	VerbType VerbType       `json:"verbType"`
	Loop     *LoopPolicy    `json:"loop,omitempty"`
	Model    *ModelOverride `json:"model,omitempty"`
}

// NodeRef names one endpoint of a Relationship.
type NodeRef struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// RelationType is the inline verb reference carried by a Relationship, per
// the ontology file's wire format. Name must resolve to a declared Verb;
// VerbType, if present, must agree with that Verb's declaration; Loop, if
// present, overrides the Verb's loop policy for this edge.
type RelationType struct {
	Name     string      `json:"name"`
	VerbType VerbType    `json:"verbType,omitempty"`
	Loop     *LoopPolicy `json:"loop,omitempty"`
}

// Relationship is an edge: (source, verb, target) plus an optional
// natural-language prompt template reference.
type Relationship struct {
	Source NodeRef      `json:"source"`
	Target NodeRef      `json:"target"`
	Type   RelationType `json:"type"`
	Prompt string       `json:"prompt,omitempty"`
}

// Document is the raw, unvalidated ontology file contents: artifact types,
// verbs, and relationships.
type Document struct {
	ArtifactTypes []ArtifactType `json:"artifactTypes"`
	Verbs         []Verb         `json:"verbs"`
	Relationships []Relationship `json:"relationships"`
}

// RootKind is the artifact type that seeds every iteration's produced set
// and must have no incoming Dependency edge.
const RootKind = "SoftwareApplication"
