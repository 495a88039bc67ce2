package ontology

import "fmt"

// Edge is a resolved, validated Relationship: its Verb has been looked up
// and its endpoints are known to reference declared ArtifactTypes.
type Edge struct {
	ID       string // "<source>/<verb>/<target>", stable and lexically sortable
	Source   ArtifactType
	Target   ArtifactType
	Verb     Verb
	Loop     *LoopPolicy    // resolved: edge.Type.Loop if set, else Verb.Loop
	Model    *ModelOverride // resolved: Verb.Model (relationships carry no per-edge override)
	Prompt   string
}

// Graph is the typed, indexed in-memory form of an ontology Document,
// produced by Load after all five validation steps have passed.
type Graph struct {
	name          string
	artifactTypes map[string]ArtifactType
	verbs         map[string]Verb
	edges         []Edge

	outgoingBySource   map[string][]Edge
	outgoingByVerbType map[VerbType][]Edge
	reverseByTarget    map[string][]Edge

	root string
}

// Name returns the ontology's identifying name (the name passed to
// LoadBytes; for Load, the file path as given).
func (g *Graph) Name() string { return g.name }

// ArtifactType looks up a declared artifact type by id.
func (g *Graph) ArtifactType(id string) (ArtifactType, bool) {
	a, ok := g.artifactTypes[id]
	return a, ok
}

// ArtifactTypes returns every declared artifact type.
func (g *Graph) ArtifactTypes() []ArtifactType {
	out := make([]ArtifactType, 0, len(g.artifactTypes))
	for _, a := range g.artifactTypes {
		out = append(out, a)
	}
	return out
}

// Edges returns every edge in the graph, in ontology definition order.
func (g *Graph) Edges() []Edge { return g.edges }

// EdgesFrom returns edges whose source is the given artifact type id, in
// definition order.
func (g *Graph) EdgesFrom(sourceID string) []Edge { return g.outgoingBySource[sourceID] }

// EdgesByVerbType returns edges whose verb has the given VerbType, in
// definition order.
func (g *Graph) EdgesByVerbType(vt VerbType) []Edge { return g.outgoingByVerbType[vt] }

// EdgesTo returns edges whose target is the given artifact type id, in
// definition order.
func (g *Graph) EdgesTo(targetID string) []Edge { return g.reverseByTarget[targetID] }

// Root returns the id of the SoftwareApplication root kind.
func (g *Graph) Root() string { return g.root }

// build assembles a Graph from a validated Document. Callers must have
// already run the five-step validation in Load; build only re-derives the
// adjacency indices and resolves each Relationship into an Edge.
func build(name string, doc *Document) (*Graph, error) {
	g := &Graph{
		name:               name,
		artifactTypes:      make(map[string]ArtifactType, len(doc.ArtifactTypes)),
		verbs:              make(map[string]Verb, len(doc.Verbs)),
		outgoingBySource:   make(map[string][]Edge),
		outgoingByVerbType: make(map[VerbType][]Edge),
		reverseByTarget:    make(map[string][]Edge),
		root:               RootKind,
	}

	for _, a := range doc.ArtifactTypes {
		g.artifactTypes[a.ID] = a
	}
	for _, v := range doc.Verbs {
		g.verbs[v.ID] = v
	}

	for _, rel := range doc.Relationships {
		src, ok := g.artifactTypes[rel.Source.Name]
		if !ok {
			return nil, &InvalidError{Reason: fmt.Sprintf("relationship source %q is not a declared artifact type", rel.Source.Name)}
		}
		tgt, ok := g.artifactTypes[rel.Target.Name]
		if !ok {
			return nil, &InvalidError{Reason: fmt.Sprintf("relationship target %q is not a declared artifact type", rel.Target.Name)}
		}
		verb, ok := g.verbs[rel.Type.Name]
		if !ok {
			return nil, &InvalidError{Reason: fmt.Sprintf("relationship verb %q is not a declared verb", rel.Type.Name)}
		}

		loop := verb.Loop
		if rel.Type.Loop != nil {
			loop = rel.Type.Loop
		}

		e := Edge{
			ID:     src.ID + "/" + verb.ID + "/" + tgt.ID,
			Source: src,
			Target: tgt,
			Verb:   verb,
			Loop:   loop,
			Model:  verb.Model,
			Prompt: rel.Prompt,
		}

		g.edges = append(g.edges, e)
		g.outgoingBySource[src.ID] = append(g.outgoingBySource[src.ID], e)
		g.outgoingByVerbType[verb.VerbType] = append(g.outgoingByVerbType[verb.VerbType], e)
		g.reverseByTarget[tgt.ID] = append(g.reverseByTarget[tgt.ID], e)
	}

	return g, nil
}
