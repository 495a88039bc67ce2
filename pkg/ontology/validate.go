package ontology

import "fmt"

// validateSemantics checks referential integrity before the graph is
// built: every relationship's endpoints and verb must be declared.
func validateSemantics(doc *Document) error {
	artifactIDs := make(map[string]bool, len(doc.ArtifactTypes))
	for _, a := range doc.ArtifactTypes {
		if a.ID == "" {
			return &InvalidError{Reason: "artifact type with empty id"}
		}
		if artifactIDs[a.ID] {
			return &InvalidError{Reason: fmt.Sprintf("duplicate artifact type id %q", a.ID)}
		}
		artifactIDs[a.ID] = true
	}

	verbIDs := make(map[string]Verb, len(doc.Verbs))
	for _, v := range doc.Verbs {
		if v.ID == "" {
			return &InvalidError{Reason: "verb with empty id"}
		}
		if _, dup := verbIDs[v.ID]; dup {
			return &InvalidError{Reason: fmt.Sprintf("duplicate verb id %q", v.ID)}
		}
		verbIDs[v.ID] = v
	}

	for i, rel := range doc.Relationships {
		if !artifactIDs[rel.Source.Name] {
			return &InvalidError{Reason: fmt.Sprintf("relationship[%d]: source %q is not a declared artifact type", i, rel.Source.Name)}
		}
		if !artifactIDs[rel.Target.Name] {
			return &InvalidError{Reason: fmt.Sprintf("relationship[%d]: target %q is not a declared artifact type", i, rel.Target.Name)}
		}
		verb, ok := verbIDs[rel.Type.Name]
		if !ok {
			return &InvalidError{Reason: fmt.Sprintf("relationship[%d]: verb %q is not declared", i, rel.Type.Name)}
		}
		if rel.Type.VerbType != "" && rel.Type.VerbType != verb.VerbType {
			return &InvalidError{Reason: fmt.Sprintf("relationship[%d]: verbType %q contradicts verb %q's declared verbType %q", i, rel.Type.VerbType, verb.ID, verb.VerbType)}
		}
	}

	return nil
}

// validateSourceKinds enforces: the source of a Creation, Verification, or
// Refinement edge must be an Agent kind; its target must be a non-Agent
// artifact kind.
func validateSourceKinds(g *Graph) error {
	for _, e := range g.edges {
		switch e.Verb.VerbType {
		case VerbCreation, VerbVerification, VerbRefinement:
			if e.Source.Category != CategoryAgent {
				return &InvalidError{Reason: fmt.Sprintf("edge %s: source %q must be an Agent kind for verbType %q", e.ID, e.Source.ID, e.Verb.VerbType)}
			}
			if e.Target.Category == CategoryAgent {
				return &InvalidError{Reason: fmt.Sprintf("edge %s: target %q must not be an Agent kind for verbType %q", e.ID, e.Target.ID, e.Verb.VerbType)}
			}
		}
	}
	return nil
}

// validateDependencyEndpoints enforces: Dependency edges connect two
// non-Agent kinds ("target requires source").
func validateDependencyEndpoints(g *Graph) error {
	for _, e := range g.edges {
		if e.Verb.VerbType != VerbDependency {
			continue
		}
		if e.Source.Category == CategoryAgent || e.Target.Category == CategoryAgent {
			return &InvalidError{Reason: fmt.Sprintf("edge %s: Dependency edges must connect two non-Agent kinds", e.ID)}
		}
	}
	return nil
}

// validateRoot enforces: exactly one SoftwareApplication root kind exists
// and it has no incoming Dependency edge.
func validateRoot(g *Graph) error {
	root, ok := g.artifactTypes[RootKind]
	if !ok {
		return &InvalidError{Reason: fmt.Sprintf("no root kind %q declared", RootKind)}
	}
	if root.Category == CategoryAgent {
		return &InvalidError{Reason: fmt.Sprintf("root kind %q must not be an Agent kind", RootKind)}
	}
	for _, e := range g.reverseByTarget[RootKind] {
		if e.Verb.VerbType == VerbDependency {
			return &InvalidError{Reason: fmt.Sprintf("root kind %q must have no incoming Dependency edge (found %s)", RootKind, e.ID)}
		}
	}
	return nil
}
