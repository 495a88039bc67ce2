package ontology

import (
	"errors"
	"testing"
)

func TestTarjanSCC_Acyclic(t *testing.T) {
	nodes := []string{"A", "B", "C"}
	adjacency := map[string][]string{
		"A": {"B"},
		"B": {"C"},
	}
	sccs := tarjanSCC(nodes, adjacency)
	for _, scc := range sccs {
		if len(scc) > 1 {
			t.Errorf("found multi-node SCC %v in an acyclic graph", scc)
		}
	}
}

func TestTarjanSCC_DirectCycle(t *testing.T) {
	nodes := []string{"A", "B"}
	adjacency := map[string][]string{
		"A": {"B"},
		"B": {"A"},
	}
	sccs := tarjanSCC(nodes, adjacency)
	found := false
	for _, scc := range sccs {
		if len(scc) == 2 {
			found = true
		}
	}
	if !found {
		t.Errorf("tarjanSCC(%v) = %v, want one SCC of size 2", adjacency, sccs)
	}
}

func TestTarjanSCC_LongerCycle(t *testing.T) {
	nodes := []string{"A", "B", "C"}
	adjacency := map[string][]string{
		"A": {"B"},
		"B": {"C"},
		"C": {"A"},
	}
	sccs := tarjanSCC(nodes, adjacency)
	found := false
	for _, scc := range sccs {
		if len(scc) == 3 {
			found = true
		}
	}
	if !found {
		t.Errorf("tarjanSCC(%v) = %v, want one SCC of size 3", adjacency, sccs)
	}
}

func TestCheckDependencyAcyclic_SelfEdge(t *testing.T) {
	doc := &Document{
		ArtifactTypes: []ArtifactType{
			{ID: RootKind, Category: CategoryOther},
			{ID: "A", Category: CategoryDocument},
		},
		Verbs: []Verb{{ID: "requires", VerbType: VerbDependency}},
		Relationships: []Relationship{
			{Source: NodeRef{Name: "A", Type: "Document"}, Target: NodeRef{Name: "A", Type: "Document"}, Type: RelationType{Name: "requires"}},
		},
	}
	g, err := build("self-edge", doc)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	err = checkDependencyAcyclic(g)
	if !errors.Is(err, ErrCyclic) {
		t.Fatalf("checkDependencyAcyclic error = %v, want ErrCyclic", err)
	}
}

func TestCheckDependencyAcyclic_NoCycle(t *testing.T) {
	doc := &Document{
		ArtifactTypes: []ArtifactType{
			{ID: RootKind, Category: CategoryOther},
			{ID: "A", Category: CategoryDocument},
			{ID: "B", Category: CategoryDocument},
		},
		Verbs: []Verb{{ID: "requires", VerbType: VerbDependency}},
		Relationships: []Relationship{
			{Source: NodeRef{Name: "A", Type: "Document"}, Target: NodeRef{Name: "B", Type: "Document"}, Type: RelationType{Name: "requires"}},
		},
	}
	g, err := build("no-cycle", doc)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if err := checkDependencyAcyclic(g); err != nil {
		t.Errorf("checkDependencyAcyclic() = %v, want nil", err)
	}
}
