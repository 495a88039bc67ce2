package engine

import (
	"testing"

	"github.com/dpopsuev/icl/pkg/ontology"
)

const s1OntologyJSON = `{
	"artifactTypes": [
		{"id": "SoftwareApplication", "category": "Other"},
		{"id": "Architect", "category": "Agent"},
		{"id": "Engineer", "category": "Agent"},
		{"id": "DesignSpec", "category": "Document"},
		{"id": "Code", "category": "Code"}
	],
	"verbs": [
		{"id": "creates", "verbType": "Creation"},
		{"id": "requires", "verbType": "Dependency"}
	],
	"relationships": [
		{"source": {"name": "Architect", "type": "Agent"}, "target": {"name": "DesignSpec", "type": "Document"}, "type": {"name": "creates"}},
		{"source": {"name": "Engineer", "type": "Agent"}, "target": {"name": "Code", "type": "Code"}, "type": {"name": "creates"}},
		{"source": {"name": "DesignSpec", "type": "Document"}, "target": {"name": "Code", "type": "Code"}, "type": {"name": "requires"}}
	]
}`

const s2OntologyJSON = `{
	"artifactTypes": [
		{"id": "SoftwareApplication", "category": "Other"},
		{"id": "Architect", "category": "Agent"},
		{"id": "Engineer", "category": "Agent"},
		{"id": "QA", "category": "Agent"},
		{"id": "DesignSpec", "category": "Document"},
		{"id": "Code", "category": "Code"}
	],
	"verbs": [
		{"id": "creates", "verbType": "Creation"},
		{"id": "requires", "verbType": "Dependency"},
		{"id": "verifies", "verbType": "Verification", "loop": {"passThreshold": 0.9}},
		{"id": "refines", "verbType": "Refinement", "loop": {"maxRetries": 2, "passThreshold": 0.9}}
	],
	"relationships": [
		{"source": {"name": "Architect", "type": "Agent"}, "target": {"name": "DesignSpec", "type": "Document"}, "type": {"name": "creates"}},
		{"source": {"name": "Engineer", "type": "Agent"}, "target": {"name": "Code", "type": "Code"}, "type": {"name": "creates"}},
		{"source": {"name": "DesignSpec", "type": "Document"}, "target": {"name": "Code", "type": "Code"}, "type": {"name": "requires"}},
		{"source": {"name": "QA", "type": "Agent"}, "target": {"name": "Code", "type": "Code"}, "type": {"name": "verifies"}},
		{"source": {"name": "Engineer", "type": "Agent"}, "target": {"name": "Code", "type": "Code"}, "type": {"name": "refines"}}
	]
}`

// s5OntologyJSON is scenario S5: Code depends on DesignSpec, but no edge
// creates DesignSpec — it can never enter produced, so Code is also
// permanently unreachable.
const s5OntologyJSON = `{
	"artifactTypes": [
		{"id": "SoftwareApplication", "category": "Other"},
		{"id": "Engineer", "category": "Agent"},
		{"id": "DesignSpec", "category": "Document"},
		{"id": "Code", "category": "Code"}
	],
	"verbs": [
		{"id": "creates", "verbType": "Creation"},
		{"id": "requires", "verbType": "Dependency"}
	],
	"relationships": [
		{"source": {"name": "Engineer", "type": "Agent"}, "target": {"name": "Code", "type": "Code"}, "type": {"name": "creates"}},
		{"source": {"name": "DesignSpec", "type": "Document"}, "target": {"name": "Code", "type": "Code"}, "type": {"name": "requires"}}
	]
}`

func mustLoad(t *testing.T, name, raw string) *ontology.Graph {
	t.Helper()
	g, err := ontology.LoadBytes(name, []byte(raw))
	if err != nil {
		t.Fatalf("LoadBytes(%s): %v", name, err)
	}
	return g
}

func TestPlan_S1HappyPath(t *testing.T) {
	g := mustLoad(t, "s1", s1OntologyJSON)
	state := NewWorldState(g.Root())

	action := Plan(g, state)
	if action.Kind != ActionFire {
		t.Fatalf("expected Fire, got %v", action.Kind)
	}
	if action.Edge.ID != "Architect/creates/DesignSpec" {
		t.Fatalf("expected DesignSpec creation first, got %s", action.Edge.ID)
	}

	state.Produced["DesignSpec"] = true
	action = Plan(g, state)
	if action.Kind != ActionFire || action.Edge.ID != "Engineer/creates/Code" {
		t.Fatalf("expected Code creation next, got %+v", action)
	}

	state.Produced["Code"] = true
	action = Plan(g, state)
	if action.Kind != ActionDone {
		t.Fatalf("expected Done, got %+v", action)
	}
}

func TestPlan_IsPureAndDeterministic(t *testing.T) {
	g := mustLoad(t, "s1", s1OntologyJSON)
	state := NewWorldState(g.Root())

	a1 := Plan(g, state)
	a2 := Plan(g, state)
	if a1.Kind != a2.Kind || a1.Edge.ID != a2.Edge.ID {
		t.Fatalf("Plan is not idempotent: %+v != %+v", a1, a2)
	}
	if !state.Produced[g.Root()] || len(state.Produced) != 1 {
		t.Fatalf("Plan mutated world-state: %+v", state)
	}
}

func TestPlan_S2VerificationPasses(t *testing.T) {
	g := mustLoad(t, "s2", s2OntologyJSON)
	state := NewWorldState(g.Root())
	state.Produced["DesignSpec"] = true
	state.Produced["Code"] = true

	action := Plan(g, state)
	if action.Kind != ActionFire || action.Edge.Verb.ID != "verifies" {
		t.Fatalf("expected verifies edge, got %+v", action)
	}

	state.Verified["Code"] = true
	action = Plan(g, state)
	if action.Kind != ActionDone {
		t.Fatalf("expected Done after verification passes, got %+v", action)
	}
}

func TestPlan_S3RefinementLoop(t *testing.T) {
	g := mustLoad(t, "s2", s2OntologyJSON)
	state := NewWorldState(g.Root())
	state.Produced["DesignSpec"] = true
	state.Produced["Code"] = true
	state.Instances["Code"] = InstanceInfo{QualityScore: 0.6, RetryCount: 0}

	action := Plan(g, state)
	if action.Kind != ActionFire || action.Edge.Verb.VerbType != ontology.VerbRefinement {
		t.Fatalf("expected refinement edge while below threshold, got %+v", action)
	}
}

func TestPlan_S5Deadlock(t *testing.T) {
	g := mustLoad(t, "s5", s5OntologyJSON)
	state := NewWorldState(g.Root())

	action := Plan(g, state)
	if action.Kind != ActionDeadlock {
		t.Fatalf("expected Deadlock, got %+v", action)
	}
	if len(action.Unreachable) != 2 || action.Unreachable[0] != "Code" || action.Unreachable[1] != "DesignSpec" {
		t.Fatalf("expected Unreachable=[Code DesignSpec], got %v", action.Unreachable)
	}
}

func TestThreshold_DefaultsToOne(t *testing.T) {
	g := mustLoad(t, "s1", s1OntologyJSON)
	e := g.EdgesTo("Code")[0]
	if got := Threshold(e); got != 1.0 {
		t.Fatalf("expected default threshold 1.0, got %v", got)
	}
}

func TestThreshold_UsesLoopPassThreshold(t *testing.T) {
	g := mustLoad(t, "s2", s2OntologyJSON)
	for _, e := range g.EdgesTo("Code") {
		if e.Verb.VerbType == ontology.VerbVerification {
			if got := Threshold(e); got != 0.9 {
				t.Fatalf("expected 0.9, got %v", got)
			}
			return
		}
	}
	t.Fatal("no verification edge found")
}
