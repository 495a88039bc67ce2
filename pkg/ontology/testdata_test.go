package ontology

// minimalOntologyJSON mirrors scenario S1 from the spec's boundary
// scenarios: Architect creates DesignSpec, Engineer creates Code, and Code
// depends on DesignSpec.
const minimalOntologyJSON = `{
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

// verificationOntologyJSON adds scenario S2/S3's QA verifies Code and
// Engineer refines Code edges on top of the minimal ontology.
const verificationOntologyJSON = `{
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
