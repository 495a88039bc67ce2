package ontology

// metaTaxonomySchema constrains the fixed verb taxonomy: every verb must
// carry one of the five verbTypes the engine understands. This is the
// "meta taxonomy" that an ontology's own verb vocabulary (the "taxonomy
// instance") is checked against before the ontology document itself is
// validated.
const metaTaxonomySchema = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "array",
	"items": {
		"type": "object",
		"required": ["id", "verbType"],
		"properties": {
			"id": {"type": "string", "minLength": 1},
			"verbType": {"enum": ["Creation", "Verification", "Refinement", "Context", "Dependency"]},
			"loop": {
				"type": "object",
				"properties": {
					"maxRetries": {"type": "integer", "minimum": 0},
					"passThreshold": {"type": "number", "minimum": 0, "maximum": 1}
				}
			},
			"model": {
				"type": "object",
				"required": ["tool", "model"],
				"properties": {
					"tool": {"type": "string"},
					"model": {"type": "string"}
				}
			}
		}
	}
}`

// metaOntologySchema constrains the overall ontology document shape:
// declared artifact types, the verb vocabulary, and the relationships
// (edges) connecting them.
const metaOntologySchema = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"required": ["artifactTypes", "verbs", "relationships"],
	"properties": {
		"artifactTypes": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["id", "category"],
				"properties": {
					"id": {"type": "string", "minLength": 1},
					"category": {"enum": ["Agent", "Document", "Code", "Other"]},
					"schema": {"type": "object"},
					"qualityMetrics": {
						"type": "array",
						"items": {
							"type": "object",
							"required": ["name", "target"],
							"properties": {
								"name": {"type": "string"},
								"target": {"type": "number", "minimum": 0, "maximum": 100}
							}
						}
					}
				}
			}
		},
		"verbs": {"type": "array"},
		"relationships": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["source", "target", "type"],
				"properties": {
					"source": {
						"type": "object",
						"required": ["name", "type"],
						"properties": {
							"name": {"type": "string"},
							"type": {"type": "string"}
						}
					},
					"target": {
						"type": "object",
						"required": ["name", "type"],
						"properties": {
							"name": {"type": "string"},
							"type": {"type": "string"}
						}
					},
					"type": {
						"type": "object",
						"required": ["name"],
						"properties": {
							"name": {"type": "string"},
							"verbType": {"enum": ["Creation", "Verification", "Refinement", "Context", "Dependency"]}
						}
					},
					"prompt": {"type": "string"}
				}
			}
		}
	}
}`
