package ontology

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// compileSchema compiles a schema document given as a raw JSON string under
// a synthetic resource id, for validating against an in-memory instance.
func compileSchema(id, schemaJSON string) (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader([]byte(schemaJSON)))
	if err != nil {
		return nil, fmt.Errorf("compile meta-schema %s: %w", id, err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(id, doc); err != nil {
		return nil, fmt.Errorf("compile meta-schema %s: %w", id, err)
	}
	sch, err := c.Compile(id)
	if err != nil {
		return nil, fmt.Errorf("compile meta-schema %s: %w", id, err)
	}
	return sch, nil
}

// Load reads the ontology document at path, validates it through the five
// steps specified for C1, and returns the typed in-memory graph.
//
// Validation order: (a) JSON syntactic parse; (b) the two meta-schemas
// compile; (c) the ontology's verb vocabulary validates against the meta
// taxonomy; (d) the full ontology document validates against the ontology
// meta-schema; (e) semantic checks (endpoints exist, verb references
// exist, source-kind rules, Dependency acyclicity, exactly one root kind).
func Load(path string) (*Graph, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &IOError{Path: path, Err: err}
	}
	return LoadBytes(path, raw)
}

// LoadBytes runs the same five-step validation as Load over in-memory
// bytes, using name (Load passes the file path) to identify the
// resulting graph.
func LoadBytes(name string, raw []byte) (*Graph, error) {
	// (a) JSON syntactic parse.
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, &InvalidError{Reason: "malformed JSON: " + err.Error(), Path: name}
	}

	// (b) compile the two meta-schemas.
	taxonomySchema, err := compileSchema("meta://taxonomy", metaTaxonomySchema)
	if err != nil {
		return nil, err
	}
	ontologySchema, err := compileSchema("meta://ontology", metaOntologySchema)
	if err != nil {
		return nil, err
	}

	// (c) the ontology's verb vocabulary (taxonomy instance) validates
	// against the meta taxonomy.
	verbsInstance, err := jsonschema.UnmarshalJSON(bytes.NewReader(mustRemarshal(doc.Verbs)))
	if err != nil {
		return nil, &InvalidError{Reason: "malformed verbs: " + err.Error(), Path: name}
	}
	if err := taxonomySchema.Validate(verbsInstance); err != nil {
		return nil, &InvalidError{Reason: "verb taxonomy: " + err.Error(), Path: name}
	}

	// (d) the full ontology document validates against the ontology
	// meta-schema.
	docInstance, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, &InvalidError{Reason: "malformed document: " + err.Error(), Path: name}
	}
	if err := ontologySchema.Validate(docInstance); err != nil {
		return nil, &InvalidError{Reason: "ontology document: " + err.Error(), Path: name}
	}

	// (e) semantic checks.
	if err := validateSemantics(&doc); err != nil {
		return nil, err
	}

	g, err := build(name, &doc)
	if err != nil {
		return nil, err
	}

	if err := validateSourceKinds(g); err != nil {
		return nil, err
	}
	if err := validateDependencyEndpoints(g); err != nil {
		return nil, err
	}
	if err := validateRoot(g); err != nil {
		return nil, err
	}
	if err := checkDependencyAcyclic(g); err != nil {
		return nil, err
	}

	return g, nil
}

// mustRemarshal round-trips v through json.Marshal; used to feed typed Go
// values back through jsonschema.UnmarshalJSON, which needs raw bytes to
// preserve JSON Schema's distinction between integers and floats.
func mustRemarshal(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		// v is always one of this package's own types, built from JSON we
		// already parsed successfully — marshal cannot fail here.
		panic(err)
	}
	return b
}
