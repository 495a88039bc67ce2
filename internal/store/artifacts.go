package store

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/dpopsuev/icl/pkg/ontology"
)

// ErrSchemaViolation wraps a payload that failed its artifact type's JSON
// schema (spec.md §7's SchemaViolation).
var ErrSchemaViolation = errors.New("store: schema violation")

// SchemaViolationError carries the jsonschema validation detail.
type SchemaViolationError struct {
	ArtifactTypeID string
	Err            error
}

func (e *SchemaViolationError) Error() string {
	return fmt.Sprintf("store: schema violation for %s: %v", e.ArtifactTypeID, e.Err)
}

func (e *SchemaViolationError) Unwrap() error { return ErrSchemaViolation }

// Artifact is a read accessor's view of a persisted instance, matching
// spec.md §3's ArtifactInstance tuple.
type Artifact struct {
	ID               int64
	IterationID      string
	ArtifactTypeID   string
	Payload          json.RawMessage
	ProducedByEdgeID string
	RetryCount       int
	QualityScore     sql.NullFloat64
	IsCurrent        bool
	CreatedAt        string
}

// ValidateAgainstSchema compiles kind.Schema (if present) and validates
// payload against it, returning a *SchemaViolationError on failure. A kind
// with no schema always validates.
func ValidateAgainstSchema(kind ontology.ArtifactType, payload json.RawMessage) error {
	if len(kind.Schema) == 0 {
		return nil
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(kind.Schema))
	if err != nil {
		return fmt.Errorf("compile schema for %s: %w", kind.ID, err)
	}
	c := jsonschema.NewCompiler()
	resourceID := "artifact://" + kind.ID
	if err := c.AddResource(resourceID, doc); err != nil {
		return fmt.Errorf("compile schema for %s: %w", kind.ID, err)
	}
	sch, err := c.Compile(resourceID)
	if err != nil {
		return fmt.Errorf("compile schema for %s: %w", kind.ID, err)
	}

	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(payload))
	if err != nil {
		return &SchemaViolationError{ArtifactTypeID: kind.ID, Err: err}
	}
	if err := sch.Validate(inst); err != nil {
		return &SchemaViolationError{ArtifactTypeID: kind.ID, Err: err}
	}
	return nil
}

// PersistArtifact implements C5's write path for a Creation or Refinement
// edge: validate against kind's schema (the caller already did, but this
// is the single choke point the Store itself enforces), insert a new row,
// and flip the previous current instance to history inside one
// transaction — "uniqueness: at most one current instance per
// (iterationId, artifactTypeId)" from spec.md §3.
func (s *Store) PersistArtifact(iterationID string, kind ontology.ArtifactType, payload json.RawMessage, producedByEdgeID string, retryCount int) (int64, error) {
	if err := ValidateAgainstSchema(kind, payload); err != nil {
		return 0, err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin persist tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(
		`UPDATE artifacts SET is_current = 0 WHERE iteration_id = ? AND artifact_type_id = ? AND is_current = 1`,
		iterationID, kind.ID,
	); err != nil {
		return 0, fmt.Errorf("demote prior instance: %w", err)
	}

	res, err := tx.Exec(
		`INSERT INTO artifacts(iteration_id, artifact_type_id, payload, produced_by_edge_id, retry_count, is_current, created_at)
		 VALUES(?, ?, ?, ?, ?, 1, ?)`,
		iterationID, kind.ID, string(payload), producedByEdgeID, retryCount, nowUTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("insert artifact: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit persist tx: %w", err)
	}
	return id, nil
}

// RecordQualityScore sets the quality score on the current instance of
// artifactTypeID — the outcome of a Verification edge, applied separately
// from PersistArtifact because Verification never writes a new artifact
// row (spec.md §4.5 step 3: "on Verification, if reported score ≥
// threshold, add T to verified").
func (s *Store) RecordQualityScore(iterationID, artifactTypeID string, score float64) error {
	_, err := s.db.Exec(
		`UPDATE artifacts SET quality_score = ? WHERE iteration_id = ? AND artifact_type_id = ? AND is_current = 1`,
		score, iterationID, artifactTypeID,
	)
	if err != nil {
		return fmt.Errorf("record quality score: %w", err)
	}
	return nil
}

// CurrentInstance returns the current instance of artifactTypeID for
// iterationID, or nil if none exists — the Assembler's read accessor for
// injecting context-block payloads.
func (s *Store) CurrentInstance(iterationID, artifactTypeID string) (*Artifact, error) {
	var a Artifact
	var payload string
	err := s.db.QueryRow(
		`SELECT id, iteration_id, artifact_type_id, payload, produced_by_edge_id, retry_count, quality_score, created_at
		 FROM artifacts WHERE iteration_id = ? AND artifact_type_id = ? AND is_current = 1`,
		iterationID, artifactTypeID,
	).Scan(&a.ID, &a.IterationID, &a.ArtifactTypeID, &payload, &a.ProducedByEdgeID, &a.RetryCount, &a.QualityScore, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("current instance: %w", err)
	}
	a.Payload = json.RawMessage(payload)
	a.IsCurrent = true
	return &a, nil
}

// History returns every instance ever persisted for artifactTypeID,
// oldest first, including the current one.
func (s *Store) History(iterationID, artifactTypeID string) ([]*Artifact, error) {
	rows, err := s.db.Query(
		`SELECT id, iteration_id, artifact_type_id, payload, produced_by_edge_id, retry_count, quality_score, is_current, created_at
		 FROM artifacts WHERE iteration_id = ? AND artifact_type_id = ? ORDER BY id`,
		iterationID, artifactTypeID,
	)
	if err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}
	defer rows.Close()

	var out []*Artifact
	for rows.Next() {
		a := &Artifact{}
		var payload string
		var isCurrent int
		if err := rows.Scan(&a.ID, &a.IterationID, &a.ArtifactTypeID, &payload, &a.ProducedByEdgeID, &a.RetryCount, &a.QualityScore, &isCurrent, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		a.Payload = json.RawMessage(payload)
		a.IsCurrent = isCurrent != 0
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return out, nil
}
