package store

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/dpopsuev/icl/pkg/ontology"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "journal.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestAppend_MonotonicPerIteration(t *testing.T) {
	s := openTestStore(t)

	e1, err := s.Append("it1", EventEdgeStart, EdgeStartPayload{EdgeID: "a/creates/b", AttemptNumber: 1})
	if err != nil {
		t.Fatalf("Append 1: %v", err)
	}
	e2, err := s.Append("it1", EventArtifactPersisted, ArtifactPersistedPayload{ArtifactTypeID: "b"})
	if err != nil {
		t.Fatalf("Append 2: %v", err)
	}
	e3, err := s.Append("it2", EventEdgeStart, EdgeStartPayload{EdgeID: "x/creates/y", AttemptNumber: 1})
	if err != nil {
		t.Fatalf("Append 3 (different iteration): %v", err)
	}

	if e1.Seq != 1 || e2.Seq != 2 {
		t.Fatalf("expected seq 1,2 for it1, got %d,%d", e1.Seq, e2.Seq)
	}
	if e3.Seq != 1 {
		t.Fatalf("expected a fresh sequence for it2, got %d", e3.Seq)
	}
}

func TestReplayWorldState_FoldsArtifactsAndVerification(t *testing.T) {
	s := openTestStore(t)
	it := "it1"

	if _, err := s.Append(it, EventArtifactPersisted, ArtifactPersistedPayload{ArtifactTypeID: "DesignSpec", RetryCount: 0}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if _, err := s.Append(it, EventArtifactPersisted, ArtifactPersistedPayload{ArtifactTypeID: "Code", RetryCount: 0}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if _, err := s.Append(it, EventVerified, VerifiedPayload{ArtifactTypeID: "Code", Score: 0.95, Passed: true}); err != nil {
		t.Fatalf("append: %v", err)
	}

	state, err := s.ReplayWorldState(it, "SoftwareApplication")
	if err != nil {
		t.Fatalf("ReplayWorldState: %v", err)
	}
	if !state.Produced["DesignSpec"] || !state.Produced["Code"] || !state.Produced["SoftwareApplication"] {
		t.Fatalf("expected all three produced, got %+v", state.Produced)
	}
	if !state.Verified["Code"] {
		t.Fatalf("expected Code verified, got %+v", state.Verified)
	}
	if state.Instances["Code"].QualityScore != 0.95 {
		t.Fatalf("expected quality score 0.95, got %+v", state.Instances["Code"])
	}
}

func TestReplayWorldState_IsIdempotentNoOpAppend(t *testing.T) {
	s := openTestStore(t)
	it := "it1"

	if _, err := s.Append(it, EventArtifactPersisted, ArtifactPersistedPayload{ArtifactTypeID: "Code"}); err != nil {
		t.Fatalf("append: %v", err)
	}
	before, err := s.ReplayWorldState(it, "SoftwareApplication")
	if err != nil {
		t.Fatalf("replay: %v", err)
	}

	// Appending a redundant no-op event after replay must still extend the
	// sequence by exactly one — the round-trip law from spec.md §8.
	e, err := s.Append(it, EventArtifactPersisted, ArtifactPersistedPayload{ArtifactTypeID: "Code"})
	if err != nil {
		t.Fatalf("append redundant: %v", err)
	}
	if e.Seq != 2 {
		t.Fatalf("expected seq 2 for the redundant append, got %d", e.Seq)
	}

	after, err := s.ReplayWorldState(it, "SoftwareApplication")
	if err != nil {
		t.Fatalf("replay after: %v", err)
	}
	if !before.Produced["Code"] || !after.Produced["Code"] {
		t.Fatalf("expected Code produced before and after: %+v %+v", before, after)
	}
}

func TestPersistArtifact_SchemaViolation(t *testing.T) {
	s := openTestStore(t)
	kind := ontology.ArtifactType{
		ID:       "Code",
		Category: ontology.CategoryCode,
		Schema:   json.RawMessage(`{"type":"object","required":["kind","score"],"properties":{"score":{"type":"number"}}}`),
	}

	_, err := s.PersistArtifact("it1", kind, json.RawMessage(`{"kind":"Code"}`), "Engineer/creates/Code", 0)
	if err == nil {
		t.Fatal("expected schema violation for missing score field")
	}
	var svErr *SchemaViolationError
	if !asSchemaViolation(err, &svErr) {
		t.Fatalf("expected *SchemaViolationError, got %T: %v", err, err)
	}
}

func asSchemaViolation(err error, target **SchemaViolationError) bool {
	if sv, ok := err.(*SchemaViolationError); ok {
		*target = sv
		return true
	}
	return false
}

func TestPersistArtifact_DemotesPriorCurrent(t *testing.T) {
	s := openTestStore(t)
	kind := ontology.ArtifactType{ID: "Code", Category: ontology.CategoryCode}

	if _, err := s.PersistArtifact("it1", kind, json.RawMessage(`{"kind":"Code","v":1}`), "Engineer/creates/Code", 0); err != nil {
		t.Fatalf("persist 1: %v", err)
	}
	if _, err := s.PersistArtifact("it1", kind, json.RawMessage(`{"kind":"Code","v":2}`), "Engineer/refines/Code", 1); err != nil {
		t.Fatalf("persist 2: %v", err)
	}

	cur, err := s.CurrentInstance("it1", "Code")
	if err != nil {
		t.Fatalf("CurrentInstance: %v", err)
	}
	if cur == nil || cur.RetryCount != 1 {
		t.Fatalf("expected current instance with retryCount 1, got %+v", cur)
	}

	hist, err := s.History("it1", "Code")
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(hist) != 2 || hist[0].IsCurrent {
		t.Fatalf("expected 2 history rows with the first demoted, got %+v", hist)
	}
}
