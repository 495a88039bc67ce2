package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/dpopsuev/icl/pkg/engine"
)

// EventKind enumerates the journal entry kinds from spec.md §6. The
// journal treats payloads as opaque bytes; only this package's Replay
// knows how to interpret each kind.
type EventKind string

const (
	EventEdgeStart           EventKind = "EdgeStart"
	EventAgentOutput         EventKind = "AgentOutput"
	EventArtifactPersisted   EventKind = "ArtifactPersisted"
	EventVerified            EventKind = "Verified"
	EventRefinementRun       EventKind = "RefinementRun"
	EventQualityBelowThresh  EventKind = "QualityBelowThreshold"
	EventIterationComplete   EventKind = "IterationComplete"
	EventDeadlock            EventKind = "Deadlock"
	EventAborted             EventKind = "Aborted"
	EventError               EventKind = "Error"
)

// Event is one journal entry: monotonically numbered within an iteration,
// with an opaque JSON payload. Events are append-only and never mutated.
type Event struct {
	IterationID string
	Seq         int64
	Kind        EventKind
	Payload     json.RawMessage
	CreatedAt   string
}

// EdgeStartPayload records which edge is about to run and which attempt
// this is — resume (S6) replays produce a second EdgeStart with a higher
// AttemptNumber for the same edge rather than a new edge id.
type EdgeStartPayload struct {
	EdgeID        string `json:"edgeId"`
	AttemptNumber int    `json:"attemptNumber"`
}

// AgentOutputPayload streams a chunk of a subprocess's stdout/stderr into
// the journal as C4 captures it.
type AgentOutputPayload struct {
	EdgeID string `json:"edgeId"`
	Stream string `json:"stream"` // "stdout" | "stderr"
	Chunk  string `json:"chunk"`
}

// ArtifactPersistedPayload records a Creation or Refinement edge's
// successful result: the new current instance for ArtifactTypeID.
type ArtifactPersistedPayload struct {
	ArtifactTypeID   string          `json:"artifactTypeId"`
	Payload          json.RawMessage `json:"payload"`
	ProducedByEdgeID string          `json:"producedByEdgeId"`
	RetryCount       int             `json:"retryCount"`
}

// VerifiedPayload records a Verification edge's score, whether or not it
// cleared the threshold — QualityBelowThreshold is logged separately when
// it didn't and no Refinement budget remains.
type VerifiedPayload struct {
	ArtifactTypeID string  `json:"artifactTypeId"`
	EdgeID         string  `json:"edgeId"`
	Score          float64 `json:"score"`
	Passed         bool    `json:"passed"`
	Feedback       string  `json:"feedback,omitempty"`
}

// QualityBelowThresholdPayload records a terminal quality failure: the
// artifact's score never cleared threshold and no Refinement budget (or
// edge) remains.
type QualityBelowThresholdPayload struct {
	ArtifactTypeID string  `json:"artifactTypeId"`
	Score          float64 `json:"score"`
	Threshold      float64 `json:"threshold"`
}

// DeadlockPayload records the Scheduler's unreachable-kind report.
type DeadlockPayload struct {
	Unreachable []string `json:"unreachable"`
}

// AbortedPayload records an edge terminated by cancellation or an
// unrecoverable runtime error.
type AbortedPayload struct {
	EdgeID string `json:"edgeId"`
	Reason string `json:"reason"`
}

// ErrorPayload records a journaled error: the failing edge id and the
// attempt count at the time of failure, per spec.md §7's "every error is
// journaled with the failing edge id and attempt count."
type ErrorPayload struct {
	EdgeID  string `json:"edgeId"`
	Kind    string `json:"kind"`
	Attempt int    `json:"attempt"`
	Detail  string `json:"detail"`
}

// Append inserts the next event for iterationID inside a transaction that
// computes the next sequence number, guaranteeing per-iteration monotonic
// ordering even across process restarts (resume, S6).
func (s *Store) Append(iterationID string, kind EventKind, payload any) (Event, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("marshal event payload: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return Event{}, fmt.Errorf("begin append tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var maxSeq sql.NullInt64
	if err := tx.QueryRow("SELECT MAX(seq) FROM events WHERE iteration_id = ?", iterationID).Scan(&maxSeq); err != nil {
		return Event{}, fmt.Errorf("compute next seq: %w", err)
	}
	seq := maxSeq.Int64 + 1

	createdAt := nowUTC()
	if _, err := tx.Exec(
		`INSERT INTO events(iteration_id, seq, kind, payload, created_at) VALUES(?, ?, ?, ?, ?)`,
		iterationID, seq, string(kind), string(body), createdAt,
	); err != nil {
		return Event{}, fmt.Errorf("insert event: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Event{}, fmt.Errorf("commit append tx: %w", err)
	}

	return Event{IterationID: iterationID, Seq: seq, Kind: kind, Payload: body, CreatedAt: createdAt}, nil
}

// Events returns every event for iterationID in ascending seq order — the
// full replay log.
func (s *Store) Events(iterationID string) ([]Event, error) {
	rows, err := s.db.Query(
		`SELECT seq, kind, payload, created_at FROM events WHERE iteration_id = ? ORDER BY seq`,
		iterationID,
	)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		e := Event{IterationID: iterationID}
		var payload string
		if err := rows.Scan(&e.Seq, &e.Kind, &payload, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.Payload = json.RawMessage(payload)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return out, nil
}

// unverifiedQualityScore seeds a freshly-(re)produced instance's quality
// score above any real Verification result (scores are normalized to
// 0..1, spec.md §3): Plan's Refinement firing predicate reads QualityScore
// < threshold, so a sentinel at or above 1.0 reports "not yet verified
// since this instance was produced" without needing a separate flag — the
// same InstanceInfo{QualityScore, RetryCount} shape the Scheduler already
// reasons over, just never stale past the latest ArtifactPersisted.
const unverifiedQualityScore = 1.0

// ReplayWorldState folds iterationID's journal into an engine.WorldState,
// the recovery path spec.md §4.7/§8 requires: "recompute world-state on
// startup" and "world-state is the fold of journal events." rootKind
// seeds the same way a fresh WorldState does.
func (s *Store) ReplayWorldState(iterationID, rootKind string) (engine.WorldState, error) {
	events, err := s.Events(iterationID)
	if err != nil {
		return engine.WorldState{}, err
	}

	state := engine.NewWorldState(rootKind)
	for _, e := range events {
		switch e.Kind {
		case EventArtifactPersisted:
			var p ArtifactPersistedPayload
			if err := json.Unmarshal(e.Payload, &p); err != nil {
				return engine.WorldState{}, fmt.Errorf("replay seq %d: %w", e.Seq, err)
			}
			state.Produced[p.ArtifactTypeID] = true
			// A new instance supersedes any Verification score recorded
			// against the previous one — clear the pending-refinement signal
			// (and any stale feedback) so the next Plan call routes back to
			// Verification instead of re-selecting Refinement against a
			// quality score that no longer describes the current instance.
			state.Instances[p.ArtifactTypeID] = engine.InstanceInfo{
				QualityScore: unverifiedQualityScore,
				RetryCount:   p.RetryCount,
			}
		case EventVerified:
			var p VerifiedPayload
			if err := json.Unmarshal(e.Payload, &p); err != nil {
				return engine.WorldState{}, fmt.Errorf("replay seq %d: %w", e.Seq, err)
			}
			info := state.Instances[p.ArtifactTypeID]
			info.QualityScore = p.Score
			info.Feedback = p.Feedback
			state.Instances[p.ArtifactTypeID] = info
			if p.Passed {
				state.Verified[p.ArtifactTypeID] = true
			}
		}
	}
	return state, nil
}

// LastAttempt returns the highest AttemptNumber journaled for edgeID in
// iterationID, or 0 if the edge has never started — resume (S6) uses this
// to number the next EdgeStart.
func (s *Store) LastAttempt(iterationID, edgeID string) (int, error) {
	events, err := s.Events(iterationID)
	if err != nil {
		return 0, err
	}
	max := 0
	for _, e := range events {
		if e.Kind != EventEdgeStart {
			continue
		}
		var p EdgeStartPayload
		if err := json.Unmarshal(e.Payload, &p); err != nil {
			return 0, fmt.Errorf("decode EdgeStart seq %d: %w", e.Seq, err)
		}
		if p.EdgeID == edgeID && p.AttemptNumber > max {
			max = p.AttemptNumber
		}
	}
	return max, nil
}
