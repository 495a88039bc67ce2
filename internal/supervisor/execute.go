package supervisor

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/dpopsuev/icl/internal/agentrt"
	"github.com/dpopsuev/icl/internal/assemble"
	"github.com/dpopsuev/icl/internal/store"
	"github.com/dpopsuev/icl/pkg/engine"
	"github.com/dpopsuev/icl/pkg/ontology"
)

// DefaultEdgeTimeout is the per-edge subprocess budget. Every edge uses
// it; there is no per-verb timeout override.
const DefaultEdgeTimeout = 5 * time.Minute

const defaultTemplateBody = `You are {{.SourceKind}}, asked to {{.VerbID}} {{.TargetKind}}.

Goal: {{.Goal}}
{{if .Feedback}}
Feedback from the previous attempt: {{.Feedback}}
{{end}}
Produce your result now.`

// execute runs the Selected → PromptReady → Dispatched → Responded →
// Validated → Persisted → Verified? state machine for one edge,
// returning (exitCode, terminal, err). terminal=true means the Run loop
// must stop and return exitCode/err as the iteration's final outcome;
// terminal=false means the edge completed and the loop should replan.
func (s *Supervisor) execute(ctx context.Context, edge ontology.Edge, state engine.WorldState) (int, bool, error) {
	// Selected.
	if s.firstUseOfVerb(edge.Verb.ID) {
		if !s.Gate(edge.Verb.ID) {
			_, _ = s.Store.Append(s.IterationID, store.EventAborted, store.AbortedPayload{EdgeID: edge.ID, Reason: "approval declined"})
			return ExitAborted, true, nil
		}
	}

	attempt, err := s.Store.LastAttempt(s.IterationID, edge.ID)
	if err != nil {
		return ExitError, true, err
	}
	attempt++

	dispatchID := uuid.New().String()
	s.log.Info("edge start", "edgeId", edge.ID, "attempt", attempt, "dispatchId", dispatchID)
	if _, err := s.Store.Append(s.IterationID, store.EventEdgeStart, store.EdgeStartPayload{EdgeID: edge.ID, AttemptNumber: attempt}); err != nil {
		return ExitError, true, err
	}

	// PromptReady.
	assembled, err := s.assemblePrompt(edge, state, attempt)
	if err != nil {
		return s.journalErrorAndAbort(edge.ID, "PromptAssembly", attempt, err)
	}

	// Dispatched / Responded.
	tool, model := s.resolveDispatch(edge)
	resp, dispatchErr := s.Runtime.Invoke(ctx, assembled.Prompt, agentrt.InvokeOptions{
		AgentID: edge.Source.ID,
		Tool:    tool,
		Model:   model,
		Workdir: s.Workdir,
		Timeout: DefaultEdgeTimeout,
		OnOutput: func(stream, chunk string) {
			_, _ = s.Store.Append(s.IterationID, store.EventAgentOutput, store.AgentOutputPayload{EdgeID: edge.ID, Stream: stream, Chunk: chunk})
		},
	})
	if dispatchErr != nil {
		return s.handleDispatchError(edge, attempt, dispatchErr)
	}

	// Validated / Persisted / Verified?
	switch edge.Verb.VerbType {
	case ontology.VerbVerification:
		return s.finishVerification(edge, resp.JSON, attempt, state)
	default:
		return s.finishCreationOrRefinement(edge, resp.JSON, attempt, state)
	}
}

func (s *Supervisor) assemblePrompt(edge ontology.Edge, state engine.WorldState, attempt int) (assemble.Assembled, error) {
	persona, err := assemble.LoadPersona(s.PersonaDir, edge.Source.ID)
	if err != nil {
		return assemble.Assembled{}, err
	}

	templateBody, err := s.loadTemplate(edge)
	if err != nil {
		return assemble.Assembled{}, err
	}

	contextItems, err := s.buildContext(edge)
	if err != nil {
		return assemble.Assembled{}, err
	}
	contextJSON, err := assemble.MarshalContext(contextItems)
	if err != nil {
		return assemble.Assembled{}, err
	}

	feedback := ""
	if edge.Verb.VerbType == ontology.VerbRefinement {
		feedback = state.Instances[edge.Target.ID].Feedback
	}

	params := &assemble.Params{
		IterationID:   s.IterationID,
		EdgeID:        edge.ID,
		SourceKind:    edge.Source.ID,
		TargetKind:    edge.Target.ID,
		VerbID:        edge.Verb.ID,
		AttemptNumber: attempt,
		Feedback:      feedback,
		Goal:          s.Goal,
		Context:       assemble.SortContext(contextItems),
		ContextJSON:   contextJSON,
	}

	promptDir := filepath.Join(s.Workdir, "prompts")
	return assemble.Assemble(persona.Text, templateBody, params, edge.Target, promptDir)
}

func (s *Supervisor) loadTemplate(edge ontology.Edge) (string, error) {
	path := s.templatePath(edge)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return defaultTemplateBody, nil
	}
	if err != nil {
		return "", fmt.Errorf("supervisor: read template %s: %w", path, err)
	}
	return string(data), nil
}

func (s *Supervisor) templatePath(edge ontology.Edge) string {
	if edge.Prompt != "" {
		return filepath.Join(s.TemplateDir, edge.Prompt)
	}
	return filepath.Join(s.TemplateDir, fmt.Sprintf("%s_%s_%s.md", edge.Source.ID, edge.Verb.ID, edge.Target.ID))
}

// buildContext implements spec.md §4.3's context-block rule: kinds
// reachable from the target via Context in-edges, plus the target's own
// current instance when the edge is Verification or Refinement, plus the
// root instance always.
func (s *Supervisor) buildContext(edge ontology.Edge) ([]assemble.ContextArtifact, error) {
	var items []assemble.ContextArtifact
	seen := map[string]bool{}

	add := func(kindID string) error {
		if seen[kindID] {
			return nil
		}
		seen[kindID] = true
		inst, err := s.Store.CurrentInstance(s.IterationID, kindID)
		if err != nil {
			return err
		}
		if inst == nil {
			return nil
		}
		items = append(items, assemble.ContextArtifact{ArtifactTypeID: kindID, Payload: inst.Payload})
		return nil
	}

	if err := add(ontology.RootKind); err != nil {
		return nil, err
	}
	for _, e := range s.Graph.EdgesTo(edge.Target.ID) {
		if e.Verb.VerbType == ontology.VerbContext {
			if err := add(e.Source.ID); err != nil {
				return nil, err
			}
		}
	}
	if edge.Verb.VerbType == ontology.VerbVerification || edge.Verb.VerbType == ontology.VerbRefinement {
		if err := add(edge.Target.ID); err != nil {
			return nil, err
		}
	}
	return items, nil
}

// resolveDispatch applies the override priority: ontology edge.Model
// first, then config per_verb_model, then config defaults.
func (s *Supervisor) resolveDispatch(edge ontology.Edge) (tool, model string) {
	tool, model = s.Config.ResolveForVerb(edge.Verb.ID)
	if edge.Model != nil {
		if edge.Model.Tool != "" {
			tool = edge.Model.Tool
		}
		if edge.Model.Model != "" {
			model = edge.Model.Model
		}
	}
	return tool, model
}

func (s *Supervisor) journalErrorAndAbort(edgeID, kind string, attempt int, err error) (int, bool, error) {
	_, _ = s.Store.Append(s.IterationID, store.EventError, store.ErrorPayload{EdgeID: edgeID, Kind: kind, Attempt: attempt, Detail: err.Error()})
	s.log.Error("edge aborted", "edgeId", edgeID, "kind", kind, "attempt", attempt, "err", err)
	return ExitError, true, err
}

// handleDispatchError classifies a final (post-retry) agent runtime
// failure. A Malformed response that exhausted its repair attempts is
// treated as a SchemaViolation per spec.md §7; everything else is a
// fatal generic error for this iteration.
func (s *Supervisor) handleDispatchError(edge ontology.Edge, attempt int, err error) (int, bool, error) {
	kind := "Transport"
	if derr, ok := err.(*agentrt.DispatchError); ok {
		if derr.Kind == agentrt.KindMalformed {
			kind = "SchemaViolation"
		} else {
			kind = string(derr.Kind)
		}
	}
	return s.journalErrorAndAbort(edge.ID, kind, attempt, err)
}

func (s *Supervisor) finishCreationOrRefinement(edge ontology.Edge, payload json.RawMessage, attempt int, state engine.WorldState) (int, bool, error) {
	if err := store.ValidateAgainstSchema(edge.Target, payload); err != nil {
		return s.journalErrorAndAbort(edge.ID, "SchemaViolation", attempt, err)
	}

	retryCount := state.Instances[edge.Target.ID].RetryCount
	if edge.Verb.VerbType == ontology.VerbRefinement {
		retryCount++
	}

	if _, err := s.Store.PersistArtifact(s.IterationID, edge.Target, payload, edge.ID, retryCount); err != nil {
		return s.journalErrorAndAbort(edge.ID, "SchemaViolation", attempt, err)
	}

	if _, err := s.Store.Append(s.IterationID, store.EventArtifactPersisted, store.ArtifactPersistedPayload{
		ArtifactTypeID:   edge.Target.ID,
		Payload:          payload,
		ProducedByEdgeID: edge.ID,
		RetryCount:       retryCount,
	}); err != nil {
		return ExitError, true, err
	}

	if edge.Verb.VerbType == ontology.VerbRefinement {
		if _, err := s.Store.Append(s.IterationID, store.EventRefinementRun, store.ArtifactPersistedPayload{
			ArtifactTypeID:   edge.Target.ID,
			ProducedByEdgeID: edge.ID,
			RetryCount:       retryCount,
		}); err != nil {
			return ExitError, true, err
		}
	}

	s.log.Info("artifact persisted", "edgeId", edge.ID, "target", edge.Target.ID, "retryCount", retryCount)
	return ExitSuccess, false, nil
}

type verificationResult struct {
	Kind     string  `json:"kind"`
	Score    float64 `json:"score"`
	Feedback string  `json:"feedback"`
	TargetID string  `json:"target_id"`
}

func (s *Supervisor) finishVerification(edge ontology.Edge, payload json.RawMessage, attempt int, state engine.WorldState) (int, bool, error) {
	var result verificationResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return s.journalErrorAndAbort(edge.ID, "SchemaViolation", attempt, fmt.Errorf("verification response: %w", err))
	}
	if result.Score < 0 || result.Score > 1 {
		return s.journalErrorAndAbort(edge.ID, "SchemaViolation", attempt, fmt.Errorf("verification score %v out of [0,1]", result.Score))
	}

	threshold := engine.Threshold(edge)
	passed := result.Score >= threshold

	if err := s.Store.RecordQualityScore(s.IterationID, edge.Target.ID, result.Score); err != nil {
		return ExitError, true, err
	}
	if _, err := s.Store.Append(s.IterationID, store.EventVerified, store.VerifiedPayload{
		ArtifactTypeID: edge.Target.ID,
		EdgeID:         edge.ID,
		Score:          result.Score,
		Passed:         passed,
		Feedback:       result.Feedback,
	}); err != nil {
		return ExitError, true, err
	}

	s.log.Info("verified", "edgeId", edge.ID, "target", edge.Target.ID, "score", result.Score, "threshold", threshold, "passed", passed)
	if passed {
		return ExitSuccess, false, nil
	}

	refinement, ok := engine.RefinementFor(s.Graph, edge.Target.ID)
	retryCount := state.Instances[edge.Target.ID].RetryCount
	if ok && engine.BudgetRemaining(refinement, retryCount) {
		// Refinement has budget; the next Plan() call selects it.
		return ExitSuccess, false, nil
	}

	if _, err := s.Store.Append(s.IterationID, store.EventQualityBelowThresh, store.QualityBelowThresholdPayload{
		ArtifactTypeID: edge.Target.ID,
		Score:          result.Score,
		Threshold:      threshold,
	}); err != nil {
		return ExitError, true, err
	}
	s.log.Warn("quality below threshold, no refinement budget remains", "target", edge.Target.ID, "score", result.Score, "threshold", threshold)
	return ExitQualityFailed, true, nil
}
