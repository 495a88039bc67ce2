// Package engine implements the pure-function execution planner (C2) and
// the quality/retry threshold logic (C6) that decides, given an ontology
// graph and the current world-state, which edge fires next.
package engine

// InstanceInfo is the subset of an artifact instance's bookkeeping the
// Scheduler needs to evaluate Refinement firing predicates: the latest
// quality score, how many refinement attempts have already run against
// it, and the feedback text its most recent Verification reported (fed
// back into a Refinement edge's prompt). The Scheduler never reads
// artifact payloads.
type InstanceInfo struct {
	QualityScore float64
	RetryCount   int
	Feedback     string
}

// WorldState is the projection the Scheduler reasons over: which artifact
// kinds have a current instance, which of those have additionally passed a
// Verification edge, and per-kind instance bookkeeping for Refinement.
// Callers (internal/store) derive WorldState from the journal; the
// Scheduler itself never mutates it.
type WorldState struct {
	Produced  map[string]bool
	Verified  map[string]bool
	Instances map[string]InstanceInfo
}

// NewWorldState returns a WorldState seeded with the root kind in Produced,
// per spec.md §3 ("Seeded with {SoftwareApplication} ∈ produced").
func NewWorldState(rootKind string) WorldState {
	return WorldState{
		Produced:  map[string]bool{rootKind: true},
		Verified:  map[string]bool{},
		Instances: map[string]InstanceInfo{},
	}
}

// Clone returns a deep copy so callers can apply a hypothetical transition
// without mutating the original. Nothing in this module calls it; the
// Scheduler itself never needs it.
func (w WorldState) Clone() WorldState {
	out := WorldState{
		Produced:  make(map[string]bool, len(w.Produced)),
		Verified:  make(map[string]bool, len(w.Verified)),
		Instances: make(map[string]InstanceInfo, len(w.Instances)),
	}
	for k, v := range w.Produced {
		out.Produced[k] = v
	}
	for k, v := range w.Verified {
		out.Verified[k] = v
	}
	for k, v := range w.Instances {
		out.Instances[k] = v
	}
	return out
}
