package engine

import "github.com/dpopsuev/icl/pkg/ontology"

// ActionKind discriminates the three shapes of Plan's result.
type ActionKind string

const (
	// ActionFire means Edge should be dispatched next.
	ActionFire ActionKind = "fire"
	// ActionDone means every non-Agent kind is verified (or produced, for
	// kinds with no Verification edge); the iteration is complete.
	ActionDone ActionKind = "done"
	// ActionDeadlock means the candidate set is empty but completion does
	// not hold; Unreachable names the kinds that can never be produced.
	ActionDeadlock ActionKind = "deadlock"
)

// Action is Plan's result: exactly one of Fire, Done, Deadlock applies,
// discriminated by Kind.
type Action struct {
	Kind        ActionKind
	Edge        ontology.Edge // set when Kind == ActionFire
	Unreachable []string      // set when Kind == ActionDeadlock, sorted
}
