package engine

import (
	"sort"

	"github.com/dpopsuev/icl/pkg/ontology"
)

// verbTypeOrder ranks verb types for tie-break (iii): Creation before
// Verification before Refinement when the same target is eligible.
var verbTypeOrder = map[ontology.VerbType]int{
	ontology.VerbCreation:     0,
	ontology.VerbVerification: 1,
	ontology.VerbRefinement:   2,
}

// Plan is the Scheduler (C2): a pure function from (graph, world-state) to
// the next action. It never mutates g or state, and identical inputs yield
// identical outputs (testable properties 1-2 in spec.md §8).
func Plan(g *ontology.Graph, state WorldState) Action {
	if completionHolds(g, state) {
		return Action{Kind: ActionDone}
	}

	candidates := candidateEdges(g, state)
	if len(candidates) > 0 {
		return Action{Kind: ActionFire, Edge: pickWinner(g, candidates)}
	}

	return Action{Kind: ActionDeadlock, Unreachable: unreachableKinds(g, producibleKinds(g))}
}

// producibleKinds computes the fixed point of artifact kinds that could
// ever be produced under g, independent of the current world-state: the
// root, plus every non-Agent kind with a Creation edge whose Dependency
// prerequisites are themselves producible.
func producibleKinds(g *ontology.Graph) map[string]bool {
	producible := map[string]bool{g.Root(): true}
	for {
		changed := false
		for _, kind := range g.ArtifactTypes() {
			if kind.Category == ontology.CategoryAgent || producible[kind.ID] {
				continue
			}
			if kindIsProducible(g, kind.ID, producible) {
				producible[kind.ID] = true
				changed = true
			}
		}
		if !changed {
			return producible
		}
	}
}

func kindIsProducible(g *ontology.Graph, kindID string, producible map[string]bool) bool {
	hasCreation := false
	for _, e := range g.EdgesTo(kindID) {
		if e.Verb.VerbType == ontology.VerbCreation {
			hasCreation = true
			break
		}
	}
	if !hasCreation {
		return false
	}
	for _, e := range g.EdgesTo(kindID) {
		if e.Verb.VerbType != ontology.VerbDependency {
			continue
		}
		if !producible[e.Source.ID] {
			return false
		}
	}
	return true
}

// unreachableKinds returns the sorted, non-Agent kinds that producibleKinds
// could never mark producible — the Unreachable set reported on Deadlock.
func unreachableKinds(g *ontology.Graph, producible map[string]bool) []string {
	var out []string
	for _, kind := range g.ArtifactTypes() {
		if kind.Category == ontology.CategoryAgent {
			continue
		}
		if !producible[kind.ID] {
			out = append(out, kind.ID)
		}
	}
	sort.Strings(out)
	return out
}

// completionHolds implements spec.md §4.2 rule 4: every non-Agent kind is
// verified (if any Verification edge targets it) or produced (otherwise).
// Unlike unreachableKinds, this does not filter by producibility — a kind
// the graph can never actually produce keeps completion false forever,
// which is exactly what drives the empty-candidate-set branch into
// Deadlock instead of a false Done.
func completionHolds(g *ontology.Graph, state WorldState) bool {
	for _, kind := range g.ArtifactTypes() {
		if kind.Category == ontology.CategoryAgent {
			continue
		}
		if hasVerificationEdge(g, kind.ID) {
			if !state.Verified[kind.ID] {
				return false
			}
		} else if !state.Produced[kind.ID] {
			return false
		}
	}
	return true
}

func hasVerificationEdge(g *ontology.Graph, kindID string) bool {
	for _, e := range g.EdgesTo(kindID) {
		if e.Verb.VerbType == ontology.VerbVerification {
			return true
		}
	}
	return false
}

// candidateEdges implements spec.md §4.2 rules 1-2: edges whose source is
// an Agent (true of every Creation/Verification/Refinement edge, enforced
// at load time) and whose target's Dependency prerequisites are satisfied,
// filtered to those whose verbType firing predicate currently holds.
func candidateEdges(g *ontology.Graph, state WorldState) []ontology.Edge {
	var out []ontology.Edge
	for _, e := range g.Edges() {
		switch e.Verb.VerbType {
		case ontology.VerbCreation, ontology.VerbVerification, ontology.VerbRefinement:
		default:
			continue
		}
		if !dependencySatisfied(g, e.Target.ID, state) {
			continue
		}
		if fires(g, e, state) {
			out = append(out, e)
		}
	}
	return out
}

func dependencySatisfied(g *ontology.Graph, targetID string, state WorldState) bool {
	for _, e := range g.EdgesTo(targetID) {
		if e.Verb.VerbType != ontology.VerbDependency {
			continue
		}
		if !state.Produced[e.Source.ID] {
			return false
		}
	}
	return true
}

func fires(g *ontology.Graph, e ontology.Edge, state WorldState) bool {
	switch e.Verb.VerbType {
	case ontology.VerbCreation:
		return !state.Produced[e.Target.ID]
	case ontology.VerbVerification:
		if !state.Produced[e.Target.ID] || state.Verified[e.Target.ID] {
			return false
		}
		// A target already scored below threshold by a prior Verification
		// run, with an eligible Refinement still holding budget, must route
		// to that Refinement instead of re-firing Verification against the
		// same unchanged instance (spec.md §4.6): Refinement is the sole
		// candidate for T until a new instance resets its pending score.
		return !refinementPending(g, e.Target.ID, state)
	case ontology.VerbRefinement:
		return refinementFires(e, state)
	default:
		return false
	}
}

// refinementFires reports whether Refinement edge e is currently eligible:
// target produced, carrying a recorded instance whose quality score is
// below e's threshold, with retry budget remaining. A target that has
// never been scored (no InstanceInfo entry yet) is never Refinement-
// eligible — only a recorded Verification result can make it so.
func refinementFires(e ontology.Edge, state WorldState) bool {
	if !state.Produced[e.Target.ID] {
		return false
	}
	info, ok := state.Instances[e.Target.ID]
	if !ok {
		return false
	}
	return info.QualityScore < Threshold(e) && info.RetryCount < maxRetries(e)
}

// refinementPending reports whether some Refinement edge targeting kindID
// is currently eligible per refinementFires — used to gate Verification
// eligibility for the same kind.
func refinementPending(g *ontology.Graph, kindID string, state WorldState) bool {
	for _, e := range g.EdgesTo(kindID) {
		if e.Verb.VerbType == ontology.VerbRefinement && refinementFires(e, state) {
			return true
		}
	}
	return false
}

func maxRetries(e ontology.Edge) int {
	if e.Loop != nil {
		return e.Loop.MaxRetries
	}
	return 0
}

// pickWinner applies spec.md §4.2's three tie-break rules in order: (i)
// lower BFS distance from the root via Dependency edges, (ii)/(iii) among
// edges tied on distance, an edge targeting the same kind as another is
// ordered Creation < Verification < Refinement; edges that don't share a
// target fall back to lexical order of edge.ID ("sourceKind/verbId/
// targetKind"), which is itself unique per edge.
func pickWinner(g *ontology.Graph, candidates []ontology.Edge) ontology.Edge {
	dist := bfsDistances(g, g.Root())

	best := candidates[0]
	bestDist := distanceOf(dist, best.Target.ID)
	for _, e := range candidates[1:] {
		d := distanceOf(dist, e.Target.ID)
		switch {
		case d < bestDist:
			best, bestDist = e, d
		case d == bestDist && less(e, best):
			best = e
		}
	}
	return best
}

func bfsDistances(g *ontology.Graph, root string) map[string]int {
	dist := map[string]int{root: 0}
	queue := []string{root}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, e := range g.EdgesFrom(cur) {
			if e.Verb.VerbType != ontology.VerbDependency {
				continue
			}
			if _, seen := dist[e.Target.ID]; !seen {
				dist[e.Target.ID] = dist[cur] + 1
				queue = append(queue, e.Target.ID)
			}
		}
	}
	return dist
}

// unreachableDistance sorts edges targeting a kind the BFS never reached
// after every edge that does have a known distance.
const unreachableDistance = int(^uint(0) >> 1)

func distanceOf(dist map[string]int, id string) int {
	if d, ok := dist[id]; ok {
		return d
	}
	return unreachableDistance
}

func less(a, b ontology.Edge) bool {
	if a.Target.ID == b.Target.ID {
		ao, bo := verbTypeOrder[a.Verb.VerbType], verbTypeOrder[b.Verb.VerbType]
		if ao != bo {
			return ao < bo
		}
	}
	return a.ID < b.ID
}
