package engine

import "github.com/dpopsuev/icl/pkg/ontology"

// Threshold computes the quality threshold an edge's Verification result
// is checked against, per spec.md §4.6's derivation order: (a) the edge's
// loop.passThreshold if set, (b) the target kind's quality-metric list
// (averaged, normalized from the ontology's 0..100 scale to 0..1) if
// present, else (c) 1.0.
func Threshold(e ontology.Edge) float64 {
	if e.Loop != nil && e.Loop.PassThreshold > 0 {
		return e.Loop.PassThreshold
	}
	if metrics := e.Target.QualityMetrics; len(metrics) > 0 {
		var sum float64
		for _, m := range metrics {
			sum += m.Target
		}
		return sum / float64(len(metrics)) / 100
	}
	return 1.0
}

// RefinementFor returns the Refinement edge targeting kindID, if any. The
// Quality/Retry Controller (C6) consults this after a below-threshold
// Verification to decide whether a Refinement exists to loop into.
func RefinementFor(g *ontology.Graph, kindID string) (ontology.Edge, bool) {
	for _, e := range g.EdgesTo(kindID) {
		if e.Verb.VerbType == ontology.VerbRefinement {
			return e, true
		}
	}
	return ontology.Edge{}, false
}

// BudgetRemaining reports whether a Refinement edge still has retries left
// given the target's current retry count.
func BudgetRemaining(e ontology.Edge, retryCount int) bool {
	return e.Loop != nil && retryCount < e.Loop.MaxRetries
}
