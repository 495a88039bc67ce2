package ontology

// tarjanSCC finds strongly connected components of the directed graph
// described by adjacency (node id -> ids it points to). Returns the SCCs in
// the order their roots completed (reverse topological order of the
// condensation). Any SCC of size > 1 (a cycle), or
// a single node with a self-edge, indicates a cycle.
//
// Grounded on the same "build an index, walk it, wrap a sentinel error on
// failure" shape the rest of this package uses for graph-integrity checks.
func tarjanSCC(nodes []string, adjacency map[string][]string) [][]string {
	index := 0
	stack := make([]string, 0, len(nodes))
	onStack := make(map[string]bool, len(nodes))
	indices := make(map[string]int, len(nodes))
	lowlink := make(map[string]int, len(nodes))
	var sccs [][]string

	var strongconnect func(v string)
	strongconnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range adjacency[v] {
			if _, seen := indices[w]; !seen {
				strongconnect(w)
				if lowlink[w] < lowlink[v] {
					lowlink[v] = lowlink[w]
				}
			} else if onStack[w] {
				if indices[w] < lowlink[v] {
					lowlink[v] = indices[w]
				}
			}
		}

		if lowlink[v] == indices[v] {
			var scc []string
			for {
				n := len(stack) - 1
				w := stack[n]
				stack = stack[:n]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	for _, v := range nodes {
		if _, seen := indices[v]; !seen {
			strongconnect(v)
		}
	}

	return sccs
}

// checkDependencyAcyclic builds the Dependency subgraph (target requires
// source: an edge "source -Dependency-> target" contributes an arc
// target -> source, since target depends on source) and returns a
// CyclicError if any SCC has size > 1, or a node depends on itself.
func checkDependencyAcyclic(g *Graph) error {
	nodes := make([]string, 0, len(g.artifactTypes))
	for id := range g.artifactTypes {
		nodes = append(nodes, id)
	}

	adjacency := make(map[string][]string)
	selfEdges := map[string]bool{}
	for _, e := range g.edges {
		if e.Verb.VerbType != VerbDependency {
			continue
		}
		if e.Source.ID == e.Target.ID {
			selfEdges[e.Source.ID] = true
		}
		adjacency[e.Target.ID] = append(adjacency[e.Target.ID], e.Source.ID)
	}

	for id := range selfEdges {
		return &CyclicError{Cycle: []string{id, id}}
	}

	for _, scc := range tarjanSCC(nodes, adjacency) {
		if len(scc) > 1 {
			return &CyclicError{Cycle: scc}
		}
	}

	return nil
}
