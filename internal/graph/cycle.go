package graph

import "slices"

// Cycle detection and repair over the present edge set.
//
// Repair must be deterministic: after the same merge, every replica runs
// the same pass and tombstones the same edges, or replicas diverge. That
// determinism comes from three rules:
//   - nodes are visited in sorted order
//   - each node's outgoing edges are walked in sorted order
//   - the removed edge is the weakest in the cycle, ties broken by the
//     lexicographically smallest (source, target, relation)

// WouldCreateCycle reports whether inserting the candidate edge would
// close a cycle in the graph as this replica currently sees it: a pure
// reachability check from candidate.Target back to candidate.Source.
//
// This is a local heuristic only. A peer can concurrently insert the
// reverse path, so correctness after merge rests on ResolveCycles, never
// on this check.
func (g *CausalGraph) WouldCreateCycle(candidate Edge) bool {
	adj := g.adjacency()
	visited := make(map[string]bool)
	stack := []string{candidate.Target}

	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if node == candidate.Source {
			return true
		}
		if visited[node] {
			continue
		}
		visited[node] = true
		for _, e := range adj[node] {
			stack = append(stack, e.Target)
		}
	}
	return false
}

// ResolveCycles removes edges until the graph is acyclic: each discovered
// cycle loses its weakest edge. Returns the removed edges in removal
// order. Terminates for any finite edge set because every iteration
// removes one edge.
func (g *CausalGraph) ResolveCycles() []Edge {
	var removed []Edge
	for {
		cycle := g.findCycle()
		if cycle == nil {
			return removed
		}
		weakest := g.weakestEdge(cycle)
		g.RemoveEdge(weakest.Source, weakest.Target, weakest.Relation)
		removed = append(removed, weakest)
	}
}

// weakestEdge picks the cycle edge with the lowest strength, breaking ties
// by the smallest (source, target, relation).
func (g *CausalGraph) weakestEdge(cycle []Edge) Edge {
	weakest := cycle[0]
	for _, e := range cycle[1:] {
		es, ws := g.strengthOf(e), g.strengthOf(weakest)
		if es < ws || (es == ws && e.Compare(weakest) < 0) {
			weakest = e
		}
	}
	return weakest
}

// adjacency builds the outgoing-edge index over present edges, each list
// sorted for deterministic traversal.
func (g *CausalGraph) adjacency() map[string][]Edge {
	adj := make(map[string][]Edge)
	for _, e := range g.Edges.Elements() {
		adj[e.Source] = append(adj[e.Source], e)
	}
	for node := range adj {
		slices.SortFunc(adj[node], Edge.Compare)
	}
	return adj
}

// findCycle returns the edges of one cycle, or nil if the graph is
// acyclic. DFS with an in-stack set; the first back edge found (under the
// deterministic visit order) closes the reported cycle.
func (g *CausalGraph) findCycle() []Edge {
	adj := g.adjacency()
	visited := make(map[string]bool)
	inStack := make(map[string]bool)

	for _, start := range g.Nodes() {
		if visited[start] {
			continue
		}
		if cycle := dfsFindCycle(start, adj, visited, inStack, nil); cycle != nil {
			return cycle
		}
	}
	return nil
}

// dfsFindCycle walks from node, carrying the current path of edges.
// Returns the cycle's edges when a back edge into the active stack is hit.
func dfsFindCycle(node string, adj map[string][]Edge, visited, inStack map[string]bool, path []Edge) []Edge {
	visited[node] = true
	inStack[node] = true

	for _, e := range adj[node] {
		if !visited[e.Target] {
			if cycle := dfsFindCycle(e.Target, adj, visited, inStack, append(path, e)); cycle != nil {
				return cycle
			}
			continue
		}
		if inStack[e.Target] {
			// Back edge: the cycle is the path suffix from e.Target, plus e.
			var cycle []Edge
			collecting := false
			for _, pe := range path {
				if pe.Source == e.Target {
					collecting = true
				}
				if collecting {
					cycle = append(cycle, pe)
				}
			}
			return append(cycle, e)
		}
	}

	inStack[node] = false
	return nil
}
