// Package graph implements the replicated directed causal graph: which
// records cause, support, or contradict which others, with a numeric
// strength per edge.
//
// Edges live in an observed-remove set (add-wins under concurrency) and
// strengths in per-edge max-wins registers, so the graph merges exactly
// like any other replicated structure. Acyclicity is NOT a merge
// invariant: two replicas can each add an edge that is locally fine and
// jointly cyclic. AddEdge's local cycle check is therefore advisory only;
// the guarantee comes from the repair pass that runs after every merge and
// deterministically removes the weakest edge of each cycle, so every
// replica repairs to the identical acyclic graph no matter which of them
// discovers the cycle first.
package graph
