package graph

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"github.com/cortexmem/cortex/internal/crdt"
)

// Relation kinds between records. The set is open; these are the ones the
// surrounding system writes today.
const (
	RelationCauses      = "causes"
	RelationDerivedFrom = "derived_from"
	RelationSupports    = "supports"
	RelationContradicts = "contradicts"
)

// Edge is a directed causal relationship between two records.
type Edge struct {
	// Source and Target are record identifiers.
	Source string
	Target string

	// Relation is the relationship kind.
	Relation string
}

// Compare orders edges by (Source, Target, Relation). This ordering is
// load-bearing: cycle repair uses it to break strength ties identically on
// every replica.
func (e Edge) Compare(other Edge) int {
	if c := cmp.Compare(e.Source, other.Source); c != 0 {
		return c
	}
	if c := cmp.Compare(e.Target, other.Target); c != 0 {
		return c
	}
	return cmp.Compare(e.Relation, other.Relation)
}

// String renders the edge as "source -[relation]-> target".
func (e Edge) String() string {
	return fmt.Sprintf("%s -[%s]-> %s", e.Source, e.Relation, e.Target)
}

// EdgeError signals a rejected local edge insertion.
type EdgeError struct {
	// Code identifies the rejection category.
	Code EdgeErrorCode

	// Edge is the rejected edge.
	Edge Edge
}

// EdgeErrorCode categorizes edge insertion errors.
type EdgeErrorCode string

const (
	// ErrCodeSelfLoop indicates source == target.
	ErrCodeSelfLoop EdgeErrorCode = "SELF_LOOP"

	// ErrCodeLocalCycle indicates the edge would close a cycle visible on
	// this replica. Advisory: merges can still introduce cycles, which
	// repair handles.
	ErrCodeLocalCycle EdgeErrorCode = "LOCAL_CYCLE"
)

// Error implements the error interface.
func (e *EdgeError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Edge)
}

// IsEdgeError reports whether err is an EdgeError. Uses errors.As to
// handle wrapped errors.
func IsEdgeError(err error) bool {
	var ee *EdgeError
	return errors.As(err, &ee)
}

// CausalGraph is one replica of the shared causal relationship graph.
type CausalGraph struct {
	// LocalAgent is the identity this replica mutates as.
	LocalAgent string

	// Edges holds the directed edges with add-wins semantics.
	Edges *crdt.ORSet[Edge]

	// Strengths maps each edge to its max-wins strength in [0, 1].
	Strengths map[Edge]crdt.MaxRegister[float64]

	// Seqs issues unique add-tags for the local agent.
	Seqs crdt.TagSequence
}

// New creates an empty graph replica owned by agent.
func New(agent string) *CausalGraph {
	return &CausalGraph{
		LocalAgent: agent,
		Edges:      crdt.NewORSet[Edge](),
		Strengths:  make(map[Edge]crdt.MaxRegister[float64]),
		Seqs:       crdt.NewTagSequence(),
	}
}

// AddEdge inserts a directed edge with the given strength (clamped to
// [0, 1]).
//
// Self-loops are rejected outright. Edges that would close a cycle visible
// on this replica are rejected too, but that check is a local heuristic:
// a concurrent peer may add the reverse path, and only post-merge repair
// restores acyclicity then.
func (g *CausalGraph) AddEdge(source, target, relation string, strength float64) error {
	edge := Edge{Source: source, Target: target, Relation: relation}
	if source == target {
		return &EdgeError{Code: ErrCodeSelfLoop, Edge: edge}
	}
	if g.WouldCreateCycle(edge) {
		return &EdgeError{Code: ErrCodeLocalCycle, Edge: edge}
	}

	g.Edges.Add(edge, g.Seqs.Next(g.LocalAgent))

	// The zero-value register reads as strength 0, so a first insertion and
	// a strengthening re-insertion take the same path.
	reg := g.Strengths[edge]
	reg.Set(clamp01(strength))
	g.Strengths[edge] = reg
	return nil
}

// RemoveEdge tombstones every locally observed add of the edge. The
// strength register is retained: a concurrent re-add must not restart from
// zero strength.
func (g *CausalGraph) RemoveEdge(source, target, relation string) {
	g.Edges.Remove(Edge{Source: source, Target: target, Relation: relation})
}

// UpdateStrength strengthens an edge; weaker values are silently ignored.
func (g *CausalGraph) UpdateStrength(source, target, relation string, strength float64) {
	edge := Edge{Source: source, Target: target, Relation: relation}
	if reg, ok := g.Strengths[edge]; ok {
		reg.Set(clamp01(strength))
		g.Strengths[edge] = reg
	}
}

// Strength returns the strength of an edge and whether it is known.
func (g *CausalGraph) Strength(source, target, relation string) (float64, bool) {
	reg, ok := g.Strengths[Edge{Source: source, Target: target, Relation: relation}]
	if !ok {
		return 0, false
	}
	return reg.Get(), true
}

// Contains reports whether the edge is present (added and not removed).
func (g *CausalGraph) Contains(source, target, relation string) bool {
	return g.Edges.Contains(Edge{Source: source, Target: target, Relation: relation})
}

// EdgeList returns the present edges sorted by (Source, Target, Relation).
func (g *CausalGraph) EdgeList() []Edge {
	edges := g.Edges.Elements()
	slices.SortFunc(edges, Edge.Compare)
	return edges
}

// EdgeCount returns the number of present edges.
func (g *CausalGraph) EdgeCount() int {
	return g.Edges.Len()
}

// Nodes returns every record id appearing as an endpoint of a present
// edge, sorted.
func (g *CausalGraph) Nodes() []string {
	seen := make(map[string]bool)
	var nodes []string
	for _, e := range g.Edges.Elements() {
		if !seen[e.Source] {
			seen[e.Source] = true
			nodes = append(nodes, e.Source)
		}
		if !seen[e.Target] {
			seen[e.Target] = true
			nodes = append(nodes, e.Target)
		}
	}
	slices.Sort(nodes)
	return nodes
}

// Merge folds another graph replica into this one - edge set union,
// per-edge strength maximum - and immediately repairs any cycles the union
// introduced. Returns the edges removed by repair, in removal order.
func (g *CausalGraph) Merge(other *CausalGraph) []Edge {
	if other == nil {
		return nil
	}
	g.Edges.Merge(other.Edges)
	for edge, otherReg := range other.Strengths {
		reg, ok := g.Strengths[edge]
		if !ok {
			g.Strengths[edge] = otherReg
			continue
		}
		reg.Merge(otherReg)
		g.Strengths[edge] = reg
	}
	g.Seqs.Merge(other.Seqs)
	return g.ResolveCycles()
}

// strengthOf returns the edge's strength, defaulting to zero for edges
// with no register (a peer added the edge without one).
func (g *CausalGraph) strengthOf(edge Edge) float64 {
	reg, ok := g.Strengths[edge]
	if !ok {
		return 0
	}
	return reg.Get()
}

// Equal reports whether two replicas hold identical edge and strength
// state.
func (g *CausalGraph) Equal(other *CausalGraph) bool {
	if !g.Edges.Equal(other.Edges) {
		return false
	}
	if len(g.Strengths) != len(other.Strengths) {
		return false
	}
	for edge, reg := range g.Strengths {
		otherReg, ok := other.Strengths[edge]
		if !ok || !reg.Equal(otherReg) {
			return false
		}
	}
	return true
}

// Clone returns an independent deep copy of the replica.
func (g *CausalGraph) Clone() *CausalGraph {
	out := New(g.LocalAgent)
	out.Edges.Merge(g.Edges)
	for edge, reg := range g.Strengths {
		out.Strengths[edge] = reg
	}
	out.Seqs.Merge(g.Seqs)
	return out
}

// Rebind returns a clone owned by a different local agent.
func (g *CausalGraph) Rebind(agent string) *CausalGraph {
	out := g.Clone()
	out.LocalAgent = agent
	return out
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
