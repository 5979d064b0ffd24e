package harness

import (
	"bytes"
	"fmt"
	"slices"

	"github.com/cortexmem/cortex/internal/codec"
	"github.com/cortexmem/cortex/internal/graph"
	"github.com/cortexmem/cortex/internal/record"
)

// AssertionError reports a failed scenario assertion.
type AssertionError struct {
	Index   int
	Type    string
	Message string
}

func (e *AssertionError) Error() string {
	return fmt.Sprintf("assertion %d (%s): %s", e.Index, e.Type, e.Message)
}

// Verify evaluates every assertion against the result. The first failure
// is returned; nil means all assertions held.
func Verify(result *Result) error {
	for i, a := range result.Scenario.Assertions {
		if err := verifyOne(result, i, a); err != nil {
			return err
		}
	}
	return nil
}

func verifyOne(result *Result, index int, a Assertion) error {
	fail := func(format string, args ...any) error {
		return &AssertionError{Index: index, Type: a.Type, Message: fmt.Sprintf(format, args...)}
	}

	switch a.Type {
	case AssertConverged:
		return verifyConverged(result, fail)
	case AssertAcyclic:
		g := result.graphFor(a.Agent)
		if removed := g.Clone().ResolveCycles(); len(removed) > 0 {
			return fail("graph still contains a cycle through %v", removed)
		}
		return nil
	case AssertEdge:
		g := result.graphFor(a.Agent)
		present := g.Contains(a.Source, a.Target, a.Relation)
		if present != a.Bool {
			return fail("edge %s -[%s]-> %s: present=%v, want %v",
				a.Source, a.Relation, a.Target, present, a.Bool)
		}
		if present && a.Number != 0 {
			if s, _ := g.Strength(a.Source, a.Target, a.Relation); s != a.Number {
				return fail("edge strength %v, want %v", s, a.Number)
			}
		}
		return nil
	case AssertEdgeCount:
		g := result.graphFor(a.Agent)
		if int64(g.EdgeCount()) != a.Count {
			return fail("edge count %d, want %d", g.EdgeCount(), a.Count)
		}
		return nil
	}

	snap := result.recordFor(a.Agent).Snapshot()
	switch a.Type {
	case AssertSummary:
		if snap.Summary != a.Value {
			return fail("summary %q, want %q", snap.Summary, a.Value)
		}
	case AssertContent:
		values := result.recordFor(a.Agent).Content.Values()
		if !slices.Equal(values, sorted(a.Values)) {
			return fail("content values %v, want %v", values, a.Values)
		}
	case AssertConflicted:
		if snap.Conflicted != a.Bool {
			return fail("conflicted=%v, want %v", snap.Conflicted, a.Bool)
		}
	case AssertImportance:
		if string(snap.Importance) != a.Value {
			return fail("importance %q, want %q", snap.Importance, a.Value)
		}
	case AssertArchived:
		if snap.Archived != a.Bool {
			return fail("archived=%v, want %v", snap.Archived, a.Bool)
		}
	case AssertConfidence:
		if snap.Confidence != a.Number {
			return fail("confidence %v, want %v", snap.Confidence, a.Number)
		}
	case AssertAccessCount:
		if snap.AccessCount != a.Count {
			return fail("access count %d, want %d", snap.AccessCount, a.Count)
		}
	case AssertTags:
		if !slices.Equal(sorted(snap.Tags), sorted(a.Values)) {
			return fail("tags %v, want %v", snap.Tags, a.Values)
		}
	case AssertLinkedContexts:
		if !slices.Equal(sorted(snap.LinkedContexts), sorted(a.Values)) {
			return fail("linked contexts %v, want %v", snap.LinkedContexts, a.Values)
		}
	case AssertLinkedFiles:
		if !slices.Equal(sorted(snap.LinkedFiles), sorted(a.Values)) {
			return fail("linked files %v, want %v", snap.LinkedFiles, a.Values)
		}
	default:
		return fail("unknown assertion type")
	}
	return nil
}

// verifyConverged compares canonical encodings across replicas. Replicas
// are rebound to a shared observer identity first so the per-replica
// local agent does not mask true state equality.
func verifyConverged(result *Result, fail func(string, ...any) error) error {
	var reference []byte
	var refAgent string

	for _, agent := range result.Scenario.Agents {
		encoded, err := result.canonical(agent)
		if err != nil {
			return fail("encoding replica %s: %v", agent, err)
		}
		if reference == nil {
			reference, refAgent = encoded, agent
			continue
		}
		if !bytes.Equal(reference, encoded) {
			return fail("replicas %s and %s diverged", refAgent, agent)
		}
	}
	return nil
}

// canonical encodes one replica's state under a neutral local agent.
func (r *Result) canonical(agent string) ([]byte, error) {
	if r.Graphs != nil {
		return codec.EncodeGraph(r.Graphs[agent].Rebind("observer"))
	}
	return codec.EncodeReplica(r.Records[agent].Rebind("observer"))
}

func (r *Result) recordFor(agent string) *record.Replicated {
	if agent == "" {
		agent = r.Scenario.Agents[0]
	}
	return r.Records[agent]
}

func (r *Result) graphFor(agent string) *graph.CausalGraph {
	if agent == "" {
		agent = r.Scenario.Agents[0]
	}
	return r.Graphs[agent]
}

// sorted copies and sorts, always returning a non-nil slice so golden
// encodings never contain null.
func sorted(values []string) []string {
	out := make([]string, len(values))
	copy(out, values)
	slices.Sort(out)
	return out
}
